package model

import "time"

// RelationType is the type of a directed relationship between two canonical
// entities.
type RelationType string

const (
	RelationWorksFor      RelationType = "WORKS_FOR"
	RelationFounded       RelationType = "FOUNDED"
	RelationLeads         RelationType = "LEADS"
	RelationPartnersWith  RelationType = "PARTNERS_WITH"
	RelationRaisedFunding RelationType = "RAISED_FUNDING"
	RelationCoFounded     RelationType = "CO_FOUNDED"
	RelationCoMentioned   RelationType = "CO_MENTIONED"
)

// Relationship is a directed, typed, confidence-scored edge between two
// canonical entities. Symmetric duplicates of the same (pair, type) collapse
// to one edge, the first-seen direction wins.
type Relationship struct {
	ID       int64 `json:"id"`
	SourceID int64 `json:"source_id,omitempty"`
	TargetID int64 `json:"target_id,omitempty"`
	// SourceKey/TargetKey and the canonical names identify the endpoints
	// between extraction and storage, before entity ids are resolved.
	SourceKey    string       `json:"-"`
	TargetKey    string       `json:"-"`
	SourceEntity string       `json:"source_entity"`
	TargetEntity string       `json:"target_entity"`
	Type         RelationType `json:"relation_type"`
	Confidence   float64      `json:"confidence"`
	Context      string       `json:"context,omitempty"`
	ChunkIndex   int          `json:"chunk_index"`
	ChunkID      int64        `json:"chunk_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
