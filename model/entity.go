package model

import "time"

// Entity type labels of interest from the NER service. Mentions with any
// other label are ignored.
const (
	EntityTypePerson  = "PERSON"
	EntityTypeOrg     = "ORG"
	EntityTypeGPE     = "GPE"
	EntityTypeMoney   = "MONEY"
	EntityTypeProduct = "PRODUCT"
	EntityTypeEvent   = "EVENT"
	EntityTypeDate    = "DATE"
)

// RecognizedEntityTypes is the closed set of NER labels kept during mention
// extraction.
var RecognizedEntityTypes = map[string]bool{
	EntityTypePerson:  true,
	EntityTypeOrg:     true,
	EntityTypeGPE:     true,
	EntityTypeMoney:   true,
	EntityTypeProduct: true,
	EntityTypeEvent:   true,
	EntityTypeDate:    true,
}

// Mention is a single occurrence of an entity surface form inside one chunk.
// Mentions only live through extraction and normalization, they are persisted
// as links from chunks to canonical entities, never as nodes.
type Mention struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	StartChar  int     `json:"start_char"`
	EndChar    int     `json:"end_char"`
	ChunkIndex int     `json:"chunk_index"`
	Confidence float64 `json:"confidence"`
}

// CanonicalEntity is the deduplicated, persisted form of all mentions that
// normalize to the same (normalized name, type) key.
type CanonicalEntity struct {
	ID            int64     `json:"id"`
	CanonicalName string    `json:"canonical_name"`
	Normalized    string    `json:"normalized_name"`
	Type          string    `json:"entity_type"`
	MentionCount  int       `json:"mention_count"`
	SurfaceForms  []string  `json:"surface_forms,omitempty"`
	TenantID      string    `json:"tenant_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	// Mentions holds the group's mentions during extraction, not persisted.
	Mentions []Mention `json:"-"`
}

// Key returns the grouping key "type:normalized" identifying the entity.
func (e *CanonicalEntity) Key() string {
	return e.Type + ":" + e.Normalized
}
