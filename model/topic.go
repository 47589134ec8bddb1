package model

import "time"

// Topic is a synthetic per-document cluster node grouping canonical entities
// of the same type, created only when a document carries at least two
// entities of that type.
type Topic struct {
	ID          int64     `json:"id"`
	DocumentID  int64     `json:"document_id"`
	Name        string    `json:"name"`
	EntityType  string    `json:"entity_type"`
	EntityCount int       `json:"entity_count"`
	CreatedAt   time.Time `json:"created_at"`
}
