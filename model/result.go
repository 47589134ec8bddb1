package model

// IngestResult reports what a single document ingestion produced.
type IngestResult struct {
	DocumentHash         string `json:"document_hash"`
	Title                string `json:"title"`
	ChunksCreated        int    `json:"chunks_created"`
	EntitiesCreated      int    `json:"entities_created"`
	RelationshipsCreated int    `json:"relationships_created"`
	TopicsCreated        int    `json:"topics_created"`
}

// BatchItemError records one failed item of a batch ingestion.
type BatchItemError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BatchResult aggregates a batch ingestion. A failing item is recorded and
// skipped, it never fails the whole batch.
type BatchResult struct {
	Results []IngestResult   `json:"results"`
	Errors  []BatchItemError `json:"errors,omitempty"`
}

// Succeeded returns the number of successfully ingested items.
func (b BatchResult) Succeeded() int {
	return len(b.Results)
}

// Failed returns the number of failed items.
func (b BatchResult) Failed() int {
	return len(b.Errors)
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SourceCounts reports how much evidence each retrieval arm contributed.
type SourceCounts struct {
	VectorMatches int `json:"vector_matches"`
	GraphEntities int `json:"graph_entities"`
}

// ChunkRef is an answer provenance reference to one supporting chunk.
type ChunkRef struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Answer is the composed response to a question. Status is StatusError when
// retrieval failed, the answer text then carries the failure description.
type Answer struct {
	Question  string       `json:"question"`
	Answer    string       `json:"answer"`
	Sources   SourceCounts `json:"sources"`
	TopChunks []ChunkRef   `json:"top_chunks,omitempty"`
	Status    string       `json:"status"`
}

// GraphStats summarises the stored graph.
type GraphStats struct {
	Documents     int `json:"documents"`
	Chunks        int `json:"chunks"`
	Entities      int `json:"entities"`
	Topics        int `json:"topics"`
	Relationships int `json:"relationships"`
}

// NeighborNode is one entity inside a neighborhood.
type NeighborNode struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// NeighborEdge is one relationship inside a neighborhood.
type NeighborEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
}

// SourceRef names a document a neighborhood entity is mentioned in.
type SourceRef struct {
	Hash  string `json:"hash"`
	Title string `json:"title"`
}

// Neighborhood is the bounded-depth subgraph around one entity.
type Neighborhood struct {
	Center  string         `json:"center"`
	Nodes   []NeighborNode `json:"nodes"`
	Edges   []NeighborEdge `json:"edges"`
	Sources []SourceRef    `json:"sources"`
}
