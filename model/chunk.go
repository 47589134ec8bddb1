package model

import (
	"regexp"
	"strings"
	"time"
)

// ContentTag classifies the dominant content of a chunk.
type ContentTag string

const (
	ContentTagDataVisualization ContentTag = "data_visualization"
	ContentTagSummary           ContentTag = "summary"
	ContentTagTemporal          ContentTag = "temporal"
	ContentTagFinancial         ContentTag = "financial"
	ContentTagGeneral           ContentTag = "general"
)

// Chunk represents a bounded contiguous segment of a document's text, the
// unit of embedding and entity extraction. Its identity inside the graph is
// (document, chunk index).
type Chunk struct {
	ID            int64      `json:"id"`
	DocumentID    int64      `json:"document_id"`
	DocumentHash  string     `json:"document_hash,omitempty"`
	DocumentTitle string     `json:"document_title,omitempty"`
	ChunkIndex    int        `json:"chunk_index"`
	Content       string     `json:"content"`
	WordCount     int        `json:"word_count"`
	CharCount     int        `json:"char_count"`
	SectionTitle  string     `json:"section_title,omitempty"`
	ContentTag    ContentTag `json:"content_tag"`
	Embedding     []float32  `json:"embedding,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

var (
	markdownHeaderRegexp  = regexp.MustCompile(`^#{1,6}\s+`)
	numberedSectionRegexp = regexp.MustCompile(`^\d+\.?\s+[A-Z]`)
	isoDateRegexp         = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dollarAmountRegexp    = regexp.MustCompile(`\$\d+`)
)

// NewChunk creates a chunk for the given content and sequence index, deriving
// word/char counts, the inferred section title and the content tag.
func NewChunk(content string, index int) *Chunk {
	return &Chunk{
		ChunkIndex:   index,
		Content:      content,
		WordCount:    len(strings.Fields(content)),
		CharCount:    len(content),
		SectionTitle: InferSectionTitle(content),
		ContentTag:   ClassifyContent(content),
	}
}

// InferSectionTitle returns the first line of the chunk if it looks like a
// section heading (short and either all-caps, a markdown header or a numbered
// section start), otherwise an empty string.
func InferSectionTitle(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	firstLine := strings.TrimSpace(lines[0])

	if len(firstLine) >= 100 || firstLine == "" {
		return ""
	}
	if firstLine == strings.ToUpper(firstLine) && firstLine != strings.ToLower(firstLine) {
		return firstLine
	}
	if markdownHeaderRegexp.MatchString(firstLine) || numberedSectionRegexp.MatchString(firstLine) {
		return firstLine
	}
	return ""
}

// ClassifyContent tags a chunk by its dominant content type.
func ClassifyContent(content string) ContentTag {
	contentLower := strings.ToLower(content)

	switch {
	case containsAny(contentLower, "table", "figure", "chart", "graph"):
		return ContentTagDataVisualization
	case containsAny(contentLower, "conclusion", "summary", "abstract"):
		return ContentTagSummary
	case isoDateRegexp.MatchString(content) || strings.Contains(contentLower, "date"):
		return ContentTagTemporal
	case len(dollarAmountRegexp.FindAllString(content, -1)) > 2:
		return ContentTagFinancial
	default:
		return ContentTagGeneral
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
