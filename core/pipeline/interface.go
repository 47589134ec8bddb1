package pipeline

import (
	"log/slog"

	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// MentionExtractFunc extracts entity mentions from text
// Returns raw mentions with their character offsets and NER labels
type MentionExtractFunc func(text string) ([]model.Mention, error)

// Pipeline combines chunking, embedding and mention extraction into the
// document processing stage. Chunking and relation extraction are
// deterministic, embedding and mention extraction call the local models.
type Pipeline struct {
	Chunker          *Chunker
	Embedder         EmbedFunc
	MentionExtractor MentionExtractFunc // Optional
	Logger           *slog.Logger
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker *Chunker, embedder EmbedFunc, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
		Logger:   logger,
	}
}

// SetMentionExtractor sets the mention extraction function
func (p *Pipeline) SetMentionExtractor(extractor MentionExtractFunc) {
	p.MentionExtractor = extractor
}

// ProcessingResult contains the chunks of one document and the entities and
// relationships derived from them
type ProcessingResult struct {
	Chunks        []*model.Chunk
	Entities      []*model.CanonicalEntity
	Relationships []*model.Relationship
}

// Process runs a document's text through chunking, embedding, mention
// extraction, normalization and relation extraction. An embedding failure
// fails the document, a mention extraction failure only degrades it to an
// entity-free result.
func (p *Pipeline) Process(text string) (*ProcessingResult, error) {
	chunks := p.Chunker.Chunk(text)

	var allMentions []model.Mention
	for i, chunk := range chunks {
		if p.Embedder != nil {
			embedding, err := p.Embedder(chunk.Content)
			if err != nil {
				return nil, helper.NewError("embed chunk", err)
			}
			chunk.Embedding = embedding
		}

		if p.MentionExtractor != nil {
			mentions, err := p.MentionExtractor(chunk.Content)
			if err != nil {
				if p.Logger != nil {
					p.Logger.Warn("Mention extraction failed for chunk", slog.Int("chunk", i), slog.Any("error", err))
				}
				continue
			}
			for _, mention := range mentions {
				mention.ChunkIndex = i
				allMentions = append(allMentions, mention)
			}
		}
	}

	entities := NormalizeMentions(allMentions)
	relationships := ExtractRelations(chunks, entities)

	return &ProcessingResult{
		Chunks:        chunks,
		Entities:      entities,
		Relationships: relationships,
	}, nil
}
