package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/graphling/graphrag/model"
)

const noResultsAnswer = "I couldn't find any relevant information to answer your question. " +
	"Please try rephrasing or ask about topics covered in the uploaded documents."

// Answer runs vector and graph search in parallel and composes a response
// from whatever they return. It never returns an error, failures of either
// channel degrade to an empty channel and a total failure yields a response
// with the error status, always retaining the question.
func (e *Engine) Answer(ctx context.Context, question string, config *model.QueryConfig, logger *slog.Logger) *model.Answer {
	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		wg        sync.WaitGroup
		chunks    []*model.Chunk
		entities  []*model.CanonicalEntity
		vectorErr error
		graphErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		chunks, vectorErr = e.VectorSearch(ctx, question, config)
		if vectorErr != nil {
			logger.Warn("vector search failed", slog.Any("error", vectorErr))
		}
	}()
	go func() {
		defer wg.Done()
		entities, graphErr = e.EntitySearch(ctx, question, config)
		if graphErr != nil {
			logger.Warn("entity search failed", slog.Any("error", graphErr))
		}
	}()
	wg.Wait()

	if vectorErr != nil && graphErr != nil {
		return &model.Answer{
			Question: question,
			Answer:   fmt.Sprintf("Sorry, I encountered an error processing your question: %v", vectorErr),
			Status:   model.StatusError,
		}
	}

	return &model.Answer{
		Question:  question,
		Answer:    composeAnswer(chunks, entities, config),
		Sources:   model.SourceCounts{VectorMatches: len(chunks), GraphEntities: len(entities)},
		TopChunks: topChunks(chunks, config.MaxChunks),
		Status:    model.StatusSuccess,
	}
}

// composeAnswer builds the template answer from the retrieved context.
func composeAnswer(chunks []*model.Chunk, entities []*model.CanonicalEntity, config *model.QueryConfig) string {
	if len(chunks) == 0 && len(entities) == 0 {
		return noResultsAnswer
	}

	var parts []string
	if len(chunks) > 0 {
		parts = append(parts, "Relevant information from documents:")
		for i, chunk := range chunks {
			if i >= config.MaxChunks {
				break
			}
			snippet := chunk.Content
			if len(snippet) > config.ChunkPreviewLen {
				snippet = snippet[:config.ChunkPreviewLen] + "..."
			}
			parts = append(parts, fmt.Sprintf("%d. From %s: %s", i+1, chunkSource(chunk), snippet))
		}
	}

	if len(entities) > 0 {
		names := make([]string, 0, config.MaxEntities)
		for _, entity := range entities {
			if len(names) >= config.MaxEntities {
				break
			}
			names = append(names, entity.CanonicalName)
		}
		parts = append(parts, "\nRelated entities mentioned in documents: "+strings.Join(names, ", "))
	}

	answer := "Based on the available information:\n\n" + strings.Join(parts, "\n") + "\n\n"
	answer += fmt.Sprintf("This response is based on %d document segments", len(chunks))
	if len(entities) > 0 {
		answer += fmt.Sprintf(" and %d related entities", len(entities))
	}
	answer += " from the knowledge base."

	return answer
}

// topChunks builds the provenance previews carried alongside the answer.
func topChunks(chunks []*model.Chunk, limit int) []model.ChunkRef {
	var refs []model.ChunkRef
	for i, chunk := range chunks {
		if i >= limit {
			break
		}
		content := chunk.Content
		if len(content) > 100 {
			content = content[:100]
		}
		refs = append(refs, model.ChunkRef{
			Content: content + "...",
			Source:  chunkSource(chunk),
		})
	}
	return refs
}

func chunkSource(chunk *model.Chunk) string {
	if chunk.DocumentTitle != "" {
		return chunk.DocumentTitle
	}
	return "unknown"
}
