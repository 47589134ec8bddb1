package retrieval

import (
	"context"
	"strings"

	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
)

// ChunkSearcher is the vector side of retrieval.
type ChunkSearcher interface {
	SelectChunksBySimilarity(embedding []float32, limit int, tenant *string) ([]*model.Chunk, error)
}

// EntitySearcher is the graph side of retrieval.
type EntitySearcher interface {
	SelectEntityByName(name string, tenant *string) (*model.CanonicalEntity, error)
	SelectEntitiesByTerms(terms []string, limit int, tenant *string) ([]*model.CanonicalEntity, error)
	SelectNeighborhood(entityID int64, maxDepth int) ([]model.NeighborEdge, []model.NeighborNode, error)
	SelectEntitySources(entityIDs []int64) ([]model.SourceRef, error)
}

// StatsReader provides aggregate graph counts.
type StatsReader interface {
	SelectGraphStats(tenant *string) (*model.GraphStats, error)
}

// EmbedFunc embeds a question the same way chunks were embedded at ingest.
type EmbedFunc func(text string) ([]float32, error)

// Engine runs vector and graph searches against the stores. It holds no
// per-query state.
type Engine struct {
	chunks   ChunkSearcher
	entities EntitySearcher
	stats    StatsReader
	embedder EmbedFunc
}

// NewEngine creates a retrieval engine over the given stores.
func NewEngine(chunks ChunkSearcher, entities EntitySearcher, stats StatsReader, embedder EmbedFunc) *Engine {
	return &Engine{
		chunks:   chunks,
		entities: entities,
		stats:    stats,
		embedder: embedder,
	}
}

// VectorSearch embeds the question and returns the nearest chunks.
func (e *Engine) VectorSearch(ctx context.Context, question string, config *model.QueryConfig) ([]*model.Chunk, error) {
	embedding, err := e.embedder(question)
	if err != nil {
		return nil, helper.NewError("embed question", err)
	}

	chunks, err := e.chunks.SelectChunksBySimilarity(embedding, config.TopK, config.Tenant)
	if err != nil {
		return nil, helper.NewError("similarity search", err)
	}

	return chunks, nil
}

// EntitySearch matches question terms against entity names, ranked by
// mention count. Terms of length <= 2 are dropped.
func (e *Engine) EntitySearch(ctx context.Context, question string, config *model.QueryConfig) ([]*model.CanonicalEntity, error) {
	terms := searchTerms(question)
	if len(terms) == 0 {
		return nil, nil
	}

	entities, err := e.entities.SelectEntitiesByTerms(terms, config.MaxEntities, config.Tenant)
	if err != nil {
		return nil, helper.NewError("entity search", err)
	}

	return entities, nil
}

// Neighborhood resolves an entity by name and collects its connected
// entities, the edges between them and the documents they originate from.
func (e *Engine) Neighborhood(ctx context.Context, name string, maxDepth int, tenant *string) (*model.Neighborhood, error) {
	entity, err := e.entities.SelectEntityByName(name, tenant)
	if err != nil {
		return nil, helper.NewError("resolve entity", err)
	}

	edges, nodes, err := e.entities.SelectNeighborhood(entity.ID, maxDepth)
	if err != nil {
		return nil, helper.NewError("traverse neighborhood", err)
	}

	sources, err := e.entities.SelectEntitySources([]int64{entity.ID})
	if err != nil {
		return nil, helper.NewError("collect sources", err)
	}

	return &model.Neighborhood{
		Center:  entity.CanonicalName,
		Nodes:   nodes,
		Edges:   edges,
		Sources: sources,
	}, nil
}

// Stats returns node and edge counts, optionally tenant scoped.
func (e *Engine) Stats(ctx context.Context, tenant *string) (*model.GraphStats, error) {
	stats, err := e.stats.SelectGraphStats(tenant)
	if err != nil {
		return nil, helper.NewError("graph stats", err)
	}
	return stats, nil
}

// searchTerms lowercases and splits the question, keeping terms longer than
// two characters with surrounding punctuation stripped.
func searchTerms(question string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) > 2 {
			terms = append(terms, word)
		}
	}
	return terms
}
