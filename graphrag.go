package graphrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/graphling/graphrag/core/pipeline"
	"github.com/graphling/graphrag/core/retrieval"
	"github.com/graphling/graphrag/database"
	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
	loadSql "github.com/graphling/graphrag/sql"
)

// System wires the processing pipeline, the graph and vector store handlers
// and the retrieval engine into one entrypoint.
type System struct {
	DB            *helper.Database
	Documents     *database.DocumentsDBHandler
	Chunks        *database.ChunksDBHandler
	Entities      *database.EntitiesDBHandler
	Relationships *database.RelationshipsDBHandler
	Topics        *database.TopicsDBHandler
	Pipeline      *pipeline.Pipeline // Optional processing pipeline
	Engine        *retrieval.Engine  // Hybrid retrieval engine
	Extractor     TextExtractor
	// Logging
	log *slog.Logger
}

// NewSystem creates a system with all database handlers initialized.
func NewSystem(config *helper.DatabaseConfiguration, embeddingDim int) (*System, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("graphrag", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in dependency order, documents before chunks,
	// entities before relationships. force=false to not reload if functions
	// already exist.
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	topics, err := database.NewTopicsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create topics handler", err)
	}

	system := &System{
		DB:            db,
		Documents:     documents,
		Chunks:        chunks,
		Entities:      entities,
		Relationships: relationships,
		Topics:        topics,
		Extractor:     FileExtractor{},
		log:           logger,
	}
	system.Engine = retrieval.NewEngine(chunks, entities, topics, system.embedQuery)

	return system, nil
}

// Close closes the database connection
func (s *System) Close() error {
	return s.DB.Close()
}

// SetPipeline sets the processing pipeline used for ingestion and querying.
func (s *System) SetPipeline(p *pipeline.Pipeline) {
	s.Pipeline = p
}

// UseDefaultPipeline sets up the default paragraph chunking, embedding and
// NER pipeline. This uses DefaultEmbedder with the all-MiniLM-L6-v2 model
// (384 dimensions) and DefaultMentionExtractor with distilbert-NER.
func (s *System) UseDefaultPipeline() error {
	chunker := pipeline.NewChunker(model.DefaultChunkConfig(model.StrategyParagraph))

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	extractor, err := pipeline.DefaultMentionExtractor()
	if err != nil {
		return helper.NewError("create default mention extractor", err)
	}

	s.Pipeline = pipeline.NewPipeline(chunker, embedder, s.log)
	s.Pipeline.SetMentionExtractor(extractor)
	return nil
}

// embedQuery embeds question text with the pipeline's embedder, the same
// model chunks were embedded with at ingest.
func (s *System) embedQuery(text string) ([]float32, error) {
	if s.Pipeline == nil || s.Pipeline.Embedder == nil {
		return nil, fmt.Errorf("pipeline with embedder not set, use SetPipeline() first")
	}
	return s.Pipeline.Embedder(text)
}

// Answer answers a question from the stored chunks and graph. It never
// returns an error, failures yield an answer with the error status.
func (s *System) Answer(ctx context.Context, question string, config *model.QueryConfig) *model.Answer {
	return s.Engine.Answer(ctx, question, config, s.log)
}

// Stats returns node and edge counts, optionally scoped to one tenant.
func (s *System) Stats(ctx context.Context, tenant *string) (*model.GraphStats, error) {
	return s.Engine.Stats(ctx, tenant)
}

// EntityNeighborhood returns the bounded-depth subgraph around the named
// entity together with its source documents. maxDepth <= 0 uses the default
// depth of 2.
func (s *System) EntityNeighborhood(ctx context.Context, name string, maxDepth int, tenant *string) (*model.Neighborhood, error) {
	if maxDepth <= 0 {
		maxDepth = model.DefaultQueryConfig().MaxDepth
	}
	return s.Engine.Neighborhood(ctx, name, maxDepth, tenant)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (s *System) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return s.Chunks.ChangeIndexType(ctx, indexType, params)
}
