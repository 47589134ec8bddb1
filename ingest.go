package graphrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphling/graphrag/core/pipeline"
	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
)

// minIngestChars is the minimum raw text length accepted for ingestion.
const minIngestChars = 50

// TextExtractor supplies raw text and basic metadata for a file path.
// Extraction of binary formats lives outside this module, only the returned
// text is processed here.
type TextExtractor interface {
	Extract(path string) (*model.Document, error)
}

// FileExtractor reads plain text and markdown files as-is.
type FileExtractor struct{}

func (FileExtractor) Extract(path string) (*model.Document, error) {
	return model.NewDocumentFromFile(path, "", nil)
}

// Ingest processes one file into the graph and vector store. Re-ingesting
// unchanged content addresses the same document by hash and does not
// duplicate chunks, entities or relationships.
func (s *System) Ingest(ctx context.Context, path string, tenant string, strategy model.ChunkStrategy) (*model.IngestResult, error) {
	doc, err := s.Extractor.Extract(path)
	if err != nil {
		return nil, helper.NewError("extract document", err)
	}

	return s.ingestDocument(ctx, doc, tenant, strategy)
}

// IngestText processes raw text under the given title.
func (s *System) IngestText(ctx context.Context, text string, title string, tenant string, strategy model.ChunkStrategy) (*model.IngestResult, error) {
	text = strings.TrimSpace(text)
	doc := &model.Document{
		Hash:      model.ContentHash(text),
		Title:     title,
		WordCount: len(strings.Fields(text)),
		Content:   text,
	}

	return s.ingestDocument(ctx, doc, tenant, strategy)
}

// IngestBatch processes files independently. A failing file is recorded and
// skipped, it never fails the batch.
func (s *System) IngestBatch(ctx context.Context, paths []string, tenant string, strategy model.ChunkStrategy) model.BatchResult {
	var batch model.BatchResult
	for _, path := range paths {
		result, err := s.Ingest(ctx, path, tenant, strategy)
		if err != nil {
			s.log.Warn("Skipping failed document", slog.String("path", path), slog.Any("error", err))
			batch.Errors = append(batch.Errors, model.BatchItemError{Path: path, Error: err.Error()})
			continue
		}
		batch.Results = append(batch.Results, *result)
	}
	return batch
}

// IngestDirectory ingests all text and markdown files in a directory.
func (s *System) IngestDirectory(ctx context.Context, dir string, tenant string, strategy model.ChunkStrategy) (model.BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return model.BatchResult{}, helper.NewError("read directory", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	return s.IngestBatch(ctx, paths, tenant, strategy), nil
}

func (s *System) ingestDocument(ctx context.Context, doc *model.Document, tenant string, strategy model.ChunkStrategy) (*model.IngestResult, error) {
	if s.Pipeline == nil {
		return nil, helper.NewError("ingest document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if len(doc.Content) < minIngestChars {
		return nil, helper.NewError("ingest document", fmt.Errorf("document content too short: %d characters, need at least %d", len(doc.Content), minIngestChars))
	}

	content := doc.Content
	doc.Content = ""
	doc.TenantID = tenant

	if _, err := s.Documents.UpsertDocument(doc); err != nil {
		return nil, helper.NewError("upsert document", err)
	}

	s.log.Info("Ingesting document",
		slog.String("hash", doc.Hash),
		slog.String("title", doc.Title),
		slog.String("strategy", strategy.String()))

	// Chunking strategy is a per-call choice, the embedder and extractor stay
	// those of the configured pipeline.
	processor := &pipeline.Pipeline{
		Chunker:          pipeline.NewChunker(model.DefaultChunkConfig(strategy)),
		Embedder:         s.Pipeline.Embedder,
		MentionExtractor: s.Pipeline.MentionExtractor,
		Logger:           s.log,
	}

	processed, err := processor.Process(content)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	result := &model.IngestResult{
		DocumentHash: doc.Hash,
		Title:        doc.Title,
	}

	for i, chunk := range processed.Chunks {
		chunk.DocumentID = doc.ID
		if err := s.Chunks.UpsertChunk(chunk); err != nil {
			return nil, helper.NewError(fmt.Sprintf("upsert chunk %d", i), err)
		}
		result.ChunksCreated++
	}

	// Drop stale chunks when a re-ingested document got shorter.
	if _, err := s.Chunks.DeleteChunksFromIndex(doc.ID, len(processed.Chunks)); err != nil {
		s.log.Warn("Failed to delete stale chunks", slog.String("hash", doc.Hash), slog.Any("error", err))
	}

	entityIDs := s.storeEntities(processed, tenant, result)
	s.storeRelationships(processed, entityIDs, result)
	s.storeTopics(doc, processed, entityIDs, result)

	if err := s.Documents.SetDocumentProcessed(doc, len(processed.Chunks)); err != nil {
		return nil, helper.NewError("mark document processed", err)
	}

	s.log.Info("Ingested document",
		slog.String("hash", doc.Hash),
		slog.Int("chunks", result.ChunksCreated),
		slog.Int("entities", result.EntitiesCreated),
		slog.Int("relationships", result.RelationshipsCreated))

	return result, nil
}

// storeEntities upserts the canonical entities and their mention links. A
// failing entity or mention is logged and skipped, siblings continue.
func (s *System) storeEntities(processed *pipeline.ProcessingResult, tenant string, result *model.IngestResult) map[string]int64 {
	entityIDs := make(map[string]int64, len(processed.Entities))

	for _, entity := range processed.Entities {
		if err := s.Entities.UpsertEntity(entity, tenant); err != nil {
			s.log.Warn("Failed to upsert entity", slog.String("entity", entity.CanonicalName), slog.Any("error", err))
			continue
		}
		entityIDs[entity.Key()] = entity.ID
		result.EntitiesCreated++

		for _, mention := range entity.Mentions {
			if mention.ChunkIndex < 0 || mention.ChunkIndex >= len(processed.Chunks) {
				continue
			}
			chunk := processed.Chunks[mention.ChunkIndex]
			if _, err := s.Entities.LinkMention(chunk.ID, entity.ID, mention); err != nil {
				s.log.Warn("Failed to link mention", slog.String("entity", entity.CanonicalName), slog.Any("error", err))
			}
		}

		if _, err := s.Entities.RefreshEntity(entity.ID); err != nil {
			s.log.Warn("Failed to refresh entity", slog.String("entity", entity.CanonicalName), slog.Any("error", err))
		}
	}

	return entityIDs
}

// storeRelationships resolves entity keys to ids and upserts the edges.
func (s *System) storeRelationships(processed *pipeline.ProcessingResult, entityIDs map[string]int64, result *model.IngestResult) {
	for _, rel := range processed.Relationships {
		sourceID, sourceOK := entityIDs[rel.SourceKey]
		targetID, targetOK := entityIDs[rel.TargetKey]
		if !sourceOK || !targetOK {
			continue
		}

		rel.SourceID = sourceID
		rel.TargetID = targetID
		if rel.ChunkIndex >= 0 && rel.ChunkIndex < len(processed.Chunks) {
			rel.ChunkID = processed.Chunks[rel.ChunkIndex].ID
		}

		inserted, err := s.Relationships.UpsertRelationship(rel)
		if err != nil {
			s.log.Warn("Failed to upsert relationship",
				slog.String("source", rel.SourceEntity),
				slog.String("target", rel.TargetEntity),
				slog.Any("error", err))
			continue
		}
		if inserted {
			result.RelationshipsCreated++
		}
	}
}

// storeTopics creates a topic node per (document, entity type) with at least
// two member entities.
func (s *System) storeTopics(doc *model.Document, processed *pipeline.ProcessingResult, entityIDs map[string]int64, result *model.IngestResult) {
	typeMembers := map[string][]int64{}
	var order []string
	for _, entity := range processed.Entities {
		id, ok := entityIDs[entity.Key()]
		if !ok {
			continue
		}
		if _, seen := typeMembers[entity.Type]; !seen {
			order = append(order, entity.Type)
		}
		typeMembers[entity.Type] = append(typeMembers[entity.Type], id)
	}

	title := doc.Title
	if title == "" {
		title = "Document"
	}

	for _, entityType := range order {
		members := typeMembers[entityType]
		if len(members) < 2 {
			continue
		}

		topic := &model.Topic{
			DocumentID:  doc.ID,
			Name:        fmt.Sprintf("%s - %s Topics", title, titleCase(entityType)),
			EntityType:  entityType,
			EntityCount: len(members),
		}
		if err := s.Topics.UpsertTopic(topic); err != nil {
			s.log.Warn("Failed to upsert topic", slog.String("topic", topic.Name), slog.Any("error", err))
			continue
		}

		for _, entityID := range members {
			if err := s.Topics.LinkTopicEntity(topic.ID, entityID); err != nil {
				s.log.Warn("Failed to link topic entity", slog.String("topic", topic.Name), slog.Any("error", err))
			}
		}
		result.TopicsCreated++
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
