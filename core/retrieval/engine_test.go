package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphling/graphrag/database"
	"github.com/graphling/graphrag/model"
)

const testEmbeddingDim = 384

// staticEmbedder always returns the same vector, so similarity ranking in
// tests depends only on the stored chunk embeddings.
func staticEmbedder(seed float32) EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, testEmbeddingDim)
		embedding[0] = seed
		embedding[1] = 1 - seed
		return embedding, nil
	}
}

func seedDocument(t *testing.T, documents *database.DocumentsDBHandler, content string, title string, tenant string) *model.Document {
	t.Helper()
	doc := &model.Document{
		Hash:     model.ContentHash(content),
		Title:    title,
		TenantID: tenant,
	}
	_, err := documents.UpsertDocument(doc)
	require.NoError(t, err)
	t.Cleanup(func() {
		documents.DeleteDocument(doc.Hash)
	})
	return doc
}

func seedChunk(t *testing.T, chunks *database.ChunksDBHandler, doc *model.Document, index int, content string, seed float32) *model.Chunk {
	t.Helper()
	chunk := model.NewChunk(content, index)
	chunk.DocumentID = doc.ID
	embedding := make([]float32, testEmbeddingDim)
	embedding[0] = seed
	embedding[1] = 1 - seed
	chunk.Embedding = embedding
	require.NoError(t, chunks.UpsertChunk(chunk))
	return chunk
}

func TestEngineVectorSearch(t *testing.T) {
	documents, chunks, entities, topics := initHandlers(t)
	engine := NewEngine(chunks, entities, topics, staticEmbedder(0.9))

	doc := seedDocument(t, documents, "vector search engine test document", "Quarterly Report", "tenant-retrieval-vec")
	seedChunk(t, chunks, doc, 0, "Revenue grew steadily across all regions through the year.", 0.9)
	seedChunk(t, chunks, doc, 1, "The appendix lists unrelated procurement details at length.", 0.1)

	config := model.DefaultQueryConfig()
	tenant := "tenant-retrieval-vec"
	config.Tenant = &tenant

	results, err := engine.VectorSearch(context.Background(), "How did revenue develop?", &config)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, results[0].Content, "Revenue grew", "Expected the closest chunk first")
	assert.Equal(t, "Quarterly Report", results[0].DocumentTitle)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestEngineEntitySearch(t *testing.T) {
	_, chunks, entities, topics := initHandlers(t)
	engine := NewEngine(chunks, entities, topics, staticEmbedder(0.5))

	entity := &model.CanonicalEntity{
		Normalized:    "quorvex industries",
		Type:          model.EntityTypeOrg,
		CanonicalName: "Quorvex Industries",
	}
	require.NoError(t, entities.UpsertEntity(entity, "tenant-retrieval-ent"))

	config := model.DefaultQueryConfig()
	tenant := "tenant-retrieval-ent"
	config.Tenant = &tenant

	t.Run("Question terms match entity names", func(t *testing.T) {
		matches, err := engine.EntitySearch(context.Background(), "What does Quorvex do?", &config)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "Quorvex Industries", matches[0].CanonicalName)
	})

	t.Run("Short words are dropped from the term set", func(t *testing.T) {
		matches, err := engine.EntitySearch(context.Background(), "is it us", &config)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestEngineNeighborhood(t *testing.T) {
	db := initDB(t)
	documents, chunks, entities, topics := initHandlers(t)
	relationships, err := database.NewRelationshipsDBHandler(db, true)
	require.NoError(t, err)

	engine := NewEngine(chunks, entities, topics, staticEmbedder(0.5))

	person := &model.CanonicalEntity{Normalized: "nora veld", Type: model.EntityTypePerson, CanonicalName: "Nora Veld"}
	org := &model.CanonicalEntity{Normalized: "veldworks", Type: model.EntityTypeOrg, CanonicalName: "Veldworks"}
	require.NoError(t, entities.UpsertEntity(person, "tenant-retrieval-nbh"))
	require.NoError(t, entities.UpsertEntity(org, "tenant-retrieval-nbh"))

	_, err = relationships.UpsertRelationship(&model.Relationship{
		SourceID:   person.ID,
		TargetID:   org.ID,
		Type:       model.RelationFounded,
		Confidence: 0.7,
		Context:    "Nora Veld founded Veldworks.",
	})
	require.NoError(t, err)

	doc := seedDocument(t, documents, "neighborhood engine test document", "Founding Story", "tenant-retrieval-nbh")
	chunk := seedChunk(t, chunks, doc, 0, "Nora Veld founded Veldworks after leaving her previous role.", 0.5)
	_, err = entities.LinkMention(chunk.ID, person.ID, model.Mention{
		Text: "Nora Veld", Type: model.EntityTypePerson, StartChar: 0, EndChar: 9, Confidence: 0.95,
	})
	require.NoError(t, err)

	tenant := "tenant-retrieval-nbh"
	neighborhood, err := engine.Neighborhood(context.Background(), "Nora Veld", 2, &tenant)
	require.NoError(t, err)

	assert.Equal(t, "Nora Veld", neighborhood.Center)
	names := make([]string, 0, len(neighborhood.Nodes))
	for _, node := range neighborhood.Nodes {
		names = append(names, node.Name)
	}
	assert.Contains(t, names, "Veldworks")
	require.NotEmpty(t, neighborhood.Edges)
	assert.Equal(t, string(model.RelationFounded), neighborhood.Edges[0].Relationship)
	require.NotEmpty(t, neighborhood.Sources)
	assert.Equal(t, "Founding Story", neighborhood.Sources[0].Title)
}

func TestEngineStats(t *testing.T) {
	documents, chunks, entities, topics := initHandlers(t)
	engine := NewEngine(chunks, entities, topics, staticEmbedder(0.5))

	doc := seedDocument(t, documents, "stats engine test document", "Stats Doc", "tenant-retrieval-stats")
	seedChunk(t, chunks, doc, 0, "A single chunk is enough content for counting purposes here.", 0.5)

	tenant := "tenant-retrieval-stats"
	stats, err := engine.Stats(context.Background(), &tenant)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Chunks)
}

func TestEngineAnswerIntegration(t *testing.T) {
	documents, chunks, entities, topics := initHandlers(t)
	engine := NewEngine(chunks, entities, topics, staticEmbedder(0.8))

	doc := seedDocument(t, documents, "answer integration test document", "Company Overview", "tenant-retrieval-ans")
	seedChunk(t, chunks, doc, 0, "Marlowe Systems builds industrial sensors and related software.", 0.8)

	entity := &model.CanonicalEntity{
		Normalized:    "marlowe systems",
		Type:          model.EntityTypeOrg,
		CanonicalName: "Marlowe Systems",
	}
	require.NoError(t, entities.UpsertEntity(entity, "tenant-retrieval-ans"))

	config := model.DefaultQueryConfig()
	tenant := "tenant-retrieval-ans"
	config.Tenant = &tenant

	answer := engine.Answer(context.Background(), "What does Marlowe Systems build?", &config, nil)
	require.NotNil(t, answer)

	assert.Equal(t, model.StatusSuccess, answer.Status)
	assert.True(t, strings.HasPrefix(answer.Answer, "Based on the available information:"))
	assert.Contains(t, answer.Answer, "Marlowe Systems")
	assert.Equal(t, 1, answer.Sources.VectorMatches)
	assert.Equal(t, 1, answer.Sources.GraphEntities)
	require.Len(t, answer.TopChunks, 1)
	assert.Equal(t, "Company Overview", answer.TopChunks[0].Source)
}
