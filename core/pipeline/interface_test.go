package pipeline

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphling/graphrag/model"
)

func fakeEmbedder(dim int) EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dim)
		for i, r := range text {
			embedding[i%dim] += float32(r) / 1000
		}
		return embedding, nil
	}
}

func fakeMentionExtractor(t *testing.T) MentionExtractFunc {
	t.Helper()
	names := map[string]string{
		"Alice": model.EntityTypePerson,
		"Acme":  model.EntityTypeOrg,
	}
	return func(text string) ([]model.Mention, error) {
		var mentions []model.Mention
		for name, entityType := range names {
			idx := strings.Index(text, name)
			if idx < 0 {
				continue
			}
			mentions = append(mentions, model.Mention{
				Text:       name,
				Type:       entityType,
				StartChar:  idx,
				EndChar:    idx + len(name),
				Confidence: 0.95,
			})
		}
		return mentions, nil
	}
}

func TestPipelineProcess(t *testing.T) {
	chunker := NewChunker(model.DefaultChunkConfig(model.StrategyParagraph))

	t.Run("Process produces embedded chunks, entities and relationships", func(t *testing.T) {
		pipeline := NewPipeline(chunker, fakeEmbedder(8), slog.Default())
		pipeline.SetMentionExtractor(fakeMentionExtractor(t))

		text := "Alice founded Acme in the early spring of twenty ten near the coast."
		result, err := pipeline.Process(text)

		require.NoError(t, err)
		require.Len(t, result.Chunks, 1)
		assert.Len(t, result.Chunks[0].Embedding, 8)
		require.Len(t, result.Entities, 2)
		require.NotEmpty(t, result.Relationships)
		assert.Equal(t, model.RelationFounded, result.Relationships[0].Type)
	})

	t.Run("Process without extractor returns chunks only", func(t *testing.T) {
		pipeline := NewPipeline(chunker, fakeEmbedder(8), slog.Default())

		result, err := pipeline.Process("Plain text without any extraction configured on the pipeline.")
		require.NoError(t, err)
		assert.Len(t, result.Chunks, 1)
		assert.Empty(t, result.Entities)
		assert.Empty(t, result.Relationships)
	})

	t.Run("Embedding failure fails the document", func(t *testing.T) {
		pipeline := NewPipeline(chunker, func(string) ([]float32, error) {
			return nil, errors.New("model unavailable")
		}, slog.Default())

		_, err := pipeline.Process("Some content that is long enough to produce a chunk for embedding.")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "embed chunk")
	})

	t.Run("Mention extraction failure degrades instead of failing", func(t *testing.T) {
		pipeline := NewPipeline(chunker, fakeEmbedder(8), slog.Default())
		pipeline.SetMentionExtractor(func(string) ([]model.Mention, error) {
			return nil, errors.New("ner unavailable")
		})

		result, err := pipeline.Process("Content long enough to chunk while mention extraction is broken.")
		require.NoError(t, err)
		assert.Len(t, result.Chunks, 1)
		assert.Empty(t, result.Entities)
	})

	t.Run("Mentions carry their chunk index", func(t *testing.T) {
		pipeline := NewPipeline(chunker, fakeEmbedder(8), slog.Default())
		pipeline.SetMentionExtractor(fakeMentionExtractor(t))

		paraA := "Alice kept working on the project throughout the year. " + strings.Repeat("Filler. ", 100)
		paraB := "Acme kept growing at a steady pace all year long too. " + strings.Repeat("Filler. ", 100)
		result, err := pipeline.Process(paraA + "\n\n" + paraB)

		require.NoError(t, err)
		require.Len(t, result.Chunks, 2)
		require.Len(t, result.Entities, 2)
		for _, entity := range result.Entities {
			require.Len(t, entity.Mentions, 1)
			if entity.Type == model.EntityTypePerson {
				assert.Equal(t, 0, entity.Mentions[0].ChunkIndex)
			} else {
				assert.Equal(t, 1, entity.Mentions[0].ChunkIndex)
			}
		}
	})
}
