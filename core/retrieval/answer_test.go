package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphling/graphrag/model"
)

type fakeChunkSearcher struct {
	chunks []*model.Chunk
	err    error
}

func (f *fakeChunkSearcher) SelectChunksBySimilarity(embedding []float32, limit int, tenant *string) ([]*model.Chunk, error) {
	return f.chunks, f.err
}

type fakeEntitySearcher struct {
	entities []*model.CanonicalEntity
	err      error
}

func (f *fakeEntitySearcher) SelectEntityByName(name string, tenant *string) (*model.CanonicalEntity, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, entity := range f.entities {
		if entity.CanonicalName == name {
			return entity, nil
		}
	}
	return nil, errors.New("entity not found")
}

func (f *fakeEntitySearcher) SelectEntitiesByTerms(terms []string, limit int, tenant *string) ([]*model.CanonicalEntity, error) {
	return f.entities, f.err
}

func (f *fakeEntitySearcher) SelectNeighborhood(entityID int64, maxDepth int) ([]model.NeighborEdge, []model.NeighborNode, error) {
	return nil, nil, f.err
}

func (f *fakeEntitySearcher) SelectEntitySources(entityIDs []int64) ([]model.SourceRef, error) {
	return nil, f.err
}

type fakeStatsReader struct {
	stats model.GraphStats
	err   error
}

func (f *fakeStatsReader) SelectGraphStats(tenant *string) (*model.GraphStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	stats := f.stats
	return &stats, nil
}

func fakeEngine(chunks *fakeChunkSearcher, entities *fakeEntitySearcher) *Engine {
	return NewEngine(chunks, entities, &fakeStatsReader{}, func(text string) ([]float32, error) {
		return []float32{0.1, 0.2}, nil
	})
}

func answerChunk(content string, title string) *model.Chunk {
	chunk := model.NewChunk(content, 0)
	chunk.DocumentTitle = title
	return chunk
}

func TestAnswerEmptyIndex(t *testing.T) {
	engine := fakeEngine(&fakeChunkSearcher{}, &fakeEntitySearcher{})

	answer := engine.Answer(context.Background(), "What is in the empty index?", nil, nil)
	require.NotNil(t, answer)

	assert.Equal(t, model.StatusSuccess, answer.Status)
	assert.Equal(t, "What is in the empty index?", answer.Question)
	assert.Equal(t,
		"I couldn't find any relevant information to answer your question. Please try rephrasing or ask about topics covered in the uploaded documents.",
		answer.Answer)
	assert.Empty(t, answer.TopChunks)
	assert.Zero(t, answer.Sources.VectorMatches)
	assert.Zero(t, answer.Sources.GraphEntities)
}

func TestAnswerComposition(t *testing.T) {
	chunks := &fakeChunkSearcher{chunks: []*model.Chunk{
		answerChunk("Marlowe Systems builds industrial sensors.", "Company Overview"),
		answerChunk("The sensor line launched two years ago.", "Product History"),
	}}
	entities := &fakeEntitySearcher{entities: []*model.CanonicalEntity{
		{CanonicalName: "Marlowe Systems", Type: model.EntityTypeOrg},
		{CanonicalName: "Dana Marlowe", Type: model.EntityTypePerson},
	}}
	engine := fakeEngine(chunks, entities)

	answer := engine.Answer(context.Background(), "What does Marlowe build?", nil, nil)
	require.Equal(t, model.StatusSuccess, answer.Status)

	assert.True(t, strings.HasPrefix(answer.Answer, "Based on the available information:"))
	assert.Contains(t, answer.Answer, "1. From Company Overview: Marlowe Systems builds industrial sensors.")
	assert.Contains(t, answer.Answer, "2. From Product History: The sensor line launched two years ago.")
	assert.Contains(t, answer.Answer, "Related entities mentioned in documents: Marlowe Systems, Dana Marlowe")
	assert.Contains(t, answer.Answer, "This response is based on 2 document segments and 2 related entities from the knowledge base.")

	assert.Equal(t, model.SourceCounts{VectorMatches: 2, GraphEntities: 2}, answer.Sources)
	require.Len(t, answer.TopChunks, 2)
	assert.Equal(t, "Company Overview", answer.TopChunks[0].Source)
	assert.True(t, strings.HasSuffix(answer.TopChunks[0].Content, "..."))
}

func TestAnswerChunkTruncation(t *testing.T) {
	long := strings.Repeat("Lengthy sentence content flows on. ", 20)
	chunks := &fakeChunkSearcher{chunks: []*model.Chunk{answerChunk(long, "Long Doc")}}
	engine := fakeEngine(chunks, &fakeEntitySearcher{})

	answer := engine.Answer(context.Background(), "Summarize the long document", nil, nil)
	require.Equal(t, model.StatusSuccess, answer.Status)

	snippet := long[:300] + "..."
	assert.Contains(t, answer.Answer, fmt.Sprintf("1. From Long Doc: %s", snippet))
}

func TestAnswerChunkLimit(t *testing.T) {
	searcher := &fakeChunkSearcher{}
	for i := 0; i < 5; i++ {
		searcher.chunks = append(searcher.chunks, answerChunk(fmt.Sprintf("Chunk number %d content for the answer.", i), "Doc"))
	}
	engine := fakeEngine(searcher, &fakeEntitySearcher{})

	answer := engine.Answer(context.Background(), "Which chunks made it in?", nil, nil)
	require.Equal(t, model.StatusSuccess, answer.Status)

	assert.Contains(t, answer.Answer, "3. From Doc:")
	assert.NotContains(t, answer.Answer, "4. From Doc:")
	assert.Equal(t, 5, answer.Sources.VectorMatches, "Expected the summary to count all matches")
	assert.Len(t, answer.TopChunks, 3)
}

func TestAnswerSingleChannelFailure(t *testing.T) {
	t.Run("Vector failure still answers from the graph", func(t *testing.T) {
		chunks := &fakeChunkSearcher{err: errors.New("index offline")}
		entities := &fakeEntitySearcher{entities: []*model.CanonicalEntity{
			{CanonicalName: "Marlowe Systems", Type: model.EntityTypeOrg},
		}}
		engine := fakeEngine(chunks, entities)

		answer := engine.Answer(context.Background(), "Who is mentioned?", nil, nil)
		assert.Equal(t, model.StatusSuccess, answer.Status)
		assert.Contains(t, answer.Answer, "Marlowe Systems")
		assert.Zero(t, answer.Sources.VectorMatches)
	})

	t.Run("Graph failure still answers from the chunks", func(t *testing.T) {
		chunks := &fakeChunkSearcher{chunks: []*model.Chunk{answerChunk("Stored content about sensors.", "Doc")}}
		entities := &fakeEntitySearcher{err: errors.New("graph offline")}
		engine := fakeEngine(chunks, entities)

		answer := engine.Answer(context.Background(), "What is stored?", nil, nil)
		assert.Equal(t, model.StatusSuccess, answer.Status)
		assert.Contains(t, answer.Answer, "Stored content about sensors.")
	})
}

func TestAnswerTotalFailure(t *testing.T) {
	chunks := &fakeChunkSearcher{err: errors.New("index offline")}
	entities := &fakeEntitySearcher{err: errors.New("graph offline")}
	engine := fakeEngine(chunks, entities)

	answer := engine.Answer(context.Background(), "Does anything work?", nil, nil)
	require.NotNil(t, answer)

	assert.Equal(t, model.StatusError, answer.Status)
	assert.Equal(t, "Does anything work?", answer.Question)
	assert.Contains(t, answer.Answer, "Sorry, I encountered an error processing your question")
}
