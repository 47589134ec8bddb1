package pipeline

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmbedder(t *testing.T) {
	// Note: DefaultEmbedder uses hugot which downloads the all-MiniLM-L6-v2
	// model on first run
	if testing.Short() {
		t.Skip("skipping model download in short mode")
	}

	embedder, err := DefaultEmbedder()
	require.NoError(t, err)
	require.NotNil(t, embedder)

	t.Run("Embedding has model dimension", func(t *testing.T) {
		for _, text := range []string{
			"Short",
			"This is a medium length sentence.",
			"Special chars: @#$%^&*()! 你好 🎉",
			strings.Repeat("This sentence makes the input long enough to exceed the model window. ", 100),
		} {
			embedding, err := embedder(text)
			require.NoError(t, err, "failed for text: %s", text)
			assert.Equal(t, 384, len(embedding))
		}
	})

	t.Run("Embedding is not all zero", func(t *testing.T) {
		embedding, err := embedder("This is a test sentence.")
		require.NoError(t, err)

		allZero := true
		for _, val := range embedding {
			if val != 0 {
				allZero = false
				break
			}
		}
		assert.False(t, allZero)
	})

	t.Run("Same text embeds deterministically", func(t *testing.T) {
		first, err := embedder("Deterministic embedding test")
		require.NoError(t, err)
		second, err := embedder("Deterministic embedding test")
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.InDelta(t, first[i], second[i], 0.0001)
		}
	})

	t.Run("Related texts are closer than unrelated ones", func(t *testing.T) {
		dog, err := embedder("The dog is happy")
		require.NoError(t, err)
		puppy, err := embedder("The puppy is joyful")
		require.NoError(t, err)
		physics, err := embedder("Quantum physics is complex")
		require.NoError(t, err)

		related := cosineSimilarity(dog, puppy)
		unrelated := cosineSimilarity(dog, physics)
		assert.Greater(t, related, unrelated)
		assert.Greater(t, related, float32(0.5))
	})

	t.Run("Empty input does not panic", func(t *testing.T) {
		embedding, err := embedder("")
		if err == nil {
			assert.Equal(t, 384, len(embedding))
		}
	})
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
