package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphling/graphrag/model"
)

func TestDefaultMentionExtractor(t *testing.T) {
	// Note: DefaultMentionExtractor uses hugot which requires downloading models
	// This test will download the distilbert-NER model if not already present
	if testing.Short() {
		t.Skip("skipping model download in short mode")
	}

	t.Run("Create mention extractor", func(t *testing.T) {
		extractor, err := DefaultMentionExtractor()
		require.NoError(t, err)
		assert.NotNil(t, extractor)
	})

	t.Run("Extract mentions from text", func(t *testing.T) {
		extractor, err := DefaultMentionExtractor()
		require.NoError(t, err)

		text := "My name is Wolfgang and I live in Berlin."
		mentions, err := extractor(text)
		assert.NoError(t, err)

		// Should detect at least Wolfgang (PERSON) and Berlin (GPE)
		for _, mention := range mentions {
			t.Logf("  - %s (%s) [%d:%d] %.2f", mention.Text, mention.Type, mention.StartChar, mention.EndChar, mention.Confidence)
			assert.True(t, model.RecognizedEntityTypes[mention.Type], "unexpected entity type %s", mention.Type)
			assert.LessOrEqual(t, mention.StartChar, mention.EndChar)
		}
	})

	t.Run("Extract mentions from text with organizations", func(t *testing.T) {
		extractor, err := DefaultMentionExtractor()
		require.NoError(t, err)

		text := "Apple Inc. is headquartered in Cupertino, California."
		mentions, err := extractor(text)
		assert.NoError(t, err)

		if len(mentions) > 0 {
			t.Logf("Detected %d mentions:", len(mentions))
			for _, mention := range mentions {
				t.Logf("  - %s (%s)", mention.Text, mention.Type)
			}
		}
	})

	t.Run("Handle empty text", func(t *testing.T) {
		extractor, err := DefaultMentionExtractor()
		require.NoError(t, err)

		mentions, err := extractor("")
		assert.NoError(t, err)
		assert.Empty(t, mentions)
	})

	t.Run("Handle text without entities", func(t *testing.T) {
		extractor, err := DefaultMentionExtractor()
		require.NoError(t, err)

		text := "This is a simple sentence without any named entities."
		mentions, err := extractor(text)
		assert.NoError(t, err)
		t.Logf("Detected %d mentions (expected 0 or few)", len(mentions))
	})
}

func TestTruncateOnRuneBoundary(t *testing.T) {
	t.Run("Short text is unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", truncateOnRuneBoundary("hello", 10))
	})

	t.Run("ASCII truncates at the cap", func(t *testing.T) {
		assert.Equal(t, "hello", truncateOnRuneBoundary("hello world", 5))
	})

	t.Run("Multi-byte runes are never split", func(t *testing.T) {
		text := strings.Repeat("你好", 1000)
		truncated := truncateOnRuneBoundary(text, maxExtractionChars)
		assert.LessOrEqual(t, len(truncated), maxExtractionChars)
		assert.True(t, utf8.ValidString(truncated))
	})
}

func TestMapEntityLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"B-PER", model.EntityTypePerson},
		{"I-PER", model.EntityTypePerson},
		{"PER", model.EntityTypePerson},
		{"B-LOC", model.EntityTypeGPE},
		{"I-LOC", model.EntityTypeGPE},
		{"B-ORG", model.EntityTypeOrg},
		{"I-ORG", model.EntityTypeOrg},
		{"MISC", "MISC"},
		{"O", "O"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := mapEntityLabel(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}

	t.Run("Unmapped labels are filtered downstream", func(t *testing.T) {
		assert.False(t, model.RecognizedEntityTypes[mapEntityLabel("B-MISC")])
		assert.True(t, model.RecognizedEntityTypes[mapEntityLabel("B-PER")])
	})
}
