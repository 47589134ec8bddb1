package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
)

// maxExtractionChars caps the text passed to the NER model per call.
const maxExtractionChars = 2000

// DefaultMentionExtractor creates a mention extractor using a NER model.
// Uses distilbert-NER for named entity recognition and maps its labels onto
// the recognized entity types, dropping everything else.
func DefaultMentionExtractor() (MentionExtractFunc, error) {
	// Prepare model (download if needed)
	// Using KnightsAnalytics optimized distilbert-NER model
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create token classification pipeline for NER
	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) ([]model.Mention, error) {
		text = truncateOnRuneBoundary(text, maxExtractionChars)

		// Run NER on the text
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return nil, nil
		}

		var mentions []model.Mention
		for _, entity := range result.Entities[0] {
			entityType := mapEntityLabel(entity.Entity)
			if !model.RecognizedEntityTypes[entityType] {
				continue
			}

			word := strings.TrimSpace(entity.Word)
			if word == "" {
				continue
			}

			mentions = append(mentions, model.Mention{
				Text:       word,
				Type:       entityType,
				StartChar:  int(entity.Start),
				EndChar:    int(entity.End),
				Confidence: float64(entity.Score),
			})
		}

		return mentions, nil
	}, nil
}

// truncateOnRuneBoundary caps text at max bytes without splitting a rune, so
// the truncated tail stays valid UTF-8.
func truncateOnRuneBoundary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}

// mapEntityLabel strips BIO tagging prefixes and maps the NER model's label
// set onto the recognized entity types.
func mapEntityLabel(label string) string {
	// Remove BIO tagging prefixes (B- for beginning, I- for inside)
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		label = label[2:]
	}

	switch label {
	case "PER":
		return model.EntityTypePerson
	case "LOC":
		return model.EntityTypeGPE
	case "ORG":
		return model.EntityTypeOrg
	default:
		return label
	}
}
