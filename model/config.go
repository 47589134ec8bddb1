package model

import "log/slog"

// ChunkStrategy selects how document text is split into chunks. It is a
// closed set dispatched exhaustively, unknown strategy names parse to
// StrategyParagraph instead of failing at runtime.
type ChunkStrategy int

const (
	StrategyParagraph ChunkStrategy = iota
	StrategySentence
	StrategyFixed
	StrategySemantic
)

// String returns the strategy name.
func (s ChunkStrategy) String() string {
	switch s {
	case StrategySentence:
		return "sentence"
	case StrategyFixed:
		return "fixed"
	case StrategySemantic:
		return "semantic"
	default:
		return "paragraph"
	}
}

// DefaultMaxChunkSize returns the default character bound for the strategy.
func (s ChunkStrategy) DefaultMaxChunkSize() int {
	switch s {
	case StrategySentence:
		return 600
	case StrategySemantic:
		return 700
	default:
		return 800
	}
}

// ParseChunkStrategy maps a strategy name to its ChunkStrategy. An unknown
// name falls back to the paragraph strategy with a logged warning, never an
// error.
func ParseChunkStrategy(name string, logger *slog.Logger) ChunkStrategy {
	switch name {
	case "paragraph":
		return StrategyParagraph
	case "sentence":
		return StrategySentence
	case "fixed":
		return StrategyFixed
	case "semantic":
		return StrategySemantic
	default:
		if logger != nil {
			logger.Warn("Unknown chunk strategy, using paragraph", slog.String("strategy", name))
		}
		return StrategyParagraph
	}
}

// ChunkConfig configures the chunker.
type ChunkConfig struct {
	Strategy ChunkStrategy `json:"strategy"`
	// MaxChunkSize bounds chunk length in characters for the paragraph,
	// sentence and semantic strategies. 0 uses the strategy default.
	MaxChunkSize int `json:"max_chunk_size,omitempty"`
	// MinChunkLength discards shorter chunks post-hoc.
	MinChunkLength int `json:"min_chunk_length"`
	// FixedWindow and FixedOverlap configure the fixed strategy's sliding
	// word window.
	FixedWindow  int `json:"fixed_window"`
	FixedOverlap int `json:"fixed_overlap"`
}

// DefaultChunkConfig returns the default chunker configuration.
func DefaultChunkConfig(strategy ChunkStrategy) ChunkConfig {
	return ChunkConfig{
		Strategy:       strategy,
		MinChunkLength: 50,
		FixedWindow:    500,
		FixedOverlap:   50,
	}
}

// QueryConfig configures a retrieval query.
type QueryConfig struct {
	// TopK nearest chunks fetched from the vector index.
	TopK int `json:"top_k"`
	// MaxChunks and ChunkPreviewLen bound the chunks quoted in the answer.
	MaxChunks       int `json:"max_chunks"`
	ChunkPreviewLen int `json:"chunk_preview_len"`
	// MaxEntities bounds the graph entity matches.
	MaxEntities int `json:"max_entities"`
	// MaxDepth bounds neighborhood traversal.
	MaxDepth int `json:"max_depth"`
	// Tenant scopes reads to one tenant. nil reads across all tenants and
	// is reserved for callers holding administrator privilege, enforcement
	// sits outside this core.
	Tenant *string `json:"tenant,omitempty"`
}

// DefaultQueryConfig returns a sensible default configuration.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:            5,
		MaxChunks:       3,
		ChunkPreviewLen: 300,
		MaxEntities:     5,
		MaxDepth:        2,
	}
}
