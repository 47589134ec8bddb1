package pipeline

import (
	"regexp"
	"strings"

	"github.com/graphling/graphrag/model"
)

// Chunker splits document text into chunks according to one of the closed
// set of strategies. Chunking is pure string work and fully deterministic,
// the same text and config always produce the same chunks.
type Chunker struct {
	config model.ChunkConfig
}

// NewChunker creates a chunker for the given configuration. Zero values fall
// back to the strategy defaults.
func NewChunker(config model.ChunkConfig) *Chunker {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = config.Strategy.DefaultMaxChunkSize()
	}
	defaults := model.DefaultChunkConfig(config.Strategy)
	if config.MinChunkLength <= 0 {
		config.MinChunkLength = defaults.MinChunkLength
	}
	if config.FixedWindow <= 0 {
		config.FixedWindow = defaults.FixedWindow
	}
	if config.FixedOverlap < 0 || config.FixedOverlap >= config.FixedWindow {
		config.FixedOverlap = defaults.FixedOverlap
	}

	return &Chunker{config: config}
}

// Chunk splits text into chunks. Chunks shorter than the configured minimum
// are dropped, the survivors are numbered contiguously from zero.
func (c *Chunker) Chunk(text string) []*model.Chunk {
	var pieces []string

	switch c.config.Strategy {
	case model.StrategySentence:
		pieces = c.sentenceChunks(text)
	case model.StrategyFixed:
		pieces = c.fixedChunks(text)
	case model.StrategySemantic:
		pieces = c.semanticChunks(text)
	default:
		pieces = c.paragraphChunks(text)
	}

	chunks := make([]*model.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if len(piece) < c.config.MinChunkLength {
			continue
		}
		chunks = append(chunks, model.NewChunk(piece, len(chunks)))
	}

	return chunks
}

// paragraphChunks groups consecutive paragraphs until the next one would
// exceed the size bound. A single oversized paragraph becomes its own chunk.
func (c *Chunker) paragraphChunks(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var pieces []string
	var current []string
	currentLen := 0

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if currentLen > 0 && currentLen+2+len(para) > c.config.MaxChunkSize {
			pieces = append(pieces, strings.Join(current, "\n\n"))
			current = nil
			currentLen = 0
		}

		current = append(current, para)
		if currentLen > 0 {
			currentLen += 2
		}
		currentLen += len(para)
	}

	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, "\n\n"))
	}

	return pieces
}

// sentenceChunks groups consecutive sentences until the next one would
// exceed the size bound.
func (c *Chunker) sentenceChunks(text string) []string {
	sentences := splitSentences(text)

	var pieces []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		if currentLen > 0 && currentLen+1+len(sentence) > c.config.MaxChunkSize {
			pieces = append(pieces, strings.Join(current, " "))
			current = nil
			currentLen = 0
		}

		current = append(current, sentence)
		if currentLen > 0 {
			currentLen++
		}
		currentLen += len(sentence)
	}

	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, " "))
	}

	return pieces
}

// fixedChunks slides a fixed word window over the text with overlap between
// consecutive windows.
func (c *Chunker) fixedChunks(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	window := c.config.FixedWindow
	step := window - c.config.FixedOverlap

	var pieces []string
	for start := 0; start < len(words); start += step {
		end := start + window
		if end > len(words) {
			end = len(words)
		}

		pieces = append(pieces, strings.Join(words[start:end], " "))

		if end == len(words) {
			break
		}
	}

	return pieces
}

var headingLineRegexp = regexp.MustCompile(`(?m)^(#{1,6}\s+.+|\d+\.?\s+[A-Z].*|[A-Z][A-Z0-9 ,:&-]{2,99})$`)

// semanticChunks splits at section heading lines, then paragraph-chunks each
// section. Texts without headings fall back to plain paragraph chunking.
func (c *Chunker) semanticChunks(text string) []string {
	indexes := headingLineRegexp.FindAllStringIndex(text, -1)
	if len(indexes) == 0 {
		return c.paragraphChunks(text)
	}

	var sections []string
	prev := 0
	for _, idx := range indexes {
		if idx[0] > prev {
			sections = append(sections, text[prev:idx[0]])
		}
		prev = idx[0]
	}
	sections = append(sections, text[prev:])

	var pieces []string
	for _, section := range sections {
		if strings.TrimSpace(section) == "" {
			continue
		}
		pieces = append(pieces, c.paragraphChunks(section)...)
	}

	return pieces
}

// splitSentences splits text at sentence-ending punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "! ", "!|")
	text = strings.ReplaceAll(text, "? ", "?|")
	text = strings.ReplaceAll(text, ". ", ".|")
	text = strings.ReplaceAll(text, "!\n", "!|")
	text = strings.ReplaceAll(text, "?\n", "?|")
	text = strings.ReplaceAll(text, ".\n", ".|")

	var sentences []string
	for _, sentence := range strings.Split(text, "|") {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	return sentences
}
