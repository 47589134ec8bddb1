package model

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document represents a source document node in the knowledge graph.
// Its identity is the content hash, so re-ingesting identical content
// addresses the same node instead of creating a duplicate.
type Document struct {
	ID          int64     `json:"id"`
	RID         uuid.UUID `json:"rid"`
	Hash        string    `json:"hash"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	FileType    string    `json:"file_type,omitempty"`
	WordCount   int       `json:"word_count"`
	ChunkCount  int       `json:"chunk_count"`
	TenantID    string    `json:"tenant_id"`
	Content     string    `json:"content,omitempty" db:"-"` // Temporary field for processing, not stored in DB
	Metadata    Metadata  `json:"metadata,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContentHash returns the deterministic document hash for the given content,
// the first 16 hex characters of its SHA-256 digest.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// NewDocumentFromFile reads a file and creates a Document with the file content.
// The title defaults to the filename without extension, the hash is derived
// from the content.
func NewDocumentFromFile(filePath string, tenantID string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	ext := filepath.Ext(filename)
	title := strings.TrimSuffix(filename, ext)
	if title == "" {
		title = filename
	}

	text := strings.TrimSpace(string(content))

	return &Document{
		Hash:      ContentHash(text),
		Title:     title,
		FileType:  strings.ToLower(ext),
		WordCount: len(strings.Fields(text)),
		TenantID:  tenantID,
		Content:   text,
		Metadata:  metadata,
	}, nil
}
