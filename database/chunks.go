package database

import (
	"context"
	dbsql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
	loadSql "github.com/graphling/graphrag/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunk(chunk *model.Chunk) error
	SelectChunksByDocument(documentID int64) ([]*model.Chunk, error)
	SelectChunksBySimilarity(embedding []float32, limit int, tenant *string) ([]*model.Chunk, error)
	DeleteChunksFromIndex(documentID int64, fromIndex int) (int, error)
	ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes, including the vector index.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// UpsertChunk writes a chunk keyed by (document, chunk index), overwriting
// an existing row of the same key.
func (h *ChunksDBHandler) UpsertChunk(chunk *model.Chunk) error {
	var embedding interface{}
	if len(chunk.Embedding) > 0 {
		embedding = pgvector.NewVector(chunk.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_chunk($1, $2, $3, $4, $5, $6, $7, $8)`,
		chunk.DocumentID,
		chunk.ChunkIndex,
		chunk.Content,
		chunk.WordCount,
		chunk.CharCount,
		chunk.SectionTitle,
		chunk.ContentTag,
		embedding,
	)

	var storedEmbedding dbsql.Null[pgvector.Vector]
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.ChunkIndex,
		&chunk.Content,
		&chunk.WordCount,
		&chunk.CharCount,
		&chunk.SectionTitle,
		&chunk.ContentTag,
		&storedEmbedding,
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	if storedEmbedding.Valid {
		chunk.Embedding = storedEmbedding.V.Slice()
	}

	return nil
}

// SelectChunksByDocument retrieves all chunks of a document in index order.
func (h *ChunksDBHandler) SelectChunksByDocument(documentID int64) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_document($1)`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var embedding dbsql.Null[pgvector.Vector]
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.WordCount,
			&chunk.CharCount,
			&chunk.SectionTitle,
			&chunk.ContentTag,
			&embedding,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if embedding.Valid {
			chunk.Embedding = embedding.V.Slice()
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity performs cosine similarity search. A nil tenant
// searches across all tenants.
func (h *ChunksDBHandler) SelectChunksBySimilarity(embedding []float32, limit int, tenant *string) ([]*model.Chunk, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3)`,
		embeddingVector,
		limit,
		tenant,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.DocumentHash,
			&chunk.DocumentTitle,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.WordCount,
			&chunk.CharCount,
			&chunk.SectionTitle,
			&chunk.ContentTag,
			&chunk.CreatedAt,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// DeleteChunksFromIndex removes all chunks of a document at or above the
// given index. Used to drop stale chunks after re-ingestion shrank a
// document's chunk count.
func (h *ChunksDBHandler) DeleteChunksFromIndex(documentID int64, fromIndex int) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT * FROM delete_chunks_from_index($1, $2)`,
		documentID,
		fromIndex,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return deleted, nil
}
