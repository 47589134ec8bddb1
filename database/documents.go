package database

import (
	"context"
	dbsql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
	loadSql "github.com/graphling/graphrag/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	UpsertDocument(doc *model.Document) (bool, error)
	SelectDocument(hash string, tenant *string) (*model.Document, error)
	SelectAllDocuments(tenant *string, lastCreatedAt *time.Time, limit int) ([]*model.Document, error)
	SetDocumentProcessed(doc *model.Document, chunkCount int) error
	DeleteDocument(hash string) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes and triggers.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// UpsertDocument matches an existing document by content hash or creates it.
// The returned bool reports whether the row was newly created.
func (h *DocumentsDBHandler) UpsertDocument(doc *model.Document) (bool, error) {
	var inserted bool
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_document($1, $2, $3, $4, $5, $6, $7)`,
		doc.Hash,
		doc.Title,
		doc.Author,
		doc.FileType,
		doc.WordCount,
		doc.TenantID,
		doc.Metadata,
	)

	err := scanDocument(row, doc, &inserted)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return inserted, nil
}

// SelectDocument retrieves a document by content hash. A nil tenant reads
// across all tenants.
func (h *DocumentsDBHandler) SelectDocument(hash string, tenant *string) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1, $2)`,
		hash,
		tenant,
	)

	err := scanDocument(row, doc, nil)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves documents with keyset pagination, newest first.
func (h *DocumentsDBHandler) SelectAllDocuments(tenant *string, lastCreatedAt *time.Time, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_documents($1, $2, $3)`,
		tenant,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := scanDocument(rows, doc, nil)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// SetDocumentProcessed marks the document processed with its final chunk count.
func (h *DocumentsDBHandler) SetDocumentProcessed(doc *model.Document, chunkCount int) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM set_document_processed($1, $2)`,
		doc.ID,
		chunkCount,
	)

	err := scanDocument(row, doc, nil)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteDocument deletes a document by content hash, cascading to its chunks,
// mentions and topics.
func (h *DocumentsDBHandler) DeleteDocument(hash string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		hash,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, doc *model.Document, inserted *bool) error {
	var processedAt dbsql.NullTime
	dest := []any{
		&doc.ID,
		&doc.RID,
		&doc.Hash,
		&doc.Title,
		&doc.Author,
		&doc.FileType,
		&doc.WordCount,
		&doc.ChunkCount,
		&doc.TenantID,
		&doc.Metadata,
		&processedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}

	err := row.Scan(dest...)
	if err != nil {
		return err
	}

	if processedAt.Valid {
		doc.ProcessedAt = processedAt.Time
	}
	return nil
}
