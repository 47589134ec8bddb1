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

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	UpsertRelationship(rel *model.Relationship) (bool, error)
	SelectRelationshipsByEntity(entityID int64) ([]*model.Relationship, error)
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It initializes the database connection and loads relationship-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'relationships' table in the database.
// If the table already exists, it does not create it again.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relationships")

	return nil
}

// UpsertRelationship matches an existing relationship of the same type in
// either direction or creates it. The returned bool reports whether the edge
// was newly created, the stored (possibly reversed) edge is written back into
// rel.
func (h *RelationshipsDBHandler) UpsertRelationship(rel *model.Relationship) (bool, error) {
	var chunkID interface{}
	if rel.ChunkID > 0 {
		chunkID = rel.ChunkID
	}

	var inserted bool
	var storedChunkID dbsql.NullInt64
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_relationship($1, $2, $3, $4, $5, $6)`,
		rel.SourceID,
		rel.TargetID,
		rel.Type,
		rel.Confidence,
		rel.Context,
		chunkID,
	)

	err := row.Scan(
		&rel.ID,
		&rel.SourceID,
		&rel.TargetID,
		&rel.Type,
		&rel.Confidence,
		&rel.Context,
		&storedChunkID,
		&rel.CreatedAt,
		&inserted,
	)
	if err != nil {
		return false, helper.NewError("scan", err)
	}
	if storedChunkID.Valid {
		rel.ChunkID = storedChunkID.Int64
	}

	return inserted, nil
}

// SelectRelationshipsByEntity retrieves all relationships touching the
// entity, highest confidence first.
func (h *RelationshipsDBHandler) SelectRelationshipsByEntity(entityID int64) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relationships_by_entity($1)`,
		entityID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relationships []*model.Relationship
	for rows.Next() {
		rel := &model.Relationship{}
		var chunkID dbsql.NullInt64
		err := rows.Scan(
			&rel.ID,
			&rel.SourceID,
			&rel.TargetID,
			&rel.SourceEntity,
			&rel.TargetEntity,
			&rel.Type,
			&rel.Confidence,
			&rel.Context,
			&chunkID,
			&rel.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if chunkID.Valid {
			rel.ChunkID = chunkID.Int64
		}

		relationships = append(relationships, rel)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}
