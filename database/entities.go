package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
	loadSql "github.com/graphling/graphrag/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	UpsertEntity(entity *model.CanonicalEntity, tenant string) error
	LinkMention(chunkID int64, entityID int64, mention model.Mention) (bool, error)
	RefreshEntity(entityID int64) (*model.CanonicalEntity, error)
	SelectEntity(normalized string, entityType string, tenant *string) (*model.CanonicalEntity, error)
	SelectEntityByName(name string, tenant *string) (*model.CanonicalEntity, error)
	SelectEntitiesByTerms(terms []string, limit int, tenant *string) ([]*model.CanonicalEntity, error)
	SelectNeighborhood(entityID int64, maxDepth int) ([]model.NeighborEdge, []model.NeighborNode, error)
	SelectEntitySources(entityIDs []int64) ([]model.SourceRef, error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' and 'chunk_mentions' tables in the
// database. If the tables already exist, it does not create them again.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// UpsertEntity matches an existing entity by (normalized, type, tenant) or
// creates it.
func (h *EntitiesDBHandler) UpsertEntity(entity *model.CanonicalEntity, tenant string) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_entity($1, $2, $3, $4)`,
		entity.Normalized,
		entity.Type,
		entity.CanonicalName,
		tenant,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// LinkMention persists one mention occurrence. Returns false if the same
// occurrence was already linked, so re-ingestion never inflates counts.
func (h *EntitiesDBHandler) LinkMention(chunkID int64, entityID int64, mention model.Mention) (bool, error) {
	var inserted bool
	err := h.db.Instance.QueryRow(
		`SELECT * FROM link_mention($1, $2, $3, $4, $5, $6)`,
		chunkID,
		entityID,
		mention.Text,
		mention.StartChar,
		mention.EndChar,
		mention.Confidence,
	).Scan(&inserted)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return inserted, nil
}

// RefreshEntity recomputes mention count, canonical name and surface forms
// from the persisted mention rows.
func (h *EntitiesDBHandler) RefreshEntity(entityID int64) (*model.CanonicalEntity, error) {
	entity := &model.CanonicalEntity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM refresh_entity($1)`,
		entityID,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntity retrieves an entity by its grouping key. A nil tenant reads
// across all tenants.
func (h *EntitiesDBHandler) SelectEntity(normalized string, entityType string, tenant *string) (*model.CanonicalEntity, error) {
	entity := &model.CanonicalEntity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1, $2, $3)`,
		normalized,
		entityType,
		tenant,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByName resolves an entity by display name, preferring the most
// mentioned match.
func (h *EntitiesDBHandler) SelectEntityByName(name string, tenant *string) (*model.CanonicalEntity, error) {
	entity := &model.CanonicalEntity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_name($1, $2)`,
		name,
		tenant,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntitiesByTerms matches query terms as substrings of canonical names,
// most mentioned entities first.
func (h *EntitiesDBHandler) SelectEntitiesByTerms(terms []string, limit int, tenant *string) ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_terms($1, $2, $3)`,
		pq.Array(terms),
		limit,
		tenant,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.CanonicalEntity
	for rows.Next() {
		entity := &model.CanonicalEntity{}
		err := scanEntity(rows, entity)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SelectNeighborhood retrieves all relationships reachable within maxDepth
// hops of the entity, with the nodes they connect.
func (h *EntitiesDBHandler) SelectNeighborhood(entityID int64, maxDepth int) ([]model.NeighborEdge, []model.NeighborNode, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM entity_neighborhood($1, $2)`,
		entityID,
		maxDepth,
	)
	if err != nil {
		return nil, nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var edges []model.NeighborEdge
	var nodes []model.NeighborNode
	seen := map[string]bool{}
	addNode := func(name string, entityType string) {
		if !seen[name] {
			seen[name] = true
			nodes = append(nodes, model.NeighborNode{Name: name, Type: entityType})
		}
	}
	for rows.Next() {
		var sourceType, targetType string
		edge := model.NeighborEdge{}
		err := rows.Scan(
			&edge.Source,
			&sourceType,
			&edge.Target,
			&targetType,
			&edge.Relationship,
			&edge.Confidence,
		)
		if err != nil {
			return nil, nil, helper.NewError("scan", err)
		}

		edges = append(edges, edge)
		addNode(edge.Source, sourceType)
		addNode(edge.Target, targetType)
	}

	err = rows.Err()
	if err != nil {
		return nil, nil, helper.NewError("rows error", err)
	}

	return edges, nodes, nil
}

// SelectEntitySources retrieves the documents the given entities are
// mentioned in.
func (h *EntitiesDBHandler) SelectEntitySources(entityIDs []int64) ([]model.SourceRef, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM entity_sources($1)`,
		pq.Array(entityIDs),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var sources []model.SourceRef
	for rows.Next() {
		source := model.SourceRef{}
		err := rows.Scan(&source.Hash, &source.Title)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		sources = append(sources, source)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return sources, nil
}

func scanEntity(row rowScanner, entity *model.CanonicalEntity) error {
	return row.Scan(
		&entity.ID,
		&entity.Normalized,
		&entity.Type,
		&entity.CanonicalName,
		&entity.MentionCount,
		pq.Array(&entity.SurfaceForms),
		&entity.TenantID,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
}
