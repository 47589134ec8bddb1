package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
	loadSql "github.com/graphling/graphrag/sql"
)

// TopicsDBHandlerFunctions defines the interface for Topics database operations.
type TopicsDBHandlerFunctions interface {
	UpsertTopic(topic *model.Topic) error
	LinkTopicEntity(topicID int64, entityID int64) error
	SelectTopicsByDocument(documentID int64) ([]*model.Topic, error)
	SelectGraphStats(tenant *string) (*model.GraphStats, error)
}

// TopicsDBHandler handles topic-related database operations
type TopicsDBHandler struct {
	db *helper.Database
}

// NewTopicsDBHandler creates a new topics database handler.
// It initializes the database connection and loads topic-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTopicsDBHandler(db *helper.Database, force bool) (*TopicsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	topicsDbHandler := &TopicsDBHandler{
		db: db,
	}

	err := loadSql.LoadTopicsSql(topicsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load topics sql", err)
	}

	err = topicsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TopicsDBHandler")

	return topicsDbHandler, nil
}

// CreateTable creates the 'topics' and 'topic_entities' tables in the
// database. If the tables already exist, it does not create them again.
func (h *TopicsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_topics();`)
	if err != nil {
		log.Panicf("error initializing topics table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table topics")

	return nil
}

// UpsertTopic writes a topic keyed by (document, entity type), overwriting an
// existing row of the same key.
func (h *TopicsDBHandler) UpsertTopic(topic *model.Topic) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_topic($1, $2, $3, $4)`,
		topic.DocumentID,
		topic.Name,
		topic.EntityType,
		topic.EntityCount,
	)

	err := row.Scan(
		&topic.ID,
		&topic.DocumentID,
		&topic.Name,
		&topic.EntityType,
		&topic.EntityCount,
		&topic.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// LinkTopicEntity links an entity into a topic, a no-op if already linked.
func (h *TopicsDBHandler) LinkTopicEntity(topicID int64, entityID int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT link_topic_entity($1, $2)`,
		topicID,
		entityID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectTopicsByDocument retrieves all topics of a document.
func (h *TopicsDBHandler) SelectTopicsByDocument(documentID int64) ([]*model.Topic, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_topics_by_document($1)`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var topics []*model.Topic
	for rows.Next() {
		topic := &model.Topic{}
		err := rows.Scan(
			&topic.ID,
			&topic.DocumentID,
			&topic.Name,
			&topic.EntityType,
			&topic.EntityCount,
			&topic.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		topics = append(topics, topic)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return topics, nil
}

// SelectGraphStats retrieves tenant-scoped counts of the whole graph. A nil
// tenant counts across all tenants.
func (h *TopicsDBHandler) SelectGraphStats(tenant *string) (*model.GraphStats, error) {
	stats := &model.GraphStats{}
	err := h.db.Instance.QueryRow(
		`SELECT * FROM graph_stats($1)`,
		tenant,
	).Scan(
		&stats.Documents,
		&stats.Chunks,
		&stats.Entities,
		&stats.Topics,
		&stats.Relationships,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return stats, nil
}
