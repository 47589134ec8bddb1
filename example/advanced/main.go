package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/graphling/graphrag"
	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
)

const companyReport = `QUARTERLY OVERVIEW

Dana Marlowe leads Marlowe Systems and presented the quarterly results.
Marlowe Systems raised funding in a round led by Northgate Capital in March.

PLATFORM UPDATE

Bob Smith works for Marlowe Systems on the ingestion platform.
The platform team partnered with Initech on the new deployment tooling.`

const researchNotes = `Machine learning is transforming how we process and retrieve information.

Vector embeddings capture semantic meaning of text, enabling similarity-based search.
Neural networks can learn representations that understand context and relationships.

Modern retrieval systems combine traditional database indexing with machine learning models
to provide more intelligent and context-aware search capabilities.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		User:     "testuser",
		Password: "testpassword",
		Name:     "testdb",
	}

	system, err := graphrag.NewSystem(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create system: %v", err)
	}
	defer system.Close()

	if err := system.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	ctx := context.Background()
	tenant := "advanced-demo"

	// Ingest a whole directory, one chunking strategy for the batch
	dir, err := os.MkdirTemp("", "graphrag-advanced")
	if err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dir)

	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	write("company_report.txt", companyReport)
	write("research_notes.md", researchNotes)

	fmt.Println("Ingesting directory with semantic chunking...")
	batch, err := system.IngestDirectory(ctx, dir, tenant, model.StrategySemantic)
	if err != nil {
		log.Fatalf("Failed to ingest directory: %v", err)
	}
	fmt.Printf("Batch: %d succeeded, %d failed\n", batch.Succeeded(), batch.Failed())
	for _, result := range batch.Results {
		fmt.Printf("  %s: %d chunks, %d entities, %d relationships, %d topics\n",
			result.Title, result.ChunksCreated, result.EntitiesCreated,
			result.RelationshipsCreated, result.TopicsCreated)
	}

	// Re-ingest the same text with a different strategy, the document is
	// addressed by content hash so nothing duplicates
	fmt.Println("\nRe-ingesting the report with fixed-window chunking...")
	result, err := system.IngestText(ctx, companyReport, "company_report", tenant, model.StrategyFixed)
	if err != nil {
		log.Fatalf("Failed to re-ingest: %v", err)
	}
	fmt.Printf("Re-ingest: %d chunks, %d new relationships\n", result.ChunksCreated, result.RelationshipsCreated)

	// Switch the vector index to IVFFlat and back to HNSW
	fmt.Println("\nSwitching vector index to IVFFlat...")
	if err := system.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{"lists": 100}); err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}
	if err := system.ChangeIndexType(ctx, "hnsw", map[string]interface{}{"m": 16, "ef_construction": 64}); err != nil {
		log.Fatalf("Failed to change index type back: %v", err)
	}
	fmt.Println("Index switched back to HNSW")

	// Ask questions against the combined store
	config := model.DefaultQueryConfig()
	config.Tenant = &tenant

	for _, question := range []string{
		"Who leads Marlowe Systems?",
		"How do modern retrieval systems work?",
	} {
		fmt.Printf("\nQuerying: %s\n", question)
		answer := system.Answer(ctx, question, &config)
		fmt.Println(answer.Answer)
	}

	// Walk the graph around one entity
	neighborhood, err := system.EntityNeighborhood(ctx, "Marlowe Systems", 2, &tenant)
	if err != nil {
		log.Fatalf("Failed to traverse neighborhood: %v", err)
	}
	fmt.Printf("\nNeighborhood of %s (%d nodes, %d edges):\n",
		neighborhood.Center, len(neighborhood.Nodes), len(neighborhood.Edges))
	for _, edge := range neighborhood.Edges {
		fmt.Printf("  %s -[%s %.1f]-> %s\n", edge.Source, edge.Relationship, edge.Confidence, edge.Target)
	}

	stats, err := system.Stats(ctx, &tenant)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("\nGraph: %d documents, %d chunks, %d entities, %d topics, %d relationships\n",
		stats.Documents, stats.Chunks, stats.Entities, stats.Topics, stats.Relationships)

	fmt.Println("\nAdvanced example completed successfully!")
}
