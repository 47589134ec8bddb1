package main

import (
	"context"
	"fmt"
	"log"

	"github.com/graphling/graphrag"
	"github.com/graphling/graphrag/helper"
	"github.com/graphling/graphrag/model"
)

const sampleContent = `Alice founded Acme Inc. in 2010 after leaving her research position.

Acme Inc. builds industrial sensors and the software that analyzes their readings.
Bob Smith works for Acme Inc. as the head of the platform engineering group.

In 2018 Acme Inc. announced a partnership with Initech to bring the sensor
platform into large manufacturing plants across the region.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
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

	// Set up the default pipeline (chunking, embeddings and NER)
	if err := system.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Ingest a document from raw text
	fmt.Println("Ingesting document...")
	result, err := system.IngestText(context.Background(), sampleContent, "Acme Company Notes", "demo", model.StrategyParagraph)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Document %s ingested: %d chunks, %d entities, %d relationships\n",
		result.DocumentHash, result.ChunksCreated, result.EntitiesCreated, result.RelationshipsCreated)

	// Ask a question against the stored chunks and graph
	question := "Who founded Acme?"
	fmt.Printf("\nQuerying: %s\n", question)

	tenant := "demo"
	config := model.DefaultQueryConfig()
	config.Tenant = &tenant

	answer := system.Answer(context.Background(), question, &config)
	fmt.Printf("\n%s\n", answer.Answer)
	fmt.Printf("\nSources: %d chunks, %d entities\n", answer.Sources.VectorMatches, answer.Sources.GraphEntities)

	// Inspect the graph around one entity
	neighborhood, err := system.EntityNeighborhood(context.Background(), "Alice", 2, &tenant)
	if err != nil {
		log.Fatalf("Failed to traverse neighborhood: %v", err)
	}
	fmt.Printf("\nNeighborhood of %s:\n", neighborhood.Center)
	for _, edge := range neighborhood.Edges {
		fmt.Printf("  %s -[%s %.1f]-> %s\n", edge.Source, edge.Relationship, edge.Confidence, edge.Target)
	}

	stats, err := system.Stats(context.Background(), &tenant)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("\nGraph: %d documents, %d chunks, %d entities, %d topics, %d relationships\n",
		stats.Documents, stats.Chunks, stats.Entities, stats.Topics, stats.Relationships)

	fmt.Println("\nBasic example completed successfully!")
}
