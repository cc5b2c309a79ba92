package main

import (
	"log"

	"document-qa-be/internal/config"
	"document-qa-be/internal/model"
	"document-qa-be/pkg/database"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	// pgvector must exist before the chunk table's vector column
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatalf("Failed to create vector extension: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Document{},
		&model.DocumentChunk{},
		&model.ChatSession{},
		&model.ChatMessage{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// ivfflat needs an explicit index, AutoMigrate will not build it
	if err := db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding ON document_chunks USING ivfflat (embedding_value vector_cosine_ops) WITH (lists = 100)",
	).Error; err != nil {
		log.Fatalf("Failed to create vector index: %v", err)
	}

	log.Println("Migration complete")
}
