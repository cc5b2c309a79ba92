package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"document-qa-be/internal/config"
	"document-qa-be/pkg/database"
	"document-qa-be/pkg/embedding"
	"document-qa-be/pkg/llm"
	"document-qa-be/pkg/llm/factory"

	"github.com/fatih/color"
)

// Environment diagnostic: verifies every external dependency the server
// needs, one by one, and reports what is broken.
func main() {
	color.Cyan("Document QA backend diagnostic\n")

	cfg := config.Load()
	failed := 0

	// 1. Database + pgvector
	color.Yellow("\n[1] PostgreSQL connection")
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Failed: %v", err)
		failed++
	} else {
		color.Green("Connected")

		color.Yellow("\n[2] pgvector extension")
		var installed bool
		row := db.Raw("SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").Row()
		if err := row.Scan(&installed); err != nil {
			color.Red("Failed: %v", err)
			failed++
		} else if !installed {
			color.Red("Extension 'vector' is not installed. Run: CREATE EXTENSION vector;")
			failed++
		} else {
			color.Green("Installed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// 3. Embedding provider
	color.Yellow("\n[3] Embedding provider (%s)", cfg.Ai.EmbeddingProvider)
	var embedder embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	vector, err := embedder.Generate(ctx, "diagnostic probe", embedding.TaskRetrievalQuery)
	if err != nil {
		color.Red("Failed: %v", err)
		failed++
	} else {
		color.Green("OK, %d dimensions", len(vector))
		if len(vector) != 768 {
			color.Yellow("Warning: document_chunks.embedding_value is vector(768), this provider returns %d", len(vector))
		}
	}

	// 4. LLM provider
	color.Yellow("\n[4] LLM provider (%s, %s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	provider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Keys.Groq)
	if err != nil {
		color.Red("Failed to construct: %v", err)
		failed++
	} else {
		result, err := provider.Generate(ctx, "Reply with the single word OK.", llm.WithTemperature(0), llm.WithMaxTokens(5))
		if err != nil {
			color.Red("Failed: %v", err)
			failed++
		} else {
			color.Green("OK, reply: %q, tokens: %d", result.Text, result.Usage.Total)
		}
	}

	// 5. Encryption key
	color.Yellow("\n[5] Message encryption key")
	if cfg.Keys.EncryptionKey == "" {
		color.Yellow("Not set, messages will be stored in plaintext")
	} else {
		color.Green("Set")
	}

	fmt.Println()
	if failed > 0 {
		color.Red("%d check(s) failed", failed)
		os.Exit(1)
	}
	color.Green("All checks passed")
}
