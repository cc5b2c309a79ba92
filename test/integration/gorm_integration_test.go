package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"document-qa-be/internal/entity"
	"document-qa-be/internal/repository/specification"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	t.Run("Check Transactional Chunk Replace And Search", func(t *testing.T) {
		ctx := context.Background()
		ownerId := uuid.New()
		documentId := uuid.New()

		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		document := &entity.Document{
			Id:         documentId,
			OwnerId:    ownerId,
			Filename:   "integration.txt",
			Collection: "integration",
			Status:     entity.DocumentStatusPending,
		}
		err = uow.DocumentRepository().Create(ctx, document)
		assert.NoError(t, err)

		// Two chunks with fixed embeddings so similarity ordering is known
		near := make([]float32, 768)
		far := make([]float32, 768)
		near[0] = 1
		far[1] = 1

		chunks := []*entity.DocumentChunk{
			{
				Id:             uuid.New(),
				DocumentId:     documentId,
				OwnerId:        ownerId,
				Collection:     "integration",
				Filename:       "integration.txt",
				ChunkIndex:     0,
				Content:        "chunk aligned with the query vector",
				EmbeddingValue: near,
			},
			{
				Id:             uuid.New(),
				DocumentId:     documentId,
				OwnerId:        ownerId,
				Collection:     "integration",
				Filename:       "integration.txt",
				ChunkIndex:     1,
				Content:        "chunk orthogonal to the query vector",
				EmbeddingValue: far,
			},
		}
		err = uow.DocumentChunkRepository().CreateBulk(ctx, chunks)
		assert.NoError(t, err)

		query := make([]float32, 768)
		query[0] = 1

		results, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, query, 5, ownerId, nil, "integration")
		assert.NoError(t, err)
		assert.Len(t, results, 2)
		if len(results) == 2 {
			assert.Equal(t, chunks[0].Id, results[0].Chunk.Id)
			assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
		}

		// Scoping: another owner must see nothing
		foreign, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, query, 5, uuid.New(), nil, "integration")
		assert.NoError(t, err)
		assert.Len(t, foreign, 0)

		// Replace path used by re-indexing
		err = uow.DocumentChunkRepository().DeleteByDocumentId(ctx, documentId)
		assert.NoError(t, err)

		remaining, err := uow.DocumentChunkRepository().Count(ctx, specification.ByDocumentID{DocumentID: documentId})
		assert.NoError(t, err)
		assert.Equal(t, int64(0), remaining)
	})
}
