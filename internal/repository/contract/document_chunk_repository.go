package contract

import (
	"context"

	"document-qa-be/internal/entity"
	"document-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentChunk pairs a chunk with its cosine similarity to a query vector
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore runs a top-k nearest-neighbor query scoped to
	// one owner, one collection, and optionally one document. Results come
	// back ordered by descending similarity.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, ownerId uuid.UUID, documentId *uuid.UUID, collection string) ([]*ScoredDocumentChunk, error)
}
