package embedding

import "context"

// Task types accepted by providers that distinguish indexing from querying.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Provider generates dense vector embeddings for text.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}
