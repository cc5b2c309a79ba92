package retrieval

import (
	"context"
	"sort"

	"document-qa-be/internal/repository/contract"
	"document-qa-be/pkg/embedding"
	"document-qa-be/pkg/store"

	"github.com/google/uuid"
)

// Searcher is the slice of the chunk repository the retriever needs.
type Searcher interface {
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, ownerId uuid.UUID, documentId *uuid.UUID, collection string) ([]*contract.ScoredDocumentChunk, error)
}

// Params scopes one retrieval run.
type Params struct {
	OwnerId    uuid.UUID
	Query      string
	DocumentId *uuid.UUID // nil means search the whole collection
	Collection string
	TopK       int

	// UseQueryRewrite allows hypothetical-answer expansion. It is ignored
	// when DocumentId is set, single document searches stay literal.
	UseQueryRewrite bool
}

// Retriever embeds a query and runs a scoped nearest-neighbor search.
type Retriever struct {
	embedder embedding.Provider
	rewriter *Rewriter
}

func NewRetriever(embedder embedding.Provider, rewriter *Rewriter) *Retriever {
	return &Retriever{
		embedder: embedder,
		rewriter: rewriter,
	}
}

// Retrieve returns the top matching chunks ordered by descending similarity.
// Scores are clamped to [0, 1]. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, searcher Searcher, params Params) ([]store.RetrievedChunk, error) {
	queryText := params.Query
	if params.DocumentId == nil && params.UseQueryRewrite {
		queryText = r.rewriter.Rewrite(ctx, params.Query)
	}

	vector, err := r.embedder.Generate(ctx, queryText, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}

	scored, err := searcher.SearchSimilarWithScore(ctx, vector, params.TopK, params.OwnerId, params.DocumentId, params.Collection)
	if err != nil {
		return nil, err
	}

	chunks := make([]store.RetrievedChunk, 0, len(scored))
	for _, s := range scored {
		score := s.Similarity
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		chunks = append(chunks, store.RetrievedChunk{
			ID:    s.Chunk.Id.String(),
			Text:  s.Chunk.Content,
			Score: score,
			Metadata: store.ChunkMetadata{
				OwnerID:    s.Chunk.OwnerId.String(),
				DocumentID: s.Chunk.DocumentId.String(),
				ChunkIndex: s.Chunk.ChunkIndex,
				Filename:   s.Chunk.Filename,
			},
		})
	}

	// The database already orders by similarity, but clamping can collapse
	// negatives into ties, so re-sort stably to keep the order deterministic.
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	return chunks, nil
}
