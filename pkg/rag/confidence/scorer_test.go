package confidence

import (
	"strings"
	"testing"

	"document-qa-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func chunksWithScores(scores ...float64) []store.RetrievedChunk {
	chunks := make([]store.RetrievedChunk, len(scores))
	for i, s := range scores {
		chunks[i] = store.RetrievedChunk{ID: "c", Score: s}
	}
	return chunks
}

func TestCategorize_Boundaries(t *testing.T) {
	assert.Equal(t, CategoryHigh, Categorize(75.0))
	assert.Equal(t, CategoryMedium, Categorize(74.9))
	assert.Equal(t, CategoryMedium, Categorize(50.0))
	assert.Equal(t, CategoryLow, Categorize(49.9))
	assert.Equal(t, CategoryLow, Categorize(0))
}

func TestCalculate_FactorsInRange(t *testing.T) {
	s := NewScorer()
	score := s.Calculate(Inputs{
		Query:            "what does the contract say about termination",
		Answer:           "The contract allows termination with notice.",
		Chunks:           chunksWithScores(0.9, 0.7),
		CitationCoverage: 1.0,
	})

	for _, f := range []float64{score.Factors.Retrieval, score.Factors.Citation, score.Factors.QueryCoverage, score.Factors.Depth} {
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 100.0)
	}
	assert.GreaterOrEqual(t, score.Value, 0.0)
	assert.LessOrEqual(t, score.Value, 95.0)
}

func TestCalculate_CappedAt95(t *testing.T) {
	s := NewScorer()
	longAnswer := strings.Repeat("contract termination notice clause detail ", 150)
	score := s.Calculate(Inputs{
		Query:            "termination clause",
		Answer:           longAnswer,
		Chunks:           chunksWithScores(1.0, 1.0),
		CitationCoverage: 1.0,
	})
	assert.Equal(t, 95.0, score.Value)
	assert.Equal(t, CategoryHigh, score.Category)
}

func TestCalculate_ZeroChunksScoresLow(t *testing.T) {
	s := NewScorer()
	score := s.Calculate(Inputs{
		Query:  "anything",
		Answer: "short",
		Chunks: nil,
	})
	assert.Equal(t, 0.0, score.Factors.Retrieval)
	assert.Equal(t, CategoryLow, score.Category)
}

func TestCalculate_SummarizationBoostsRetrievalAndDepth(t *testing.T) {
	s := NewScorer()
	// 100 word answer, weak raw similarities
	answer := strings.Repeat("word ", 100)
	chunks := chunksWithScores(0.3, 0.2)

	summary := s.Calculate(Inputs{
		Query:            "summarize the report",
		Answer:           answer,
		Chunks:           chunks,
		CitationCoverage: 1.0,
	})
	factual := s.Calculate(Inputs{
		Query:            "what revenue does the report state",
		Answer:           answer,
		Chunks:           chunks,
		CitationCoverage: 1.0,
	})

	assert.Equal(t, 95.0, summary.Factors.Retrieval)
	assert.Equal(t, 100.0, summary.Factors.Depth)
	assert.InDelta(t, 25.0, factual.Factors.Retrieval, 1e-9)
	assert.InDelta(t, 20.0, factual.Factors.Depth, 1e-9)
}

func TestCalculate_SummarizationWithNoChunksStaysZero(t *testing.T) {
	s := NewScorer()
	score := s.Calculate(Inputs{
		Query:  "give me a summary",
		Answer: "nothing",
		Chunks: nil,
	})
	assert.Equal(t, 0.0, score.Factors.Retrieval)
}

func TestQueryCoverage_MatchedTerms(t *testing.T) {
	s := NewScorer()
	score := s.Calculate(Inputs{
		Query:            "termination notice period",
		Answer:           "The termination clause requires a notice before ending the agreement.",
		Chunks:           chunksWithScores(0.5),
		CitationCoverage: 0,
	})
	// 2 of 3 query tokens appear in the answer
	assert.InDelta(t, 100.0*2.0/3.0, score.Factors.QueryCoverage, 1e-9)
}

func TestQueryCoverage_UnansweredQueryScoresZero(t *testing.T) {
	s := NewScorer()
	score := s.Calculate(Inputs{
		Query:  "what is the",
		Answer: "completely unrelated answer",
		Chunks: chunksWithScores(0.5),
	})
	assert.Equal(t, 0.0, score.Factors.QueryCoverage)
}

func TestQueryCoverage_EmptyQueryScoresZero(t *testing.T) {
	s := NewScorer()
	score := s.Calculate(Inputs{
		Query:  "  ",
		Answer: "an answer",
		Chunks: chunksWithScores(0.5),
	})
	assert.Equal(t, 0.0, score.Factors.QueryCoverage)
}

func TestCalculate_MonotonicInCitationCoverage(t *testing.T) {
	s := NewScorer()
	base := Inputs{
		Query:  "termination clause",
		Answer: "The termination clause requires notice.",
		Chunks: chunksWithScores(0.8),
	}

	low := base
	low.CitationCoverage = 0.2
	high := base
	high.CitationCoverage = 0.9

	assert.Greater(t, s.Calculate(high).Value, s.Calculate(low).Value)
}
