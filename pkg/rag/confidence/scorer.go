package confidence

import (
	"strings"

	"document-qa-be/pkg/store"
)

// Categories for the final confidence score.
const (
	CategoryHigh   = "High"
	CategoryMedium = "Medium"
	CategoryLow    = "Low"
)

// Factor weights. Retrieval quality and citation discipline dominate,
// lexical overlap and answer depth refine.
const (
	weightRetrieval     = 0.3
	weightCitation      = 0.3
	weightQueryCoverage = 0.2
	weightDepth         = 0.2
)

// maxScore caps the final value. A fully automated check never warrants
// a perfect score.
const maxScore = 95.0

// depthDenominator is the word count treated as a fully developed answer.
// Summarization asks are expected to be short, so they use a smaller one.
const (
	depthDenominator         = 500.0
	depthDenominatorCondense = 100.0
)

var summarizationVocab = []string{
	"summarize", "summary", "overview", "brief", "tl;dr", "key points",
}

// Factors holds the individual scores, each in [0, 100].
type Factors struct {
	Retrieval     float64 `json:"retrieval"`
	Citation      float64 `json:"citation"`
	QueryCoverage float64 `json:"query_coverage"`
	Depth         float64 `json:"depth"`
}

// Score is the weighted confidence result.
type Score struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
	Factors  Factors `json:"factors"`
}

// Inputs for one scoring run.
type Inputs struct {
	Query            string
	Answer           string
	Chunks           []store.RetrievedChunk
	CitationCoverage float64 // valid/total from citation validation, in [0, 1]
}

type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate produces the weighted confidence score. Values land in
// [0, 95], High at 75 and above, Medium at 50 and above.
func (s *Scorer) Calculate(in Inputs) Score {
	condensing := isSummarization(in.Query)

	f := Factors{
		Retrieval:     retrievalScore(in.Chunks, condensing),
		Citation:      clamp(in.CitationCoverage*100, 0, 100),
		QueryCoverage: queryCoverageScore(in.Query, in.Answer),
		Depth:         depthScore(in.Answer, condensing),
	}

	value := weightRetrieval*f.Retrieval +
		weightCitation*f.Citation +
		weightQueryCoverage*f.QueryCoverage +
		weightDepth*f.Depth
	value = clamp(value, 0, maxScore)

	return Score{
		Value:    value,
		Category: Categorize(value),
		Factors:  f,
	}
}

// Categorize maps a score value to its label.
func Categorize(value float64) string {
	switch {
	case value >= 75:
		return CategoryHigh
	case value >= 50:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

func retrievalScore(chunks []store.RetrievedChunk, condensing bool) float64 {
	if len(chunks) == 0 {
		return 0
	}
	// Similarity to a "summarize this" query says little about whether
	// the right material was retrieved, so condensing asks get a fixed
	// high score as long as anything came back.
	if condensing {
		return 95
	}

	var sum float64
	for _, c := range chunks {
		sum += c.Score
	}
	avg := sum / float64(len(chunks))
	return clamp(avg*100, 0, 100)
}

// queryCoverageScore is the fraction of distinct lowercased query tokens
// that also appear as tokens of the answer. A query with no tokens has
// nothing to cover and scores zero.
func queryCoverageScore(query, answer string) float64 {
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return 0
	}

	answerTokens := tokenSet(answer)
	found := 0
	for token := range queryTokens {
		if answerTokens[token] {
			found++
		}
	}
	return float64(found) / float64(len(queryTokens)) * 100
}

func depthScore(answer string, condensing bool) float64 {
	denominator := depthDenominator
	if condensing {
		denominator = depthDenominatorCondense
	}
	words := float64(len(strings.Fields(answer)))
	return clamp(words/denominator*100, 0, 100)
}

func isSummarization(query string) bool {
	lower := strings.ToLower(query)
	for _, term := range summarizationVocab {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if w := strings.Trim(w, ".,?!;:\"'"); w != "" {
			set[w] = true
		}
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
