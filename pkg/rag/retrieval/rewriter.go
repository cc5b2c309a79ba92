package retrieval

import (
	"context"
	"strings"
	"time"

	"document-qa-be/pkg/llm"

	"github.com/patrickmn/go-cache"
)

// Rewriter expands broad queries into hypothetical answer passages before
// embedding. A short factual passage lands closer to real document chunks
// in vector space than a terse question does. Specific queries are left
// untouched since they already embed well.
type Rewriter struct {
	provider llm.LLMProvider
	memo     *cache.Cache
}

func NewRewriter(provider llm.LLMProvider) *Rewriter {
	return &Rewriter{
		provider: provider,
		memo:     cache.New(30*time.Minute, 10*time.Minute),
	}
}

// Rewrite returns the text to embed for retrieval. Any failure along the
// way falls back to the original query, rewriting is best effort.
func (r *Rewriter) Rewrite(ctx context.Context, query string) string {
	if r == nil || r.provider == nil {
		return query
	}

	if cached, found := r.memo.Get(query); found {
		return cached.(string)
	}

	if !r.isBroad(ctx, query) {
		r.memo.Set(query, query, cache.DefaultExpiration)
		return query
	}

	prompt := "Write a short factual paragraph that would plausibly appear in a document answering the question below. " +
		"Do not address the reader, do not say whether you know the answer, just write the paragraph.\n\n" +
		"Question: " + query
	result, err := r.provider.Generate(ctx, prompt, llm.WithTemperature(0.5), llm.WithMaxTokens(200))
	if err != nil {
		return query
	}

	passage := strings.TrimSpace(result.Text)
	if passage == "" {
		return query
	}

	r.memo.Set(query, passage, cache.DefaultExpiration)
	return passage
}

func (r *Rewriter) isBroad(ctx context.Context, query string) bool {
	prompt := "Classify the question as BROAD (open ended, thematic, exploratory) or SPECIFIC (asks for a particular fact, name, number, or definition). " +
		"Reply with exactly one word, BROAD or SPECIFIC.\n\n" +
		"Question: " + query
	result, err := r.provider.Generate(ctx, prompt, llm.WithTemperature(0), llm.WithMaxTokens(5))
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToUpper(result.Text), "BROAD")
}
