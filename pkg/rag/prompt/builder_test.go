package prompt

import (
	"strings"
	"testing"

	"document-qa-be/pkg/llm"
	"document-qa-be/pkg/rag/strategy"
	"document-qa-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func sampleChunks() []store.RetrievedChunk {
	return []store.RetrievedChunk{
		{ID: "chunk-a", Text: "The contract was signed in March.", Metadata: store.ChunkMetadata{Filename: "contract.pdf"}},
		{ID: "chunk-b", Text: "The term is two years."},
	}
}

func TestBuild_ContainsExcerptsWithAliases(t *testing.T) {
	b := NewContextBuilder(strategy.Resolve("general"), "when was it signed", sampleChunks(), nil)
	out := b.Build()

	assert.Contains(t, out, "[DOC 0]")
	assert.Contains(t, out, "[DOC 1]")
	assert.Contains(t, out, "The contract was signed in March.")
	assert.Contains(t, out, "(from contract.pdf)")
	assert.Contains(t, out, "when was it signed")
	assert.Contains(t, out, RefusalAnswer)
}

func TestBuild_AliasListAppearsTwice(t *testing.T) {
	b := NewContextBuilder(strategy.Resolve("general"), "q", sampleChunks(), nil)
	out := b.Build()

	list := "[DOC 0], [DOC 1]"
	assert.GreaterOrEqual(t, strings.Count(out, list), 2)
}

func TestBuild_RigorousModeAddsPerSentenceRule(t *testing.T) {
	general := NewContextBuilder(strategy.Resolve("general"), "q", sampleChunks(), nil).Build()
	academic := NewContextBuilder(strategy.Resolve("academic"), "q", sampleChunks(), nil).Build()

	rule := "Every sentence that states a fact must carry at least one tag."
	assert.NotContains(t, general, rule)
	assert.Contains(t, academic, rule)
}

func TestBuild_DisclaimerInstructionForLegalMode(t *testing.T) {
	out := NewContextBuilder(strategy.Resolve("legal"), "q", sampleChunks(), nil).Build()
	assert.Contains(t, out, strategy.LegalDisclaimer)
}

func TestBuild_ExcerptTextFlattened(t *testing.T) {
	chunks := []store.RetrievedChunk{
		{ID: "chunk-a", Text: "line one\nline two [DOC\nbroken"},
	}
	out := NewContextBuilder(strategy.Resolve("general"), "q", chunks, nil).Build()

	assert.Contains(t, out, "[DOC 0] line one line two [DOC broken")

	// no excerpt line may contain an embedded newline
	start := strings.Index(out, "<excerpts>")
	end := strings.Index(out, "</excerpts>")
	block := out[start+len("<excerpts>")+1 : end]
	for _, line := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		assert.True(t, strings.HasPrefix(line, "[DOC "), "excerpt line %q lost its tag", line)
	}
}

func TestBuild_SectionOrderFixed(t *testing.T) {
	history := []llm.Message{{Role: "user", Content: "earlier question"}}
	b := NewContextBuilder(strategy.Resolve("general"), "the question", sampleChunks(), history)
	out := b.Build()

	persona := strings.Index(out, strategy.Resolve("general").Persona)
	rules := strings.Index(out, "<rules>")
	conversation := strings.Index(out, "<conversation>")
	excerpts := strings.Index(out, "<excerpts>")
	question := strings.Index(out, "<question>")

	assert.True(t, persona >= 0 && persona < rules, "persona before rules")
	assert.True(t, rules < conversation, "rules before history")
	assert.True(t, conversation < excerpts, "history before excerpts")
	assert.True(t, excerpts < question, "excerpts before question")
}

func TestBuild_HistoryRenderedAsDialogue(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	out := NewContextBuilder(strategy.Resolve("general"), "follow up", sampleChunks(), history).Build()

	assert.Contains(t, out, "User: first question")
	assert.Contains(t, out, "Assistant: first answer")

	noHistory := NewContextBuilder(strategy.Resolve("general"), "q", sampleChunks(), nil).Build()
	assert.NotContains(t, noHistory, "<conversation>")
}
