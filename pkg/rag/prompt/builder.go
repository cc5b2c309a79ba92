package prompt

import (
	"fmt"
	"strings"

	"document-qa-be/pkg/llm"
	"document-qa-be/pkg/rag/strategy"
	"document-qa-be/pkg/store"
)

// RefusalAnswer is the exact sentence the model is told to produce when the
// excerpts do not contain the answer. The acceptance check recognizes it.
const RefusalAnswer = "I could not find the answer in the provided documents."

// ContextBuilder assembles the grounded answering prompt: persona, the
// retrieved excerpts labeled with citation aliases, citation rules, recent
// conversation, and the question itself.
type ContextBuilder struct {
	profile strategy.Profile
	query   string
	chunks  []store.RetrievedChunk
	history []llm.Message
}

func NewContextBuilder(profile strategy.Profile, query string, chunks []store.RetrievedChunk, history []llm.Message) *ContextBuilder {
	return &ContextBuilder{
		profile: profile,
		query:   query,
		chunks:  chunks,
		history: history,
	}
}

// Build renders the sections in a fixed order: persona, citation rules
// with the alias list, prior conversation, excerpts, question. The rules
// come before the material they govern so the model reads them first.
func (b *ContextBuilder) Build() string {
	var prompt strings.Builder

	b.writePersona(&prompt)
	b.writeCitationRules(&prompt)
	b.writeHistory(&prompt)
	b.writeExcerpts(&prompt)
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *ContextBuilder) writePersona(prompt *strings.Builder) {
	prompt.WriteString(b.profile.Persona)
	prompt.WriteString("\n\n")
}

func (b *ContextBuilder) writeExcerpts(prompt *strings.Builder) {
	prompt.WriteString("<excerpts>\n")
	for i, chunk := range b.chunks {
		fmt.Fprintf(prompt, "[DOC %d]", i)
		if chunk.Metadata.Filename != "" {
			fmt.Fprintf(prompt, " (from %s)", chunk.Metadata.Filename)
		}
		prompt.WriteString(" ")
		prompt.WriteString(flatten(chunk.Text))
		prompt.WriteString("\n")
	}
	prompt.WriteString("</excerpts>\n\n")
}

// flatten collapses whitespace runs, newlines included, into single
// spaces. A line break inside an excerpt could split a citation tag the
// model copies back out.
func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func (b *ContextBuilder) writeCitationRules(prompt *strings.Builder) {
	prompt.WriteString("<rules>\n")
	fmt.Fprintf(prompt, "1. Answer using only the excerpts below. The valid citation tags are: %s.\n", b.aliasList())
	prompt.WriteString("2. After every claim taken from an excerpt, append its tag, e.g. a sentence supported by the first excerpt ends with [DOC 0].\n")
	prompt.WriteString("3. Never cite a tag that is not in the list above, and never invent information that is not in the excerpts.\n")
	if b.profile.RigorousCitations {
		prompt.WriteString("4. Every sentence that states a fact must carry at least one tag.\n")
	}
	fmt.Fprintf(prompt, "If the excerpts do not contain the answer, reply with exactly: %s\n", RefusalAnswer)
	if b.profile.Disclaimer != "" {
		fmt.Fprintf(prompt, "End every answer (except a refusal) with this sentence: %s\n", b.profile.Disclaimer)
	}
	prompt.WriteString("\n")
	prompt.WriteString("Example of a well-cited answer:\n")
	prompt.WriteString("The contract was signed in March [DOC 0]. It covers a two year term [DOC 1].\n")
	fmt.Fprintf(prompt, "Remember, the only valid tags are %s.\n", b.aliasList())
	prompt.WriteString("</rules>\n\n")
}

func (b *ContextBuilder) writeHistory(prompt *strings.Builder) {
	if len(b.history) == 0 {
		return
	}

	prompt.WriteString("<conversation>\n")
	for _, msg := range b.history {
		label := "User"
		if msg.Role == "assistant" {
			label = "Assistant"
		}
		fmt.Fprintf(prompt, "%s: %s\n", label, msg.Content)
	}
	prompt.WriteString("</conversation>\n\n")
}

func (b *ContextBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("<question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</question>\n\n")
	prompt.WriteString("Answer now, citing as instructed:")
}

func (b *ContextBuilder) aliasList() string {
	tags := make([]string, len(b.chunks))
	for i := range b.chunks {
		tags[i] = fmt.Sprintf("[DOC %d]", i)
	}
	return strings.Join(tags, ", ")
}
