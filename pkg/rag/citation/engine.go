package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"document-qa-be/pkg/rag/prompt"
	"document-qa-be/pkg/rag/strategy"
)

// aliasTagPattern matches [DOC 0] and compound forms like [DOC 0, 1].
var aliasTagPattern = regexp.MustCompile(`\[DOC\s+([0-9]+(?:\s*,\s*[0-9]+)*)\]`)

// citationTagPattern matches any [DOC <id>] tag after alias resolution.
var citationTagPattern = regexp.MustCompile(`\[DOC\s+([^\]]+)\]`)

// refusalPrefixes identify honest "no answer" replies. Matching is prefix
// based and case insensitive.
var refusalPrefixes = []string{
	"i could not find the answer",
	"i couldn't find the answer",
	"i cannot find",
	"i can't find",
	"not found in the provided documents",
	"the provided documents do not contain",
	"the excerpts do not contain",
}

// Validation summarizes how well an answer's citations check out.
type Validation struct {
	Valid            int      `json:"valid"`
	Total            int      `json:"total"`
	Coverage         float64  `json:"coverage"`
	InvalidCitations []string `json:"invalid_citations"`
}

// Outcome is the result of running an answer through the engine.
type Outcome struct {
	Answer     string
	Validation Validation
	Accepted   bool
	Refusal    bool
}

// Engine resolves citation aliases, validates the resulting tags, and
// decides whether the answer is trustworthy enough to return.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ResolveAliases rewrites alias tags into real chunk identifier tags.
// Compound tags like [DOC 0, 1] fan out to one tag per alias. An alias
// with no mapping keeps its integer form so validation can count it as
// invalid instead of silently dropping it.
func (e *Engine) ResolveAliases(answer string, aliases *AliasMap) string {
	return aliasTagPattern.ReplaceAllStringFunc(answer, func(tag string) string {
		inner := aliasTagPattern.FindStringSubmatch(tag)[1]
		parts := strings.Split(inner, ",")

		resolved := make([]string, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				resolved = append(resolved, fmt.Sprintf("[DOC %s]", strings.TrimSpace(part)))
				continue
			}
			if id, ok := aliases.Resolve(n); ok {
				resolved = append(resolved, fmt.Sprintf("[DOC %s]", id))
			} else {
				resolved = append(resolved, fmt.Sprintf("[DOC %d]", n))
			}
		}
		return strings.Join(resolved, " ")
	})
}

// Validate extracts the distinct citation tags from an answer and checks
// them against the identifiers that were actually offered to the model.
func (e *Engine) Validate(answer string, validIDs []string) Validation {
	validSet := make(map[string]bool, len(validIDs))
	for _, id := range validIDs {
		validSet[id] = true
	}

	seen := make(map[string]bool)
	valid := 0
	invalid := []string{}
	for _, match := range citationTagPattern.FindAllStringSubmatch(answer, -1) {
		id := strings.TrimSpace(match[1])
		if seen[id] {
			continue
		}
		seen[id] = true
		if validSet[id] {
			valid++
		} else {
			invalid = append(invalid, id)
		}
	}

	total := len(seen)
	coverage := 0.0
	if total > 0 {
		coverage = float64(valid) / float64(total)
	}

	return Validation{
		Valid:            valid,
		Total:            total,
		Coverage:         coverage,
		InvalidCitations: invalid,
	}
}

// IsRefusal reports whether the answer is an honest "no answer" reply.
func (e *Engine) IsRefusal(answer string) bool {
	lower := strings.ToLower(strings.TrimSpace(answer))
	for _, prefix := range refusalPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Process runs the full chain: alias resolution, validation, and the
// acceptance decision. A rejected answer is replaced with the canonical
// refusal and its coverage forced to zero.
func (e *Engine) Process(rawAnswer string, aliases *AliasMap, profile strategy.Profile) Outcome {
	resolved := e.ResolveAliases(rawAnswer, aliases)
	validation := e.Validate(resolved, aliases.IDs())

	if e.IsRefusal(resolved) && validation.Valid == 0 {
		return Outcome{
			Answer:     resolved,
			Validation: validation,
			Accepted:   true,
			Refusal:    true,
		}
	}

	accepted := validation.Total > 0 && validation.Valid >= 1
	if profile.RigorousCitations {
		accepted = validation.Total > 0 && validation.Coverage >= 0.75
	}

	if !accepted {
		validation.Coverage = 0
		return Outcome{
			Answer:     prompt.RefusalAnswer,
			Validation: validation,
			Accepted:   false,
			Refusal:    true,
		}
	}

	return Outcome{
		Answer:     resolved,
		Validation: validation,
		Accepted:   true,
	}
}
