package citation

import "regexp"

// Loose citation spellings the model may emit: (Source 3), [Source 3],
// (Doc 3), [3], (3). All are rewritten to the bracketed [Source N] form.
// The digit ceiling keeps years like (2025) from ever matching.
var looseTagPattern = regexp.MustCompile(`(?i)[\(\[]\s*(?:doc|source)?\s*(\d{1,3})\s*[\)\]]`)

// NormalizeSourceTags rewrites loose citation spellings into [Source N].
// The rewrite is idempotent, [Source 3] normalizes to itself.
func NormalizeSourceTags(text string) string {
	return looseTagPattern.ReplaceAllString(text, "[Source $1]")
}
