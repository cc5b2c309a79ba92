package strategy

import "strings"

// Profile describes how one answering mode behaves across the pipeline:
// how the prompt is framed, whether queries get rewritten before retrieval,
// how strictly citations are enforced, and what postprocessing the final
// answer receives.
type Profile struct {
	Key     string
	Persona string

	// UseQueryRewrite enables hypothetical-answer query expansion before
	// retrieval. Only applies to collection-wide searches.
	UseQueryRewrite bool

	// RigorousCitations requires most statements to carry citations, not
	// just one valid tag somewhere in the answer.
	RigorousCitations bool

	// Disclaimer, when set, must appear in every non-refusal answer.
	Disclaimer string

	// NormalizeSourceTags rewrites loose citation spellings in the final
	// answer into the bracketed [Source N] display form.
	NormalizeSourceTags bool

	Temperature float64
}

const (
	ModeGeneral  = "general"
	ModeAcademic = "academic"
	ModeLegal    = "legal"
	ModeMedical  = "medical"
)

const (
	LegalDisclaimer   = "This is an automated summary of the provided documents and not legal advice."
	MedicalDisclaimer = "This is an automated summary of the provided documents and not medical advice."
)

var profiles = map[string]Profile{
	ModeGeneral: {
		Key:                 ModeGeneral,
		Persona:             "You are a careful assistant answering questions strictly from the provided document excerpts.",
		UseQueryRewrite:     true,
		NormalizeSourceTags: true,
		Temperature:         0.3,
	},
	ModeAcademic: {
		Key:               ModeAcademic,
		Persona:           "You are a research assistant. Answer precisely and formally, citing the provided excerpts for every claim you make.",
		UseQueryRewrite:   true,
		RigorousCitations: true,
		Temperature:       0.2,
	},
	ModeLegal: {
		Key:         ModeLegal,
		Persona:     "You are an assistant summarizing legal documents. Stay close to the wording of the excerpts and avoid interpretation beyond them.",
		Disclaimer:  LegalDisclaimer,
		Temperature: 0.2,
	},
	ModeMedical: {
		Key:         ModeMedical,
		Persona:     "You are an assistant summarizing medical documents. Report only what the excerpts state and avoid giving recommendations.",
		Disclaimer:  MedicalDisclaimer,
		Temperature: 0.2,
	},
}

// Resolve maps a requested mode to its profile. Matching is case and
// whitespace insensitive. Unknown or empty modes fall back to general.
func Resolve(mode string) Profile {
	key := strings.ToLower(strings.TrimSpace(mode))
	if p, ok := profiles[key]; ok {
		return p
	}
	return profiles[ModeGeneral]
}

// Known reports whether the mode names a defined profile.
func Known(mode string) bool {
	_, ok := profiles[strings.ToLower(strings.TrimSpace(mode))]
	return ok
}
