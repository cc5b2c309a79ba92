package citation

import "document-qa-be/pkg/store"

// AliasMap assigns each retrieved chunk a small integer alias for the
// model to cite. Small integers survive generation far better than long
// identifiers do. Aliases are positional, chunk i gets alias i.
type AliasMap struct {
	ids []string
}

func NewAliasMap(chunks []store.RetrievedChunk) *AliasMap {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return &AliasMap{ids: ids}
}

// Resolve maps an alias back to the real chunk identifier.
func (m *AliasMap) Resolve(alias int) (string, bool) {
	if m == nil || alias < 0 || alias >= len(m.ids) {
		return "", false
	}
	return m.ids[alias], true
}

func (m *AliasMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// IDs returns the real chunk identifiers in alias order.
func (m *AliasMap) IDs() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}
