package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		wantKey  string
		rigorous bool
	}{
		{name: "empty falls back to general", mode: "", wantKey: ModeGeneral},
		{name: "unknown falls back to general", mode: "pirate", wantKey: ModeGeneral},
		{name: "academic", mode: "academic", wantKey: ModeAcademic, rigorous: true},
		{name: "case insensitive", mode: "ACADEMIC", wantKey: ModeAcademic, rigorous: true},
		{name: "whitespace trimmed", mode: "  legal ", wantKey: ModeLegal},
		{name: "medical", mode: "medical", wantKey: ModeMedical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.mode)
			assert.Equal(t, tt.wantKey, p.Key)
			assert.Equal(t, tt.rigorous, p.RigorousCitations)
		})
	}
}

func TestResolve_Disclaimers(t *testing.T) {
	assert.Equal(t, LegalDisclaimer, Resolve("legal").Disclaimer)
	assert.Equal(t, MedicalDisclaimer, Resolve("medical").Disclaimer)
	assert.Empty(t, Resolve("general").Disclaimer)
	assert.Empty(t, Resolve("academic").Disclaimer)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("general"))
	assert.True(t, Known(" Medical "))
	assert.False(t, Known("pirate"))
	assert.False(t, Known(""))
}
