package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeDoc(t *testing.T) {
	assert.Equal(t, DocRalph, ModeDoc(ModeRalph))
	assert.Equal(t, DocTeam, ModeDoc(ModeTeam))
	assert.Equal(t, DocAutopilot, ModeDoc(ModeAutopilot))
}

func TestActiveModes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *Store)
		want  []string
	}{
		{
			name:  "nothing persisted",
			setup: func(t *testing.T, s *Store) {},
			want:  nil,
		},
		{
			name: "plain ralph and team",
			setup: func(t *testing.T, s *Store) {
				require.NoError(t, s.Write(DocRalph, &RalphState{Variant: VariantPlain, Active: true}))
				require.NoError(t, s.Write(DocTeam, &TeamState{Variant: VariantPlain, Active: true}))
			},
			want: []string{"ralph", "team"},
		},
		{
			name: "composite variants are annotated",
			setup: func(t *testing.T, s *Store) {
				require.NoError(t, s.Write(DocRalph, &RalphState{Variant: VariantComposite, Active: true}))
				require.NoError(t, s.Write(DocAutopilot, &AutopilotState{Variant: VariantComposite, Active: true}))
			},
			want: []string{"ralph-team", "autopilot-composite"},
		},
		{
			name: "inactive documents are skipped",
			setup: func(t *testing.T, s *Store) {
				require.NoError(t, s.Write(DocRalph, &RalphState{Variant: VariantPlain, Active: false}))
				require.NoError(t, s.Write(DocAutopilot, &AutopilotState{Variant: VariantPlain, Active: true}))
			},
			want: []string{"autopilot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newMemStore(t)
			tt.setup(t, s)
			assert.Equal(t, tt.want, s.ActiveModes())
			assert.Equal(t, len(tt.want) > 0, s.AnyModeActive())
		})
	}
}

func TestAutopilotState_Composite(t *testing.T) {
	plain := AutopilotState{Variant: VariantPlain, PhasesCompleted: []Phase{PhaseInit}}
	assert.False(t, plain.Composite(), "composite is decided by the variant, not by field presence")

	composite := AutopilotState{Variant: VariantComposite}
	assert.True(t, composite.Composite())
}
