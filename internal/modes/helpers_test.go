package modes

import (
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/ccg/internal/state"
)

func newStore(t *testing.T) *state.Store {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	store := state.NewStore(fsys, state.DefaultDir)
	store.SetClock(func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) })
	return store
}
