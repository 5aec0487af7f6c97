package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestStore opens a fresh Store backed by a temp directory, closed
// automatically at test cleanup.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func update(t *testing.T, s *Store, fn func(*WriteTxn) error) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), PriorityUser, fn))
}
