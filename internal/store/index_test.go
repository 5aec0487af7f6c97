package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIndexAndScanForward(t *testing.T) {
	s := openTestStore(t)

	update(t, s, func(w *WriteTxn) error {
		for _, id := range []uint64{10, 20, 30} {
			if err := w.insertIndex(nsUsersNew, NewCursor1(id*100), id); err != nil {
				return err
			}
		}
		return nil
	})

	var got []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		return r.scanForward(nsUsersNew, Cursor{}, 1, func(e iterEntry) bool {
			got = append(got, e.ID)
			return true
		})
	}))
	assert.Equal(t, []uint64{10, 20, 30}, got)
}

func TestScanReverseYieldsDescendingOrder(t *testing.T) {
	s := openTestStore(t)

	update(t, s, func(w *WriteTxn) error {
		for _, id := range []uint64{10, 20, 30} {
			if err := w.insertIndex(nsUsersNew, NewCursor1(id*100), id); err != nil {
				return err
			}
		}
		return nil
	})

	var got []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		return r.scanReverse(nsUsersNew, Cursor{}, 1, func(e iterEntry) bool {
			got = append(got, e.ID)
			return true
		})
	}))
	assert.Equal(t, []uint64{30, 20, 10}, got)
}

func TestScanForwardRespectsEarlyTermination(t *testing.T) {
	s := openTestStore(t)

	update(t, s, func(w *WriteTxn) error {
		for _, id := range []uint64{10, 20, 30} {
			if err := w.insertIndex(nsUsersNew, NewCursor1(id*100), id); err != nil {
				return err
			}
		}
		return nil
	})

	var got []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		return r.scanForward(nsUsersNew, Cursor{}, 1, func(e iterEntry) bool {
			got = append(got, e.ID)
			return len(got) < 2
		})
	}))
	assert.Equal(t, []uint64{10, 20}, got)
}

func TestRemoveIndexDeletesEntryAndToleratesAbsence(t *testing.T) {
	s := openTestStore(t)

	update(t, s, func(w *WriteTxn) error {
		return w.insertIndex(nsUsersNew, NewCursor1(1000), 7)
	})
	update(t, s, func(w *WriteTxn) error {
		return w.removeIndex(nsUsersNew, NewCursor1(1000), 7)
	})
	// Deleting an already-absent entry must not error.
	update(t, s, func(w *WriteTxn) error {
		return w.removeIndex(nsUsersNew, NewCursor1(1000), 7)
	})

	var got []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		return r.scanForward(nsUsersNew, Cursor{}, 1, func(e iterEntry) bool {
			got = append(got, e.ID)
			return true
		})
	}))
	assert.Empty(t, got)
}

func TestReindexMovesEntryToNewSortKey(t *testing.T) {
	s := openTestStore(t)

	update(t, s, func(w *WriteTxn) error {
		return w.insertIndex(nsUsersNew, NewCursor1(1000), 7)
	})
	update(t, s, func(w *WriteTxn) error {
		return w.reindex(nsUsersNew, NewCursor1(1000), NewCursor1(2000), 7)
	})

	var got []iterEntry
	require.NoError(t, s.View(func(r *ReadTxn) error {
		return r.scanForward(nsUsersNew, Cursor{}, 1, func(e iterEntry) bool {
			got = append(got, e)
			return true
		})
	}))
	require.Len(t, got, 1)
	assert.Equal(t, uint64(7), got[0].ID)
	assert.Equal(t, uint64(2000), got[0].Sort.A())
}

func TestResolveOrSkipSkipsMissingReferent(t *testing.T) {
	s := openTestStore(t)

	var called bool
	require.NoError(t, s.View(func(r *ReadTxn) error {
		ok := resolveOrSkip[User](r, nsUser, 99999, "test.resolveOrSkip", func(u *User) { called = true })
		assert.False(t, ok)
		return nil
	}))
	assert.False(t, called)
}

func TestResolveOrSkipInvokesCallbackOnHit(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "resolvable")

	var got *User
	require.NoError(t, s.View(func(r *ReadTxn) error {
		ok := resolveOrSkip[User](r, nsUser, userID, "test.resolveOrSkip", func(u *User) { got = u })
		assert.True(t, ok)
		return nil
	}))
	require.NotNil(t, got)
	assert.Equal(t, "resolvable", got.Name)
}
