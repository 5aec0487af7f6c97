package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, s *Store, name string) uint64 {
	t.Helper()
	var id uint64
	update(t, s, func(w *WriteTxn) error {
		u, err := w.CreateUser(User{Name: name}, 1000)
		if err != nil {
			return err
		}
		id = u.ID
		return nil
	})
	return id
}

func TestCreateSessionDefaultsToOneDayTTL(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "alice")

	var sess *Session
	update(t, s, func(w *WriteTxn) error {
		var err error
		sess, err = w.CreateSession(userID, "127.0.0.1", "test-agent", 1000, false)
		return err
	})

	require.NotZero(t, sess.ID)
	assert.Equal(t, userID, sess.UserID)
	assert.Equal(t, int64(1000+sessionTTLDefault), sess.ExpiresAt)
	assert.False(t, sess.Remember)
}

func TestCreateSessionRememberExtendsTTL(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "bob")

	var sess *Session
	update(t, s, func(w *WriteTxn) error {
		var err error
		sess, err = w.CreateSession(userID, "127.0.0.1", "test-agent", 1000, true)
		return err
	})

	assert.Equal(t, int64(1000+sessionTTLRemember), sess.ExpiresAt)
}

func TestListSessionsForUser(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "carol")

	var first, second uint64
	update(t, s, func(w *WriteTxn) error {
		a, err := w.CreateSession(userID, "10.0.0.1", "agent-a", 1000, false)
		if err != nil {
			return err
		}
		b, err := w.CreateSession(userID, "10.0.0.2", "agent-b", 1001, false)
		if err != nil {
			return err
		}
		first, second = a.ID, b.ID
		return nil
	})

	var ids []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		var err error
		ids, err = r.ListSessionsForUser(userID)
		return err
	}))
	assert.ElementsMatch(t, []uint64{first, second}, ids)
}

func TestDeleteSessionRemovesFromIndex(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "dave")

	var sess *Session
	update(t, s, func(w *WriteTxn) error {
		var err error
		sess, err = w.CreateSession(userID, "127.0.0.1", "test-agent", 1000, false)
		return err
	})

	update(t, s, func(w *WriteTxn) error {
		return w.DeleteSession(sess.ID)
	})

	var ids []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		var err error
		ids, err = r.ListSessionsForUser(userID)
		return err
	}))
	assert.Empty(t, ids)

	err := s.View(func(r *ReadTxn) error {
		_, getErr := r.GetSession(sess.ID)
		assert.Error(t, getErr)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteSessionToleratesAlreadyAbsent(t *testing.T) {
	s := openTestStore(t)
	update(t, s, func(w *WriteTxn) error {
		return w.DeleteSession(999999)
	})
}

func TestSweepExpiredSessionsRunsOpportunistically(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "erin")

	var expiredID uint64
	update(t, s, func(w *WriteTxn) error {
		sess, err := w.CreateSession(userID, "127.0.0.1", "test-agent", 1000, false)
		if err != nil {
			return err
		}
		expiredID = sess.ID
		return nil
	})

	// Force the expired session's expires_at into the past directly, then
	// drive enough session creations to trip the sampling sweep.
	update(t, s, func(w *WriteTxn) error {
		sess, err := getEntity[Session](w.base, nsSession, expiredID, "test")
		if err != nil {
			return err
		}
		sess.ExpiresAt = 500
		return setEntity(w, nsSession, expiredID, sess, "test")
	})

	for i := uint64(0); i < SessionCleanupEvery; i++ {
		update(t, s, func(w *WriteTxn) error {
			_, err := w.CreateSession(userID, "127.0.0.1", "test-agent", 2000, false)
			return err
		})
	}

	require.NoError(t, s.View(func(r *ReadTxn) error {
		_, err := r.GetSession(expiredID)
		assert.Error(t, err)
		return nil
	}))
}
