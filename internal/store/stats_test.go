package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsActiveReply(t *testing.T) {
	assert.True(t, isActiveReply(1000, 1000, 500))
	assert.True(t, isActiveReply(1000, 1500, 500))
	assert.False(t, isActiveReply(1000, 1501, 500))
	assert.False(t, isActiveReply(1000, 999, 500))
}

func TestBumpUserStatsCreatesZeroRecordOnFirstUse(t *testing.T) {
	s := openTestStore(t)
	// No UserStats record exists for this id (CreateUser would write one),
	// so the bump has to create the zero record itself.
	userID := IDMinUser + 4242

	update(t, s, func(w *WriteTxn) error {
		return w.bumpUserStats(userID, func(us *UserStats) { us.ThreadCount++ })
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		st, err := r.GetUserStats(userID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), st.ThreadCount)
		return nil
	}))
}

func TestBumpBoardStatsAccumulates(t *testing.T) {
	s := openTestStore(t)
	var boardID uint64
	update(t, s, func(w *WriteTxn) error {
		b, err := w.CreateBoard(Board{Name: "statsboard"}, 1000)
		if err != nil {
			return err
		}
		boardID = b.ID
		return nil
	})

	update(t, s, func(w *WriteTxn) error {
		return w.bumpBoardStats(boardID, func(bs *BoardStats) { bs.ThreadCount += 2 })
	})
	update(t, s, func(w *WriteTxn) error {
		return w.bumpBoardStats(boardID, func(bs *BoardStats) { bs.ThreadCount++ })
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		bs, err := r.GetBoardStats(boardID)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), bs.ThreadCount)
		return nil
	}))
}

func TestBumpSiteStatsTracksUserAndBoardCreation(t *testing.T) {
	s := openTestStore(t)
	createTestUser(t, s, "siteuser")
	update(t, s, func(w *WriteTxn) error {
		_, err := w.CreateBoard(Board{Name: "siteboard"}, 1000)
		return err
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		ss, err := r.GetSiteStats()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ss.UserCount, uint64(1))
		assert.GreaterOrEqual(t, ss.BoardCount, uint64(1))
		return nil
	}))
}
