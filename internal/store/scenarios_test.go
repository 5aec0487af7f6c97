package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestForumLifecycleScenario walks a single thread through posting,
// replying, voting, ranking, and deletion, checking the aggregate state
// after each step the way a fresh-DB smoke test would.
func TestForumLifecycleScenario(t *testing.T) {
	s := openTestStore(t)

	aliceID := createTestUser(t, s, "alice")
	bobID := createTestUser(t, s, "bob")
	carolID := createTestUser(t, s, "carol")
	boardID := createTestBoard(t, s, "main")

	// alice posts T1, automatically upvoting it on create.
	var threadID uint64
	update(t, s, func(w *WriteTxn) error {
		th, err := w.CreateThread(Thread{
			BoardID:    boardID,
			AuthorID:   aliceID,
			Title:      "Hello",
			ContentURL: "https://x.invalid",
		}, 1000)
		if err != nil {
			return err
		}
		threadID = th.ID
		return nil
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		ps, err := r.GetPostStats(threadID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), ps.Upvotes)
		assert.Equal(t, uint64(0), ps.Downvotes)
		assert.Equal(t, int64(1), ps.Karma)
		assert.Equal(t, uint64(0), ps.DescendantCount)
		return nil
	}))

	require.NoError(t, s.View(func(r *ReadTxn) error {
		ids, _, err := r.ListDesc(nsUsersMostPosts, nil, 10)
		require.NoError(t, err)
		require.NotEmpty(t, ids)
		assert.Equal(t, aliceID, ids[0])
		return nil
	}))
	require.NoError(t, s.View(func(r *ReadTxn) error {
		ids, _, err := r.ListDesc(nsBoardsMostPosts, nil, 10)
		require.NoError(t, err)
		require.NotEmpty(t, ids)
		assert.Equal(t, boardID, ids[0])
		return nil
	}))

	// bob replies to T1.
	update(t, s, func(w *WriteTxn) error {
		_, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: threadID, AuthorID: bobID, Content: "hi"}, 1500)
		return err
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		ps, err := r.GetPostStats(threadID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), ps.DescendantCount)
		assert.Equal(t, uint64(1), ps.ChildCount)
		assert.Equal(t, int64(1500), ps.LatestComment)

		aliceStats, err := r.GetUserStats(aliceID)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), aliceStats.CommentCount)

		bobStats, err := r.GetUserStats(bobID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), bobStats.CommentCount)
		return nil
	}))

	// Hot feed of board "main" one hour after T1's creation.
	require.NoError(t, s.View(func(r *ReadTxn) error {
		page, err := r.BoardThreadFeed(boardID, SortHot, 1000+3600, 10, nil)
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, threadID, page.Entries[0].ID)
		want := math.Log(4) / math.Pow(3, 1.8)
		assert.InDelta(t, want, page.Entries[0].Rank, 1e-9)
		return nil
	}))

	// carol downvotes T1.
	update(t, s, func(w *WriteTxn) error {
		return w.Vote(carolID, threadID, -1, 1600)
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		ps, err := r.GetPostStats(threadID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), ps.Karma)
		assert.Equal(t, uint64(1), ps.Downvotes)
		return nil
	}))

	// Deleting T1 removes it and its reply from every index and rolls
	// back the aggregate counters it contributed to.
	update(t, s, func(w *WriteTxn) error {
		return w.DeleteThread(threadID)
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		_, err := r.GetThread(threadID)
		assert.Error(t, err)

		aliceStats, err := r.GetUserStats(aliceID)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), aliceStats.ThreadCount)

		bs, err := r.GetBoardStats(boardID)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), bs.ThreadCount)
		assert.Equal(t, uint64(0), bs.CommentCount)
		return nil
	}))
}
