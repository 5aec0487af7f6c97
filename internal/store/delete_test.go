package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeleteCommentDecrementsAncestorChain covers a three-deep reply chain
// (thread -> c1 -> c2 -> c3): deleting c2 should remove c2 and c3 and walk
// the remaining ancestors (c1, thread) decrementing descendant_count by 2
// (c2 itself plus its one descendant c3), and child_count by one on c1
// alone, the direct parent.
func TestDeleteCommentDecrementsAncestorChain(t *testing.T) {
	s := openTestStore(t)
	authorID := createTestUser(t, s, "delcommentauthor")
	boardID := createTestBoard(t, s, "delcommentboard")

	var threadID, c1ID, c2ID, c3ID uint64
	update(t, s, func(w *WriteTxn) error {
		th, err := w.CreateThread(Thread{BoardID: boardID, AuthorID: authorID, Title: "root"}, 1000)
		if err != nil {
			return err
		}
		threadID = th.ID
		return nil
	})
	update(t, s, func(w *WriteTxn) error {
		c, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: threadID, AuthorID: authorID, Content: "c1"}, 1100)
		if err != nil {
			return err
		}
		c1ID = c.ID
		return nil
	})
	update(t, s, func(w *WriteTxn) error {
		c, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: c1ID, AuthorID: authorID, Content: "c2"}, 1200)
		if err != nil {
			return err
		}
		c2ID = c.ID
		return nil
	})
	update(t, s, func(w *WriteTxn) error {
		c, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: c2ID, AuthorID: authorID, Content: "c3"}, 1300)
		if err != nil {
			return err
		}
		c3ID = c.ID
		return nil
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		ps, err := r.GetPostStats(threadID)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), ps.DescendantCount)
		ps1, err := r.GetPostStats(c1ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), ps1.DescendantCount)
		assert.Equal(t, uint64(1), ps1.ChildCount)
		return nil
	}))

	update(t, s, func(w *WriteTxn) error {
		return w.DeleteComment(c2ID)
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		_, err := r.GetComment(c2ID)
		assert.Error(t, err)
		_, err = r.GetComment(c3ID)
		assert.Error(t, err)

		threadStats, err := r.GetPostStats(threadID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), threadStats.DescendantCount)

		c1Stats, err := r.GetPostStats(c1ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), c1Stats.DescendantCount)
		assert.Equal(t, uint64(0), c1Stats.ChildCount)

		boardStats, err := r.GetBoardStats(boardID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), boardStats.CommentCount)

		site, err := r.GetSiteStats()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), site.CommentCount)
		return nil
	}))
}

// TestDeleteBoardCascadesThreadsCommentsAndSubscriptions deletes a board
// with one thread, one reply, and one subscriber, and checks the board,
// its contents, and the subscription all vanish while SiteStats reflects
// the removal.
func TestDeleteBoardCascadesThreadsCommentsAndSubscriptions(t *testing.T) {
	s := openTestStore(t)
	authorID := createTestUser(t, s, "delboardauthor")
	subscriberID := createTestUser(t, s, "delboardsub")
	boardID := createTestBoard(t, s, "delboard")

	update(t, s, func(w *WriteTxn) error {
		return w.Subscribe(subscriberID, boardID)
	})

	var threadID, commentID uint64
	update(t, s, func(w *WriteTxn) error {
		th, err := w.CreateThread(Thread{BoardID: boardID, AuthorID: authorID, Title: "t"}, 1000)
		if err != nil {
			return err
		}
		threadID = th.ID
		return nil
	})
	update(t, s, func(w *WriteTxn) error {
		c, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: threadID, AuthorID: authorID, Content: "c"}, 1100)
		if err != nil {
			return err
		}
		commentID = c.ID
		return nil
	})

	var siteBefore *SiteStats
	require.NoError(t, s.View(func(r *ReadTxn) error {
		var err error
		siteBefore, err = r.GetSiteStats()
		return err
	}))

	update(t, s, func(w *WriteTxn) error {
		return w.DeleteBoard(boardID)
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		_, err := r.GetBoard(boardID)
		assert.Error(t, err)
		_, err = r.GetThread(threadID)
		assert.Error(t, err)
		_, err = r.GetComment(commentID)
		assert.Error(t, err)
		assert.False(t, r.IsSubscribed(subscriberID, boardID))

		site, err := r.GetSiteStats()
		require.NoError(t, err)
		assert.Equal(t, siteBefore.BoardCount-1, site.BoardCount)
		assert.Equal(t, uint64(0), site.ThreadCount)
		assert.Equal(t, uint64(0), site.CommentCount)
		return nil
	}))
}
