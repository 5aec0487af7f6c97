package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNotificationAndList(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "notified")

	var n *Notification
	update(t, s, func(w *WriteTxn) error {
		var err error
		n, err = w.CreateNotification(userID, NotificationReplyToThread, 42, 1000)
		return err
	})
	require.NotZero(t, n.ID)

	var ids []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		var err error
		ids, err = r.ListNotificationsForUser(userID, 10)
		return err
	}))
	assert.Contains(t, ids, n.ID)
}

func TestMarkNotificationReadIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "notified2")

	var n *Notification
	update(t, s, func(w *WriteTxn) error {
		var err error
		n, err = w.CreateNotification(userID, NotificationMentionInComment, 7, 1000)
		return err
	})

	update(t, s, func(w *WriteTxn) error {
		return w.MarkNotificationRead(n.ID, 1200)
	})
	update(t, s, func(w *WriteTxn) error {
		return w.MarkNotificationRead(n.ID, 1300)
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		got, err := r.GetNotification(n.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1200), got.ReadAt)
		return nil
	}))
}

func TestCreateCommentNotifiesParentAuthor(t *testing.T) {
	s := openTestStore(t)
	authorID := createTestUser(t, s, "threadauthor")
	replierID := createTestUser(t, s, "replier")

	var boardID, threadID uint64
	update(t, s, func(w *WriteTxn) error {
		b, err := w.CreateBoard(Board{Name: "general"}, 1000)
		if err != nil {
			return err
		}
		boardID = b.ID
		th, err := w.CreateThread(Thread{BoardID: boardID, AuthorID: authorID, Title: "hello"}, 1000)
		if err != nil {
			return err
		}
		threadID = th.ID
		return nil
	})

	update(t, s, func(w *WriteTxn) error {
		_, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: threadID, AuthorID: replierID, Content: "nice post"}, 1100)
		return err
	})

	var ids []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		var err error
		ids, err = r.ListNotificationsForUser(authorID, 10)
		return err
	}))
	require.Len(t, ids, 1)

	require.NoError(t, s.View(func(r *ReadTxn) error {
		n, err := r.GetNotification(ids[0])
		require.NoError(t, err)
		assert.Equal(t, NotificationReplyToThread, n.Type)
		return nil
	}))
}

func TestCreateCommentDoesNotNotifySelfReply(t *testing.T) {
	s := openTestStore(t)
	authorID := createTestUser(t, s, "selfreplier")

	var boardID, threadID uint64
	update(t, s, func(w *WriteTxn) error {
		b, err := w.CreateBoard(Board{Name: "general2"}, 1000)
		if err != nil {
			return err
		}
		boardID = b.ID
		th, err := w.CreateThread(Thread{BoardID: boardID, AuthorID: authorID, Title: "hello2"}, 1000)
		if err != nil {
			return err
		}
		threadID = th.ID
		return nil
	})

	update(t, s, func(w *WriteTxn) error {
		_, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: threadID, AuthorID: authorID, Content: "replying to myself"}, 1100)
		return err
	})

	var ids []uint64
	require.NoError(t, s.View(func(r *ReadTxn) error {
		var err error
		ids, err = r.ListNotificationsForUser(authorID, 10)
		return err
	}))
	assert.Empty(t, ids)
}
