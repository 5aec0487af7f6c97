package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpAndRestoreRoundTrip(t *testing.T) {
	src := openTestStore(t)

	authorID := createTestUser(t, src, "dumpauthor")
	boardID := createTestBoard(t, src, "dumpboard")

	var threadID uint64
	update(t, src, func(w *WriteTxn) error {
		th, err := w.CreateThread(Thread{BoardID: boardID, AuthorID: authorID, Title: "dump me", ContentText: "body"}, 1000)
		if err != nil {
			return err
		}
		threadID = th.ID
		return nil
	})
	update(t, src, func(w *WriteTxn) error {
		_, err := w.CreateComment(Comment{ThreadID: threadID, ParentID: threadID, AuthorID: authorID, Content: "a reply"}, 1100)
		return err
	})

	var buf bytes.Buffer
	require.NoError(t, src.Dump(&buf))
	require.Greater(t, buf.Len(), 0)

	dst, err := Open(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dst.Close()) })

	require.NoError(t, dst.Restore(context.Background(), bytes.NewReader(buf.Bytes())))

	require.NoError(t, dst.View(func(r *ReadTxn) error {
		u, err := r.GetUser(authorID)
		require.NoError(t, err)
		assert.Equal(t, "dumpauthor", u.Name)

		b, err := r.GetBoard(boardID)
		require.NoError(t, err)
		assert.Equal(t, "dumpboard", b.Name)

		th, err := r.GetThread(threadID)
		require.NoError(t, err)
		assert.Equal(t, "dump me", th.Title)

		return nil
	}))
}

// TestRestoreAdvancesNextIDPastRestoredEntities guards against a destination
// store allocating an id that collides with one the dump already restored
// (§3 "the monotonic id counter never regresses; ids are never reused").
func TestRestoreAdvancesNextIDPastRestoredEntities(t *testing.T) {
	src := openTestStore(t)
	authorID := createTestUser(t, src, "nextidauthor")
	boardID := createTestBoard(t, src, "nextidboard")

	var threadID uint64
	update(t, src, func(w *WriteTxn) error {
		th, err := w.CreateThread(Thread{BoardID: boardID, AuthorID: authorID, Title: "t"}, 1000)
		if err != nil {
			return err
		}
		threadID = th.ID
		return nil
	})

	var buf bytes.Buffer
	require.NoError(t, src.Dump(&buf))

	dst, err := Open(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dst.Close()) })

	require.NoError(t, dst.Restore(context.Background(), bytes.NewReader(buf.Bytes())))

	var newID uint64
	update(t, dst, func(w *WriteTxn) error {
		u, err := w.CreateUser(User{Name: "postrestore"}, 2000)
		if err != nil {
			return err
		}
		newID = u.ID
		return nil
	})

	assert.NotEqual(t, authorID, newID)
	assert.NotEqual(t, boardID, newID)
	assert.NotEqual(t, threadID, newID)
	assert.Greater(t, newID, threadID)

	require.NoError(t, dst.View(func(r *ReadTxn) error {
		_, err := r.GetUser(newID)
		return err
	}))
}

func TestRestoreIsIdempotentForSettings(t *testing.T) {
	src := openTestStore(t)
	update(t, src, func(w *WriteTxn) error {
		cfg, err := (&ReadTxn{base: w.base}).GetSettings()
		if err != nil {
			return err
		}
		cfg.PostMaxLength = 12345
		return w.PutSettings(cfg)
	})

	var buf bytes.Buffer
	require.NoError(t, src.Dump(&buf))

	dst, err := Open(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dst.Close()) })

	require.NoError(t, dst.Restore(context.Background(), bytes.NewReader(buf.Bytes())))
	require.NoError(t, dst.Restore(context.Background(), bytes.NewReader(buf.Bytes())))

	require.NoError(t, dst.View(func(r *ReadTxn) error {
		cfg, err := r.GetSettings()
		require.NoError(t, err)
		assert.Equal(t, 12345, cfg.PostMaxLength)
		return nil
	}))
}
