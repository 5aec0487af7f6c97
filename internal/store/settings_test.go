package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettingsReturnsDefaultsWhenUnset(t *testing.T) {
	s := openTestStore(t)

	var cfg *Settings
	require.NoError(t, s.View(func(r *ReadTxn) error {
		var err error
		cfg, err = r.GetSettings()
		return err
	}))
	assert.Equal(t, 50_000, cfg.PostMaxLength)
	assert.True(t, cfg.VotesEnabled)
	assert.True(t, cfg.RegistrationEnabled)
}

func TestUpdateSettingsPersists(t *testing.T) {
	s := openTestStore(t)

	update(t, s, func(w *WriteTxn) error {
		_, err := w.UpdateSettings(1000, func(cfg *Settings) {
			cfg.Name = "Ludwig Test Instance"
			cfg.PostMaxLength = 1234
		})
		return err
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		cfg, err := r.GetSettings()
		require.NoError(t, err)
		assert.Equal(t, "Ludwig Test Instance", cfg.Name)
		assert.Equal(t, 1234, cfg.PostMaxLength)
		return nil
	}))
}

func TestSettingsIsAdmin(t *testing.T) {
	cfg := &Settings{Admins: []uint64{1, 2, 3}}
	assert.True(t, cfg.IsAdmin(2))
	assert.False(t, cfg.IsAdmin(4))
}

func TestCreateThreadRejectsOverlongContent(t *testing.T) {
	s := openTestStore(t)
	authorID := createTestUser(t, s, "lengthtester")

	update(t, s, func(w *WriteTxn) error {
		_, err := w.UpdateSettings(1000, func(cfg *Settings) {
			cfg.PostMaxLength = 10
		})
		return err
	})

	var boardID uint64
	update(t, s, func(w *WriteTxn) error {
		b, err := w.CreateBoard(Board{Name: "shortboard"}, 1000)
		if err != nil {
			return err
		}
		boardID = b.ID
		return nil
	})

	err := s.Update(context.Background(), PriorityUser, func(w *WriteTxn) error {
		_, err := w.CreateThread(Thread{BoardID: boardID, AuthorID: authorID, Title: "short", ContentText: "this content text is way too long for the configured limit"}, 1100)
		return err
	})
	assert.Error(t, err)
}
