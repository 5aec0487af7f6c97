package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveApplicationSetsApproved(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "applicant")
	update(t, s, func(w *WriteTxn) error {
		return w.CreateLocalUser(LocalUser{UserID: userID, Email: "a@example.com", PasswordHash: []byte("h"), PasswordSalt: []byte("s")})
	})

	var app *Application
	update(t, s, func(w *WriteTxn) error {
		var err error
		app, err = w.CreateApplication(userID, "1.2.3.4", "ua", "please let me in")
		return err
	})
	require.NotZero(t, app.ID)

	update(t, s, func(w *WriteTxn) error {
		return w.ApproveApplication(app.ID)
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		lu, err := r.GetLocalUser(userID)
		require.NoError(t, err)
		assert.True(t, lu.Approved)

		_, err = r.GetApplication(app.ID)
		assert.Error(t, err)
		return nil
	}))
}

func TestRejectApplicationLeavesUserUnapproved(t *testing.T) {
	s := openTestStore(t)
	userID := createTestUser(t, s, "rejectme")
	update(t, s, func(w *WriteTxn) error {
		return w.CreateLocalUser(LocalUser{UserID: userID, Email: "b@example.com", PasswordHash: []byte("h"), PasswordSalt: []byte("s")})
	})

	var app *Application
	update(t, s, func(w *WriteTxn) error {
		var err error
		app, err = w.CreateApplication(userID, "1.2.3.4", "ua", "text")
		return err
	})

	update(t, s, func(w *WriteTxn) error {
		return w.RejectApplication(app.ID)
	})

	require.NoError(t, s.View(func(r *ReadTxn) error {
		lu, err := r.GetLocalUser(userID)
		require.NoError(t, err)
		assert.False(t, lu.Approved)

		_, err = r.GetApplication(app.ID)
		assert.Error(t, err)
		return nil
	}))
}
