package store

import (
	json "github.com/goccy/go-json"

	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

const (
	sessionTTLDefault  = 24 * 60 * 60       // 1 day, §8 S1 "expires_at = now + 1 day"
	sessionTTLRemember = 30 * 24 * 60 * 60 // 1 month, §8 S1 "or 1 month if remember=true"
)

// CreateSession issues a new Session for userID with a cryptographically
// random id (§3 Session "Id is a cryptographically random 64-bit value"),
// and carries the opportunistic expired-session sweep: every Nth session
// creation also scans the session table and deletes expired rows in the
// same transaction (§5 "Session creation carries an opportunistic
// cleanup").
func (w *WriteTxn) CreateSession(userID uint64, clientIP, userAgent string, now int64, remember bool) (*Session, error) {
	ttl := int64(sessionTTLDefault)
	if remember {
		ttl = sessionTTLRemember
	}
	s := &Session{
		ID:        randomSeed(),
		UserID:    userID,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now + ttl,
		Remember:  remember,
	}
	if err := setEntity(w, nsSession, s.ID, s, "store.CreateSession"); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsSessionByUser, NewCursor1(userID), s.ID); err != nil {
		return nil, err
	}

	n := w.store.sessionCreateCount.Add(1)
	if n%w.store.cfg.SessionCleanupEvery == 0 {
		if err := w.sweepExpiredSessions(now); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DeleteSession removes a session (logout), tolerating an already-absent
// session.
func (w *WriteTxn) DeleteSession(id uint64) error {
	s, err := getEntity[Session](w.base, nsSession, id, "store.DeleteSession")
	if err != nil {
		if ludwigerr.Is(err, ludwigerr.NotFound) {
			return nil
		}
		return err
	}
	if err := w.deleteRaw(entityKey(nsSession, id)); err != nil {
		return ludwigerr.Wrap(ludwigerr.StorageError, "store.DeleteSession", err)
	}
	return w.removeIndex(nsSessionByUser, NewCursor1(s.UserID), id)
}

// sweepExpiredSessions scans the full session table and deletes every row
// whose expires_at has passed. This runs inline within the caller's
// WriteTxn, piggybacking on the single write slot rather than needing its
// own scheduled maintenance transaction.
func (w *WriteTxn) sweepExpiredSessions(now int64) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	prefix := []byte{byte(nsSession)}
	it := w.txn.NewIterator(opts)
	var expired []uint64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var s Session
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &s) }); err != nil {
			continue
		}
		if s.ExpiresAt <= now {
			expired = append(expired, s.ID)
		}
	}
	it.Close()

	for _, id := range expired {
		if err := w.DeleteSession(id); err != nil {
			return err
		}
	}
	return nil
}

// ListSessionsForUser returns every live session id owned by userID, for
// "log out all other sessions" style operations.
func (r *ReadTxn) ListSessionsForUser(userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.scanForward(nsSessionByUser, NewCursor1(userID), 1, func(e iterEntry) bool {
		ids = append(ids, e.ID)
		return true
	})
	return ids, err
}
