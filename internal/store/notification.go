package store

import (
	"github.com/ludwig-forum/ludwig/internal/eventbus"
	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// CreateNotification records a per-user notification and emits a
// NotificationEvent once the enclosing transaction commits (§3
// Notification, §4.8).
func (w *WriteTxn) CreateNotification(userID uint64, typ NotificationType, subjectID uint64, now int64) (*Notification, error) {
	id, err := nextID(w.txn)
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateNotification", err)
	}
	n := &Notification{ID: id, UserID: userID, CreatedAt: now, Type: typ, SubjectID: subjectID}
	if err := setEntity(w, nsNotification, id, n, "store.CreateNotification"); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsNotificationByUser, NewCursor1(userID), id); err != nil {
		return nil, err
	}
	w.emit(eventbus.TopicNotification, eventbus.NotificationEvent{UserID: userID, NotificationID: id})
	return n, nil
}

// MarkNotificationRead stamps read_at on a notification, tolerating an
// already-read notification.
func (w *WriteTxn) MarkNotificationRead(id uint64, now int64) error {
	n, err := getEntity[Notification](w.base, nsNotification, id, "store.MarkNotificationRead")
	if err != nil {
		return err
	}
	if n.ReadAt != 0 {
		return nil
	}
	n.ReadAt = now
	return setEntity(w, nsNotification, id, n, "store.MarkNotificationRead")
}

// ListNotificationsForUser returns userID's notification ids, most recent
// first.
func (r *ReadTxn) ListNotificationsForUser(userID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.scanReverse(nsNotificationByUser, NewCursor1(userID), 1, func(e iterEntry) bool {
		ids = append(ids, e.ID)
		return len(ids) < limit
	})
	return ids, err
}
