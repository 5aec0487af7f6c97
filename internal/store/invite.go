package store

import "github.com/ludwig-forum/ludwig/internal/ludwigerr"

// CreateInvite issues an Invite token from fromUserID, expiring at
// expiresAt, for instances with registration_invite_required (§3 Invite,
// §6 "registration_invite_required").
func (w *WriteTxn) CreateInvite(fromUserID uint64, now, expiresAt int64) (*Invite, error) {
	id, err := nextID(w.txn)
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateInvite", err)
	}
	inv := &Invite{ID: id, FromUserID: fromUserID, CreatedAt: now, ExpiresAt: expiresAt}
	if err := setEntity(w, nsInvite, id, inv, "store.CreateInvite"); err != nil {
		return nil, err
	}
	return inv, nil
}

// AcceptInvite marks an Invite as consumed by toUserID. Returns
// InvalidArgument if the invite is already accepted or has expired (§3
// Invite lifecycle).
func (w *WriteTxn) AcceptInvite(inviteID, toUserID uint64, now int64) error {
	inv, err := getEntity[Invite](w.base, nsInvite, inviteID, "store.AcceptInvite")
	if err != nil {
		return err
	}
	if inv.AcceptedAt != 0 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.AcceptInvite", "invite already accepted")
	}
	if inv.ExpiresAt != 0 && inv.ExpiresAt <= now {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.AcceptInvite", "invite expired")
	}
	inv.AcceptedAt = now
	inv.ToUserID = toUserID
	return setEntity(w, nsInvite, inviteID, inv, "store.AcceptInvite")
}
