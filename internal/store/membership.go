package store

// membership.go implements the simple (user, X) set-membership indexes
// named in §4.3 — subscriptions, bookmarks, and hides — that do not carry
// a stats rollup cascade beyond subscriber_count.

// Subscribe adds userID to boardID's subscriber set, bidirectionally
// indexed (§3 Subscription), and bumps BoardStats.subscriber_count.
func (w *WriteTxn) Subscribe(userID, boardID uint64) error {
	if err := w.insertIndex(nsOwnerUserBoard, NewCursor1(userID), boardID); err != nil {
		return err
	}
	if err := w.insertIndex(nsOwnerBoardUser, NewCursor1(boardID), userID); err != nil {
		return err
	}
	var old, new1 BoardStats
	if err := w.bumpBoardStats(boardID, func(bs *BoardStats) {
		old = *bs
		bs.SubscriberCount++
		new1 = *bs
	}); err != nil {
		return err
	}
	return w.reindex(nsBoardsMostSubscribers, NewCursor1(old.SubscriberCount), NewCursor1(new1.SubscriberCount), boardID)
}

// Unsubscribe removes userID from boardID's subscriber set.
func (w *WriteTxn) Unsubscribe(userID, boardID uint64) error {
	if err := w.removeIndex(nsOwnerUserBoard, NewCursor1(userID), boardID); err != nil {
		return err
	}
	if err := w.removeIndex(nsOwnerBoardUser, NewCursor1(boardID), userID); err != nil {
		return err
	}
	var old, new1 BoardStats
	if err := w.bumpBoardStats(boardID, func(bs *BoardStats) {
		old = *bs
		if bs.SubscriberCount > 0 {
			bs.SubscriberCount--
		}
		new1 = *bs
	}); err != nil {
		return err
	}
	return w.reindex(nsBoardsMostSubscribers, NewCursor1(old.SubscriberCount), NewCursor1(new1.SubscriberCount), boardID)
}

// IsSubscribed reports whether userID subscribes to boardID.
func (r *ReadTxn) IsSubscribed(userID, boardID uint64) bool {
	_, err := r.getRaw(indexKey(nsOwnerUserBoard, NewCursor1(userID), boardID))
	return err == nil
}

// Bookmark saves postID for userID (§3 "saved posts").
func (w *WriteTxn) Bookmark(userID, postID uint64) error {
	return w.insertIndex(nsBookmarkUserPost, NewCursor1(userID), postID)
}

// Unbookmark removes a saved post.
func (w *WriteTxn) Unbookmark(userID, postID uint64) error {
	return w.removeIndex(nsBookmarkUserPost, NewCursor1(userID), postID)
}

// HidePost, HideUser, HideBoard add userID's personal hide-list entries.
func (w *WriteTxn) HidePost(userID, postID uint64) error {
	return w.insertIndex(nsHiddenUserPost, NewCursor1(userID), postID)
}
func (w *WriteTxn) UnhidePost(userID, postID uint64) error {
	return w.removeIndex(nsHiddenUserPost, NewCursor1(userID), postID)
}
func (w *WriteTxn) HideUser(userID, targetID uint64) error {
	return w.insertIndex(nsHiddenUserUser, NewCursor1(userID), targetID)
}
func (w *WriteTxn) UnhideUser(userID, targetID uint64) error {
	return w.removeIndex(nsHiddenUserUser, NewCursor1(userID), targetID)
}
func (w *WriteTxn) HideBoard(userID, boardID uint64) error {
	return w.insertIndex(nsHiddenUserBoard, NewCursor1(userID), boardID)
}
func (w *WriteTxn) UnhideBoard(userID, boardID uint64) error {
	return w.removeIndex(nsHiddenUserBoard, NewCursor1(userID), boardID)
}
