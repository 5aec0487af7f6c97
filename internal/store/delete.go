package store

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// DeleteThread removes a thread and its entire descendant comment tree
// (§3 Lifecycle: "deleting a thread removes all descendant comments,
// removes votes, decrements board/user stats, and removes the thread from
// every index it inhabits" — §8 scenario S6).
func (w *WriteTxn) DeleteThread(threadID uint64) error {
	t, err := getEntity[Thread](w.base, nsThread, threadID, "store.DeleteThread")
	if err != nil {
		return err
	}

	children, err := w.collectChildren(threadID, threadID)
	if err != nil {
		return err
	}
	// Delete deepest descendants first so ancestor-count bookkeeping never
	// has to account for an already-vanished child.
	for i := len(children) - 1; i >= 0; i-- {
		if err := w.deleteCommentRaw(threadID, children[i]); err != nil {
			return err
		}
	}

	ps, err := getEntity[PostStats](w.base, nsPostStats, threadID, "store.DeleteThread")
	if err != nil {
		return err
	}
	if err := w.deleteVotesForPost(threadID); err != nil {
		return err
	}

	if err := w.removeIndex(nsThreadsNew, NewCursor1(uint64(t.CreatedAt)), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsThreadsTop, NewCursor1(uintFromInt(ps.Karma)), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsThreadsMostComments, NewCursor1(ps.DescendantCount), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsThreadsOfBoardNew, NewCursor2(t.BoardID, uint64(t.CreatedAt)), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsThreadsOfBoardTop, NewCursor2(t.BoardID, uintFromInt(ps.Karma)), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsThreadsOfBoardMostComments, NewCursor2(t.BoardID, ps.DescendantCount), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsThreadsOfUserNew, NewCursor2(t.AuthorID, uint64(t.CreatedAt)), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsThreadsOfUserTop, NewCursor2(t.AuthorID, uintFromInt(ps.Karma)), threadID); err != nil {
		return err
	}
	if err := w.removeIndex(nsOwnerUserThread, NewCursor1(t.AuthorID), threadID); err != nil {
		return err
	}

	if err := deleteEntity(w, nsPostStats, threadID, "store.DeleteThread"); err != nil {
		return err
	}
	if err := deleteEntity(w, nsThread, threadID, "store.DeleteThread"); err != nil {
		return err
	}

	var oldUser, newUser UserStats
	if err := w.bumpUserStats(t.AuthorID, func(us *UserStats) {
		oldUser = *us
		us.ThreadCount--
		us.ThreadKarma -= ps.Karma
		newUser = *us
	}); err != nil {
		return err
	}
	if err := w.reindexUserPostActivity(t.AuthorID, &oldUser, &newUser); err != nil {
		return err
	}

	var oldBoard, newBoard BoardStats
	if err := w.bumpBoardStats(t.BoardID, func(bs *BoardStats) {
		oldBoard = *bs
		bs.ThreadCount--
		newBoard = *bs
	}); err != nil {
		return err
	}
	if err := w.reindexBoardPostActivity(t.BoardID, &oldBoard, &newBoard); err != nil {
		return err
	}

	return w.bumpSiteStats(func(s *SiteStats) { s.ThreadCount-- })
}

// collectChildren returns every descendant comment id of root (which may
// be the thread itself or a comment), in breadth-first creation order, by
// walking children_of_parent.
func (w *WriteTxn) collectChildren(threadID, root uint64) ([]uint64, error) {
	var out []uint64
	queue := []uint64{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		var kids []uint64
		if err := w.scanForward(nsChildrenOfParent, NewCursor1(parent), 2, func(e iterEntry) bool {
			kids = append(kids, e.ID)
			return true
		}); err != nil {
			return nil, err
		}
		out = append(out, kids...)
		queue = append(queue, kids...)
	}
	return out, nil
}

// DeleteComment removes a comment and its entire descendant subtree,
// decrementing every ancestor's descendant_count by the size of the
// removed subtree and the direct parent's child_count by one — the
// decrement-direction mirror of walkAncestorsOnCreate (§4.2
// delete_<entity>, §8 db.c++ WriteTxn::delete_comment's ancestor loop).
// DeleteThread's cascade calls deleteCommentRaw directly instead, since
// deleting the whole thread makes ancestor bookkeeping moot.
func (w *WriteTxn) DeleteComment(commentID uint64) error {
	c, err := getEntity[Comment](w.base, nsComment, commentID, "store.DeleteComment")
	if err != nil {
		return err
	}
	ps, err := getEntity[PostStats](w.base, nsPostStats, commentID, "store.DeleteComment")
	if err != nil {
		return err
	}

	removed := ps.DescendantCount + 1
	if err := w.walkAncestorsOnDelete(c.ThreadID, c.ParentID, removed); err != nil {
		return err
	}

	children, err := w.collectChildren(c.ThreadID, commentID)
	if err != nil {
		return err
	}
	for i := len(children) - 1; i >= 0; i-- {
		if err := w.deleteCommentRaw(c.ThreadID, children[i]); err != nil {
			return err
		}
	}
	return w.deleteCommentRaw(c.ThreadID, commentID)
}

// walkAncestorsOnDelete applies the decrement-direction mirror of
// walkAncestorsOnCreate: every ancestor up to and including the thread
// loses `removed` from its descendant_count, and the direct parent alone
// loses one from its child_count.
func (w *WriteTxn) walkAncestorsOnDelete(threadID, parentID, removed uint64) error {
	ancestorID := parentID
	direct := true
	for {
		oldStats, newStats, err := w.decrementPostStatsForDelete(ancestorID, removed, direct)
		if err != nil {
			return err
		}
		if err := w.reindexMostComments(threadID, ancestorID, oldStats, newStats); err != nil {
			return err
		}
		if ancestorID == threadID {
			return nil
		}
		nextParent, err := w.postParentID(threadID, ancestorID)
		if err != nil {
			return err
		}
		ancestorID = nextParent
		direct = false
	}
}

func (w *WriteTxn) decrementPostStatsForDelete(postID, removed uint64, direct bool) (*PostStats, *PostStats, error) {
	var old PostStats
	new1, err := w.bumpPostStats(postID, func(ps *PostStats) {
		old = *ps
		if removed > ps.DescendantCount {
			ps.DescendantCount = 0
		} else {
			ps.DescendantCount -= removed
		}
		if direct && ps.ChildCount > 0 {
			ps.ChildCount--
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return &old, new1, nil
}

// deleteCommentRaw removes one comment's own records, indexes, and votes.
// It does not touch ancestor PostStats: DeleteThread's cascade already
// knows the whole subtree is vanishing, and DeleteComment performs the
// ancestor-chain decrement itself via walkAncestorsOnDelete before
// calling this for each node in the removed subtree.
func (w *WriteTxn) deleteCommentRaw(threadID, commentID uint64) error {
	c, err := getEntity[Comment](w.base, nsComment, commentID, "store.deleteCommentRaw")
	if err != nil {
		return err
	}
	ps, err := getEntity[PostStats](w.base, nsPostStats, commentID, "store.deleteCommentRaw")
	if err != nil {
		return err
	}
	thread, err := getEntity[Thread](w.base, nsThread, threadID, "store.deleteCommentRaw")
	if err != nil {
		return err
	}

	if err := w.deleteVotesForPost(commentID); err != nil {
		return err
	}

	karmaU := uintFromInt(ps.Karma)
	if err := w.removeIndex(nsCommentsNew, NewCursor1(uint64(c.CreatedAt)), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsCommentsTop, NewCursor1(karmaU), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsCommentsMostComments, NewCursor1(ps.DescendantCount), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsCommentsOfBoardNew, NewCursor2(thread.BoardID, uint64(c.CreatedAt)), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsCommentsOfBoardTop, NewCursor2(thread.BoardID, karmaU), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsCommentsOfBoardMostComments, NewCursor2(thread.BoardID, ps.DescendantCount), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsCommentsOfUserNew, NewCursor2(c.AuthorID, uint64(c.CreatedAt)), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsCommentsOfUserTop, NewCursor2(c.AuthorID, karmaU), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsOwnerUserComment, NewCursor1(c.AuthorID), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsChildrenOfParent, NewCursor2(c.ParentID, uint64(c.CreatedAt)), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsChildrenNew, NewCursor2(c.ParentID, uint64(c.CreatedAt)), commentID); err != nil {
		return err
	}
	if err := w.removeIndex(nsChildrenTop, NewCursor2(c.ParentID, karmaU), commentID); err != nil {
		return err
	}

	if err := deleteEntity(w, nsPostStats, commentID, "store.deleteCommentRaw"); err != nil {
		return err
	}
	if err := deleteEntity(w, nsComment, commentID, "store.deleteCommentRaw"); err != nil {
		return err
	}

	var oldUser, newUser UserStats
	if err := w.bumpUserStats(c.AuthorID, func(us *UserStats) {
		oldUser = *us
		us.CommentCount--
		us.CommentKarma -= ps.Karma
		newUser = *us
	}); err != nil {
		return err
	}
	if err := w.reindexUserPostActivity(c.AuthorID, &oldUser, &newUser); err != nil {
		return err
	}

	var oldBoard, newBoard BoardStats
	if err := w.bumpBoardStats(thread.BoardID, func(bs *BoardStats) {
		oldBoard = *bs
		bs.CommentCount--
		newBoard = *bs
	}); err != nil {
		return err
	}
	if err := w.reindexBoardPostActivity(thread.BoardID, &oldBoard, &newBoard); err != nil {
		return err
	}

	return w.bumpSiteStats(func(s *SiteStats) { s.CommentCount-- })
}

// deleteVotesForPost removes every (user, post) vote in both symmetric
// namespaces, by scanning the post-keyed reverse namespace for voters.
func (w *WriteTxn) deleteVotesForPost(postID uint64) error {
	prefix := key(nsVotePostUser, idBytes(postID))
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := w.txn.NewIterator(opts)
	var toDelete [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		toDelete = append(toDelete, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range toDelete {
		// k = [ns][8 byte post][1 byte dir][8 byte user]
		dir := k[9]
		userID := decodeUint64(k[10:18])
		up := dir == 1
		if err := w.deleteRaw(voteUserPostKey(userID, up, postID)); err != nil {
			return err
		}
		if err := w.deleteRaw(votePostUserKey(postID, up, userID)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUser marks the user deleted (DeletedAt) while keeping its record,
// removes its subscriptions and resets its aggregate stats, but leaves
// authored posts in place as "deleted author" tombstones (§3 Lifecycle);
// it does not delete any of the user's threads or comments.
func (w *WriteTxn) DeleteUser(userID uint64, now int64) error {
	u, err := getEntity[User](w.base, nsUser, userID, "store.DeleteUser")
	if err != nil {
		return err
	}
	u.DeletedAt = now
	if err := setEntity(w, nsUser, userID, u, "store.DeleteUser"); err != nil {
		return err
	}

	var subscribed []uint64
	if err := w.scanForward(nsOwnerUserBoard, NewCursor1(userID), 1, func(e iterEntry) bool {
		subscribed = append(subscribed, e.ID)
		return true
	}); err != nil {
		return err
	}
	for _, boardID := range subscribed {
		if err := w.Unsubscribe(userID, boardID); err != nil {
			return err
		}
	}

	return w.bumpUserStats(userID, func(us *UserStats) {
		*us = UserStats{UserID: userID}
	})
}

// DeleteBoard removes a board, every thread (and transitively every
// comment and vote) beneath it, and all subscriber memberships,
// decrementing SiteStats.BoardCount to mirror CreateBoard's unconditional
// increment (§4.2 delete_<entity>, §8 db.c++ WriteTxn::delete_board).
// Threads are removed through DeleteThread so their own cascades —
// comment subtree, votes, user/board/site stats — run exactly as they
// would for a standalone thread delete.
func (w *WriteTxn) DeleteBoard(boardID uint64) error {
	b, err := getEntity[Board](w.base, nsBoard, boardID, "store.DeleteBoard")
	if err != nil {
		return err
	}

	var threadIDs []uint64
	if err := w.scanForward(nsThreadsOfBoardNew, NewCursor1(boardID), 2, func(e iterEntry) bool {
		threadIDs = append(threadIDs, e.ID)
		return true
	}); err != nil {
		return err
	}
	for _, threadID := range threadIDs {
		if err := w.DeleteThread(threadID); err != nil {
			return err
		}
	}

	var subscribers []uint64
	if err := w.scanForward(nsOwnerBoardUser, NewCursor1(boardID), 1, func(e iterEntry) bool {
		subscribers = append(subscribers, e.ID)
		return true
	}); err != nil {
		return err
	}
	for _, userID := range subscribers {
		if err := w.Unsubscribe(userID, boardID); err != nil {
			return err
		}
	}

	// Threads are gone now, so BoardStats reflects only the subscriber
	// count bumped above and whatever latest-post fields the last delete
	// left behind.
	bs, err := getEntity[BoardStats](w.base, nsBoardStats, boardID, "store.DeleteBoard")
	if err != nil {
		return err
	}
	if err := w.removeIndex(nsBoardsNew, NewCursor1(uint64(b.CreatedAt)), boardID); err != nil {
		return err
	}
	if err := w.removeIndex(nsBoardsNewPosts, NewCursor1(uint64(bs.LatestPostTime)), boardID); err != nil {
		return err
	}
	if err := w.removeIndex(nsBoardsMostPosts, NewCursor1(bs.ThreadCount+bs.CommentCount), boardID); err != nil {
		return err
	}
	if err := w.removeIndex(nsBoardsMostSubscribers, NewCursor1(bs.SubscriberCount), boardID); err != nil {
		return err
	}
	if err := w.deleteRaw(nameKey(nsBoardName, w.store.hashSeed, b.Name)); err != nil {
		return err
	}

	if err := deleteEntity(w, nsBoardStats, boardID, "store.DeleteBoard"); err != nil {
		return err
	}
	if err := deleteEntity(w, nsBoard, boardID, "store.DeleteBoard"); err != nil {
		return err
	}

	_, err = getEntity[LocalBoard](w.base, nsLocalBoard, boardID, "store.DeleteBoard")
	switch {
	case err == nil:
		if err := deleteEntity(w, nsLocalBoard, boardID, "store.DeleteBoard"); err != nil {
			return err
		}
	case ludwigerr.Is(err, ludwigerr.NotFound):
		// Federated mirror of a remote board: no LocalBoard extension to
		// remove.
	default:
		return err
	}

	return w.bumpSiteStats(func(s *SiteStats) {
		if s.BoardCount > 0 {
			s.BoardCount--
		}
	})
}
