package store

import (
	"github.com/ludwig-forum/ludwig/internal/eventbus"
	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// CreateUser allocates an id and writes a new User plus its zero
// UserStats (§3 invariant: every User has exactly one UserStats).
func (w *WriteTxn) CreateUser(u User, now int64) (*User, error) {
	if err := ValidateName("store.CreateUser", u.Name); err != nil {
		return nil, err
	}
	id, err := nextID(w.txn)
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateUser", err)
	}
	u.ID = id
	u.CreatedAt = now
	if err := setEntity(w, nsUser, id, &u, "store.CreateUser"); err != nil {
		return nil, err
	}
	if err := setEntity(w, nsUserStats, id, &UserStats{UserID: id}, "store.CreateUser"); err != nil {
		return nil, err
	}
	if err := w.setRaw(nameKey(nsUserName, w.store.hashSeed, u.Name), idBytes(id)); err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateUser", err)
	}
	if err := w.insertIndex(nsUsersNew, NewCursor1(uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.bumpSiteStats(func(s *SiteStats) { s.UserCount++ }); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateLocalUser writes the LocalUser extension for an already-created
// User and indexes its email.
func (w *WriteTxn) CreateLocalUser(lu LocalUser) error {
	if len(lu.PasswordHash) == 0 || len(lu.PasswordSalt) == 0 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.CreateLocalUser", "password hash/salt required")
	}
	if err := setEntity(w, nsLocalUser, lu.UserID, &lu, "store.CreateLocalUser"); err != nil {
		return err
	}
	if err := w.setRaw(nameKey(nsLocalUserEmail, w.store.hashSeed, lu.Email), idBytes(lu.UserID)); err != nil {
		return ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateLocalUser", err)
	}
	return nil
}

// CreateBoard allocates an id and writes a new Board plus its zero
// BoardStats.
func (w *WriteTxn) CreateBoard(b Board, now int64) (*Board, error) {
	if err := ValidateName("store.CreateBoard", b.Name); err != nil {
		return nil, err
	}
	id, err := nextID(w.txn)
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateBoard", err)
	}
	b.ID = id
	b.CreatedAt = now
	if err := setEntity(w, nsBoard, id, &b, "store.CreateBoard"); err != nil {
		return nil, err
	}
	if err := setEntity(w, nsBoardStats, id, &BoardStats{BoardID: id}, "store.CreateBoard"); err != nil {
		return nil, err
	}
	if err := w.setRaw(nameKey(nsBoardName, w.store.hashSeed, b.Name), idBytes(id)); err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateBoard", err)
	}
	if err := w.insertIndex(nsBoardsNew, NewCursor1(uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.bumpSiteStats(func(s *SiteStats) { s.BoardCount++ }); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateLocalBoard writes the LocalBoard extension for an already-created
// Board.
func (w *WriteTxn) CreateLocalBoard(lb LocalBoard) error {
	return setEntity(w, nsLocalBoard, lb.BoardID, &lb, "store.CreateLocalBoard")
}

// CreateThread creates a Thread, its PostStats, indexes it in every thread
// index (§4.3), updates BoardStats/UserStats/SiteStats (§4.4), and casts
// the author's automatic upvote (§8 scenario S2: "alice votes +1 on T1
// (automatic on create)").
func (w *WriteTxn) CreateThread(t Thread, now int64) (*Thread, error) {
	cfg, err := (&ReadTxn{base: w.base}).GetSettings()
	if err != nil {
		return nil, err
	}
	if err := ValidateThreadInput(ThreadInput{
		Title:          t.Title,
		ContentURL:     t.ContentURL,
		ContentText:    t.ContentText,
		ContentWarning: t.ContentWarning,
	}, cfg.PostMaxLength); err != nil {
		return nil, err
	}
	id, err := nextID(w.txn)
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateThread", err)
	}
	t.ID = id
	t.CreatedAt = now
	t.Salt = randomSalt32()

	if err := setEntity(w, nsThread, id, &t, "store.CreateThread"); err != nil {
		return nil, err
	}
	if _, err := w.bumpPostStats(id, func(ps *PostStats) {}); err != nil {
		return nil, err
	}

	if err := w.insertIndex(nsThreadsNew, NewCursor1(uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsThreadsTop, NewCursor1(uintFromInt(0)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsThreadsMostComments, NewCursor1(0), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsThreadsOfBoardNew, NewCursor2(t.BoardID, uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsThreadsOfBoardTop, NewCursor2(t.BoardID, uintFromInt(0)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsThreadsOfBoardMostComments, NewCursor2(t.BoardID, 0), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsThreadsOfUserNew, NewCursor2(t.AuthorID, uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsThreadsOfUserTop, NewCursor2(t.AuthorID, uintFromInt(0)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsOwnerUserThread, NewCursor1(t.AuthorID), id); err != nil {
		return nil, err
	}

	if err := w.onPostCreated(t.AuthorID, t.BoardID, id, now, true); err != nil {
		return nil, err
	}

	if t.ContentURL != "" {
		w.emit(eventbus.TopicThreadFetchLinkCard, eventbus.ThreadFetchLinkCard{ThreadID: id, URL: t.ContentURL})
	}

	// Automatic self-upvote on create (§8 S2).
	if err := w.Vote(t.AuthorID, id, 1, now); err != nil {
		return nil, err
	}

	final, err := getEntity[Thread](w.base, nsThread, id, "store.CreateThread")
	if err != nil {
		return nil, err
	}
	return final, nil
}

// onPostCreated applies the common UserStats/BoardStats/SiteStats cascade
// shared by thread and comment creation (§4.4).
func (w *WriteTxn) onPostCreated(authorID, boardID, postID uint64, now int64, isThread bool) error {
	var oldUser, newUser UserStats
	if err := w.bumpUserStats(authorID, func(us *UserStats) {
		oldUser = *us
		if isThread {
			us.ThreadCount++
		} else {
			us.CommentCount++
		}
		us.LatestPostTime = now
		us.LatestPostID = postID
		newUser = *us
	}); err != nil {
		return err
	}
	if err := w.reindexUserPostActivity(authorID, &oldUser, &newUser); err != nil {
		return err
	}

	var oldBoard, newBoard BoardStats
	if err := w.bumpBoardStats(boardID, func(bs *BoardStats) {
		oldBoard = *bs
		if isThread {
			bs.ThreadCount++
		} else {
			bs.CommentCount++
		}
		bs.LatestPostTime = now
		bs.LatestPostID = postID
		newBoard = *bs
	}); err != nil {
		return err
	}
	if err := w.reindexBoardPostActivity(boardID, &oldBoard, &newBoard); err != nil {
		return err
	}

	return w.bumpSiteStats(func(s *SiteStats) {
		if isThread {
			s.ThreadCount++
		} else {
			s.CommentCount++
		}
	})
}

// CreateComment creates a Comment, walks the ancestor chain updating each
// ancestor's PostStats, and updates UserStats/BoardStats/SiteStats
// (§4.4).
func (w *WriteTxn) CreateComment(c Comment, now int64) (*Comment, error) {
	thread, err := getEntity[Thread](w.base, nsThread, c.ThreadID, "store.CreateComment")
	if err != nil {
		return nil, err
	}

	cfg, err := (&ReadTxn{base: w.base}).GetSettings()
	if err != nil {
		return nil, err
	}
	if err := ValidateCommentInput(CommentInput{
		Content:        c.Content,
		ContentWarning: c.ContentWarning,
	}, cfg.PostMaxLength); err != nil {
		return nil, err
	}

	id, err := nextID(w.txn)
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateComment", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.Salt = randomSalt32()

	if err := setEntity(w, nsComment, id, &c, "store.CreateComment"); err != nil {
		return nil, err
	}
	if _, err := w.bumpPostStats(id, func(ps *PostStats) {}); err != nil {
		return nil, err
	}

	if err := w.insertIndex(nsCommentsNew, NewCursor1(uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsCommentsTop, NewCursor1(uintFromInt(0)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsCommentsMostComments, NewCursor1(0), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsCommentsOfBoardNew, NewCursor2(thread.BoardID, uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsCommentsOfBoardTop, NewCursor2(thread.BoardID, uintFromInt(0)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsCommentsOfBoardMostComments, NewCursor2(thread.BoardID, 0), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsCommentsOfUserNew, NewCursor2(c.AuthorID, uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsCommentsOfUserTop, NewCursor2(c.AuthorID, uintFromInt(0)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsOwnerUserComment, NewCursor1(c.AuthorID), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsChildrenOfParent, NewCursor2(c.ParentID, uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsChildrenNew, NewCursor2(c.ParentID, uint64(now)), id); err != nil {
		return nil, err
	}
	if err := w.insertIndex(nsChildrenTop, NewCursor2(c.ParentID, uintFromInt(0)), id); err != nil {
		return nil, err
	}

	if err := w.walkAncestorsOnCreate(c.ThreadID, c.ParentID, now); err != nil {
		return nil, err
	}

	if err := w.notifyReply(c.ThreadID, c.ParentID, c.AuthorID, id, now); err != nil {
		return nil, err
	}

	if err := w.onPostCreated(c.AuthorID, thread.BoardID, id, now, false); err != nil {
		return nil, err
	}

	// Automatic self-upvote on create, mirroring thread creation.
	if err := w.Vote(c.AuthorID, id, 1, now); err != nil {
		return nil, err
	}

	final, err := getEntity[Comment](w.base, nsComment, id, "store.CreateComment")
	if err != nil {
		return nil, err
	}
	return final, nil
}

// walkAncestorsOnCreate applies the §4.4 ancestor-chain update for one new
// reply: following parent repeatedly until reaching the thread, updating
// latest_comment/latest_comment_necro, descendant_count, and child_count
// on every ancestor.
func (w *WriteTxn) walkAncestorsOnCreate(threadID, parentID uint64, now int64) error {
	maxAge := int64(w.store.cfg.ActiveCommentMaxAge.Seconds())

	ancestorID := parentID
	direct := true
	for {
		ancestorCreatedAt, err := w.postCreatedAt(threadID, ancestorID)
		if err != nil {
			return err
		}

		oldStats, newStats, err := w.updatePostStatsForReply(ancestorID, ancestorCreatedAt, now, maxAge, direct)
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

// postCreatedAt returns the created_at of a thread or comment id.
func (w *WriteTxn) postCreatedAt(threadID, id uint64) (int64, error) {
	if id == threadID {
		t, err := getEntity[Thread](w.base, nsThread, id, "store.postCreatedAt")
		if err != nil {
			return 0, err
		}
		return t.CreatedAt, nil
	}
	c, err := getEntity[Comment](w.base, nsComment, id, "store.postCreatedAt")
	if err != nil {
		return 0, err
	}
	return c.CreatedAt, nil
}

// postParentID returns the parent id of a comment; threadID is returned
// unchanged if id is itself the thread (callers stop before calling this
// in that case, but the fallback keeps the walk well-defined).
func (w *WriteTxn) postParentID(threadID, id uint64) (uint64, error) {
	if id == threadID {
		return threadID, nil
	}
	c, err := getEntity[Comment](w.base, nsComment, id, "store.postParentID")
	if err != nil {
		return 0, err
	}
	return c.ParentID, nil
}

// notifyReply creates a Notification for the author of parentID, unless
// they are replying to themselves (§3 Notification; NotificationReplyToThread
// vs NotificationReplyToComment per whether the parent is the thread root).
func (w *WriteTxn) notifyReply(threadID, parentID, replyAuthorID, commentID uint64, now int64) error {
	parentAuthorID, err := w.postAuthorID(threadID, parentID)
	if err != nil {
		return err
	}
	if parentAuthorID == replyAuthorID {
		return nil
	}
	typ := NotificationReplyToComment
	if parentID == threadID {
		typ = NotificationReplyToThread
	}
	_, err = w.CreateNotification(parentAuthorID, typ, commentID, now)
	return err
}

// postAuthorID returns the author of a thread or comment id.
func (w *WriteTxn) postAuthorID(threadID, id uint64) (uint64, error) {
	if id == threadID {
		t, err := getEntity[Thread](w.base, nsThread, id, "store.postAuthorID")
		if err != nil {
			return 0, err
		}
		return t.AuthorID, nil
	}
	c, err := getEntity[Comment](w.base, nsComment, id, "store.postAuthorID")
	if err != nil {
		return 0, err
	}
	return c.AuthorID, nil
}

func (w *WriteTxn) updatePostStatsForReply(postID uint64, postCreatedAt, replyCreatedAt, maxAge int64, direct bool) (*PostStats, *PostStats, error) {
	var old PostStats
	new1, err := w.bumpPostStats(postID, func(ps *PostStats) {
		old = *ps
		active := isActiveReply(postCreatedAt, replyCreatedAt, maxAge)
		if active && replyCreatedAt > ps.LatestComment {
			ps.LatestComment = replyCreatedAt
		}
		if replyCreatedAt > ps.LatestCommentNecro {
			ps.LatestCommentNecro = replyCreatedAt
		}
		ps.DescendantCount++
		if direct {
			ps.ChildCount++
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return &old, new1, nil
}

// reindexMostComments delete+reinserts an ancestor in the most_comments
// indexes (global + board-scoped) to reflect its new descendant_count
// (§4.4). Thread and comment share the same namespaces by convention:
// a thread ancestor reindexes threads_most_comments, a comment ancestor
// reindexes comments_most_comments.
func (w *WriteTxn) reindexMostComments(threadID, ancestorID uint64, old, new1 *PostStats) error {
	if old.DescendantCount == new1.DescendantCount {
		return nil
	}
	if ancestorID == threadID {
		t, err := getEntity[Thread](w.base, nsThread, ancestorID, "store.reindexMostComments")
		if err != nil {
			return err
		}
		if err := w.reindex(nsThreadsMostComments, NewCursor1(old.DescendantCount), NewCursor1(new1.DescendantCount), ancestorID); err != nil {
			return err
		}
		return w.reindex(nsThreadsOfBoardMostComments, NewCursor2(t.BoardID, old.DescendantCount), NewCursor2(t.BoardID, new1.DescendantCount), ancestorID)
	}
	thread, err := getEntity[Thread](w.base, nsThread, threadID, "store.reindexMostComments")
	if err != nil {
		return err
	}
	if err := w.reindex(nsCommentsMostComments, NewCursor1(old.DescendantCount), NewCursor1(new1.DescendantCount), ancestorID); err != nil {
		return err
	}
	return w.reindex(nsCommentsOfBoardMostComments, NewCursor2(thread.BoardID, old.DescendantCount), NewCursor2(thread.BoardID, new1.DescendantCount), ancestorID)
}

// Vote applies a new vote value for (userID, postID) where postID may be
// a thread or comment id (§4.4 "On vote change").
func (w *WriteTxn) Vote(userID, postID uint64, value int, now int64) error {
	if value < -1 || value > 1 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.Vote", "vote value must be -1, 0, or 1")
	}

	old := w.currentVote(userID, postID)
	diff := value - old
	if diff == 0 {
		return nil
	}

	if err := w.swapVoteSet(userID, postID, old, value); err != nil {
		return err
	}

	var oldStats, newStats PostStats
	_, err := w.bumpPostStats(postID, func(ps *PostStats) {
		oldStats = *ps
		switch {
		case old == 1:
			ps.Upvotes--
		case old == -1:
			ps.Downvotes--
		}
		switch {
		case value == 1:
			ps.Upvotes++
		case value == -1:
			ps.Downvotes++
		}
		ps.Karma += int64(diff)
		newStats = *ps
	})
	if err != nil {
		return err
	}

	isThread, boardID, authorID, parentID, err := w.postLocation(postID)
	if err != nil {
		return err
	}

	if err := w.bumpUserStats(authorID, func(us *UserStats) {
		if isThread {
			us.ThreadKarma += int64(diff)
		} else {
			us.CommentKarma += int64(diff)
		}
	}); err != nil {
		return err
	}

	oldKarmaU := uintFromInt(oldStats.Karma)
	newKarmaU := uintFromInt(newStats.Karma)
	if isThread {
		if err := w.reindex(nsThreadsTop, NewCursor1(oldKarmaU), NewCursor1(newKarmaU), postID); err != nil {
			return err
		}
		if err := w.reindex(nsThreadsOfBoardTop, NewCursor2(boardID, oldKarmaU), NewCursor2(boardID, newKarmaU), postID); err != nil {
			return err
		}
		if err := w.reindex(nsThreadsOfUserTop, NewCursor2(authorID, oldKarmaU), NewCursor2(authorID, newKarmaU), postID); err != nil {
			return err
		}
	} else {
		if err := w.reindex(nsCommentsTop, NewCursor1(oldKarmaU), NewCursor1(newKarmaU), postID); err != nil {
			return err
		}
		if err := w.reindex(nsCommentsOfBoardTop, NewCursor2(boardID, oldKarmaU), NewCursor2(boardID, newKarmaU), postID); err != nil {
			return err
		}
		if err := w.reindex(nsCommentsOfUserTop, NewCursor2(authorID, oldKarmaU), NewCursor2(authorID, newKarmaU), postID); err != nil {
			return err
		}
		if err := w.reindex(nsChildrenTop, NewCursor2(parentID, oldKarmaU), NewCursor2(parentID, newKarmaU), postID); err != nil {
			return err
		}
	}

	return nil
}

func (w *WriteTxn) currentVote(userID, postID uint64) int {
	if _, err := w.getRaw(voteUserPostKey(userID, true, postID)); err == nil {
		return 1
	}
	if _, err := w.getRaw(voteUserPostKey(userID, false, postID)); err == nil {
		return -1
	}
	return 0
}

// voteUserPostKey and votePostUserKey encode the two symmetric vote
// namespaces (§ SUPPLEMENTED FEATURES "Vote as two symmetric dbis"):
// a direction byte (1 = up, 0 = down) disambiguates the two sets within
// one namespace, then (user, post) or (post, user) follow.
func voteUserPostKey(userID uint64, up bool, postID uint64) []byte {
	dir := byte(0)
	if up {
		dir = 1
	}
	suffix := append(idBytes(userID), dir)
	suffix = append(suffix, idBytes(postID)...)
	return key(nsVoteUserPost, suffix)
}

func votePostUserKey(postID uint64, up bool, userID uint64) []byte {
	dir := byte(0)
	if up {
		dir = 1
	}
	suffix := append(idBytes(postID), dir)
	suffix = append(suffix, idBytes(userID)...)
	return key(nsVotePostUser, suffix)
}

func (w *WriteTxn) swapVoteSet(userID, postID uint64, old, new1 int) error {
	if old == 1 {
		if err := w.deleteRaw(voteUserPostKey(userID, true, postID)); err != nil {
			return err
		}
		if err := w.deleteRaw(votePostUserKey(postID, true, userID)); err != nil {
			return err
		}
	} else if old == -1 {
		if err := w.deleteRaw(voteUserPostKey(userID, false, postID)); err != nil {
			return err
		}
		if err := w.deleteRaw(votePostUserKey(postID, false, userID)); err != nil {
			return err
		}
	}
	if new1 == 1 {
		if err := w.setRaw(voteUserPostKey(userID, true, postID), []byte{}); err != nil {
			return err
		}
		return w.setRaw(votePostUserKey(postID, true, userID), []byte{})
	} else if new1 == -1 {
		if err := w.setRaw(voteUserPostKey(userID, false, postID), []byte{}); err != nil {
			return err
		}
		return w.setRaw(votePostUserKey(postID, false, userID), []byte{})
	}
	return nil
}

// postLocation resolves whether postID is a thread or comment and returns
// the fields Vote needs to reindex every scoped top index.
func (w *WriteTxn) postLocation(postID uint64) (isThread bool, boardID, authorID, parentID uint64, err error) {
	if t, tErr := getEntity[Thread](w.base, nsThread, postID, "store.postLocation"); tErr == nil {
		return true, t.BoardID, t.AuthorID, 0, nil
	}
	c, cErr := getEntity[Comment](w.base, nsComment, postID, "store.postLocation")
	if cErr != nil {
		return false, 0, 0, 0, ludwigerr.New(ludwigerr.NotFound, "store.postLocation", "post not found")
	}
	thread, tErr := getEntity[Thread](w.base, nsThread, c.ThreadID, "store.postLocation")
	if tErr != nil {
		return false, 0, 0, 0, tErr
	}
	return false, thread.BoardID, c.AuthorID, c.ParentID, nil
}
