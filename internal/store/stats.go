package store

import (
	"github.com/ludwig-forum/ludwig/internal/eventbus"
	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// isActiveReply reports whether a reply created at childCreatedAt counts
// as "active" relative to ancestorCreatedAt (§4.4).
func isActiveReply(ancestorCreatedAt, childCreatedAt int64, maxAge int64) bool {
	age := childCreatedAt - ancestorCreatedAt
	return age >= 0 && age <= maxAge
}

// bumpUserStats loads, mutates via fn, and writes back a user's stats,
// creating a zero record if none exists yet (§3 invariant: every User has
// exactly one UserStats, created alongside the user).
func (w *WriteTxn) bumpUserStats(userID uint64, fn func(*UserStats)) error {
	cur, err := getEntity[UserStats](w.base, nsUserStats, userID, "store.bumpUserStats")
	if err != nil && !ludwigerr.Is(err, ludwigerr.NotFound) {
		return err
	}
	if cur == nil {
		cur = &UserStats{UserID: userID}
	}
	fn(cur)
	if err := setEntity(w, nsUserStats, userID, cur, "store.bumpUserStats"); err != nil {
		return err
	}
	w.emit(eventbus.TopicUserStatsUpdate, eventbus.UserStatsUpdate{UserID: userID})
	return nil
}

func (w *WriteTxn) bumpBoardStats(boardID uint64, fn func(*BoardStats)) error {
	cur, err := getEntity[BoardStats](w.base, nsBoardStats, boardID, "store.bumpBoardStats")
	if err != nil && !ludwigerr.Is(err, ludwigerr.NotFound) {
		return err
	}
	if cur == nil {
		cur = &BoardStats{BoardID: boardID}
	}
	fn(cur)
	if err := setEntity(w, nsBoardStats, boardID, cur, "store.bumpBoardStats"); err != nil {
		return err
	}
	w.emit(eventbus.TopicBoardStatsUpdate, eventbus.BoardStatsUpdate{BoardID: boardID})
	return nil
}

func (w *WriteTxn) bumpPostStats(postID uint64, fn func(*PostStats)) (*PostStats, error) {
	cur, err := getEntity[PostStats](w.base, nsPostStats, postID, "store.bumpPostStats")
	if err != nil && !ludwigerr.Is(err, ludwigerr.NotFound) {
		return nil, err
	}
	if cur == nil {
		cur = &PostStats{PostID: postID}
	}
	fn(cur)
	if err := setEntity(w, nsPostStats, postID, cur, "store.bumpPostStats"); err != nil {
		return nil, err
	}
	w.emit(eventbus.TopicPostStatsUpdate, eventbus.PostStatsUpdate{PostID: postID})
	return cur, nil
}

func (w *WriteTxn) bumpSiteStats(fn func(*SiteStats)) error {
	cur, err := w.getSiteStats()
	if err != nil {
		return err
	}
	fn(cur)
	if err := w.putSiteStats(cur); err != nil {
		return err
	}
	w.emit(eventbus.TopicSiteUpdate, eventbus.SiteUpdate{})
	return nil
}

// reindexUserPostActivity updates users_new_posts and users_most_posts
// for userID given its current UserStats (§4.4: "re-index the user in
// users_new_posts and users_most_posts").
func (w *WriteTxn) reindexUserPostActivity(userID uint64, oldStats, newStats *UserStats) error {
	oldPostCount := oldStats.ThreadCount + oldStats.CommentCount
	newPostCount := newStats.ThreadCount + newStats.CommentCount
	if err := w.reindex(nsUsersNewPosts, NewCursor1(uint64(oldStats.LatestPostTime)), NewCursor1(uint64(newStats.LatestPostTime)), userID); err != nil {
		return err
	}
	return w.reindex(nsUsersMostPosts, NewCursor1(oldPostCount), NewCursor1(newPostCount), userID)
}

// reindexBoardPostActivity updates boards_new_posts and boards_most_posts
// for boardID (§4.4).
func (w *WriteTxn) reindexBoardPostActivity(boardID uint64, oldStats, newStats *BoardStats) error {
	oldPostCount := oldStats.ThreadCount + oldStats.CommentCount
	newPostCount := newStats.ThreadCount + newStats.CommentCount
	if err := w.reindex(nsBoardsNewPosts, NewCursor1(uint64(oldStats.LatestPostTime)), NewCursor1(uint64(newStats.LatestPostTime)), boardID); err != nil {
		return err
	}
	return w.reindex(nsBoardsMostPosts, NewCursor1(oldPostCount), NewCursor1(newPostCount), boardID)
}
