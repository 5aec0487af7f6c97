package store

// GlobalThreadFeed streams the site-wide thread feed (§4.3 "Global:
// threads_new ... threads_top ...").
func (r *ReadTxn) GlobalThreadFeed(sort FeedSort, now int64, pageSize int, from *PageCursor) (*FeedPage, error) {
	sc := feedScope{newNS: nsThreadsNew, topNS: nsThreadsTop, scope: Cursor{}}
	return r.threadFeed(sc, sort, now, pageSize, from)
}

// BoardThreadFeed streams boardID's thread feed (§8 scenario S4).
func (r *ReadTxn) BoardThreadFeed(boardID uint64, sort FeedSort, now int64, pageSize int, from *PageCursor) (*FeedPage, error) {
	sc := feedScope{newNS: nsThreadsOfBoardNew, topNS: nsThreadsOfBoardTop, scope: NewCursor1(boardID)}
	return r.threadFeed(sc, sort, now, pageSize, from)
}

// UserThreadFeed streams userID's authored-thread feed.
func (r *ReadTxn) UserThreadFeed(userID uint64, sort FeedSort, now int64, pageSize int, from *PageCursor) (*FeedPage, error) {
	sc := feedScope{newNS: nsThreadsOfUserNew, topNS: nsThreadsOfUserTop, scope: NewCursor1(userID)}
	return r.threadFeed(sc, sort, now, pageSize, from)
}

// LocalThreadFeed streams the FEED_LOCAL scope (§3): the site-wide feed
// narrowed to threads that originated on this instance, excluding
// anything mirrored in from a remote instance's federated board.
func (r *ReadTxn) LocalThreadFeed(sort FeedSort, now int64, pageSize int, from *PageCursor) (*FeedPage, error) {
	sc := feedScope{newNS: nsThreadsNew, topNS: nsThreadsTop, scope: Cursor{}, filter: isLocalThread}
	return r.threadFeed(sc, sort, now, pageSize, from)
}

// HomeThreadFeed streams the FEED_HOME scope (§3): the aggregation of
// every board userID subscribes to, read off the same global threads_new/
// threads_top indexes GlobalThreadFeed uses so pagination and ranking stay
// exact, filtered down to the subscribed board set.
func (r *ReadTxn) HomeThreadFeed(userID uint64, sort FeedSort, now int64, pageSize int, from *PageCursor) (*FeedPage, error) {
	boards, err := r.subscribedBoardSet(userID)
	if err != nil {
		return nil, err
	}
	filter := func(r *ReadTxn, id uint64) bool {
		th, err := getEntity[Thread](r.base, nsThread, id, "store.HomeThreadFeed")
		if err != nil {
			return false
		}
		return boards[th.BoardID]
	}
	sc := feedScope{newNS: nsThreadsNew, topNS: nsThreadsTop, scope: Cursor{}, filter: filter}
	return r.threadFeed(sc, sort, now, pageSize, from)
}

// isLocalThread reports whether a thread originated on this instance
// rather than being mirrored in from a federated peer (§3 FederationFields:
// zero-valued for local-only entities).
func isLocalThread(r *ReadTxn, id uint64) bool {
	th, err := getEntity[Thread](r.base, nsThread, id, "store.LocalThreadFeed")
	if err != nil {
		return false
	}
	return th.Federation.InstanceHostID == 0
}

// subscribedBoardSet returns the set of board ids userID subscribes to
// (nsOwnerUserBoard, populated by Subscribe in membership.go).
func (r *ReadTxn) subscribedBoardSet(userID uint64) (map[uint64]bool, error) {
	set := map[uint64]bool{}
	err := r.scanForward(nsOwnerUserBoard, NewCursor1(userID), 1, func(e iterEntry) bool {
		set[e.ID] = true
		return true
	})
	return set, err
}

func (r *ReadTxn) threadFeed(sc feedScope, sort FeedSort, now int64, pageSize int, from *PageCursor) (*FeedPage, error) {
	maxAge := int64(r.store.cfg.ActiveCommentMaxAge.Seconds())
	switch sort {
	case SortHot, SortActive:
		return r.rankedFeed(sc, sort, now, pageSize, from, maxAge)
	default:
		return r.newCommentsFeed(sc, now, pageSize, from, maxAge)
	}
}
