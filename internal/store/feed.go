package store

import (
	"container/heap"
	"math"

	"github.com/ludwig-forum/ludwig/internal/metrics"
)

// FeedSort selects one of the three ranking modes (§4.5).
type FeedSort int

const (
	SortHot FeedSort = iota
	SortActive
	SortNew
)

// RankedEntry is one item yielded by a ranked feed page.
type RankedEntry struct {
	ID   uint64
	Rank float64
}

// FeedPage is one page of a ranked or time-ordered feed, with the
// resumption cursor to pass as `from` on the next call (§4.6).
type FeedPage struct {
	Entries    []RankedEntry
	NextCursor PageCursor
}

func hotRankNumerator(karma int64) float64 {
	return math.Log(math.Max(1, float64(3+karma)))
}

func hotRankDenominator(ageHours float64) float64 {
	return math.Pow(math.Max(0, ageHours)+2, 1.8)
}

func hotRank(karma int64, ageHours float64) float64 {
	return hotRankNumerator(karma) / hotRankDenominator(ageHours)
}

func ageHours(t, now int64) float64 {
	return float64(now-t) / 3600.0
}

// effectiveActiveTime computes the clamped timestamp used by Active rank
// (§4.5): latest_comment if there has been one, else created_at, never
// later than created_at + maxAge so a single necro-reply cannot
// indefinitely resurrect a post.
func effectiveActiveTime(ps *PostStats, createdAt int64, maxAgeSeconds int64) int64 {
	t := ps.LatestComment
	if t == 0 {
		t = createdAt
	}
	if cap := createdAt + maxAgeSeconds; t > cap {
		t = cap
	}
	return t
}

// rankHeap is a bounded max-priority-queue ordered by rank, ties broken by
// id descending (§4.5 "items with identical rank are tiebroken by id
// descending").
type rankHeap []RankedEntry

func (h rankHeap) Len() int { return len(h) }
func (h rankHeap) Less(i, j int) bool {
	if h[i].Rank != h[j].Rank {
		return h[i].Rank > h[j].Rank
	}
	return h[i].ID > h[j].ID
}
func (h rankHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *rankHeap) Push(x any)        { *h = append(*h, x.(RankedEntry)) }
func (h *rankHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// threadFilter decides whether a candidate id belongs in a feed page. It
// runs before the id is pushed onto the ranking heap, so an excluded id
// never occupies a page slot — the same free-skip treatment §4.3 gives a
// stale index referent.
type threadFilter func(r *ReadTxn, id uint64) bool

// feedScope bundles the global/board/user-scoped namespace pair, the
// Cursor scope prefix a ranked feed reads from, and an optional filter
// for feeds that narrow a shared index rather than reading their own
// (Local's federation-origin filter, Home's subscription-membership
// filter: both ride the global threads_new/threads_top indexes).
type feedScope struct {
	newNS  ns
	topNS  ns
	scope  Cursor // scan prefix; an empty Cursor scans the whole namespace
	filter threadFilter
}

// rankedFeed implements the Hot/Active streaming algorithm of §4.5: merge
// a creation-time iterator with a karma iterator through a bounded
// max-heap, using the proven early-termination bound so the heap never
// needs to hold more than pageSize items plus the unresolved frontier.
func (r *ReadTxn) rankedFeed(sc feedScope, sort FeedSort, now int64, pageSize int, from *PageCursor, maxAgeSeconds int64) (*FeedPage, error) {
	if pageSize <= 0 {
		pageSize = 25
	}

	var fromRank float64
	var fromID uint64
	haveFrom := from != nil && !from.Empty()
	if haveFrom {
		fromRank = math.Float64frombits(from.K)
		fromID = from.V
	}

	sortFields := sc.scope.Fields() + 1

	// Step 2: peek iter_top for K_max; an empty scope yields an empty page.
	var kMax int64
	foundTop := false
	if err := r.scanReverse(sc.topNS, sc.scope, sortFields, func(e iterEntry) bool {
		kMax = intFromUint(lastField(e.Sort))
		foundTop = true
		return false
	}); err != nil {
		return nil, err
	}
	if !foundTop {
		return &FeedPage{}, nil
	}

	h := &rankHeap{}
	heap.Init(h)

	var results []RankedEntry
	var resumeRank float64
	var resumeID uint64
	haveResume := false
	scanned := 0
	terminatedEarly := false

	err := r.scanReverse(sc.newNS, sc.scope, sortFields, func(e iterEntry) bool {
		scanned++
		createdAt := int64(lastField(e.Sort))
		id := e.ID

		if sc.filter != nil && !sc.filter(r, id) {
			return true // out of scope for this feed: skip, doesn't count against pageSize
		}

		ps, err := getEntity[PostStats](r.base, nsPostStats, id, "store.rankedFeed")
		if err != nil {
			return true // missing referent: skip per §4.3 stale-index policy
		}

		var rank float64
		var boundAgeHours float64
		switch sort {
		case SortActive:
			effT := effectiveActiveTime(ps, createdAt, maxAgeSeconds)
			rank = hotRank(ps.Karma, ageHours(effT, now))
			// Every id reached later in iter_new has created_at <= createdAt,
			// so its effective active time can be no later than
			// createdAt + maxAge: the necro-proof age lower bound.
			boundAgeHours = math.Max(0, float64(now-createdAt-maxAgeSeconds)/3600.0)
		default: // SortHot
			rank = hotRank(ps.Karma, ageHours(createdAt, now))
			boundAgeHours = math.Max(0, ageHours(createdAt, now))
		}

		if haveFrom && (rank > fromRank || (rank == fromRank && id >= fromID)) {
			return true // already emitted on a previous page
		}

		heap.Push(h, RankedEntry{ID: id, Rank: rank})

		maxPossibleFuture := hotRankNumerator(kMax) / hotRankDenominator(boundAgeHours)
		for h.Len() > 0 && maxPossibleFuture <= (*h)[0].Rank {
			top := heap.Pop(h).(RankedEntry)
			resumeRank, resumeID, haveResume = top.Rank, top.ID, true
			results = append(results, top)
			if len(results) >= pageSize {
				terminatedEarly = true
				return false
			}
		}
		return len(results) < pageSize
	})
	if err != nil {
		return nil, err
	}

	for h.Len() > 0 && len(results) < pageSize {
		top := heap.Pop(h).(RankedEntry)
		resumeRank, resumeID, haveResume = top.Rank, top.ID, true
		results = append(results, top)
	}

	metrics.FeedCandidatesScanned.Observe(float64(scanned))
	if terminatedEarly {
		metrics.FeedEarlyTerminations.WithLabelValues(feedSortLabel(sort)).Inc()
	}

	page := &FeedPage{Entries: results}
	if len(results) == pageSize && haveResume {
		page.NextCursor = PageCursor{K: math.Float64bits(resumeRank), V: resumeID, set: true}
	}
	return page, nil
}

func feedSortLabel(sort FeedSort) string {
	switch sort {
	case SortActive:
		return "active"
	case SortNew:
		return "new"
	default:
		return "hot"
	}
}

// newCommentsFeed streams posts ordered by latest_comment descending
// (§4.5 "New-Comments streaming is analogous but sorted by timestamp").
// Its rank value is a raw timestamp rather than a hot-rank ratio, and its
// early-termination bound is T_max_possible = min(now, created_at_i +
// ACTIVE_COMMENT_MAX_AGE).
func (r *ReadTxn) newCommentsFeed(sc feedScope, now int64, pageSize int, from *PageCursor, maxAgeSeconds int64) (*FeedPage, error) {
	if pageSize <= 0 {
		pageSize = 25
	}
	sortFields := sc.scope.Fields() + 1

	var fromRank float64
	var fromID uint64
	haveFrom := from != nil && !from.Empty()
	if haveFrom {
		fromRank = math.Float64frombits(from.K)
		fromID = from.V
	}

	h := &rankHeap{}
	heap.Init(h)
	var results []RankedEntry
	var resumeRank float64
	var resumeID uint64
	haveResume := false
	scanned := 0
	terminatedEarly := false

	err := r.scanReverse(sc.newNS, sc.scope, sortFields, func(e iterEntry) bool {
		scanned++
		createdAt := int64(lastField(e.Sort))
		id := e.ID

		if sc.filter != nil && !sc.filter(r, id) {
			return true
		}

		ps, err := getEntity[PostStats](r.base, nsPostStats, id, "store.newCommentsFeed")
		if err != nil {
			return true
		}

		rank := float64(effectiveActiveTime(ps, createdAt, maxAgeSeconds))
		if haveFrom && (rank > fromRank || (rank == fromRank && id >= fromID)) {
			return true
		}

		heap.Push(h, RankedEntry{ID: id, Rank: rank})

		bound := float64(createdAt + maxAgeSeconds)
		if float64(now) < bound {
			bound = float64(now)
		}
		for h.Len() > 0 && bound <= (*h)[0].Rank {
			top := heap.Pop(h).(RankedEntry)
			resumeRank, resumeID, haveResume = top.Rank, top.ID, true
			results = append(results, top)
			if len(results) >= pageSize {
				terminatedEarly = true
				return false
			}
		}
		return len(results) < pageSize
	})
	if err != nil {
		return nil, err
	}

	for h.Len() > 0 && len(results) < pageSize {
		top := heap.Pop(h).(RankedEntry)
		resumeRank, resumeID, haveResume = top.Rank, top.ID, true
		results = append(results, top)
	}

	metrics.FeedCandidatesScanned.Observe(float64(scanned))
	if terminatedEarly {
		metrics.FeedEarlyTerminations.WithLabelValues("new_comments").Inc()
	}

	page := &FeedPage{Entries: results}
	if len(results) == pageSize && haveResume {
		page.NextCursor = PageCursor{K: math.Float64bits(resumeRank), V: resumeID, set: true}
	}
	return page, nil
}

func lastField(c Cursor) uint64 {
	switch c.Fields() {
	case 1:
		return c.A()
	case 2:
		return c.B()
	default:
		return c.C()
	}
}
