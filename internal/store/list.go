package store

// ListDesc returns up to pageSize ids from a single-field time-ordered
// index (e.g. users_new, threads_new), descending, honoring an optional
// resumption cursor (§4.6 time-descending semantics).
func (r *ReadTxn) ListDesc(n ns, from *PageCursor, pageSize int) ([]uint64, *PageCursor, error) {
	if pageSize <= 0 {
		pageSize = 25
	}
	var ids []uint64
	var lastKey uint64
	start := Cursor{}
	if !from.Empty() {
		start = NewCursor1(from.V)
	}
	err := r.scanReverseFromOrAll(n, start, !from.Empty(), func(e iterEntry) bool {
		ids = append(ids, e.ID)
		lastKey = e.Sort.A()
		return len(ids) < pageSize
	})
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == pageSize {
		return ids, NextCursorDesc(0, lastKey), nil
	}
	return ids, &PageCursor{}, nil
}

// scanReverseFromOrAll scans the whole namespace in descending order, or,
// if bounded is true, resumes at or before `from` (entries whose sort key
// equals `from` are included).
func (b base) scanReverseFromOrAll(n ns, from Cursor, bounded bool, fn func(iterEntry) bool) error {
	if !bounded {
		return b.scanReverse(n, Cursor{}, 1, fn)
	}
	return b.scanReverseFrom(n, from, fn)
}
