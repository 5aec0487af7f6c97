package store

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"

	json "github.com/goccy/go-json"

	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// DumpType enumerates the typed records in the database dump format (§6).
type DumpType byte

const (
	DumpSetting DumpType = iota
	DumpUser
	DumpLocalUser
	DumpBoard
	DumpLocalBoard
	DumpThread
	DumpComment
	DumpNotification
	DumpUpvoteBatch
	DumpDownvoteBatch
	DumpSubscriptionBatch
	DumpNextID
)

// VoteBatch is the per-user batched list of upvoted or downvoted post ids
// (§6 "UpvoteBatch ... DownvoteBatch").
type VoteBatch struct {
	UserID  uint64   `json:"user_id"`
	PostIDs []uint64 `json:"post_ids"`
}

// SubscriptionBatch is the per-user batched list of subscribed board ids.
type SubscriptionBatch struct {
	UserID   uint64   `json:"user_id"`
	BoardIDs []uint64 `json:"board_ids"`
}

// writeRecord writes one size-prefixed typed record: entity_id, dump_type,
// then a 4-byte length-prefixed payload (§6 outer envelope).
func writeRecord(w *bufio.Writer, entityID uint64, dt DumpType, payload []byte) error {
	var hdr [13]byte
	binary.BigEndian.PutUint64(hdr[0:8], entityID)
	hdr[8] = byte(dt)
	binary.BigEndian.PutUint32(hdr[9:13], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readRecord(r io.Reader) (entityID uint64, dt DumpType, payload []byte, err error) {
	var hdr [13]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, nil, err
	}
	entityID = binary.BigEndian.Uint64(hdr[0:8])
	dt = DumpType(hdr[8])
	n := binary.BigEndian.Uint32(hdr[9:13])
	payload = make([]byte, n)
	_, err = io.ReadFull(r, payload)
	return entityID, dt, payload, err
}

// Dump streams the whole database to w as a concatenation of size-prefixed
// typed records, in the dependency order required by Restore (§6, §5:
// "runs inside a single ReadTxn whose snapshot is pinned until the dump
// completes").
func (s *Store) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	err := s.View(func(r *ReadTxn) error {
		if err := r.dumpSettings(bw); err != nil {
			return err
		}
		if err := r.dumpNextID(bw); err != nil {
			return err
		}
		if err := r.dumpEntityClass(bw, nsUser, DumpUser, func(id uint64, raw []byte) error {
			if err := writeRecord(bw, id, DumpUser, raw); err != nil {
				return err
			}
			lu, err := r.getRaw(entityKey(nsLocalUser, id))
			if err == nil {
				return writeRecord(bw, id, DumpLocalUser, lu)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := r.dumpEntityClass(bw, nsBoard, DumpBoard, func(id uint64, raw []byte) error {
			if err := writeRecord(bw, id, DumpBoard, raw); err != nil {
				return err
			}
			lb, err := r.getRaw(entityKey(nsLocalBoard, id))
			if err == nil {
				return writeRecord(bw, id, DumpLocalBoard, lb)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := r.dumpEntityClass(bw, nsThread, DumpThread, func(id uint64, raw []byte) error {
			return writeRecord(bw, id, DumpThread, raw)
		}); err != nil {
			return err
		}
		if err := r.dumpEntityClass(bw, nsComment, DumpComment, func(id uint64, raw []byte) error {
			return writeRecord(bw, id, DumpComment, raw)
		}); err != nil {
			return err
		}
		if err := r.dumpEntityClass(bw, nsNotification, DumpNotification, func(id uint64, raw []byte) error {
			return writeRecord(bw, id, DumpNotification, raw)
		}); err != nil {
			return err
		}
		return r.dumpVotesAndSubscriptions(bw)
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// settingsDump bundles the Settings record and the SiteStats counters into
// the single DumpSetting record the dump envelope carries (§6 "Settings
// first"): both live under the reserved settings table, so they travel
// together.
type settingsDump struct {
	Settings  Settings  `json:"settings"`
	SiteStats SiteStats `json:"site_stats"`
}

func (r *ReadTxn) dumpSettings(bw *bufio.Writer) error {
	cfg, err := r.GetSettings()
	if err != nil {
		return err
	}
	ss, err := r.GetSiteStats()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(&settingsDump{Settings: *cfg, SiteStats: *ss})
	if err != nil {
		return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.Dump", err)
	}
	return writeRecord(bw, 0, DumpSetting, raw)
}

// dumpNextID carries the monotonic id counter (§3 "next_id") so Restore
// can advance the destination store past every id the dump already
// allocated, rather than leaving it at the fresh-store default and
// risking a post-restore Create* colliding with a restored entity.
func (r *ReadTxn) dumpNextID(bw *bufio.Writer) error {
	v, err := r.getRaw(nextIDKey)
	var cur uint64
	switch {
	case err == nil:
		cur = decodeUint64(v)
	case errors.Is(err, badger.ErrKeyNotFound):
		cur = IDMinUser
	default:
		return ludwigerr.Wrap(ludwigerr.StorageError, "store.Dump", err)
	}
	raw, err := json.Marshal(cur)
	if err != nil {
		return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.Dump", err)
	}
	return writeRecord(bw, 0, DumpNextID, raw)
}

func (r *ReadTxn) dumpEntityClass(bw *bufio.Writer, n ns, dt DumpType, emit func(id uint64, raw []byte) error) error {
	prefix := []byte{byte(n)}
	opts := badger.DefaultIteratorOptions
	it := r.txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().Key()
		id := binary.BigEndian.Uint64(k[1:9])
		var raw []byte
		if err := it.Item().Value(func(v []byte) error {
			raw = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}
		if err := emit(id, raw); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReadTxn) dumpVotesAndSubscriptions(bw *bufio.Writer) error {
	upvotes := map[uint64][]uint64{}
	downvotes := map[uint64][]uint64{}
	prefix := []byte{byte(nsVoteUserPost)}
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := r.txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().KeyCopy(nil)
		// k = [ns][8 byte user][1 byte dir][8 byte post]
		userID := binary.BigEndian.Uint64(k[1:9])
		dir := k[9]
		postID := binary.BigEndian.Uint64(k[10:18])
		if dir == 1 {
			upvotes[userID] = append(upvotes[userID], postID)
		} else {
			downvotes[userID] = append(downvotes[userID], postID)
		}
	}
	it.Close()

	subs := map[uint64][]uint64{}
	prefix2 := []byte{byte(nsOwnerUserBoard)}
	opts2 := badger.DefaultIteratorOptions
	opts2.PrefetchValues = false
	it2 := r.txn.NewIterator(opts2)
	for it2.Seek(prefix2); it2.ValidForPrefix(prefix2); it2.Next() {
		k := it2.Item().KeyCopy(nil)
		userID := binary.BigEndian.Uint64(k[1:9])
		boardID := binary.BigEndian.Uint64(k[9:17])
		subs[userID] = append(subs[userID], boardID)
	}
	it2.Close()

	for userID, posts := range upvotes {
		raw, err := json.Marshal(VoteBatch{UserID: userID, PostIDs: posts})
		if err != nil {
			return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.Dump", err)
		}
		if err := writeRecord(bw, userID, DumpUpvoteBatch, raw); err != nil {
			return err
		}
	}
	for userID, posts := range downvotes {
		raw, err := json.Marshal(VoteBatch{UserID: userID, PostIDs: posts})
		if err != nil {
			return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.Dump", err)
		}
		if err := writeRecord(bw, userID, DumpDownvoteBatch, raw); err != nil {
			return err
		}
	}
	for userID, boards := range subs {
		raw, err := json.Marshal(SubscriptionBatch{UserID: userID, BoardIDs: boards})
		if err != nil {
			return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.Dump", err)
		}
		if err := writeRecord(bw, userID, DumpSubscriptionBatch, raw); err != nil {
			return err
		}
	}
	return nil
}

// Restore reads a dump stream into this store, which must be empty. It
// processes records in bulk-append mode: primary records are written
// directly, and per-entity stats, which the dump does not carry, are
// re-derived — threads and comments through the post-creation stats
// cascade, votes/subscriptions through the normal Vote and Subscribe
// paths — so indexes and stats end up consistent. Settings and the
// SiteStats user/board counts are restored verbatim from the dump (§4.7
// "using bulk-append optimizations").
func (s *Store) Restore(ctx context.Context, r io.Reader) error {
	for {
		id, dt, payload, err := readRecord(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ludwigerr.Wrap(ludwigerr.StorageError, "store.Restore", err)
		}
		if err := s.restoreOne(ctx, id, dt, payload); err != nil {
			return err
		}
	}
}

func (s *Store) restoreOne(ctx context.Context, id uint64, dt DumpType, payload []byte) error {
	switch dt {
	case DumpSetting:
		var sd settingsDump
		if err := json.Unmarshal(payload, &sd); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error {
			if err := w.PutSettings(&sd.Settings); err != nil {
				return err
			}
			// Restored threads and comments count themselves again.
			sd.SiteStats.ThreadCount = 0
			sd.SiteStats.CommentCount = 0
			return w.putSiteStats(&sd.SiteStats)
		})
	case DumpUser:
		var u User
		if err := json.Unmarshal(payload, &u); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error {
			if err := setEntity(w, nsUser, u.ID, &u, "store.Restore"); err != nil {
				return err
			}
			return w.setRaw(nameKey(nsUserName, w.store.hashSeed, u.Name), idBytes(u.ID))
		})
	case DumpLocalUser:
		var lu LocalUser
		if err := json.Unmarshal(payload, &lu); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error { return w.CreateLocalUser(lu) })
	case DumpBoard:
		var b Board
		if err := json.Unmarshal(payload, &b); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error {
			if err := setEntity(w, nsBoard, b.ID, &b, "store.Restore"); err != nil {
				return err
			}
			return w.setRaw(nameKey(nsBoardName, w.store.hashSeed, b.Name), idBytes(b.ID))
		})
	case DumpLocalBoard:
		var lb LocalBoard
		if err := json.Unmarshal(payload, &lb); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error { return w.CreateLocalBoard(lb) })
	case DumpThread:
		var t Thread
		if err := json.Unmarshal(payload, &t); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error { return w.restoreThread(t) })
	case DumpComment:
		var c Comment
		if err := json.Unmarshal(payload, &c); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error { return w.restoreComment(c) })
	case DumpNotification:
		var n Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error {
			return setEntity(w, nsNotification, n.ID, &n, "store.Restore")
		})
	case DumpUpvoteBatch, DumpDownvoteBatch:
		var vb VoteBatch
		if err := json.Unmarshal(payload, &vb); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		up := dt == DumpUpvoteBatch
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error {
			for _, postID := range vb.PostIDs {
				v := -1
				if up {
					v = 1
				}
				if err := w.Vote(vb.UserID, postID, v, 0); err != nil {
					return err
				}
			}
			return nil
		})
	case DumpSubscriptionBatch:
		var sb SubscriptionBatch
		if err := json.Unmarshal(payload, &sb); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error {
			for _, boardID := range sb.BoardIDs {
				if err := w.Subscribe(sb.UserID, boardID); err != nil {
					return err
				}
			}
			return nil
		})
	case DumpNextID:
		var dumped uint64
		if err := json.Unmarshal(payload, &dumped); err != nil {
			return ludwigerr.Wrap(ludwigerr.CorruptData, "store.Restore", err)
		}
		return s.restoreNextID(ctx, dumped)
	}
	_ = id
	return nil
}

// restoreNextID advances the destination's next_id counter to at least
// dumped, never regressing it (§3 invariant: "the monotonic id counter
// never regresses; ids are never reused"). A dump taken from a store
// with fewer allocated ids than the destination already has must not
// walk the counter backward.
func (s *Store) restoreNextID(ctx context.Context, dumped uint64) error {
	return s.Update(ctx, PriorityBackground, func(w *WriteTxn) error {
		v, err := w.getRaw(nextIDKey)
		var cur uint64
		switch {
		case err == nil:
			cur = decodeUint64(v)
		case errors.Is(err, badger.ErrKeyNotFound):
			cur = IDMinUser
		default:
			return ludwigerr.Wrap(ludwigerr.StorageError, "store.Restore", err)
		}
		if dumped <= cur {
			return nil
		}
		return w.setRaw(nextIDKey, idBytes(dumped))
	})
}

// restoreThread writes a thread's primary record and every index entry
// derived from its own already-known PostStats-independent fields,
// without re-running the full CreateThread cascade (no id allocation, no
// automatic self-upvote — votes are replayed separately from their own
// batch records).
func (w *WriteTxn) restoreThread(t Thread) error {
	if err := setEntity(w, nsThread, t.ID, &t, "store.restoreThread"); err != nil {
		return err
	}
	if err := setEntity(w, nsPostStats, t.ID, &PostStats{PostID: t.ID}, "store.restoreThread"); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsNew, NewCursor1(uint64(t.CreatedAt)), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsTop, NewCursor1(uintFromInt(0)), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsMostComments, NewCursor1(0), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsOfBoardNew, NewCursor2(t.BoardID, uint64(t.CreatedAt)), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsOfBoardTop, NewCursor2(t.BoardID, uintFromInt(0)), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsOfBoardMostComments, NewCursor2(t.BoardID, 0), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsOfUserNew, NewCursor2(t.AuthorID, uint64(t.CreatedAt)), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsThreadsOfUserTop, NewCursor2(t.AuthorID, uintFromInt(0)), t.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsOwnerUserThread, NewCursor1(t.AuthorID), t.ID); err != nil {
		return err
	}
	return w.onPostCreated(t.AuthorID, t.BoardID, t.ID, t.CreatedAt, true)
}

func (w *WriteTxn) restoreComment(c Comment) error {
	thread, err := getEntity[Thread](w.base, nsThread, c.ThreadID, "store.restoreComment")
	if err != nil {
		return err
	}
	if err := setEntity(w, nsComment, c.ID, &c, "store.restoreComment"); err != nil {
		return err
	}
	if err := setEntity(w, nsPostStats, c.ID, &PostStats{PostID: c.ID}, "store.restoreComment"); err != nil {
		return err
	}
	if err := w.insertIndex(nsCommentsNew, NewCursor1(uint64(c.CreatedAt)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsCommentsTop, NewCursor1(uintFromInt(0)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsCommentsOfBoardNew, NewCursor2(thread.BoardID, uint64(c.CreatedAt)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsCommentsOfBoardTop, NewCursor2(thread.BoardID, uintFromInt(0)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsCommentsOfUserNew, NewCursor2(c.AuthorID, uint64(c.CreatedAt)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsCommentsOfUserTop, NewCursor2(c.AuthorID, uintFromInt(0)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsOwnerUserComment, NewCursor1(c.AuthorID), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsChildrenOfParent, NewCursor2(c.ParentID, uint64(c.CreatedAt)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsChildrenNew, NewCursor2(c.ParentID, uint64(c.CreatedAt)), c.ID); err != nil {
		return err
	}
	if err := w.insertIndex(nsChildrenTop, NewCursor2(c.ParentID, uintFromInt(0)), c.ID); err != nil {
		return err
	}
	if err := w.walkAncestorsOnCreate(c.ThreadID, c.ParentID, c.CreatedAt); err != nil {
		return err
	}
	return w.onPostCreated(c.AuthorID, thread.BoardID, c.ID, c.CreatedAt, false)
}
