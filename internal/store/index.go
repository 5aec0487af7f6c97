package store

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/logging"
	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
	"github.com/ludwig-forum/ludwig/internal/metrics"
)

// insertIndex adds one (sort_key, id) entry into namespace n. The value is
// empty; every index is keyed for its order, not its payload.
func (w *WriteTxn) insertIndex(n ns, sortKey Cursor, id uint64) error {
	return w.setRaw(indexKey(n, sortKey, id), []byte{})
}

// removeIndex deletes one (sort_key, id) entry from namespace n. Deleting
// a key that is already absent is not an error — callers sometimes delete
// defensively before a reinsert.
func (w *WriteTxn) removeIndex(n ns, sortKey Cursor, id uint64) error {
	return w.deleteRaw(indexKey(n, sortKey, id))
}

// reindex deletes the old sort key's entry and inserts the new one in the
// same transaction (§4.3 write contract: "delete the old (old_key, id)
// entry and insert the new (new_key, id) entry in the same transaction").
func (w *WriteTxn) reindex(n ns, oldKey, newKey Cursor, id uint64) error {
	if err := w.removeIndex(n, oldKey, id); err != nil {
		return err
	}
	return w.insertIndex(n, newKey, id)
}

// iterEntry is one row yielded by an index scan: the entity id and the
// Cursor it was filed under.
type iterEntry struct {
	ID     uint64
	Sort   Cursor
}

// scanForward yields entries in namespace n whose key has the given
// prefix, in ascending key order, stopping when the prefix is exhausted or
// fn returns false.
func (b base) scanForward(n ns, scope Cursor, sortFields int, fn func(iterEntry) bool) error {
	metrics.IndexScanTotal.WithLabelValues("forward").Inc()
	prefix := indexPrefix(n, scope)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := b.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().KeyCopy(nil)
		entry := decodeIndexKey(k, sortFields)
		if !fn(entry) {
			return nil
		}
	}
	return nil
}

// scanReverse yields entries in namespace n whose key has the given
// prefix, in descending key order. Badger iterators support reverse scans
// natively via IteratorOptions.Reverse, seeking from a one-past-the-end
// bound.
func (b base) scanReverse(n ns, scope Cursor, sortFields int, fn func(iterEntry) bool) error {
	metrics.IndexScanTotal.WithLabelValues("reverse").Inc()
	prefix := indexPrefix(n, scope)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true
	it := b.txn.NewIterator(opts)
	defer it.Close()

	seek := append(append([]byte(nil), prefix...), 0xff)
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().KeyCopy(nil)
		entry := decodeIndexKey(k, sortFields)
		if !fn(entry) {
			return nil
		}
	}
	return nil
}

// scanReverseFrom is scanReverse bounded to start at or before the given
// full sort key (scope plus the varying field(s)), used to resume a
// time-descending page from a cursor (§4.6).
func (b base) scanReverseFrom(n ns, from Cursor, fn func(iterEntry) bool) error {
	metrics.IndexScanTotal.WithLabelValues("reverse").Inc()
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true
	it := b.txn.NewIterator(opts)
	defer it.Close()

	seek := key(n, from.Bytes())
	seek = append(seek, 0xff) // land on/after the last id sharing this sort key
	prefix := []byte{byte(n)}
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().KeyCopy(nil)
		entry := decodeIndexKey(k, from.Fields())
		if !fn(entry) {
			return nil
		}
	}
	return nil
}

func decodeIndexKey(k []byte, sortFields int) iterEntry {
	// k = [ns byte][sortFields*8 bytes][8 byte id]
	sortBytes := k[1 : 1+sortFields*8]
	id := indexEntryID(k)
	return iterEntry{ID: id, Sort: DecodeCursor(sortBytes)}
}

// resolveOrSkip fetches an entity and logs+skips (returns false) if the
// index entry's referent is missing, matching §4.3's "a read that
// encounters an index entry whose referent is missing logs a warning and
// skips the row". A CorruptData result is never silently skipped; it
// panics to escalate, per §7's propagation policy.
func resolveOrSkip[T any](r *ReadTxn, n ns, id uint64, op string, onFound func(*T)) bool {
	v, err := getEntity[T](r.base, n, id, op)
	if err != nil {
		if ludwigerr.Is(err, ludwigerr.CorruptData) {
			logging.Error().Uint64("id", id).Str("op", op).Err(err).Msg("corrupt payload for index referent")
			panic(err)
		}
		logging.Warn().Uint64("id", id).Str("op", op).Msg("index entry referent missing, skipping")
		metrics.IndexScanSkippedReferents.Inc()
		return false
	}
	onFound(v)
	return true
}
