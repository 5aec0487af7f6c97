package store

import (
	"github.com/dgraph-io/badger/v4"
)

// nextIDKey is the reserved settings-table key holding the monotonic id
// counter (§3, §6 "Reserved settings keys: next_id").
var nextIDKey = key(nsSettings, []byte("next_id"))

// IDMinUser is the threshold below which ids are reserved for well-known
// feed ids (FEED_ALL, FEED_LOCAL, FEED_HOME) rather than entities (§3).
const IDMinUser uint64 = 1 << 16

// FeedAll, FeedLocal, and FeedHome are the well-known ids a caller passes
// to identify which of feed_api.go's three scopes it means, mirroring
// GlobalThreadFeed, LocalThreadFeed, and HomeThreadFeed respectively.
const (
	FeedAll   uint64 = 1
	FeedLocal uint64 = 2
	FeedHome  uint64 = 3
)

// nextID allocates the next monotonic entity id within an open write
// transaction. The counter never regresses and ids are never reused
// (§3 invariant, §8.1 "id monotonicity").
func nextID(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(nextIDKey)
	var cur uint64
	switch {
	case err == nil:
		if err := item.Value(func(v []byte) error {
			cur = decodeUint64(v)
			return nil
		}); err != nil {
			return 0, err
		}
	case err == badger.ErrKeyNotFound:
		cur = IDMinUser
	default:
		return 0, err
	}

	next := cur + 1
	if err := txn.Set(nextIDKey, idBytes(next)); err != nil {
		return 0, err
	}
	return next, nil
}

func decodeUint64(b []byte) uint64 {
	c := DecodeCursor(b)
	return c.A()
}
