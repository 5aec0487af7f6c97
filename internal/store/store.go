// Package store is Ludwig's storage and ranking engine (spec §2-§8): the
// keyed indexes, the write-time invariant maintenance across them, the
// paginated cursor-based read iterators, and the Hot/Active/NewComments
// ranking algorithms. It is consumed as a library by the (out of scope)
// HTTP layer, federation client, and CLI.
package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4/options"

	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/eventbus"
	"github.com/ludwig-forum/ludwig/internal/logging"
	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// ActiveCommentMaxAge bounds how long after a post's creation a reply is
// still considered "active" rather than a necro-reply (§4.4, §4.5).
const ActiveCommentMaxAge = 2 * 24 * time.Hour

// SessionCleanupEvery is the sampling interval for the opportunistic
// expired-session sweep that rides along with session creation (§5).
const SessionCleanupEvery = 256

// Config configures an open Store.
type Config struct {
	// Dir is the Badger data directory.
	Dir string
	// SyncWrites forces an fsync on every commit. Off by default, matching
	// the teacher repo's tunable; Ludwig's single-writer discipline does
	// not depend on it for correctness, only durability under power loss.
	SyncWrites bool
	// Compression enables Snappy block compression.
	Compression bool
	// ActiveCommentMaxAge overrides the default necro-reply window.
	ActiveCommentMaxAge time.Duration
	// SessionCleanupEvery overrides the sampling rate of the opportunistic
	// expired-session sweep. Zero uses SessionCleanupEvery.
	SessionCleanupEvery uint64
}

func (c Config) withDefaults() Config {
	if c.ActiveCommentMaxAge == 0 {
		c.ActiveCommentMaxAge = ActiveCommentMaxAge
	}
	if c.SessionCleanupEvery == 0 {
		c.SessionCleanupEvery = SessionCleanupEvery
	}
	return c
}

// Store is the storage and ranking engine's handle onto one Badger
// database. All mutation goes through the write queue (txn.go); reads may
// run concurrently against independent snapshots.
type Store struct {
	db       *badger.DB
	bus      *eventbus.Bus
	cfg      Config
	queue    *writeQueue
	hashSeed uint64

	sessionCreateCount atomic.Uint64
}

// Open creates or opens a Badger database at cfg.Dir and wires it to bus
// for post-commit event publication. bus may be nil, in which case events
// are dropped (used by tests that only exercise the storage layer).
func Open(cfg Config, bus *eventbus.Bus) (*Store, error) {
	cfg = cfg.withDefaults()

	opts := badger.DefaultOptions(cfg.Dir)
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger: %w", err)
	}

	s := &Store{db: db, bus: bus, cfg: cfg}
	s.queue = newWriteQueue(s)

	seed, err := s.loadOrCreateHashSeed()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.hashSeed = seed

	logging.Info().Str("dir", cfg.Dir).Bool("sync_writes", cfg.SyncWrites).Msg("store opened")
	return s, nil
}

// Close stops the write queue and closes the underlying database. Queued
// writes are allowed to drain first.
func (s *Store) Close() error {
	s.queue.stop()
	return s.db.Close()
}

// hashSeedKey is the reserved settings key for the per-database name-index
// hash seed (§6 "Reserved settings keys: hash_seed").
var hashSeedKey = key(nsSettings, []byte("hash_seed"))

func (s *Store) loadOrCreateHashSeed() (uint64, error) {
	var seed uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(hashSeedKey)
		switch {
		case err == nil:
			return item.Value(func(v []byte) error {
				seed = decodeUint64(v)
				return nil
			})
		case err == badger.ErrKeyNotFound:
			seed = randomSeed()
			return txn.Set(hashSeedKey, idBytes(seed))
		default:
			return err
		}
	})
	return seed, err
}

// View runs fn against a consistent read-only snapshot (§4.7 ReadTxn). Any
// number of Views may run concurrently with each other and with the
// single active write.
func (s *Store) View(fn func(*ReadTxn) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&ReadTxn{base: base{txn: txn, store: s}})
	})
}

// Priority distinguishes user-initiated writes from background/maintenance
// writes in the write queue's two-level scheduler (§4.7).
type Priority int

const (
	// PriorityBackground is for maintenance work: session sweeps, link-card
	// backfill, dump/restore.
	PriorityBackground Priority = iota
	// PriorityUser is for writes issued directly on behalf of a request.
	PriorityUser
)

func (p Priority) String() string {
	if p == PriorityUser {
		return "user"
	}
	return "background"
}

// Update submits fn to the write queue and blocks until it has run inside
// a single serialized WriteTxn and committed (or failed). If fn returns an
// error the transaction is discarded — no partial commit (§4.4 ordering
// discipline, §5 "a write that throws ... must release the write slot and
// not commit").
func (s *Store) Update(ctx context.Context, priority Priority, fn func(*WriteTxn) error) error {
	return s.queue.submit(ctx, priority, fn)
}

// Bus exposes the event bus for subscriber registration by out-of-band
// consumers (link-card fetcher, cache invalidation).
func (s *Store) Bus() *eventbus.Bus { return s.bus }

func (s *Store) publish(topic string, event any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(topic, event)
}

// DB exposes the underlying Badger handle. Dump does not use it: it runs
// inside a single View (ReadTxn) whose snapshot is pinned until the dump
// completes (§5).
func (s *Store) DB() *badger.DB { return s.db }

var errClosed = ludwigerr.New(ludwigerr.StorageError, "store", "store is closed")
