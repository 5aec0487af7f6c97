package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
	"github.com/ludwig-forum/ludwig/internal/metrics"
)

// base carries the handle every txn variant needs to resolve keys and
// read raw bytes.
type base struct {
	txn   *badger.Txn
	store *Store
}

func (b base) getRaw(k []byte) ([]byte, error) {
	item, err := b.txn.Get(k)
	if err != nil {
		return nil, err
	}
	var out []byte
	err = item.Value(func(v []byte) error {
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// ReadTxn is a consistent, snapshot-isolated read-only transaction (§4.7).
// Any number of ReadTxns may be open concurrently with each other and with
// the single active WriteTxn.
type ReadTxn struct {
	base
}

// WriteTxn is the single serialized writer (§4.7, §5). All mutation
// methods of the storage core (entities.go, index.go, stats.go) are
// defined on *WriteTxn so that they can only be called from within the
// write queue's dispatch loop.
type WriteTxn struct {
	base
	priority Priority
	events   []pendingEvent
}

type pendingEvent struct {
	topic string
	value any
}

// emit queues an event to be published once this transaction commits
// (§4.8: "events are emitted after commit, never during; a write that
// aborts emits nothing").
func (w *WriteTxn) emit(topic string, value any) {
	w.events = append(w.events, pendingEvent{topic: topic, value: value})
}

func (w *WriteTxn) setRaw(k, v []byte) error {
	return w.txn.Set(k, v)
}

func (w *WriteTxn) deleteRaw(k []byte) error {
	err := w.txn.Delete(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// writeJob is one unit of work submitted to the write queue.
type writeJob struct {
	ctx      context.Context
	priority Priority
	fn       func(*WriteTxn) error
	done     chan error
}

// writeQueue serializes all writers onto a single dispatcher goroutine,
// with two priority levels: PriorityUser jobs are always drained ahead of
// PriorityBackground jobs; within a level, dispatch is FIFO (§4.7).
type writeQueue struct {
	store *Store
	high  chan *writeJob
	low   chan *writeJob
	done  chan struct{}
}

func newWriteQueue(s *Store) *writeQueue {
	wq := &writeQueue{
		store: s,
		high:  make(chan *writeJob, 256),
		low:   make(chan *writeJob, 256),
		done:  make(chan struct{}),
	}
	go wq.run()
	return wq
}

func (wq *writeQueue) run() {
	for {
		// Prefer a ready high-priority job without blocking.
		select {
		case job := <-wq.high:
			wq.execute(job)
			continue
		case <-wq.done:
			wq.drain()
			return
		default:
		}

		select {
		case job := <-wq.high:
			wq.execute(job)
		case job := <-wq.low:
			wq.execute(job)
		case <-wq.done:
			wq.drain()
			return
		}
	}
}

// drain finishes any jobs already accepted into the channels so that
// submit callers waiting on done are never left hanging after Stop.
func (wq *writeQueue) drain() {
	for {
		select {
		case job := <-wq.high:
			wq.execute(job)
		case job := <-wq.low:
			wq.execute(job)
		default:
			return
		}
	}
}

func (wq *writeQueue) execute(job *writeJob) {
	start := time.Now()
	var wtxn *WriteTxn
	err := wq.store.db.Update(func(txn *badger.Txn) error {
		wtxn = &WriteTxn{base: base{txn: txn, store: wq.store}, priority: job.priority}
		return job.fn(wtxn)
	})
	metrics.WriteTxnLatency.Observe(time.Since(start).Seconds())
	outcome := "commit"
	if err != nil {
		outcome = "abort"
	}
	metrics.WriteTxnTotal.WithLabelValues(job.priority.String(), outcome).Inc()
	if err == nil && wtxn != nil {
		for _, ev := range wtxn.events {
			wq.store.publish(ev.topic, ev.value)
		}
	}
	job.done <- err
}

// submit enqueues fn and blocks until it has run and committed (or
// failed). It respects ctx cancellation both while queued and, on a
// best-effort basis, does not affect an already-running commit.
func (wq *writeQueue) submit(ctx context.Context, priority Priority, fn func(*WriteTxn) error) error {
	job := &writeJob{ctx: ctx, priority: priority, fn: fn, done: make(chan error, 1)}
	ch := wq.low
	if priority == PriorityUser {
		ch = wq.high
	}

	select {
	case ch <- job:
		metrics.WriteQueueDepth.WithLabelValues(priority.String()).Set(float64(len(ch)))
	case <-wq.done:
		return errClosed
	case <-ctx.Done():
		return ludwigerr.Wrap(ludwigerr.StorageError, "store.Update", ctx.Err())
	}

	select {
	case err := <-job.done:
		if err == nil {
			return nil
		}
		var le *ludwigerr.Error
		if errors.As(err, &le) {
			return le
		}
		return ludwigerr.Wrap(ludwigerr.StorageError, "store.Update", err)
	case <-ctx.Done():
		// The job may still commit after this point; callers that cancel
		// the context accept an indeterminate outcome for their own write.
		return ludwigerr.Wrap(ludwigerr.StorageError, "store.Update", ctx.Err())
	}
}

func (wq *writeQueue) stop() {
	close(wq.done)
}
