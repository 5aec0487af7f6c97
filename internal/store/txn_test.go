package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludwig-forum/ludwig/internal/eventbus"
)

func TestUpdateCommitsOnSuccess(t *testing.T) {
	s := openTestStore(t)
	var id uint64
	require.NoError(t, s.Update(context.Background(), PriorityUser, func(w *WriteTxn) error {
		u, err := w.CreateUser(User{Name: "committed"}, 1000)
		if err != nil {
			return err
		}
		id = u.ID
		return nil
	}))

	require.NoError(t, s.View(func(r *ReadTxn) error {
		_, err := r.GetUser(id)
		return err
	}))
}

func TestUpdateAbortsOnError(t *testing.T) {
	s := openTestStore(t)
	sentinel := errors.New("boom")
	var id uint64

	err := s.Update(context.Background(), PriorityUser, func(w *WriteTxn) error {
		u, createErr := w.CreateUser(User{Name: "aborted"}, 1000)
		require.NoError(t, createErr)
		id = u.ID
		return sentinel
	})
	require.Error(t, err)

	require.NoError(t, s.View(func(r *ReadTxn) error {
		_, getErr := r.GetUser(id)
		assert.Error(t, getErr)
		return nil
	}))
}

func TestEventsAreEmittedOnlyAfterCommit(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	s, err := Open(Config{Dir: t.TempDir()}, bus)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	var mu sync.Mutex
	var received int
	require.NoError(t, bus.Subscribe(context.Background(), eventbus.TopicSiteUpdate, eventbus.SiteUpdate{}, func(ctx context.Context, event any) error {
		mu.Lock()
		received++
		mu.Unlock()
		return nil
	}))

	sentinel := errors.New("abort this one")
	_ = s.Update(context.Background(), PriorityUser, func(w *WriteTxn) error {
		if err := w.bumpSiteStats(func(ss *SiteStats) { ss.UserCount++ }); err != nil {
			return err
		}
		return sentinel
	})

	require.NoError(t, s.Update(context.Background(), PriorityUser, func(w *WriteTxn) error {
		return w.bumpSiteStats(func(ss *SiteStats) { ss.UserCount++ })
	}))

	eventbus.WaitIdle()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, received)
}

func TestUserPriorityWritesAreServed(t *testing.T) {
	s := openTestStore(t)
	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prio := PriorityBackground
			if i%2 == 0 {
				prio = PriorityUser
			}
			errs[i] = s.Update(context.Background(), prio, func(w *WriteTxn) error {
				_, err := w.CreateUser(User{Name: nameFor(i)}, 1000)
				return err
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func nameFor(i int) string {
	names := "abcdefghijklmnopqrstuvwxyz"
	return string(names[i%len(names)]) + "user" + string(rune('0'+i%10))
}
