package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSweeper struct {
	started atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
}

func newFakeSweeper() *fakeSweeper {
	return &fakeSweeper{done: make(chan struct{})}
}

func (f *fakeSweeper) StartSweep(interval time.Duration) {
	f.started.Store(true)
	<-f.done
}

func (f *fakeSweeper) Stop() {
	f.stopped.Store(true)
	close(f.done)
}

func TestRateLimitSweepServiceStartsAndStopsTheSweeper(t *testing.T) {
	sweeper := newFakeSweeper()
	svc := NewRateLimitSweepService(sweeper, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	for !sweeper.started.Load() {
		time.Sleep(time.Millisecond)
	}
	cancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sweeper.stopped.Load())
}

func TestRateLimitSweepServiceString(t *testing.T) {
	svc := NewRateLimitSweepService(newFakeSweeper(), time.Second)
	assert.Equal(t, "ratelimit-sweep", svc.String())
}
