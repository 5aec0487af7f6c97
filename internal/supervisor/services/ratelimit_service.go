package services

import (
	"context"
	"time"
)

// Sweeper matches ratelimit.Limiter's StartSweep/Stop lifecycle.
//
// Satisfied by *ratelimit.Limiter from internal/ratelimit/limiter.go.
type Sweeper interface {
	StartSweep(interval time.Duration)
	Stop()
}

// RateLimitSweepService wraps the rate limiter's idle-bucket eviction loop
// as a supervised service. Serve runs the sweep on a goroutine of its own
// and stops it when ctx ends; a panic on that goroutine is not recovered
// by the supervisor.
type RateLimitSweepService struct {
	limiter  Sweeper
	interval time.Duration
}

// NewRateLimitSweepService creates a sweep service running every interval.
func NewRateLimitSweepService(limiter Sweeper, interval time.Duration) *RateLimitSweepService {
	return &RateLimitSweepService{limiter: limiter, interval: interval}
}

// Serve implements suture.Service.
func (s *RateLimitSweepService) Serve(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.limiter.StartSweep(s.interval)
		close(done)
	}()
	<-ctx.Done()
	s.limiter.Stop()
	<-done
	return ctx.Err()
}

func (s *RateLimitSweepService) String() string { return "ratelimit-sweep" }
