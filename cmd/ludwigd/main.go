// Command ludwigd runs Ludwig's storage and ranking engine as a standalone
// process: it opens the Badger store, wires the event bus, and supervises
// the rate-limit sweeper in the background, with no HTTP surface of its
// own (out of scope per spec.md §1 Non-goals — the core is consumed as a
// library by whatever HTTP/federation layer sits in front of it).
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ludwig-forum/ludwig/internal/config"
	"github.com/ludwig-forum/ludwig/internal/eventbus"
	"github.com/ludwig-forum/ludwig/internal/logging"
	"github.com/ludwig-forum/ludwig/internal/ratelimit"
	"github.com/ludwig-forum/ludwig/internal/store"
	"github.com/ludwig-forum/ludwig/internal/supervisor"
	"github.com/ludwig-forum/ludwig/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().Str("data_dir", cfg.Store.DataDir).Msg("starting ludwigd")

	bus := eventbus.New()
	defer bus.Close()

	compression := cfg.Store.Compression == "snappy"
	st, err := store.Open(store.Config{
		Dir:                 cfg.Store.DataDir,
		SyncWrites:          cfg.Store.SyncWrites,
		Compression:         compression,
		ActiveCommentMaxAge: cfg.Store.ActiveCommentMaxAge,
		SessionCleanupEvery: cfg.Store.SessionCleanupEvery,
	}, bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()
	logging.Info().Msg("store opened")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.Window, cfg.RateLimit.IdleAfter)

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.Add(services.NewRateLimitSweepService(limiter, cfg.RateLimit.SweepEvery))
	logging.Info().Msg("rate limit sweeper added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	logging.Info().Msg("ludwigd stopped gracefully")
}
