package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingService struct {
	starts atomic.Int32
}

func (c *countingService) Serve(ctx context.Context) error {
	c.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (c *countingService) String() string { return "counting-service" }

func TestDefaultTreeConfigMatchesSutureDefaults(t *testing.T) {
	cfg := DefaultTreeConfig()
	assert.Equal(t, 5.0, cfg.FailureThreshold)
	assert.Equal(t, 30.0, cfg.FailureDecay)
	assert.Equal(t, 15*time.Second, cfg.FailureBackoff)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestNewFillsZeroFieldsWithDefaults(t *testing.T) {
	tree := New(slog.Default(), TreeConfig{})
	require.NotNil(t, tree)
	assert.Equal(t, 5.0, tree.config.FailureThreshold)
}

func TestTreeServesAddedServiceUntilCanceled(t *testing.T) {
	tree := New(slog.Default(), DefaultTreeConfig())
	svc := &countingService{}
	tree.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for svc.starts.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop within timeout")
	}
	assert.Equal(t, int32(1), svc.starts.Load())
}
