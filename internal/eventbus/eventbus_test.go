package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	var got []UserStatsUpdate
	require.NoError(t, b.Subscribe(context.Background(), TopicUserStatsUpdate, UserStatsUpdate{}, func(ctx context.Context, event any) error {
		mu.Lock()
		defer mu.Unlock()
		u, ok := event.(UserStatsUpdate)
		require.True(t, ok)
		got = append(got, u)
		return nil
	}))

	b.Publish(TopicUserStatsUpdate, UserStatsUpdate{UserID: 42})
	WaitIdle()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, uint64(42), got[0].UserID)
}

func TestPublishIsDroppedWithoutSubscriber(t *testing.T) {
	b := New()
	defer b.Close()

	// Publishing to a topic nobody subscribed to must not panic or block.
	b.Publish(TopicSiteUpdate, SiteUpdate{})
	WaitIdle()
}

func TestMultipleTopicsAreIsolated(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	var notifications []NotificationEvent
	require.NoError(t, b.Subscribe(context.Background(), TopicNotification, NotificationEvent{}, func(ctx context.Context, event any) error {
		mu.Lock()
		defer mu.Unlock()
		n, ok := event.(NotificationEvent)
		require.True(t, ok)
		notifications = append(notifications, n)
		return nil
	}))

	b.Publish(TopicBoardStatsUpdate, BoardStatsUpdate{BoardID: 1})
	b.Publish(TopicNotification, NotificationEvent{UserID: 7, NotificationID: 9})
	WaitIdle()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notifications, 1)
	assert.Equal(t, uint64(7), notifications[0].UserID)
	assert.Equal(t, uint64(9), notifications[0].NotificationID)
}
