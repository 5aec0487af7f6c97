// Package eventbus is Ludwig's core-adjacent pub/sub facility (§4.8).
//
// Stats updates, site updates, notifications, and out-of-band work orders
// (fetch a link card, reindex for search) are published here after a write
// transaction commits — never during, and never if the transaction aborts.
// Subscribers run on a goroutine pool distinct from the transaction thread,
// so a slow subscriber cannot stall the single writer.
//
// Ludwig is explicitly single-node (no multi-node replication, see
// spec.md §1 Non-goals), so this wraps Watermill's in-process gochannel
// transport rather than the NATS transport the wider pack reaches for —
// same library family the teacher repo uses for event processing, scoped
// down to match the Non-goal instead of dropped outright.
package eventbus

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/ludwig-forum/ludwig/internal/logging"
	"github.com/ludwig-forum/ludwig/internal/metrics"
)

// Topic names. One topic per event family named in §4.8.
const (
	TopicUserStatsUpdate    = "user_stats_update"
	TopicBoardStatsUpdate   = "board_stats_update"
	TopicPostStatsUpdate    = "post_stats_update"
	TopicSiteUpdate         = "site_update"
	TopicNotification       = "notification"
	TopicThreadFetchLinkCard = "thread_fetch_link_card"
)

// UserStatsUpdate is published whenever a UserStats record changes.
type UserStatsUpdate struct {
	UserID uint64
}

// BoardStatsUpdate is published whenever a BoardStats record changes.
type BoardStatsUpdate struct {
	BoardID uint64
}

// PostStatsUpdate is published whenever a PostStats record changes
// (vote, new descendant comment, necro rollup).
type PostStatsUpdate struct {
	PostID uint64
}

// SiteUpdate is published whenever the singleton Site settings or
// SiteStats change; the cached SiteDetail snapshot (§5) listens for this.
type SiteUpdate struct{}

// NotificationEvent is published when a Notification row is created.
type NotificationEvent struct {
	UserID         uint64
	NotificationID uint64
}

// ThreadFetchLinkCard is a work order for the out-of-band link-card
// fetcher: a thread was created or updated with a content_url that has no
// cached LinkCard yet.
type ThreadFetchLinkCard struct {
	ThreadID uint64
	URL      string
}

// Bus is the publish/subscribe facade used by the storage core and its
// out-of-band consumers.
type Bus struct {
	pub   message.Publisher
	sub   message.Subscriber
	codec codec
}

// New creates an in-process event bus. Close must be called on shutdown.
func New() *Bus {
	logger := watermill.NewStdLogger(false, false)
	gc := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            256,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: false,
	}, logger)
	return &Bus{pub: gc, sub: gc}
}

// Close releases the underlying transport.
func (b *Bus) Close() error {
	if closer, ok := b.pub.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Publish emits an event on topic. It never blocks on subscriber
// processing (§4.8: "subscribers run on a task executor distinct from the
// transaction thread").
func (b *Bus) Publish(topic string, event any) {
	payload, err := b.codec.encode(event)
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("eventbus: failed to encode event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pub.Publish(topic, msg); err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("eventbus: failed to publish")
		return
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
}

// Handler processes one decoded event. Returning an error logs it and acks
// the message anyway, so it is dropped without redelivery — consistent with
// "at most once, best effort" semantics appropriate for cache invalidation
// and out-of-band fetch triggers, none of which are safety-critical.
type Handler func(ctx context.Context, event any) error

// Subscribe registers handler on topic, decoding messages into values of
// the same concrete type as sample. The handler runs on a goroutine started
// here, which ends when the subscription's message channel closes; it is
// not run under the supervisor tree, so a panic in the handler is not
// recovered.
func (b *Bus) Subscribe(ctx context.Context, topic string, sample any, handler Handler) error {
	messages, err := b.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			event, err := b.codec.decode(msg.Payload, sample)
			if err != nil {
				logging.Error().Err(err).Str("topic", topic).Msg("eventbus: failed to decode event")
				msg.Ack()
				continue
			}
			if err := handler(ctx, event); err != nil {
				logging.Error().Err(err).Str("topic", topic).Msg("eventbus: handler failed")
				msg.Ack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

// WaitIdle is a test helper: it gives already-published messages time to
// reach their subscribers before an assertion runs.
func WaitIdle() { time.Sleep(10 * time.Millisecond) }
