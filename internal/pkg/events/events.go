package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Channel is the redis pub/sub channel the notification collaborator
// subscribes to. Cross-component state changes leave this core as events
// on this channel, never as shared mutable globals.
const Channel = "lumencast:events"

type Type string

const (
	TypeSessionStarted Type = "session.started"
	TypeSessionEnded   Type = "session.ended"
	TypeViewerJoined   Type = "presence.joined"
	TypeViewerLeft     Type = "presence.left"
	TypeChatMessage    Type = "chat.message"
)

// Event is one outbound notification. ViewerID and Badge are set only where
// the event type involves a viewer.
type Event struct {
	Type          Type      `json:"type"`
	SessionID     uint      `json:"session_id"`
	BroadcasterID string    `json:"broadcaster_id"`
	ViewerID      string    `json:"viewer_id,omitempty"`
	Badge         *string   `json:"badge,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits outbound domain events. Publishing is best-effort from the
// caller's point of view; a failed publish never fails the operation that
// produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// RedisPublisher publishes events as JSON on a redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on the default event channel.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client, channel: Channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("[Events] marshal %s failed: %v", event.Type, err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.Warnf("[Events] publish %s failed: %v", event.Type, err)
	}
}

// NoopPublisher drops all events. Used in tests and when redis is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) {}
