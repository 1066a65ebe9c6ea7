package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
	"github.com/lumencast/lumencast/internal/pkg/entitlements"
	"github.com/lumencast/lumencast/internal/pkg/events"
	"github.com/lumencast/lumencast/internal/pkg/faults"
	metrics "github.com/lumencast/lumencast/internal/pkg/metrics/counter"
)

// Per-tier message privilege: subscribers may send longer messages.
const (
	maxMessageLength           = 300
	maxMessageLengthSubscriber = 500
)

// Gateway accepts chat for live sessions. Every message is stamped with the
// sender's tier badge as resolved at send time; the stamp is never revisited
// when the subscription later changes.
type Gateway struct {
	sessions repository.SessionRepository
	chats    repository.ChatRepository
	resolver *entitlements.Resolver
	pub      events.Publisher
}

// NewGateway creates a chat gateway.
func NewGateway(sessions repository.SessionRepository, chats repository.ChatRepository, resolver *entitlements.Resolver, pub events.Publisher) *Gateway {
	return &Gateway{sessions: sessions, chats: chats, resolver: resolver, pub: pub}
}

// Send appends a message to a live session's log and returns it stamped for
// broadcast to present viewers.
func (g *Gateway) Send(ctx context.Context, sessionID uint, senderID, text string) (*models.ChatMessage, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, faults.ErrEmptyMessage
	}

	session, err := g.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsLive() {
		return nil, faults.ErrSessionNotLive
	}

	now := time.Now()
	badge, err := g.resolver.Badge(senderID, session.BroadcasterID, now)
	if err != nil {
		return nil, err
	}

	limit := maxMessageLength
	if badge != nil {
		limit = maxMessageLengthSubscriber
	}
	// Limits count characters, not bytes; multi-byte scripts get the full
	// allowance.
	if utf8.RuneCountInString(body) > limit {
		return nil, faults.New(faults.KindValidation, "message_too_long", "chat message exceeds the allowed length")
	}

	message := &models.ChatMessage{
		SessionID: sessionID,
		SenderID:  senderID,
		Body:      body,
		TierBadge: badge,
		SentAt:    now,
	}
	if err := g.chats.Create(message); err != nil {
		return nil, err
	}

	if err := metrics.AddChatMessage(sessionID); err != nil {
		log.Warnf("[Chat] message counter increment failed for session %d: %v", sessionID, err)
	}
	g.pub.Publish(ctx, events.Event{
		Type:          events.TypeChatMessage,
		SessionID:     sessionID,
		BroadcasterID: session.BroadcasterID,
		ViewerID:      senderID,
		Badge:         badge,
	})
	return message, nil
}

// History returns the session's message log in send order. Readable after
// the session ended; badges show what the sender held at send time.
func (g *Gateway) History(sessionID uint, limit int) ([]models.ChatMessage, error) {
	if _, err := g.getSession(sessionID); err != nil {
		return nil, err
	}
	return g.chats.ListBySession(sessionID, limit)
}

func (g *Gateway) getSession(sessionID uint) (*models.StreamSession, error) {
	session, err := g.sessions.GetByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}
