package repository

import (
	"time"

	"github.com/lumencast/lumencast/app/models"
	"gorm.io/gorm"
)

// TierRepository defines the interface for tier-related database operations
type TierRepository interface {
	Create(tier *models.Tier) error
	GetByID(id uint) (*models.Tier, error)
	GetByBroadcasterAndRank(broadcasterID, rank string) (*models.Tier, error)
	ListByBroadcaster(broadcasterID string) ([]models.Tier, error)
	Update(tier *models.Tier) error
}

// SubscriptionRepository defines the interface for subscription records
type SubscriptionRepository interface {
	GetByID(id uint) (*models.Subscription, error)
	// FindActive resolves the single active subscription of a viewer for one
	// broadcaster via the (viewer, broadcaster, status) index. Hot path.
	FindActive(viewerID, broadcasterID string) (*models.Subscription, error)
	ListByViewer(viewerID string) ([]models.Subscription, error)
	Save(sub *models.Subscription) error
	// Activate persists a new active subscription, increments its tier
	// counter and, when prior is non-nil, demotes that subscription to
	// cancelled and decrements its tier counter. One transaction; a full
	// tier fails the whole transaction with faults.ErrTierFull.
	Activate(sub *models.Subscription, prior *models.Subscription) error
	// Cancel marks the subscription cancelled, clears auto-renew and
	// decrements its tier counter in one transaction.
	Cancel(sub *models.Subscription) error
	// ExpireDue flips every active subscription whose end has passed to
	// expired, decrementing each tier counter exactly once per transition.
	// Returns the number of expired subscriptions.
	ExpireDue(now time.Time) (int64, error)
}

// SessionRepository defines the interface for stream session records
type SessionRepository interface {
	Create(session *models.StreamSession) error
	GetByID(id uint) (*models.StreamSession, error)
	GetByPublicID(publicID string) (*models.StreamSession, error)
	FindLiveByBroadcaster(broadcasterID string) (*models.StreamSession, error)
	ListLive(category string) ([]models.StreamSession, error)
	Save(session *models.StreamSession) error
	// MarkEnded transitions the session to ended and removes its presence
	// rows in one transaction.
	MarkEnded(session *models.StreamSession, endedAt time.Time) error
	// RaisePeakViewers lifts the persisted peak watermark, never lowering it.
	RaisePeakViewers(id uint, count int64) error
}

// PresenceRepository defines the interface for viewer presence rows
type PresenceRepository interface {
	// Upsert inserts the presence row or refreshes joined_at on re-join.
	Upsert(presence *models.Presence) error
	// Delete removes the row and reports whether one existed.
	Delete(sessionID uint, viewerID string) (bool, error)
	CountBySession(sessionID uint) (int64, error)
	ListBySession(sessionID uint) ([]models.Presence, error)
}

// ChatRepository defines the interface for chat message persistence
type ChatRepository interface {
	Create(message *models.ChatMessage) error
	GetByID(id uint) (*models.ChatMessage, error)
	ListBySession(sessionID uint, limit int) ([]models.ChatMessage, error)
}

// WebhookEventRepository deduplicates billing collaborator callbacks
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Tier         TierRepository
	Subscription SubscriptionRepository
	Session      SessionRepository
	Presence     PresenceRepository
	Chat         ChatRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tier:         NewTierRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Session:      NewSessionRepository(db),
		Presence:     NewPresenceRepository(db),
		Chat:         NewChatRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
