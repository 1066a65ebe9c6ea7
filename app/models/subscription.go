package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription records that a viewer purchased a tier of one broadcaster for
// a bounded period. A viewer holds at most one active subscription per
// broadcaster, an upgrade or downgrade cancels the prior one instead of
// stacking. Cancelled is terminal.
type Subscription struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ViewerID      string    `gorm:"type:varchar(64);not null;index:idx_subscriptions_viewer_broadcaster_status,priority:1" json:"viewer_id"`
	BroadcasterID string    `gorm:"type:varchar(64);not null;index:idx_subscriptions_viewer_broadcaster_status,priority:2" json:"broadcaster_id"`
	TierID        uint      `gorm:"not null;index" json:"tier_id"`
	Tier          Tier      `gorm:"foreignKey:TierID" json:"tier,omitempty"`
	PricePaid     float64   `gorm:"not null" json:"price_paid"`
	StartsAt      time.Time `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time `gorm:"not null;index" json:"ends_at"`
	Status        string    `gorm:"type:varchar(20);not null;default:'active';index:idx_subscriptions_viewer_broadcaster_status,priority:3" json:"status"`
	AutoRenew     bool      `gorm:"not null;default:false" json:"auto_renew"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActiveAt reports whether the subscription entitles its viewer at the
// given instant.
func (s *Subscription) IsActiveAt(asOf time.Time) bool {
	return s.Status == SubscriptionStatusActive &&
		!asOf.Before(s.StartsAt) &&
		!asOf.After(s.EndsAt)
}
