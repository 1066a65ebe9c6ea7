package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Tier is a priced subscription level a broadcaster offers to viewers.
// (broadcaster_id, rank) is unique, the rank label is what chat badges show.
// A tier is deactivated rather than deleted so historical subscriptions keep
// a valid reference.
type Tier struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	BroadcasterID     string     `gorm:"type:varchar(64);not null;index:ux_tiers_broadcaster_rank,unique,priority:1" json:"broadcaster_id" validate:"required,max=64"`
	Rank              string     `gorm:"type:varchar(50);not null;index:ux_tiers_broadcaster_rank,unique,priority:2" json:"rank" validate:"required,min=1,max=50"`
	Price             float64    `gorm:"not null" json:"price" validate:"gte=0"`
	Benefits          string     `gorm:"type:text" json:"benefits"`
	IsActive          bool       `gorm:"not null;default:true" json:"is_active"`
	Capacity          *int       `gorm:"default:null" json:"capacity,omitempty"`
	DiscountPercent   *float64   `gorm:"default:null" json:"discount_percent,omitempty"`
	DiscountExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"discount_expires_at,omitempty"`
	SubscriberCount   int        `gorm:"not null;default:0" json:"subscriber_count"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tier) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// HasCapacityLimit reports whether the tier caps its subscriber count.
// A nil capacity means unbounded.
func (t *Tier) HasCapacityLimit() bool {
	return t.Capacity != nil
}

// EffectivePrice returns the price a viewer pays at the given instant.
// The discount applies only while asOf is strictly before its expiry,
// afterwards the base price is charged again. Pure function of stored
// state and the supplied timestamp.
func (t *Tier) EffectivePrice(asOf time.Time) float64 {
	if t.DiscountPercent == nil || t.DiscountExpiresAt == nil {
		return t.Price
	}
	if !asOf.Before(*t.DiscountExpiresAt) {
		return t.Price
	}
	return t.Price * (100 - *t.DiscountPercent) / 100
}
