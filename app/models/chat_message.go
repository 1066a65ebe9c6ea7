package models

import "time"

// ChatMessage is one line of chat in a live session. TierBadge is resolved
// once at send time from the sender's entitlement and never re-stamped, a
// nil badge means the sender held no active subscription when sending.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	SenderID  string    `gorm:"type:varchar(64);not null" json:"sender_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	TierBadge *string   `gorm:"type:varchar(50);default:null" json:"tier_badge,omitempty"`
	SentAt    time.Time `gorm:"not null;index" json:"sent_at"`
}
