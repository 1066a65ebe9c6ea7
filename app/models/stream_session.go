package models

import "time"

const (
	SessionStateIdle  = "idle"
	SessionStateLive  = "live"
	SessionStateEnded = "ended"
)

// StreamSession is one lifecycle instance of a broadcaster's live stream.
// Transitions are one-directional idle -> live -> ended, a new record is
// created for every broadcast. At most one session per broadcaster is live
// at any instant.
type StreamSession struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PublicID      string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	BroadcasterID string     `gorm:"type:varchar(64);not null;index:idx_stream_sessions_broadcaster_state,priority:1" json:"broadcaster_id"`
	Title         string     `gorm:"type:varchar(200);not null" json:"title"`
	Category      string     `gorm:"type:varchar(100);index" json:"category"`
	State         string     `gorm:"type:varchar(20);not null;default:'idle';index:idx_stream_sessions_broadcaster_state,priority:2" json:"state"`
	ShareLink     string     `gorm:"type:varchar(32);uniqueIndex" json:"share_link"`
	RoomToken     string     `gorm:"type:varchar(255)" json:"-"` // opaque handle from the media transport collaborator
	MessageCount  int64      `gorm:"not null;default:0" json:"message_count"`
	PeakViewers   int64      `gorm:"not null;default:0" json:"peak_viewers"`
	StartedAt     *time.Time `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	EndedAt       *time.Time `gorm:"type:timestamp;default:null" json:"ended_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLive reports whether the session currently accepts viewers and chat.
func (s *StreamSession) IsLive() bool {
	return s.State == SessionStateLive
}
