package models

import "time"

// Presence marks a viewer as currently attached to a live session. Rows are
// ephemeral: a re-join refreshes JoinedAt, a leave deletes the row and ending
// the session removes all of them.
type Presence struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index:ux_presences_session_viewer,unique,priority:1" json:"session_id"`
	ViewerID  string    `gorm:"type:varchar(64);not null;index:ux_presences_session_viewer,unique,priority:2" json:"viewer_id"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
}
