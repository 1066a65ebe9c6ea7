package repository

import (
	"time"

	"github.com/lumencast/lumencast/app/models"
	"gorm.io/gorm"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new stream session in the database
func (r *sessionRepository) Create(session *models.StreamSession) error {
	return r.db.Create(session).Error
}

// GetByID retrieves a session by its numeric ID
func (r *sessionRepository) GetByID(id uint) (*models.StreamSession, error) {
	var session models.StreamSession
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByPublicID retrieves a session by its public UUID
func (r *sessionRepository) GetByPublicID(publicID string) (*models.StreamSession, error) {
	var session models.StreamSession
	err := r.db.Where("public_id = ?", publicID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindLiveByBroadcaster returns the broadcaster's live session, if one exists
func (r *sessionRepository) FindLiveByBroadcaster(broadcasterID string) (*models.StreamSession, error) {
	var session models.StreamSession
	err := r.db.Where("broadcaster_id = ? AND state = ?", broadcasterID, models.SessionStateLive).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListLive returns all live sessions, optionally filtered by category
func (r *sessionRepository) ListLive(category string) ([]models.StreamSession, error) {
	var sessions []models.StreamSession
	query := r.db.Where("state = ?", models.SessionStateLive)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Order("started_at DESC").Find(&sessions).Error
	return sessions, err
}

// Save persists changed session fields
func (r *sessionRepository) Save(session *models.StreamSession) error {
	return r.db.Save(session).Error
}

// MarkEnded transitions the session to ended and cascades the removal of its
// presence rows in one transaction.
func (r *sessionRepository) MarkEnded(session *models.StreamSession, endedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.StreamSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]any{
				"state":    models.SessionStateEnded,
				"ended_at": endedAt,
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).
			Delete(&models.Presence{}).Error; err != nil {
			return err
		}
		session.State = models.SessionStateEnded
		session.EndedAt = &endedAt
		return nil
	})
}

// RaisePeakViewers lifts the peak watermark; the guard keeps concurrent
// joins from ever lowering it.
func (r *sessionRepository) RaisePeakViewers(id uint, count int64) error {
	return r.db.Model(&models.StreamSession{}).
		Where("id = ? AND peak_viewers < ?", id, count).
		UpdateColumn("peak_viewers", count).Error
}
