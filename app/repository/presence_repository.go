package repository

import (
	"github.com/lumencast/lumencast/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// presenceRepository implements the PresenceRepository interface
type presenceRepository struct {
	db *gorm.DB
}

// NewPresenceRepository creates a new presence repository instance
func NewPresenceRepository(db *gorm.DB) PresenceRepository {
	return &presenceRepository{db: db}
}

// Upsert inserts the presence row or refreshes joined_at when the viewer is
// already attached, so re-joins never double count.
func (r *presenceRepository) Upsert(presence *models.Presence) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "session_id"},
			{Name: "viewer_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"joined_at"}),
	}).Create(presence).Error
}

// Delete removes the presence row if it exists
func (r *presenceRepository) Delete(sessionID uint, viewerID string) (bool, error) {
	res := r.db.Where("session_id = ? AND viewer_id = ?", sessionID, viewerID).
		Delete(&models.Presence{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountBySession returns the current presence cardinality for a session
func (r *presenceRepository) CountBySession(sessionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Presence{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// ListBySession returns all viewers currently attached to a session
func (r *presenceRepository) ListBySession(sessionID uint) ([]models.Presence, error) {
	var presences []models.Presence
	err := r.db.Where("session_id = ?", sessionID).
		Order("joined_at ASC").
		Find(&presences).Error
	return presences, err
}
