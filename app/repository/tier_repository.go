package repository

import (
	"github.com/lumencast/lumencast/app/models"
	"gorm.io/gorm"
)

// tierRepository implements the TierRepository interface
type tierRepository struct {
	db *gorm.DB
}

// NewTierRepository creates a new tier repository instance
func NewTierRepository(db *gorm.DB) TierRepository {
	return &tierRepository{db: db}
}

// Create creates a new tier in the database
func (r *tierRepository) Create(tier *models.Tier) error {
	return r.db.Create(tier).Error
}

// GetByID retrieves a tier by its ID
func (r *tierRepository) GetByID(id uint) (*models.Tier, error) {
	var tier models.Tier
	err := r.db.First(&tier, id).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// GetByBroadcasterAndRank resolves the unique (broadcaster, rank) pair
func (r *tierRepository) GetByBroadcasterAndRank(broadcasterID, rank string) (*models.Tier, error) {
	var tier models.Tier
	err := r.db.Where("broadcaster_id = ? AND rank = ?", broadcasterID, rank).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// ListByBroadcaster returns all tiers a broadcaster has defined
func (r *tierRepository) ListByBroadcaster(broadcasterID string) ([]models.Tier, error) {
	var tiers []models.Tier
	err := r.db.Where("broadcaster_id = ?", broadcasterID).Order("price ASC").Find(&tiers).Error
	return tiers, err
}

// Update saves changed tier fields
func (r *tierRepository) Update(tier *models.Tier) error {
	return r.db.Save(tier).Error
}
