package repository

import (
	"time"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/internal/pkg/faults"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByID retrieves a subscription with its tier by ID
func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Tier").First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindActive resolves the single active subscription for a viewer/broadcaster
// pair. Served by the composite (viewer, broadcaster, status) index, this is
// the entitlement hot path and never scans.
func (r *subscriptionRepository) FindActive(viewerID, broadcasterID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Tier").
		Where("viewer_id = ? AND broadcaster_id = ? AND status = ?",
			viewerID, broadcasterID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByViewer returns all subscriptions a viewer ever held, newest first
func (r *subscriptionRepository) ListByViewer(viewerID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Tier").
		Where("viewer_id = ?", viewerID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

// Save persists changed subscription fields
func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// Activate creates the subscription, claims a counter slot on its tier and
// demotes the prior subscription (if any) in one transaction. The capacity
// check rides on the conditional counter increment, so a lost race rolls the
// whole transaction back with faults.ErrTierFull.
func (r *subscriptionRepository) Activate(sub *models.Subscription, prior *models.Subscription) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Tier{}).
			Where("id = ? AND (capacity IS NULL OR subscriber_count < capacity)", sub.TierID).
			UpdateColumn("subscriber_count", gorm.Expr("subscriber_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return faults.ErrTierFull
		}

		if err := tx.Create(sub).Error; err != nil {
			return err
		}

		if prior != nil {
			res := tx.Model(&models.Subscription{}).
				Where("id = ? AND status = ?", prior.ID, models.SubscriptionStatusActive).
				Updates(map[string]any{
					"status":     models.SubscriptionStatusCancelled,
					"auto_renew": false,
				})
			if res.Error != nil {
				return res.Error
			}
			// Decrement only when this transaction actually demoted it.
			if res.RowsAffected > 0 {
				if err := tx.Model(&models.Tier{}).
					Where("id = ?", prior.TierID).
					UpdateColumn("subscriber_count", gorm.Expr("GREATEST(subscriber_count - 1, 0)")).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Cancel demotes the subscription and releases its tier slot in one
// transaction. The status guard makes a racing double-cancel decrement the
// counter only once.
func (r *subscriptionRepository) Cancel(sub *models.Subscription) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Subscription{}).
			Where("id = ? AND status = ?", sub.ID, models.SubscriptionStatusActive).
			Updates(map[string]any{
				"status":     models.SubscriptionStatusCancelled,
				"auto_renew": false,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		sub.Status = models.SubscriptionStatusCancelled
		sub.AutoRenew = false
		return tx.Model(&models.Tier{}).
			Where("id = ?", sub.TierID).
			UpdateColumn("subscriber_count", gorm.Expr("GREATEST(subscriber_count - 1, 0)")).Error
	})
}

// ExpireDue expires every active subscription whose end timestamp has passed.
// Each row transitions exactly once, so each tier counter is decremented
// exactly once per expired subscription.
func (r *subscriptionRepository) ExpireDue(now time.Time) (int64, error) {
	var expired int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var due []models.Subscription
		if err := tx.Where("status = ? AND ends_at < ?", models.SubscriptionStatusActive, now).
			Find(&due).Error; err != nil {
			return err
		}
		for _, sub := range due {
			res := tx.Model(&models.Subscription{}).
				Where("id = ? AND status = ?", sub.ID, models.SubscriptionStatusActive).
				Update("status", models.SubscriptionStatusExpired)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			if err := tx.Model(&models.Tier{}).
				Where("id = ?", sub.TierID).
				UpdateColumn("subscriber_count", gorm.Expr("GREATEST(subscriber_count - 1, 0)")).Error; err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	return expired, err
}
