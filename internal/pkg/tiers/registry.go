package tiers

import (
	"errors"
	"strings"
	"time"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
	"github.com/lumencast/lumencast/internal/pkg/faults"
	"gorm.io/gorm"
)

// Registry owns the subscription tiers broadcasters offer. It is the only
// component that creates or edits tiers; subscriber counters are mutated
// exclusively through the repository's clamped increment/decrement.
type Registry struct {
	repo repository.TierRepository
}

// NewRegistry creates a tier registry from an injected repository.
func NewRegistry(repo repository.TierRepository) *Registry {
	return &Registry{repo: repo}
}

// DefineTier creates a new tier for a broadcaster. The (broadcaster, rank)
// pair is unique; a nil capacity means unbounded.
func (r *Registry) DefineTier(broadcasterID, rank string, price float64, benefits string, capacity *int) (*models.Tier, error) {
	tier := &models.Tier{
		BroadcasterID: strings.TrimSpace(broadcasterID),
		Rank:          strings.TrimSpace(rank),
		Price:         price,
		Benefits:      benefits,
		IsActive:      true,
		Capacity:      capacity,
	}
	if err := tier.Validate(); err != nil {
		return nil, faults.New(faults.KindValidation, "invalid_tier", err.Error())
	}
	if capacity != nil && *capacity < 0 {
		return nil, faults.New(faults.KindValidation, "invalid_capacity", "capacity must not be negative")
	}

	_, err := r.repo.GetByBroadcasterAndRank(tier.BroadcasterID, tier.Rank)
	if err == nil {
		return nil, faults.ErrDuplicateRank
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.repo.Create(tier); err != nil {
		return nil, err
	}
	return tier, nil
}

// SetDiscount attaches a time-bounded percentage discount to a tier. The
// percentage must be within [0,100] and the expiry in the future.
func (r *Registry) SetDiscount(tierID uint, percent float64, expiresAt time.Time) error {
	if percent < 0 || percent > 100 {
		return faults.ErrInvalidDiscount
	}
	if !expiresAt.After(time.Now()) {
		return faults.ErrInvalidDiscount
	}

	tier, err := r.get(tierID)
	if err != nil {
		return err
	}
	tier.DiscountPercent = &percent
	tier.DiscountExpiresAt = &expiresAt
	return r.repo.Update(tier)
}

// Deactivate stops offering a tier to new subscribers. Existing
// subscriptions keep their reference; calling this twice is a no-op.
func (r *Registry) Deactivate(tierID uint) error {
	tier, err := r.get(tierID)
	if err != nil {
		return err
	}
	if !tier.IsActive {
		return nil
	}
	tier.IsActive = false
	return r.repo.Update(tier)
}

// EffectivePrice returns the price of a tier at the given instant. Pure
// read, no side effects.
func (r *Registry) EffectivePrice(tierID uint, asOf time.Time) (float64, error) {
	tier, err := r.get(tierID)
	if err != nil {
		return 0, err
	}
	return tier.EffectivePrice(asOf), nil
}

// Get returns a tier by ID.
func (r *Registry) Get(tierID uint) (*models.Tier, error) {
	return r.get(tierID)
}

// ListByBroadcaster returns all tiers a broadcaster has defined.
func (r *Registry) ListByBroadcaster(broadcasterID string) ([]models.Tier, error) {
	return r.repo.ListByBroadcaster(broadcasterID)
}

func (r *Registry) get(tierID uint) (*models.Tier, error) {
	tier, err := r.repo.GetByID(tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrTierNotFound
		}
		return nil, err
	}
	return tier, nil
}
