package entitlements

import (
	"errors"
	"time"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
	"gorm.io/gorm"
)

// Resolver answers "which tier does this viewer hold for this broadcaster
// right now". It is queried on every chat message, so the lookup rides the
// ledger's (viewer, broadcaster, status) index and never scans.
type Resolver struct {
	subs repository.SubscriptionRepository
}

// NewResolver creates an entitlement resolver from an injected repository.
func NewResolver(subs repository.SubscriptionRepository) *Resolver {
	return &Resolver{subs: subs}
}

// CurrentTier returns the tier of the viewer's active subscription to the
// broadcaster at the given instant, or nil when none exists. Pure read,
// no locking beyond the ledger's normal read consistency.
func (r *Resolver) CurrentTier(viewerID, broadcasterID string, asOf time.Time) (*models.Tier, error) {
	sub, err := r.subs.FindActive(viewerID, broadcasterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !sub.IsActiveAt(asOf) {
		return nil, nil
	}
	tier := sub.Tier
	return &tier, nil
}

// Badge returns the rank label to stamp on a chat message, or nil when the
// viewer holds no active subscription.
func (r *Resolver) Badge(viewerID, broadcasterID string, asOf time.Time) (*string, error) {
	tier, err := r.CurrentTier(viewerID, broadcasterID, asOf)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, nil
	}
	rank := tier.Rank
	return &rank, nil
}
