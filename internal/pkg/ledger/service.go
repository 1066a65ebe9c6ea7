package ledger

import (
	"errors"
	"time"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
	"github.com/lumencast/lumencast/internal/pkg/faults"
	"gorm.io/gorm"
)

// Service owns the viewer->broadcaster subscription records. All mutations
// go through transactional repository operations so a tier counter is never
// left incremented without its subscription row, or vice versa. It is the
// admission point for the one-active-subscription-per-pair invariant: the
// prior-subscription check and the activation run under a per-pair lock, so
// two concurrent purchases (a double-click, or a billing webhook racing the
// storefront) cannot both insert an active row.
type Service struct {
	subs  repository.SubscriptionRepository
	tiers repository.TierRepository
	locks *pairLocks
}

// NewService creates a subscription ledger from injected repositories.
func NewService(subs repository.SubscriptionRepository, tiers repository.TierRepository) *Service {
	return &Service{subs: subs, tiers: tiers, locks: newPairLocks()}
}

// Subscribe purchases a tier for a viewer. The tier must still be offered
// and below its capacity. A prior active subscription to the same
// broadcaster under a different tier is cancelled in the same transaction;
// upgrades and downgrades replace, they never stack.
func (s *Service) Subscribe(viewerID string, tierID uint, durationMonths int) (*models.Subscription, error) {
	if durationMonths <= 0 {
		return nil, faults.New(faults.KindValidation, "invalid_duration", "duration must be at least one month")
	}

	tier, err := s.tiers.GetByID(tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrTierNotFound
		}
		return nil, err
	}
	if !tier.IsActive {
		return nil, faults.ErrTierInactive
	}

	unlock := s.locks.Acquire(viewerID, tier.BroadcasterID)
	defer unlock()

	prior, err := s.subs.FindActive(viewerID, tier.BroadcasterID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if prior != nil && prior.TierID == tierID {
		return nil, faults.New(faults.KindInvariant, "already_subscribed", "viewer already holds an active subscription to this tier")
	}

	now := time.Now()
	sub := &models.Subscription{
		ViewerID:      viewerID,
		BroadcasterID: tier.BroadcasterID,
		TierID:        tier.ID,
		PricePaid:     tier.EffectivePrice(now),
		StartsAt:      now,
		EndsAt:        now.AddDate(0, durationMonths, 0),
		Status:        models.SubscriptionStatusActive,
		AutoRenew:     true,
	}

	if err := s.subs.Activate(sub, prior); err != nil {
		return nil, err
	}
	sub.Tier = *tier
	return sub, nil
}

// Cancel demotes a subscription to cancelled and clears auto-renew.
// Cancelling an already-cancelled subscription is a no-op, not an error.
func (s *Service) Cancel(subscriptionID uint) error {
	sub, err := s.get(subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != models.SubscriptionStatusActive {
		return nil
	}
	return s.subs.Cancel(sub)
}

// SetAutoRenew toggles renewal for an active subscription. Cancelled and
// expired subscriptions are terminal and cannot be re-armed.
func (s *Service) SetAutoRenew(subscriptionID uint, autoRenew bool) error {
	sub, err := s.get(subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != models.SubscriptionStatusActive {
		return faults.New(faults.KindNotFound, "subscription_inactive", "subscription is no longer active")
	}
	if sub.AutoRenew == autoRenew {
		return nil
	}
	sub.AutoRenew = autoRenew
	return s.subs.Save(sub)
}

// ExpireDue sweeps every active subscription whose end timestamp has passed
// and marks it expired, releasing the tier slot exactly once per transition.
// Callers (the maintenance manager, or an admin endpoint) decide when to
// run it; the ledger schedules nothing itself.
func (s *Service) ExpireDue(now time.Time) (int64, error) {
	return s.subs.ExpireDue(now)
}

// ListByViewer returns a viewer's subscription history, newest first.
func (s *Service) ListByViewer(viewerID string) ([]models.Subscription, error) {
	return s.subs.ListByViewer(viewerID)
}

// Get returns a subscription by ID.
func (s *Service) Get(subscriptionID uint) (*models.Subscription, error) {
	return s.get(subscriptionID)
}

func (s *Service) get(subscriptionID uint) (*models.Subscription, error) {
	sub, err := s.subs.GetByID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}
