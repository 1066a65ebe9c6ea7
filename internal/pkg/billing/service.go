package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
	"github.com/lumencast/lumencast/internal/pkg/faults"
	"github.com/lumencast/lumencast/internal/pkg/ledger"
)

// PaymentConfirmed is the normalized shape of a payment-confirmation
// callback from the external billing collaborator.
type PaymentConfirmed struct {
	Provider        string
	ProviderEventID string
	ViewerID        string
	TierID          uint
	DurationMonths  int
	PayloadJSON     string
	SignatureValid  bool
}

// Service turns billing collaborator callbacks into ledger subscriptions.
// Events are persisted first for idempotency: replaying a webhook never
// creates a second subscription, and a failed subscribe leaves no
// subscription behind.
type Service struct {
	events repository.WebhookEventRepository
	ledger *ledger.Service
}

// NewService creates a billing service from an injected event repository and
// the subscription ledger.
func NewService(events repository.WebhookEventRepository, ledger *ledger.Service) *Service {
	return &Service{events: events, ledger: ledger}
}

// OnPaymentConfirmed records the event and, when it is new and validly
// signed, creates the subscription. Returns the subscription or nil for a
// duplicate delivery.
func (s *Service) OnPaymentConfirmed(ctx context.Context, in PaymentConfirmed) (*models.Subscription, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	created, stored, err := s.events.CreateIfNotExists(&models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       "payment.confirmed",
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		// Duplicate delivery; the first one already did the work.
		return nil, nil
	}
	if !in.SignatureValid {
		_ = s.events.MarkProcessed(stored.ID, "signature invalid, event ignored")
		return nil, faults.New(faults.KindValidation, "invalid_signature", "webhook signature invalid")
	}

	sub, err := s.ledger.Subscribe(in.ViewerID, in.TierID, in.DurationMonths)
	if err != nil {
		_ = s.events.MarkProcessed(stored.ID, err.Error())
		return nil, err
	}
	if err := s.events.MarkProcessed(stored.ID, ""); err != nil {
		return sub, err
	}
	return sub, nil
}
