package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/lumencast/lumencast/internal/pkg/billing"
	"github.com/lumencast/lumencast/internal/pkg/env"
)

const billingSignatureHeader = "X-Billing-Signature"

type billingWebhookPayload struct {
	EventID        string `json:"event_id"`
	ViewerID       string `json:"viewer_id"`
	TierID         uint   `json:"tier_id"`
	DurationMonths int    `json:"duration_months"`
}

// HandleBillingWebhook ingests a payment-confirmation callback from the
// billing collaborator. Deliveries are idempotent on (provider, event_id):
// replays return 200 without creating a second subscription.
func HandleBillingWebhook(c *fiber.Ctx) error {
	provider := c.Params("provider")
	raw := c.Body()

	var payload billingWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}
	if payload.ViewerID == "" || payload.TierID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Missing viewer_id or tier_id"})
	}

	signatureValid := billing.VerifyWebhookSignature(raw, c.Get(billingSignatureHeader), env.GetEnv("BILLING_WEBHOOK_SECRET", ""))

	sub, err := billingService.OnPaymentConfirmed(c.UserContext(), billing.PaymentConfirmed{
		Provider:        provider,
		ProviderEventID: payload.EventID,
		ViewerID:        payload.ViewerID,
		TierID:          payload.TierID,
		DurationMonths:  payload.DurationMonths,
		PayloadJSON:     string(raw),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return renderError(c, err)
	}
	if sub == nil {
		return c.JSON(fiber.Map{"status": "duplicate"})
	}
	return c.JSON(fiber.Map{"status": "processed", "subscription_id": sub.ID})
}

// HandleRunSubscriptionSweep triggers the expiry sweep outside its schedule.
// Moderator only.
func HandleRunSubscriptionSweep(c *fiber.Ctx) error {
	expired, err := maintenanceManager.RunSweepNow()
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "completed", "expired": expired})
}
