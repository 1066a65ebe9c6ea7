package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumencast/lumencast/internal/pkg/identity"
)

type subscribeRequest struct {
	TierID         uint `json:"tier_id"`
	DurationMonths int  `json:"duration_months"`
}

type autoRenewRequest struct {
	AutoRenew bool `json:"auto_renew"`
}

// HandleSubscribe creates a subscription for the authenticated viewer. An
// existing subscription to the same broadcaster is replaced, not stacked.
func HandleSubscribe(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}

	sub, err := subscriptionLedger.Subscribe(user.ID, req.TierID, req.DurationMonths)
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(sub)
}

// HandleCancelSubscription cancels an owned subscription. Cancelling twice
// is a no-op.
func HandleCancelSubscription(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	subscriptionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	sub, err := subscriptionLedger.Get(subscriptionID)
	if err != nil {
		return renderError(c, err)
	}
	if sub.ViewerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only the subscriber can cancel this subscription"})
	}

	if err := subscriptionLedger.Cancel(subscriptionID); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "cancelled"})
}

// HandleSetAutoRenew toggles auto-renew on an owned active subscription.
func HandleSetAutoRenew(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	subscriptionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	var req autoRenewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}

	sub, err := subscriptionLedger.Get(subscriptionID)
	if err != nil {
		return renderError(c, err)
	}
	if sub.ViewerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only the subscriber can change auto-renew"})
	}

	if err := subscriptionLedger.SetAutoRenew(subscriptionID, req.AutoRenew); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "updated", "auto_renew": req.AutoRenew})
}

// HandleListMySubscriptions returns all subscriptions of the authenticated
// viewer, newest first.
func HandleListMySubscriptions(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	subs, err := subscriptionLedger.ListByViewer(user.ID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subs, "count": len(subs)})
}

// HandleGetEntitlement resolves the authenticated viewer's current tier with
// a given broadcaster. A viewer without an active subscription gets tier null.
func HandleGetEntitlement(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	tier, err := entitlementResolver.CurrentTier(user.ID, c.Params("id"), time.Now())
	if err != nil {
		return renderError(c, err)
	}
	if tier == nil {
		return c.JSON(fiber.Map{"subscribed": false, "tier": nil})
	}
	return c.JSON(fiber.Map{"subscribed": true, "tier": tier})
}
