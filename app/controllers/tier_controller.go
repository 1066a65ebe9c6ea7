package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumencast/lumencast/internal/pkg/identity"
)

type createTierRequest struct {
	Rank     string  `json:"rank"`
	Price    float64 `json:"price"`
	Benefits string  `json:"benefits"`
	Capacity *int    `json:"capacity"`
}

type setDiscountRequest struct {
	Percent   float64   `json:"percent"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleCreateTier defines a new subscription tier for the authenticated
// broadcaster.
func HandleCreateTier(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	var req createTierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}

	tier, err := tierRegistry.DefineTier(user.ID, req.Rank, req.Price, req.Benefits, req.Capacity)
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tier)
}

// HandleListTiers returns a broadcaster's tiers, active and inactive.
func HandleListTiers(c *fiber.Ctx) error {
	tiers, err := tierRegistry.ListByBroadcaster(c.Params("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"tiers": tiers, "count": len(tiers)})
}

// HandleSetDiscount applies a time-limited discount to an owned tier.
func HandleSetDiscount(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	tierID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	var req setDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}

	tier, err := tierRegistry.Get(tierID)
	if err != nil {
		return renderError(c, err)
	}
	if tier.BroadcasterID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only the tier owner can set a discount"})
	}

	if err := tierRegistry.SetDiscount(tierID, req.Percent, req.ExpiresAt); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "discount_set"})
}

// HandleDeactivateTier retires an owned tier. Existing subscriptions keep
// running until they expire.
func HandleDeactivateTier(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	tierID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	tier, err := tierRegistry.Get(tierID)
	if err != nil {
		return renderError(c, err)
	}
	if tier.BroadcasterID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only the tier owner can deactivate it"})
	}

	if err := tierRegistry.Deactivate(tierID); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deactivated"})
}

// HandleGetTierPrice returns the price a new subscriber would pay right now,
// with any unexpired discount applied.
func HandleGetTierPrice(c *fiber.Ctx) error {
	tierID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	price, err := tierRegistry.EffectivePrice(tierID, time.Now())
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"tier_id": tierID, "effective_price": price})
}
