package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/lumencast/lumencast/internal/pkg/identity"
)

type sendChatRequest struct {
	Message string `json:"message"`
}

// HandleSendChat posts a chat message to a live session. The sender's tier
// badge is resolved at send time and frozen onto the message.
func HandleSendChat(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	var req sendChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}

	message, err := chatGateway.Send(c.UserContext(), sessionID, user.ID, req.Message)
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// HandleChatHistory returns a session's chat in chronological order. Works
// for ended sessions too.
func HandleChatHistory(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_limit", "message": "Invalid limit parameter"})
		}
		limit = parsed
	}

	messages, err := chatGateway.History(sessionID, limit)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages, "count": len(messages)})
}
