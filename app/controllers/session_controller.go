package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumencast/lumencast/internal/pkg/env"
	"github.com/lumencast/lumencast/internal/pkg/identity"
	"github.com/lumencast/lumencast/internal/pkg/security"
)

const defaultStreamKeyTTL = 4 * time.Hour

type startSessionRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// HandleStartSession opens a live session for the authenticated broadcaster.
func HandleStartSession(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	var req startSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}

	session, err := liveManager.Start(c.UserContext(), user.ID, req.Title, req.Category)
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// HandleEndSession ends a session. Only the owning broadcaster may call it.
func HandleEndSession(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	session, err := liveManager.Get(sessionID)
	if err != nil {
		return renderError(c, err)
	}
	if session.BroadcasterID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only the broadcaster can end this session"})
	}

	if err := liveManager.End(c.UserContext(), sessionID); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ended"})
}

// HandleForceEndSession ends a session regardless of owner. Moderator only;
// the route is guarded by middleware.RequireModerator.
func HandleForceEndSession(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	if err := liveManager.ForceEnd(c.UserContext(), sessionID); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ended"})
}

// HandleGetSession returns a single session by ID.
func HandleGetSession(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	session, err := liveManager.Get(sessionID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(session)
}

// HandleListLiveSessions lists live sessions, optionally filtered by category.
func HandleListLiveSessions(c *fiber.Ctx) error {
	sessions, err := liveManager.LiveSessions(c.Query("category"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions, "count": len(sessions)})
}

// HandleGetBroadcasterSession returns the broadcaster's active session.
func HandleGetBroadcasterSession(c *fiber.Ctx) error {
	session, err := liveManager.ActiveSession(c.Params("id"))
	if err != nil {
		return renderError(c, err)
	}
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_live", "message": "Broadcaster has no active session"})
	}
	return c.JSON(session)
}

// HandleJoinSession registers the authenticated viewer on a live session.
func HandleJoinSession(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	if err := presenceTracker.Join(c.UserContext(), sessionID, user.ID); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "joined"})
}

// HandleLeaveSession removes the authenticated viewer from a session.
func HandleLeaveSession(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	if err := presenceTracker.Leave(c.UserContext(), sessionID, user.ID); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "left"})
}

// HandleViewerCount returns the number of viewers currently on a session.
func HandleViewerCount(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	count, err := presenceTracker.Count(sessionID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"session_id": sessionID, "viewers": count})
}

// HandleGetStreamKey issues a short-lived ingest key for the authenticated
// broadcaster.
func HandleGetStreamKey(c *fiber.Ctx) error {
	user := identity.FromCtx(c)

	secret := env.GetEnv("STREAM_KEY_SECRET", "")
	if secret == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Stream key signing is not configured"})
	}

	key, err := security.GenerateStreamKey(user.ID, defaultStreamKeyTTL, secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate stream key"})
	}

	return c.JSON(fiber.Map{
		"stream_key": key,
		"expires_at": time.Now().Add(defaultStreamKeyTTL).UTC(),
	})
}

type validateStreamKeyRequest struct {
	StreamKey string `json:"stream_key"`
}

// HandleValidateStreamKey lets the media ingest edge check a presented stream
// key before accepting a broadcast. It authenticates by the key itself, so the
// route carries no identity requirement.
func HandleValidateStreamKey(c *fiber.Ctx) error {
	var req validateStreamKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Invalid JSON body"})
	}
	if req.StreamKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_stream_key", "message": "stream_key is required"})
	}

	secret := env.GetEnv("STREAM_KEY_SECRET", "")
	if secret == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Stream key signing is not configured"})
	}

	claims, err := security.VerifyStreamKey(req.StreamKey, secret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_stream_key", "message": "Stream key is invalid or expired"})
	}

	return c.JSON(fiber.Map{
		"valid":          true,
		"broadcaster_id": claims.BroadcasterID,
	})
}

// parseIDParam reads the numeric :id route parameter. When it is invalid the
// 400 response has already been written and the handler must return nil.
func parseIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid ID parameter"})
		return 0, false
	}
	return uint(id), true
}
