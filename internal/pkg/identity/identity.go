package identity

import "github.com/gofiber/fiber/v2"

// Locals key set by the identity middleware
const ContextKey = "REQUEST_USER"

// RequestUser carries the opaque identity supplied by the external auth
// collaborator. This core never authenticates; it trusts the gateway's
// headers and only distinguishes moderators for the force-end path.
type RequestUser struct {
	ID          string `json:"id"`
	IsModerator bool   `json:"is_moderator"`
}

// FromCtx retrieves the request user from fiber context.
// Returns an anonymous user if none is set.
func FromCtx(c *fiber.Ctx) RequestUser {
	if u := c.Locals(ContextKey); u != nil {
		return u.(RequestUser)
	}
	return RequestUser{}
}

// IsKnown reports whether the request carries an identity.
func (u RequestUser) IsKnown() bool {
	return u.ID != ""
}
