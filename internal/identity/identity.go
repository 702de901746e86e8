package identity

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserID is either an authenticated user or the anonymous caller. The zero
// value is anonymous, so a UserID can never carry a half-initialized id.
type UserID struct {
	id            uuid.UUID
	authenticated bool
}

func Authenticated(id uuid.UUID) UserID {
	return UserID{id: id, authenticated: true}
}

func Anonymous() UserID {
	return UserID{}
}

func (u UserID) IsAnonymous() bool {
	return !u.authenticated
}

// UUID returns the user's id and whether the caller is authenticated.
func (u UserID) UUID() (uuid.UUID, bool) {
	return u.id, u.authenticated
}

func (u UserID) String() string {
	if !u.authenticated {
		return "anonymous"
	}
	return u.id.String()
}

// FromContext extracts the current user from JWT claims placed in the Fiber
// context by the auth middleware. Missing or malformed claims yield the
// anonymous user rather than an error; routes that require authentication
// enforce it at the middleware layer.
func FromContext(c *fiber.Ctx) UserID {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return Anonymous()
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Anonymous()
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Anonymous()
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return Anonymous()
	}
	return Authenticated(id)
}
