// Package middleware holds the fiber middleware shared by every route: session
// checks, structured logging, rate limiting, tracing and metrics.
package middleware

import (
	"strings"
	"time"

	"gamelogue/internal/models"
	"gamelogue/internal/session"

	"github.com/gofiber/fiber/v2"
)

var (
	sessions      *session.Manager
	secureCookies bool
)

// InitMiddleware wires the session manager used by AuthRequired, OptionalAuth and SessionGuard.
// secure controls the Secure flag on the session cookie.
func InitMiddleware(m *session.Manager, secure bool) {
	sessions = m
	secureCookies = secure
}

// tokenFromRequest reads the session cookie, falling back to a Bearer header.
func tokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(session.CookieName); token != "" {
		return token
	}
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func parseSession(token string) (*session.Claims, error) {
	if sessions == nil {
		return nil, session.ErrInvalidToken
	}
	return sessions.Parse(token)
}

func attachIdentity(c *fiber.Ctx, claims *session.Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("username", claims.Username)
	c.Locals("claims", claims)
	c.SetUserContext(enrichContext(c))
}

// ClaimsFrom returns the session claims attached by the auth middleware, or nil.
func ClaimsFrom(c *fiber.Ctx) *session.Claims {
	claims, _ := c.Locals("claims").(*session.Claims)
	return claims
}

// AuthRequired rejects API requests that carry no valid session.
func AuthRequired(c *fiber.Ctx) error {
	token := tokenFromRequest(c)
	if token == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("authentication required"))
	}

	claims, err := parseSession(token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("invalid or expired session"))
	}

	attachIdentity(c, claims)
	return c.Next()
}

// OptionalAuth attaches the session identity when a valid token is present. It never rejects.
func OptionalAuth(c *fiber.Ctx) error {
	if token := tokenFromRequest(c); token != "" {
		if claims, err := parseSession(token); err == nil {
			attachIdentity(c, claims)
		}
	}
	return c.Next()
}

// SetSessionCookie stores token in the HTTP-only session cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(session.TTL.Seconds()),
		HTTPOnly: true,
		Secure:   secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
