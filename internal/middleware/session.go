package middleware

import (
	"net/url"
	"strings"

	"gamelogue/internal/models"
	"gamelogue/internal/session"

	"github.com/gofiber/fiber/v2"
)

// RouteClass groups page routes by how the session guard treats them.
type RouteClass int

const (
	RouteRoot RouteClass = iota
	RouteAuth
	RouteProtected
)

// Action is what the session guard does with a request.
type Action int

const (
	ActionPass Action = iota
	ActionRedirectAuth
	ActionRedirectProfile
)

// Decision is the guard outcome for one request.
type Decision struct {
	Action      Action
	ClearCookie bool
}

// AuthPagePath is where unauthenticated visitors are sent.
const AuthPagePath = "/auth"

var unguardedPrefixes = []string{"/api/", "/uploads/", "/health", "/metrics", "/favicon.ico"}

// ClassifyRoute returns the guard class for path. ok is false for paths the guard ignores.
func ClassifyRoute(path string) (class RouteClass, ok bool) {
	if path == "/api" || path == "/uploads" {
		return 0, false
	}
	for _, prefix := range unguardedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return 0, false
		}
	}

	switch {
	case path == "/" || path == "":
		return RouteRoot, true
	case strings.HasPrefix(path, AuthPagePath):
		return RouteAuth, true
	default:
		return RouteProtected, true
	}
}

// Decide maps route class and token state to the guard outcome.
// An invalid token on an auth page is left in place.
func Decide(class RouteClass, hasToken, valid bool) Decision {
	switch class {
	case RouteRoot:
		switch {
		case !hasToken:
			return Decision{Action: ActionRedirectAuth}
		case valid:
			return Decision{Action: ActionRedirectProfile}
		default:
			return Decision{Action: ActionRedirectAuth, ClearCookie: true}
		}
	case RouteAuth:
		if hasToken && valid {
			return Decision{Action: ActionRedirectProfile}
		}
		return Decision{Action: ActionPass}
	default:
		switch {
		case !hasToken:
			return Decision{Action: ActionRedirectAuth}
		case valid:
			return Decision{Action: ActionPass}
		default:
			return Decision{Action: ActionRedirectAuth, ClearCookie: true}
		}
	}
}

// ProfilePath is the landing page for a signed-in user.
func ProfilePath(username, email string) string {
	return "/user/" + url.PathEscape(models.ProfileSlug(username, email))
}

// SessionGuard applies Decide to page routes using the session cookie only.
func SessionGuard(c *fiber.Ctx) error {
	class, guarded := ClassifyRoute(c.Path())
	if !guarded {
		return c.Next()
	}

	token := c.Cookies(session.CookieName)
	hasToken := token != ""
	claims, err := parseSession(token)
	valid := hasToken && err == nil

	decision := Decide(class, hasToken, valid)
	if decision.ClearCookie {
		ClearSessionCookie(c)
	}

	switch decision.Action {
	case ActionRedirectAuth:
		return c.Redirect(AuthPagePath, fiber.StatusFound)
	case ActionRedirectProfile:
		return c.Redirect(ProfilePath(claims.Username, claims.Email), fiber.StatusFound)
	}

	if valid {
		attachIdentity(c, claims)
	}
	return c.Next()
}
