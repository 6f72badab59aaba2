package server

import (
	"gamelogue/internal/middleware"
	"gamelogue/internal/models"
	"gamelogue/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Page routes sit behind the session guard and return the data each screen
// renders. The guard has already redirected visitors that do not belong here.

// PageData is the payload of a guarded page.
type PageData struct {
	Page        string                     `json:"page"`
	User        *models.User               `json:"user,omitempty"`
	Feed        *service.FeedPage          `json:"feed,omitempty"`
	Constraints *service.UploadConstraints `json:"constraints,omitempty"`
}

// RootPage handles GET /. The guard redirects every request, this only runs
// if it is mounted without one.
func (s *Server) RootPage(c *fiber.Ctx) error {
	return c.Redirect(middleware.AuthPagePath, fiber.StatusFound)
}

// AuthPage handles GET /auth.
func (s *Server) AuthPage(c *fiber.Ctx) error {
	return c.JSON(PageData{Page: "auth"})
}

// UserPage handles GET /user/:id. The feed is always the signed-in user's own;
// the path segment only names the profile.
func (s *Server) UserPage(c *fiber.Ctx) error {
	user, err := s.pageUser(c)
	if err != nil {
		return respondError(c, err)
	}

	feed, err := s.postService.ListUserPosts(c.UserContext(), user.ProfileSlug(), parsePageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PageData{Page: "user", User: user, Feed: feed})
}

// ProfilePage handles GET /user/:id/profile.
func (s *Server) ProfilePage(c *fiber.Ctx) error {
	user, err := s.pageUser(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PageData{Page: "profile", User: user})
}

// NewPostPage handles GET /user/:id/novo-post.
func (s *Server) NewPostPage(c *fiber.Ctx) error {
	constraints := s.uploadService.Constraints()
	return c.JSON(PageData{Page: "new-post", Constraints: &constraints})
}

// PublicPage handles GET /public. The caller's own posts are left out.
func (s *Server) PublicPage(c *fiber.Ctx) error {
	owner, err := s.currentOwner(c)
	if err != nil {
		return respondError(c, err)
	}
	feed, err := s.postService.ListPublicPosts(c.UserContext(), parsePageRequest(c), owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PageData{Page: "public", Feed: feed})
}

func (s *Server) pageUser(c *fiber.Ctx) (*models.User, error) {
	return s.authService.CurrentUser(c.UserContext(), middleware.ClaimsFrom(c))
}
