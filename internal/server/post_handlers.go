package server

import (
	"io"
	"strconv"
	"time"

	"gamelogue/internal/models"
	"gamelogue/internal/service"
	"gamelogue/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetMyPosts handles GET /api/posts
// @Summary Caller's feed
// @Description Posts owned by the signed-in user, newest first. Anonymous callers get an empty page.
// @Tags posts
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.FeedPage
// @Router /posts [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	owner, err := s.currentOwner(c)
	if err != nil {
		return respondError(c, err)
	}
	page, err := s.postService.ListUserPosts(c.UserContext(), owner, parsePageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPublicPosts handles GET /api/posts/public
// @Summary Public feed
// @Tags posts
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Param exclude query string false "Username whose posts are left out"
// @Success 200 {object} service.FeedPage
// @Router /posts/public [get]
func (s *Server) GetPublicPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPublicPosts(c.UserContext(), parsePageRequest(c), c.Query("exclude"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// CreatePost handles POST /api/posts
// @Summary Upload a screenshot
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Screenshot"
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param game formData string false "Game"
// @Param tags formData string false "Comma-separated tags"
// @Param isPublic formData string false "true or false"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username, err := s.currentOwner(c)
	if err != nil {
		return respondError(c, err)
	}

	title := c.FormValue("title")
	description := c.FormValue("description")
	if err := validation.ValidatePostFields(validation.CleanText(title), validation.CleanText(description)); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image file could not be read"))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image file could not be read"))
	}

	upload, err := s.uploadService.Upload(ctx, service.UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		Username:    username,
		ImageURL:    upload.ImageURL,
		PublicID:    upload.PublicID,
		Title:       title,
		Description: description,
		Game:        c.FormValue("game"),
		Tags:        validation.SplitTags(c.FormValue("tags")),
		IsPublic:    parseBool(c.FormValue("isPublic")),
	})
	if err != nil {
		s.uploadService.Discard(ctx, upload)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	owner, err := s.currentOwner(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.postService.DeletePost(c.UserContext(), id, owner); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{liked=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := currentUserID(c)

	liked, err := s.postService.ToggleLike(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewer, err := s.currentOwner(c)
	if err != nil {
		return respondError(c, err)
	}
	comments, err := s.postService.ListComments(c.UserContext(), id, viewer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.Comment
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID, _ := currentUserID(c)
	author, err := s.currentOwner(c)
	if err != nil {
		return respondError(c, err)
	}
	comment, err := s.postService.AddComment(c.UserContext(), id, userID, author, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:createdAt
// @Summary Delete a comment (not available)
// @Tags posts
// @Param id path int true "Post ID"
// @Param createdAt path string true "Comment timestamp (RFC 3339 or unix milliseconds)"
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{createdAt} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	createdAt, ok := parseTimestamp(c.Params("createdAt"))
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam("createdAt")))
	}
	if err := s.postService.DeleteComment(c.UserContext(), id, createdAt); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateVisibility handles PATCH /api/posts/:id/visibility
// @Summary Make a post public or private
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{isPublic=bool} true "Visibility"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/visibility [patch]
func (s *Server) UpdateVisibility(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		IsPublic *bool `json:"isPublic"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsPublic == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("isPublic is required"))
	}

	owner, err := s.currentOwner(c)
	if err != nil {
		return respondError(c, err)
	}
	post, err := s.postService.UpdateVisibility(c.UserContext(), id, *req.IsPublic, owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

func parseTimestamp(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}
