package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gamelogue/internal/cache"
	"gamelogue/internal/middleware"
	"gamelogue/internal/models"
	"gamelogue/internal/observability"
	"gamelogue/internal/repository"
	"gamelogue/internal/validation"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ErrCommentDeleteUnsupported is returned by DeleteComment until comments get stable ids.
var ErrCommentDeleteUnsupported = models.NewValidationError("comment removal not available")

// ImageRemover deletes the stored file behind a post image.
type ImageRemover interface {
	Remove(ctx context.Context, imageURL string, publicID *string) error
}

type PostService struct {
	postRepo repository.PostRepository
	images   ImageRemover
	now      func() time.Time
}

// PageRequest is a 1-based page number and page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Pagination describes the page that was served.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// FeedPage is one page of a user or public feed.
type FeedPage struct {
	Posts      []*models.Post `json:"posts"`
	Pagination Pagination     `json:"pagination"`
	HasMore    bool           `json:"hasMore"`
}

type CreatePostInput struct {
	Username    string
	ImageURL    string
	PublicID    *string
	Title       string
	Description string
	Game        string
	Tags        []string
	IsPublic    bool
}

func NewPostService(postRepo repository.PostRepository, images ImageRemover) *PostService {
	return &PostService{
		postRepo: postRepo,
		images:   images,
		now:      time.Now,
	}
}

// Normalize applies the default page and limit and clamps the limit.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.Limit
}

func newFeedPage(posts []*models.Post, p PageRequest, total int64) *FeedPage {
	if posts == nil {
		posts = []*models.Post{}
	}
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return &FeedPage{
		Posts: posts,
		Pagination: Pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Pages: pages,
		},
		HasMore: len(posts) == p.Limit && int64(p.Page*p.Limit) < total,
	}
}

// ListUserPosts returns the posts owned by username, newest first. A blank
// username (no session) yields an empty page.
func (s *PostService) ListUserPosts(ctx context.Context, username string, p PageRequest) (*FeedPage, error) {
	p = p.Normalize()
	if strings.TrimSpace(username) == "" {
		return newFeedPage(nil, p, 0), nil
	}

	posts, err := s.postRepo.ListByOwner(ctx, username, p.Limit, p.offset())
	if err != nil {
		return nil, err
	}
	total, err := s.postRepo.CountByOwner(ctx, username)
	if err != nil {
		return nil, err
	}
	return newFeedPage(posts, p, total), nil
}

// ListPublicPosts returns public posts, newest first, leaving out excludeUsername's own.
// The first unfiltered page is served through the feed cache.
func (s *PostService) ListPublicPosts(ctx context.Context, p PageRequest, excludeUsername string) (*FeedPage, error) {
	p = p.Normalize()
	excludeUsername = strings.TrimSpace(excludeUsername)

	if p.Page != 1 || excludeUsername != "" {
		return s.loadPublicPage(ctx, p, excludeUsername)
	}

	var page FeedPage
	hit, err := cache.Aside(ctx, cache.PublicFeedKey(p.Page, p.Limit), &page, cache.PublicFeedTTL, func() error {
		loaded, err := s.loadPublicPage(ctx, p, "")
		if err != nil {
			return err
		}
		page = *loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hit {
		observability.FeedCacheResults.WithLabelValues("hit").Inc()
	} else {
		observability.FeedCacheResults.WithLabelValues("miss").Inc()
	}
	return &page, nil
}

func (s *PostService) loadPublicPage(ctx context.Context, p PageRequest, excludeUsername string) (*FeedPage, error) {
	posts, err := s.postRepo.ListPublic(ctx, excludeUsername, p.Limit, p.offset())
	if err != nil {
		return nil, err
	}
	total, err := s.postRepo.CountPublic(ctx, excludeUsername)
	if err != nil {
		return nil, err
	}
	return newFeedPage(posts, p, total), nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := validation.CleanText(in.Title)
	description := validation.CleanText(in.Description)
	if err := validation.ValidatePostFields(title, description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Username) == "" {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, models.NewValidationError("image is required")
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		UserID:      in.Username,
		ImageURL:    in.ImageURL,
		PublicID:    in.PublicID,
		Title:       title,
		Description: description,
		Game:        strings.TrimSpace(in.Game),
		Tags:        tags,
		IsPublic:    in.IsPublic,
		LikedBy:     []uint{},
		Comments:    []models.Comment{},
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.RecordPostEvent("created")
	cache.InvalidatePublicFeed(ctx)
	return post, nil
}

// ToggleLike flips userID's like on the post and reports the resulting state.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return false, err
	}

	liked, err := s.postRepo.IsLiked(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	if liked {
		if err := s.postRepo.Unlike(ctx, postID, userID); err != nil {
			return false, err
		}
		observability.RecordPostEvent("unliked")
	} else {
		if err := s.postRepo.Like(ctx, postID, userID); err != nil {
			return false, err
		}
		observability.RecordPostEvent("liked")
	}

	cache.InvalidatePublicFeed(ctx)
	return !liked, nil
}

func (s *PostService) AddComment(ctx context.Context, postID, userID uint, username, text string) (*models.Comment, error) {
	text = validation.CleanText(text)
	if err := validation.ValidateCommentText(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:    postID,
		UserID:    userID,
		Username:  username,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.postRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	observability.RecordPostEvent("commented")
	cache.InvalidatePublicFeed(ctx)
	return comment, nil
}

// ListComments returns a post's comments, oldest first. A private post is reported
// as missing to everyone but its owner.
func (s *PostService) ListComments(ctx context.Context, postID uint, viewer string) ([]models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsPublic && (viewer == "" || post.UserID != viewer) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return s.postRepo.ListComments(ctx, postID)
}

// DeleteComment is not supported: comments are addressed by timestamp only.
func (s *PostService) DeleteComment(_ context.Context, _ uint, _ time.Time) error {
	return ErrCommentDeleteUnsupported
}

func (s *PostService) UpdateVisibility(ctx context.Context, postID uint, isPublic bool, username string) (*models.Post, error) {
	post, err := s.ownedPost(ctx, postID, username)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.UpdateVisibility(ctx, postID, isPublic); err != nil {
		return nil, err
	}
	post.IsPublic = isPublic

	observability.RecordPostEvent("visibility")
	cache.InvalidatePublicFeed(ctx)
	return post, nil
}

// DeletePost removes the post and its likes and comments. The stored image is
// removed on a best-effort basis.
func (s *PostService) DeletePost(ctx context.Context, postID uint, username string) error {
	post, err := s.ownedPost(ctx, postID, username)
	if err != nil {
		return err
	}

	if s.images != nil {
		if err := s.images.Remove(ctx, post.ImageURL, post.PublicID); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove post image",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	observability.RecordPostEvent("deleted")
	cache.InvalidatePublicFeed(ctx)
	return nil
}

func (s *PostService) ownedPost(ctx context.Context, postID uint, username string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if username == "" || post.UserID != username {
		return nil, models.NewForbiddenError("you do not have permission to change this post")
	}
	return post, nil
}
