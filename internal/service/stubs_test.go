package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"gamelogue/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByEmailFn      func(context.Context, string) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	updateFn          func(context.Context, *models.User) error
	touchLastLoginFn  func(context.Context, uint, time.Time) error
	setPasswordHashFn func(context.Context, string, string) error
	verifyEmailFn     func(context.Context, string) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.touchLastLoginFn(ctx, id, at)
}
func (s *userRepoStub) SetPasswordHash(ctx context.Context, email, hash string) error {
	return s.setPasswordHashFn(ctx, email, hash)
}
func (s *userRepoStub) VerifyEmail(ctx context.Context, email string) error {
	return s.verifyEmailFn(ctx, email)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:      func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:          func(_ context.Context, _ *models.User) error { return nil },
		updateFn:          func(_ context.Context, _ *models.User) error { return nil },
		touchLastLoginFn:  func(_ context.Context, _ uint, _ time.Time) error { return nil },
		setPasswordHashFn: func(_ context.Context, _, _ string) error { return nil },
		verifyEmailFn:     func(_ context.Context, _ string) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn           func(context.Context, *models.Post) error
	getByIDFn          func(context.Context, uint) (*models.Post, error)
	listByOwnerFn      func(context.Context, string, int, int) ([]*models.Post, error)
	countByOwnerFn     func(context.Context, string) (int64, error)
	listPublicFn       func(context.Context, string, int, int) ([]*models.Post, error)
	countPublicFn      func(context.Context, string) (int64, error)
	updateVisibilityFn func(context.Context, uint, bool) error
	deleteFn           func(context.Context, uint) error
	isLikedFn          func(context.Context, uint, uint) (bool, error)
	likeFn             func(context.Context, uint, uint) error
	unlikeFn           func(context.Context, uint, uint) error
	addCommentFn       func(context.Context, *models.Comment) error
	listCommentsFn     func(context.Context, uint) ([]models.Comment, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListByOwner(ctx context.Context, username string, limit, offset int) ([]*models.Post, error) {
	return s.listByOwnerFn(ctx, username, limit, offset)
}
func (s *postRepoStub) CountByOwner(ctx context.Context, username string) (int64, error) {
	return s.countByOwnerFn(ctx, username)
}
func (s *postRepoStub) ListPublic(ctx context.Context, exclude string, limit, offset int) ([]*models.Post, error) {
	return s.listPublicFn(ctx, exclude, limit, offset)
}
func (s *postRepoStub) CountPublic(ctx context.Context, exclude string) (int64, error) {
	return s.countPublicFn(ctx, exclude)
}
func (s *postRepoStub) UpdateVisibility(ctx context.Context, id uint, isPublic bool) error {
	return s.updateVisibilityFn(ctx, id, isPublic)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, postID, userID uint) (bool, error) {
	return s.isLikedFn(ctx, postID, userID)
}
func (s *postRepoStub) Like(ctx context.Context, postID, userID uint) error {
	return s.likeFn(ctx, postID, userID)
}
func (s *postRepoStub) Unlike(ctx context.Context, postID, userID uint) error {
	return s.unlikeFn(ctx, postID, userID)
}
func (s *postRepoStub) AddComment(ctx context.Context, comment *models.Comment) error {
	return s.addCommentFn(ctx, comment)
}
func (s *postRepoStub) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listCommentsFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:           func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:          func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listByOwnerFn:      func(_ context.Context, _ string, _, _ int) ([]*models.Post, error) { return nil, nil },
		countByOwnerFn:     func(_ context.Context, _ string) (int64, error) { return 0, nil },
		listPublicFn:       func(_ context.Context, _ string, _, _ int) ([]*models.Post, error) { return nil, nil },
		countPublicFn:      func(_ context.Context, _ string) (int64, error) { return 0, nil },
		updateVisibilityFn: func(_ context.Context, _ uint, _ bool) error { return nil },
		deleteFn:           func(_ context.Context, _ uint) error { return nil },
		isLikedFn:          func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:             func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:           func(_ context.Context, _, _ uint) error { return nil },
		addCommentFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		listCommentsFn:     func(_ context.Context, _ uint) ([]models.Comment, error) { return []models.Comment{}, nil },
	}
}

// remoteStub is a stub for storage.Remote that records what it was given.
type remoteStub struct {
	mu      sync.Mutex
	putErr  error
	puts    []string
	deletes []string
}

func (r *remoteStub) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return "", r.putErr
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	r.puts = append(r.puts, key)
	return "https://cdn.example.com/" + key, nil
}

func (r *remoteStub) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, key)
	return nil
}

// imageRemoverStub records Remove calls.
type imageRemoverStub struct {
	err   error
	calls []string
}

func (s *imageRemoverStub) Remove(_ context.Context, imageURL string, _ *string) error {
	s.calls = append(s.calls, imageURL)
	return s.err
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}
