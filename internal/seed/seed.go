package seed

import (
	"context"
	"fmt"
	"log/slog"

	"gamelogue/internal/middleware"
	"gamelogue/internal/models"
	"gamelogue/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxComments int
	MaxDays     int
	ShouldClean bool
	// RandSeed makes a run reproducible. Zero picks a random seed.
	RandSeed int64
	// Catalog overrides the built-in game catalog.
	Catalog []byte
}

// Result counts what a run created.
type Result struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
}

// Seeder writes demo data through the repositories.
type Seeder struct {
	db    *gorm.DB
	users repository.UserRepository
	posts repository.PostRepository
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:    db,
		users: repository.NewUserRepository(db),
		posts: repository.NewPostRepository(db),
	}
}

// ClearAll deletes every comment, like, post and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Comment{}, &models.Like{}, &models.Post{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Seed populates the database with demo users, posts, likes and comments.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Result, error) {
	if opts.NumUsers <= 0 {
		return nil, fmt.Errorf("at least one user is required")
	}
	if opts.MaxComments < 0 {
		opts.MaxComments = 0
	}

	catalog, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return nil, err
	}

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	f := NewFactory(opts.RandSeed, catalog, opts.MaxDays)
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user := f.BuildUser(i, string(hash))
		if err := s.users.Create(ctx, user); err != nil {
			if models.HasCode(err, models.CodeConflict) {
				middleware.Logger.WarnContext(ctx, "skipping duplicate demo user", slog.String("username", user.Username))
				continue
			}
			return nil, fmt.Errorf("create user %s: %w", user.Username, err)
		}
		users = append(users, user)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		owner := users[f.faker.Number(0, len(users)-1)]
		post := f.BuildPost(owner)
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		for _, u := range users {
			if u.ID == owner.ID || f.faker.Number(1, 100) > 30 {
				continue
			}
			if err := s.posts.Like(ctx, post.ID, u.ID); err != nil {
				return nil, fmt.Errorf("like post %d: %w", post.ID, err)
			}
			res.Likes++
		}

		if opts.MaxComments == 0 {
			continue
		}
		for n := f.faker.Number(0, opts.MaxComments); n > 0; n-- {
			author := users[f.faker.Number(0, len(users)-1)]
			if err := s.posts.AddComment(ctx, f.BuildComment(post, author)); err != nil {
				return nil, fmt.Errorf("comment on post %d: %w", post.ID, err)
			}
			res.Comments++
		}
	}

	middleware.Logger.InfoContext(ctx, "database seeded",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}
