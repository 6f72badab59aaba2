// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gamelogue/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Game is one catalog entry.
type Game struct {
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
}

// Catalog lists the games demo posts are drawn from.
type Catalog struct {
	Games []Game `yaml:"games"`
}

// LoadCatalog parses a YAML game catalog. A nil input loads the built-in one.
func LoadCatalog(raw []byte) (*Catalog, error) {
	if raw == nil {
		raw = catalogYAML
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse game catalog: %w", err)
	}
	if len(c.Games) == 0 {
		return nil, fmt.Errorf("game catalog is empty")
	}
	return &c, nil
}

// Factory builds users, posts and comments with fake content.
type Factory struct {
	faker   *gofakeit.Faker
	catalog *Catalog
	maxDays int
	now     func() time.Time
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(seed int64, catalog *Catalog, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		faker:   gofakeit.New(seed),
		catalog: catalog,
		maxDays: maxDays,
		now:     time.Now,
	}
}

// BuildUser returns an unsaved user. n keeps usernames unique within a run.
func (f *Factory) BuildUser(n int, passwordHash string) *models.User {
	suffix := fmt.Sprintf("%d", n)
	base := strings.ToLower(f.faker.Username())
	base = strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' {
			return -1
		}
		return r
	}, base)
	if limit := 30 - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	username := base + suffix

	return &models.User{
		Email:         username + "@example.com",
		Username:      username,
		PasswordHash:  passwordHash,
		Bio:           f.faker.Sentence(8),
		Avatar:        "https://i.pravatar.cc/150?u=" + username,
		EmailVerified: true,
	}
}

// BuildPost returns an unsaved post owned by user with a created_at inside the
// factory's day window.
func (f *Factory) BuildPost(user *models.User) *models.Post {
	game := f.catalog.Games[f.faker.Number(0, len(f.catalog.Games)-1)]

	var tags []string
	for _, tag := range game.Tags {
		if f.faker.Bool() {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 && len(game.Tags) > 0 {
		tags = []string{game.Tags[0]}
	}

	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), ".")

	return &models.Post{
		UserID:      user.ProfileSlug(),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/1280/720", f.faker.UUID()),
		Title:       title,
		Description: f.faker.Paragraph(1, f.faker.Number(1, 3), 12, " "),
		Game:        game.Name,
		Tags:        tags,
		IsPublic:    f.faker.Number(1, 100) <= 70,
		CreatedAt:   f.createdAt(),
	}
}

// BuildComment returns an unsaved comment by author on post.
func (f *Factory) BuildComment(post *models.Post, author *models.User) *models.Comment {
	created := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 48*60)) * time.Minute)
	if now := f.now(); created.After(now) {
		created = now
	}
	return &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Username:  author.ProfileSlug(),
		Text:      f.faker.Sentence(f.faker.Number(3, 15)),
		CreatedAt: created,
	}
}

func (f *Factory) createdAt() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return f.now().Add(-back)
}
