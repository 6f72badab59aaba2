package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamelogue/internal/config"
	"gamelogue/internal/database"
	"gamelogue/internal/models"
	"gamelogue/internal/service"
	"gamelogue/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "server-test-secret-with-enough-length"

type testEnv struct {
	app       *fiber.App
	server    *Server
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	uploadDir := t.TempDir()
	cfg := &config.Config{
		Env:             "test",
		Port:            "0",
		JWTSecret:       testJWTSecret,
		UploadDir:       uploadDir,
		UploadMaxSizeMB: 1,
		UseLocalUpload:  true,
	}

	s, err := NewServerWithDeps(cfg, db, nil, nil)
	require.NoError(t, err)

	return &testEnv{app: s.NewApp(), server: s, uploadDir: uploadDir}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func jsonRequest(method, target string, body any, cookie *http.Cookie) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", session.CookieName)
	return nil
}

func (e *testEnv) register(t *testing.T, email, username, password string) *http.Cookie {
	t.Helper()
	resp := e.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, nil))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return sessionCookie(t, resp)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, fields map[string]string, file []byte, cookie *http.Cookie) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "shot.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func (e *testEnv) createPost(t *testing.T, cookie *http.Cookie, title string, public bool) models.Post {
	t.Helper()
	resp := e.do(t, uploadRequest(t, map[string]string{
		"title":       title,
		"description": "boss fight",
		"game":        "Elden Ring",
		"tags":        "souls, boss,souls",
		"isPublic":    fmt.Sprint(public),
	}, testPNG(t), cookie))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.Post](t, resp)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "Neo@Matrix.io",
		"username": "neo",
		"password": "redpill",
	}, nil))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)

	body := decode[AuthResponse](t, resp)
	assert.Equal(t, "/user/neo", body.RedirectTo)
	assert.Equal(t, "neo@matrix.io", body.User.Email)

	t.Run("session cookie authenticates", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/api/auth/me", nil, cookie))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		me := decode[models.User](t, resp)
		assert.Equal(t, "neo", me.Username)
	})

	t.Run("me without session", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/api/auth/me", nil, nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
			"email":    "neo@matrix.io",
			"username": "another",
			"password": "redpill",
		}, nil))
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		errBody := decode[models.ErrorResponse](t, resp)
		assert.Equal(t, "email already in use", errBody.Error)
	})

	t.Run("invalid registration", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
			"email":    "not-an-email",
			"username": "smith",
			"password": "redpill",
		}, nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "NEO@matrix.io",
			"password": "redpill",
		}, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, sessionCookie(t, resp).Value)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrong := env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "neo@matrix.io",
			"password": "bluepill",
		}, nil))
		unknown := env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "morpheus@matrix.io",
			"password": "bluepill",
		}, nil))
		require.Equal(t, http.StatusUnauthorized, wrong.StatusCode)
		require.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
		assert.Equal(t,
			decode[models.ErrorResponse](t, wrong),
			decode[models.ErrorResponse](t, unknown))
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/logout", nil, cookie))
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		cleared := sessionCookie(t, resp)
		assert.Empty(t, cleared.Value)
	})
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	neo := env.register(t, "neo@matrix.io", "neo", "redpill")
	trinity := env.register(t, "trinity@matrix.io", "trinity", "whiterabbit")

	post := env.createPost(t, neo, "First clear", false)
	assert.Equal(t, "neo", post.UserID)
	assert.Equal(t, []string{"souls", "boss"}, post.Tags)
	require.True(t, strings.HasPrefix(post.ImageURL, "/uploads/"))
	stored := filepath.Join(env.uploadDir, strings.TrimPrefix(post.ImageURL, "/uploads/"))
	_, err := os.Stat(stored)
	require.NoError(t, err)

	t.Run("uploaded image is served", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, post.ImageURL, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("owner feed", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/api/posts?page=1&limit=10", nil, neo))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[service.FeedPage](t, resp)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, int64(1), page.Pagination.Total)
		assert.False(t, page.HasMore)
	})

	t.Run("anonymous feed is empty", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/api/posts", nil, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[service.FeedPage](t, resp)
		assert.Empty(t, page.Posts)
	})

	t.Run("private post stays out of the public feed", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/api/posts/public", nil, trinity))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decode[service.FeedPage](t, resp).Posts)
	})

	target := fmt.Sprintf("/api/posts/%d", post.ID)

	t.Run("only the owner changes visibility", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPatch, target+"/visibility", map[string]bool{"isPublic": true}, trinity))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.do(t, jsonRequest(http.MethodPatch, target+"/visibility", map[string]bool{"isPublic": true}, neo))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, decode[models.Post](t, resp).IsPublic)

		resp = env.do(t, jsonRequest(http.MethodGet, "/api/posts/public", nil, trinity))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[service.FeedPage](t, resp).Posts, 1)
	})

	t.Run("visibility requires a value", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPatch, target+"/visibility", map[string]string{}, neo))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("like toggles", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, target+"/like", nil, trinity))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]bool{"liked": true}, decode[map[string]bool](t, resp))

		resp = env.do(t, jsonRequest(http.MethodPost, target+"/like", nil, trinity))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]bool{"liked": false}, decode[map[string]bool](t, resp))
	})

	t.Run("comments", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, target+"/comments", map[string]string{"text": "  gg  "}, trinity))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		comment := decode[models.Comment](t, resp)
		assert.Equal(t, "gg", comment.Text)
		assert.Equal(t, "trinity", comment.Username)

		resp = env.do(t, jsonRequest(http.MethodPost, target+"/comments", map[string]string{"text": "   "}, trinity))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = env.do(t, jsonRequest(http.MethodGet, target+"/comments", nil, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]models.Comment](t, resp), 1)
	})

	t.Run("comment removal is not available", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodDelete, target+"/comments/1700000000000", nil, neo))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "comment removal not available", decode[models.ErrorResponse](t, resp).Error)

		resp = env.do(t, jsonRequest(http.MethodDelete, target+"/comments/yesterday", nil, neo))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodDelete, target, nil, trinity))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.do(t, jsonRequest(http.MethodDelete, target, nil, neo))
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		_, err := os.Stat(stored)
		assert.True(t, os.IsNotExist(err))

		resp = env.do(t, jsonRequest(http.MethodDelete, target, nil, neo))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreatePost_Rejects(t *testing.T) {
	env := newTestEnv(t)
	neo := env.register(t, "neo@matrix.io", "neo", "redpill")

	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
		cookie *http.Cookie
		status int
	}{
		{"anonymous", map[string]string{"title": "t", "description": "d"}, testPNG(t), nil, http.StatusUnauthorized},
		{"missing title", map[string]string{"description": "d"}, testPNG(t), neo, http.StatusBadRequest},
		{"missing file", map[string]string{"title": "t", "description": "d"}, nil, neo, http.StatusBadRequest},
		{"not an image", map[string]string{"title": "t", "description": "d"}, []byte("plain text body"), neo, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, uploadRequest(t, tc.fields, tc.file, tc.cookie))
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFeedPagination(t *testing.T) {
	env := newTestEnv(t)
	neo := env.register(t, "neo@matrix.io", "neo", "redpill")
	for i := 0; i < 3; i++ {
		env.createPost(t, neo, fmt.Sprintf("shot %d", i), true)
	}

	resp := env.do(t, jsonRequest(http.MethodGet, "/api/posts?page=1&limit=2", nil, neo))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[service.FeedPage](t, resp)
	assert.Len(t, first.Posts, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, 2, first.Pagination.Pages)

	resp = env.do(t, jsonRequest(http.MethodGet, "/api/posts?page=2&limit=2", nil, neo))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[service.FeedPage](t, resp)
	assert.Len(t, second.Posts, 1)
	assert.False(t, second.HasMore)

	resp = env.do(t, jsonRequest(http.MethodGet, "/api/posts/public?exclude=neo", nil, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[service.FeedPage](t, resp).Posts)
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv(t)
	neo := env.register(t, "neo@matrix.io", "neo", "redpill")

	resp := env.do(t, jsonRequest(http.MethodGet, "/api/users/neo", nil, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "neo@matrix.io", decode[models.User](t, resp).Email)

	resp = env.do(t, jsonRequest(http.MethodGet, "/api/users/smith", nil, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodGet, "/api/users/by-email/neo@matrix.io", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodGet, "/api/users/by-email/neo@matrix.io", nil, neo))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodPut, "/api/users/me", map[string]string{"bio": "the one"}, neo))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.User](t, resp)
	assert.Equal(t, "the one", updated.Bio)
	assert.Equal(t, "neo", updated.Username)
	assert.NotEmpty(t, sessionCookie(t, resp).Value)

	resp = env.do(t, jsonRequest(http.MethodPut, "/api/users/me", map[string]string{"username": "a b"}, neo))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionGuardPages(t *testing.T) {
	env := newTestEnv(t)
	neo := env.register(t, "neo@matrix.io", "neo", "redpill")
	bogus := &http.Cookie{Name: session.CookieName, Value: "not-a-token"}

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		status   int
		location string
	}{
		{"root without session", "/", nil, http.StatusFound, "/auth"},
		{"root with session", "/", neo, http.StatusFound, "/user/neo"},
		{"root with bad session", "/", bogus, http.StatusFound, "/auth"},
		{"auth page without session", "/auth", nil, http.StatusOK, ""},
		{"auth page with bad session", "/auth", bogus, http.StatusOK, ""},
		{"auth page with session", "/auth", neo, http.StatusFound, "/user/neo"},
		{"profile without session", "/user/neo", nil, http.StatusFound, "/auth"},
		{"profile with bad session", "/user/neo/profile", bogus, http.StatusFound, "/auth"},
		{"profile with session", "/user/neo", neo, http.StatusOK, ""},
		{"new post page", "/user/neo/novo-post", neo, http.StatusOK, ""},
		{"public page", "/public", neo, http.StatusOK, ""},
		{"api is not guarded", "/api/posts/public", nil, http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, jsonRequest(http.MethodGet, tc.path, nil, tc.cookie))
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.location != "" {
				assert.Equal(t, tc.location, resp.Header.Get(fiber.HeaderLocation))
			}
		})
	}

	t.Run("bad session on a protected page is cleared", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/user/neo", nil, bogus))
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Empty(t, sessionCookie(t, resp).Value)
	})

	t.Run("user page carries the caller's feed", func(t *testing.T) {
		env.createPost(t, neo, "mine", false)
		resp := env.do(t, jsonRequest(http.MethodGet, "/user/someone-else", nil, neo))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[PageData](t, resp)
		require.NotNil(t, page.User)
		assert.Equal(t, "neo", page.User.Username)
		require.NotNil(t, page.Feed)
		assert.Len(t, page.Feed.Posts, 1)
	})

	t.Run("new post page lists constraints", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/user/neo/novo-post", nil, neo))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[PageData](t, resp)
		require.NotNil(t, page.Constraints)
		assert.Equal(t, 1, page.Constraints.MaxSizeMB)
		assert.Contains(t, page.Constraints.AllowedTypes, "image/png")
	})
}

func TestHealthAndHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))

	req := httptest.NewRequest(http.MethodGet, "/api/posts/public", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")
	resp = env.do(t, req)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/posts/abc/comments", nil))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid ID", decode[models.ErrorResponse](t, resp).Error)
}

func TestPrivatePostComments(t *testing.T) {
	env := newTestEnv(t)
	neo := env.register(t, "neo@matrix.io", "neo", "redpill")
	trinity := env.register(t, "trinity@matrix.io", "trinity", "whiterabbit")

	post := env.createPost(t, neo, "Hidden room", false)
	target := fmt.Sprintf("/api/posts/%d/comments", post.ID)

	resp := env.do(t, jsonRequest(http.MethodPost, target, map[string]string{"text": "note to self"}, neo))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name   string
		cookie *http.Cookie
		status int
	}{
		{"anonymous", nil, http.StatusNotFound},
		{"someone else", trinity, http.StatusNotFound},
		{"owner", neo, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, jsonRequest(http.MethodGet, target, nil, tc.cookie))
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.status == http.StatusOK {
				assert.Len(t, decode[[]models.Comment](t, resp), 1)
			}
		})
	}
}

func TestRenameKeepsOwnership(t *testing.T) {
	env := newTestEnv(t)
	neo := env.register(t, "neo@matrix.io", "neo", "redpill")
	trinity := env.register(t, "trinity@matrix.io", "trinity", "whiterabbit")

	first := env.createPost(t, neo, "Before the rename", false)
	second := env.createPost(t, neo, "Also before", true)

	resp := env.do(t, jsonRequest(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", second.ID),
		map[string]string{"text": "first!"}, neo))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodPut, "/api/users/me", map[string]string{"username": "theone"}, neo))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "theone", decode[models.User](t, resp).Username)
	renamed := sessionCookie(t, resp)

	t.Run("reissued session lists the owner's feed", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, "/api/posts", nil, renamed))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[service.FeedPage](t, resp)
		require.Len(t, page.Posts, 2)
		for _, p := range page.Posts {
			assert.Equal(t, "theone", p.UserID)
		}
	})

	t.Run("comments show the new name", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", second.ID), nil, trinity))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		comments := decode[[]models.Comment](t, resp)
		require.Len(t, comments, 1)
		assert.Equal(t, "theone", comments[0].Username)
	})

	t.Run("bearer token issued before the rename still owns the posts", func(t *testing.T) {
		req := jsonRequest(http.MethodPatch, fmt.Sprintf("/api/posts/%d/visibility", first.ID),
			map[string]bool{"isPublic": true}, nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+neo.Value)
		resp := env.do(t, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, decode[models.Post](t, resp).IsPublic)
	})

	t.Run("reissued session deletes the post", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodDelete, fmt.Sprintf("/api/posts/%d", first.ID), nil, trinity))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.do(t, jsonRequest(http.MethodDelete, fmt.Sprintf("/api/posts/%d", first.ID), nil, renamed))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}
