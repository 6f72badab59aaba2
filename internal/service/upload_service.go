package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gamelogue/internal/config"
	"gamelogue/internal/middleware"
	"gamelogue/internal/models"
	"gamelogue/internal/observability"
	"gamelogue/internal/storage"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadMaxSizeMB = 10
	DefaultUploadTimeout   = 30 * time.Second
	defaultImageExt        = "jpg"
	defaultKeyPrefix       = "gamelogue"
)

// AllowedImageTypes lists the sniffed content types accepted for screenshots.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

type UploadInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadResult locates a stored image. PublicID is set only for remote objects.
type UploadResult struct {
	ImageURL string  `json:"imageUrl"`
	PublicID *string `json:"publicId"`
	Filename string  `json:"filename"`
}

// UploadConstraints is what the upload form needs to know ahead of time.
type UploadConstraints struct {
	MaxSizeMB    int      `json:"maxSizeMb"`
	AllowedTypes []string `json:"allowedTypes"`
}

type UploadService struct {
	remote    storage.Remote
	local     *storage.Local
	maxSizeMB int
	keyPrefix string
	timeout   time.Duration
}

// NewUploadService stores images in remote when it is non-nil and remote
// uploads are enabled, falling back to the local uploads directory.
func NewUploadService(cfg *config.Config, remote storage.Remote) *UploadService {
	maxSizeMB := DefaultUploadMaxSizeMB
	timeout := DefaultUploadTimeout
	keyPrefix := defaultKeyPrefix
	uploadDir := "./public/uploads"

	if cfg != nil {
		if cfg.UploadMaxSizeMB > 0 {
			maxSizeMB = cfg.UploadMaxSizeMB
		}
		if cfg.UploadTimeoutSeconds > 0 {
			timeout = time.Duration(cfg.UploadTimeoutSeconds) * time.Second
		}
		if cfg.S3KeyPrefix != "" {
			keyPrefix = cfg.S3KeyPrefix
		}
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.UseLocalUpload {
			remote = nil
		}
	}

	return &UploadService{
		remote:    remote,
		local:     storage.NewLocal(uploadDir),
		maxSizeMB: maxSizeMB,
		keyPrefix: keyPrefix,
		timeout:   timeout,
	}
}

func (s *UploadService) Constraints() UploadConstraints {
	return UploadConstraints{
		MaxSizeMB:    s.maxSizeMB,
		AllowedTypes: append([]string(nil), AllowedImageTypes...),
	}
}

// Upload checks the image and stores it remotely, or locally when the remote store is
// unavailable or fails.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	contentType, err := s.check(in.Content)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("none", "rejected").Inc()
		return nil, err
	}
	ext := extensionFor(contentType)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	if s.remote != nil {
		key := s.keyPrefix + "/" + id + "." + ext
		url, err := s.putRemote(ctx, key, contentType, in.Content)
		if err == nil {
			observability.UploadsTotal.WithLabelValues("remote", "success").Inc()
			observability.UploadBytes.Observe(float64(len(in.Content)))
			return &UploadResult{ImageURL: url, PublicID: &key, Filename: in.Filename}, nil
		}
		observability.UploadsTotal.WithLabelValues("remote", "error").Inc()
		middleware.Logger.WarnContext(ctx, "remote upload failed, storing locally",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	name := id + "." + ext
	url, err := s.local.Save(name, in.Content)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("local", "error").Inc()
		middleware.Logger.ErrorContext(ctx, "local upload failed", slog.String("error", err.Error()))
		return nil, models.NewInternalErrorWithMessage("failed to store image", err)
	}

	observability.UploadsTotal.WithLabelValues("local", "success").Inc()
	observability.UploadBytes.Observe(float64(len(in.Content)))
	return &UploadResult{ImageURL: url, Filename: in.Filename}, nil
}

func (s *UploadService) putRemote(ctx context.Context, key, contentType string, content []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.remote.Put(ctx, key, contentType, bytes.NewReader(content))
}

// check enforces the size limit, the type allow-list and decodability, and
// returns the sniffed content type.
func (s *UploadService) check(content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("image file is required")
	}
	if int64(len(content)) > int64(s.maxSizeMB)*1024*1024 {
		return "", models.NewValidationError(fmt.Sprintf("image exceeds the %dMB limit", s.maxSizeMB))
	}

	contentType := http.DetectContentType(content)
	if !isAllowedImageType(contentType) {
		return "", models.NewValidationError("unsupported image type")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(content)); err != nil {
		return "", models.NewValidationError("image could not be decoded")
	}
	return contentType, nil
}

// Remove deletes a stored image: the remote object when publicID is set, else
// the local file behind an /uploads/ URL.
func (s *UploadService) Remove(ctx context.Context, imageURL string, publicID *string) error {
	if publicID != nil && *publicID != "" {
		if s.remote == nil {
			return fmt.Errorf("remote storage not configured for %s", *publicID)
		}
		return s.remote.Delete(ctx, *publicID)
	}
	if name, ok := storage.FilenameFromURL(imageURL); ok {
		return s.local.Delete(name)
	}
	return nil
}

// Discard removes an upload whose post was never created.
func (s *UploadService) Discard(ctx context.Context, res *UploadResult) {
	if res == nil {
		return
	}
	if err := s.Remove(ctx, res.ImageURL, res.PublicID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to discard orphan upload",
			slog.String("image_url", res.ImageURL),
			slog.String("error", err.Error()),
		)
	}
}

func isAllowedImageType(contentType string) bool {
	for _, t := range AllowedImageTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// extensionFor derives a file extension from the content type subtype.
func extensionFor(contentType string) string {
	_, subtype, ok := strings.Cut(contentType, "/")
	if !ok {
		return defaultImageExt
	}
	subtype, _, _ = strings.Cut(subtype, ";")
	var b strings.Builder
	for _, r := range strings.ToLower(subtype) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return defaultImageExt
	}
	return b.String()
}
