package services

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"calorietrack/apperrors"
	"calorietrack/logger"
	"calorietrack/metrics"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	MaxImageBytes = 5 << 20
	// Uploaded images are bounded to this many pixels per side.
	maxImageSide = 800
	imageFolder  = "calorie-counter"
)

// AllowedImageTypes are the accepted upload MIME types and their formats.
var AllowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ImageStore is an object storage backend. Keys are opaque to callers.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	// Remove deletes key and returns an apperrors NotFound error when it is absent.
	Remove(ctx context.Context, key string) error
	Name() string
}

// StoredImage describes an uploaded image.
type StoredImage struct {
	URL      string `json:"imageUrl"`
	PublicID string `json:"publicId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
}

var publicIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(jpg|png|webp)$`)

// ImageService validates, normalizes and stores food photos.
type ImageService struct {
	store   ImageStore
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewImageService(store ImageStore, log *slog.Logger, m *metrics.Metrics) *ImageService {
	return &ImageService{store: store, log: logger.Module(log, "images"), metrics: m}
}

// NormalizeImageType returns the canonical MIME type and format for an
// allowed content type.
func NormalizeImageType(contentType string) (mimeType, format string, err error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	format, ok := AllowedImageTypes[ct]
	if !ok {
		return "", "", apperrors.InvalidInput("image.validate", "Invalid file type. Only JPEG, JPG, PNG, and WebP are allowed.")
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	return ct, format, nil
}

// objectKey places each user's images under their own prefix, so a public
// id only resolves for the user who uploaded it.
func objectKey(userID, publicID string) string {
	return imageFolder + "/" + userID + "/" + publicID
}

// Upload stores data for userID and reports the stored dimensions. JPEG and PNG images
// larger than 800px on a side are scaled down first; WebP is stored as-is
// with zero dimensions.
func (s *ImageService) Upload(ctx context.Context, userID string, data []byte, contentType string) (*StoredImage, error) {
	const op = "image.upload"

	if userID == "" {
		return nil, apperrors.Unauthorized(op, "not authenticated")
	}
	if len(data) == 0 {
		return nil, apperrors.InvalidInput(op, "No file uploaded. Please select an image.")
	}
	if len(data) > MaxImageBytes {
		return nil, apperrors.TooLarge(op, "File too large. Maximum size is 5MB.")
	}
	mimeType, format, err := NormalizeImageType(contentType)
	if err != nil {
		return nil, err
	}

	out := &StoredImage{Format: format}
	if format != "webp" {
		data, out.Width, out.Height, err = limitImage(data, format)
		if err != nil {
			return nil, apperrors.InvalidInput(op, "image could not be decoded")
		}
	}

	out.PublicID = uuid.NewString() + "." + format
	key := objectKey(userID, out.PublicID)

	start := time.Now()
	url, err := s.store.Put(ctx, key, data, mimeType)
	s.metrics.ObserveUpstream(s.store.Name(), "put", start, err)
	if err != nil {
		s.log.ErrorContext(ctx, "upload failed", "key", key, "backend", s.store.Name(), "error", err)
		return nil, apperrors.UploadFailed(op, "Failed to upload image", err)
	}
	out.URL = url
	s.log.InfoContext(ctx, "image uploaded", "key", key, "bytes", len(data))
	return out, nil
}

// Delete removes an image userID uploaded. Another user's public id is
// reported as not found.
func (s *ImageService) Delete(ctx context.Context, userID, publicID string) error {
	const op = "image.delete"

	if userID == "" {
		return apperrors.Unauthorized(op, "not authenticated")
	}
	if !publicIDPattern.MatchString(publicID) {
		return apperrors.InvalidInput(op, "invalid public ID")
	}
	key := objectKey(userID, publicID)

	start := time.Now()
	err := s.store.Remove(ctx, key)
	s.metrics.ObserveUpstream(s.store.Name(), "remove", start, err)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return err
		}
		s.log.ErrorContext(ctx, "delete failed", "key", key, "error", err)
		return apperrors.UploadFailed(op, "Failed to delete image", err)
	}
	return nil
}

// limitImage decodes data, scales it to fit maxImageSide and re-encodes it
// when needed. It returns the resulting bytes and dimensions.
func limitImage(data []byte, format string) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	b := img.Bounds()
	if b.Dx() <= maxImageSide && b.Dy() <= maxImageSide {
		return data, b.Dx(), b.Dy(), nil
	}

	scaled := resize.Thumbnail(maxImageSide, maxImageSide, img, resize.Lanczos3)
	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, scaled)
	default:
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, 0, 0, err
	}
	sb := scaled.Bounds()
	return buf.Bytes(), sb.Dx(), sb.Dy(), nil
}
