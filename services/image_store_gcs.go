package services

import (
	"context"
	"errors"
	"fmt"

	"calorietrack/apperrors"
	"calorietrack/config"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSImageStore keeps images in a Google Cloud Storage bucket.
type GCSImageStore struct {
	client     *storage.Client
	bucket     string
	publicBase string
}

func NewGCSImageStore(ctx context.Context, cfg config.ImageStoreConfig, credentialsFile string) (*GCSImageStore, error) {
	if cfg.GCSBucket == "" {
		return nil, apperrors.Configuration("gcs.init", "GCS_BUCKET is not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://storage.googleapis.com/%s", cfg.GCSBucket)
	}
	return &GCSImageStore{client: client, bucket: cfg.GCSBucket, publicBase: base}, nil
}

func (g *GCSImageStore) Name() string { return "gcs" }

func (g *GCSImageStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	wc := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	// The upload is committed on Close.
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", g.bucket, key, err)
	}
	return fmt.Sprintf("%s/%s", g.publicBase, key), nil
}

func (g *GCSImageStore) Remove(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return apperrors.NotFound("gcs.remove", "Image not found or already deleted")
	}
	if err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", g.bucket, key, err)
	}
	return nil
}

func (g *GCSImageStore) Close() error { return g.client.Close() }
