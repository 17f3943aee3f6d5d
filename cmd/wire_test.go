package main

import (
	"context"
	"testing"

	"calorietrack/config"
	"calorietrack/logger"
	"calorietrack/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClassifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c, err := buildClassifier(ctx, &config.Config{Classify: config.ClassifierConfig{Backend: "none"}}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "none", c.Name())

	c, err = buildClassifier(ctx, &config.Config{Classify: config.ClassifierConfig{
		Backend: "huggingface", HuggingFaceToken: "hf_x",
	}}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &services.HuggingFaceClassifier{}, c)

	_, err = buildClassifier(ctx, &config.Config{Classify: config.ClassifierConfig{Backend: "huggingface"}}, logger.Discard())
	assert.Error(t, err)

	_, err = buildClassifier(ctx, &config.Config{Classify: config.ClassifierConfig{Backend: "gemini"}}, logger.Discard())
	assert.Error(t, err, "gemini needs an API key")

	_, err = buildClassifier(ctx, &config.Config{Classify: config.ClassifierConfig{Backend: "crystal-ball"}}, logger.Discard())
	assert.Error(t, err)
}

func TestBuildImageStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := buildImageStore(ctx, &config.Config{Images: config.ImageStoreConfig{Backend: "s3"}})
	assert.Error(t, err, "bucket is required")

	_, err = buildImageStore(ctx, &config.Config{Images: config.ImageStoreConfig{Backend: "ftp"}})
	assert.Error(t, err)
}

func TestBuildAppWithSQLite(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	cfg := &config.Config{
		AppEnv:   "test",
		DB:       config.DBConfig{Driver: "sqlite", SQLitePath: "file::memory:?cache=shared"},
		Auth:     config.AuthConfig{JWTSecret: "s"},
		Classify: config.ClassifierConfig{Backend: "none"},
		Images:   config.ImageStoreConfig{Backend: "s3"},
	}
	a, err := buildApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.NotNil(t, a.router)
	var hasUpload bool
	for _, r := range a.router.Routes() {
		if r.Path == "/api/upload/image" {
			hasUpload = true
		}
	}
	assert.False(t, hasUpload, "upload routes stay unmounted without an image store")
}
