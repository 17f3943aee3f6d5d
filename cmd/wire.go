package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"calorietrack/config"
	"calorietrack/metrics"
	"calorietrack/routes"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

// app holds the constructed object graph and the resources to release.
type app struct {
	router  *gin.Engine
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{}

	db, err := config.InitDB(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	a.closers = append(a.closers, sqlDB)

	m := metrics.New()
	resp := utils.NewResponder(cfg.IsDevelopment(), log)
	hub := services.NewRealtimeHub(log)
	usda := services.NewUSDAService(cfg.USDA, log, m)
	if cfg.USDA.APIKey == "" {
		log.Warn("USDA_API_KEY is not set; nutrition lookups will fail")
	}

	classifier, err := buildClassifier(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("classifier %q: %w", cfg.Classify.Backend, err)
	}
	if c, ok := classifier.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	var images *services.ImageService
	store, err := buildImageStore(ctx, cfg)
	switch {
	case err == nil:
		images = services.NewImageService(store, log, m)
		if c, ok := store.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	default:
		log.Warn("image store disabled; upload routes not mounted", "backend", cfg.Images.Backend, "error", err)
	}

	a.router = routes.SetupRouter(routes.Deps{
		Log:      log,
		Metrics:  m,
		Resp:     resp,
		Location: cfg.Location,
		Ping:     sqlDB.PingContext,
		Auth:     services.NewAuthService(db, cfg.Auth, log),
		USDA:     usda,
		FoodLogs: services.NewFoodLogService(db, cfg.Location, hub, log),
		Images:   images,
		Identify: services.NewIdentifyService(classifier, usda, log, m),
		Realtime: hub,
	})
	return a, nil
}

// buildClassifier constructs the configured backend. Backends that own
// native resources implement io.Closer.
func buildClassifier(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.Classifier, error) {
	c := cfg.Classify
	switch c.Backend {
	case "", "none":
		return services.NoneClassifier{}, nil
	case "rekognition":
		return services.NewRekognitionClassifier(ctx, c.AWSRegion, c.Timeout)
	case "vision":
		return services.NewVisionClassifier(ctx, c.VisionAPIKey, c.GoogleCredentialsFile)
	case "huggingface":
		if c.HuggingFaceToken == "" {
			return nil, errors.New("HUGGINGFACE_API_TOKEN is not configured")
		}
		return services.NewHuggingFaceClassifier(c.HuggingFaceToken, c.HuggingFaceModel, "", c.Timeout), nil
	case "gemini":
		return services.NewGeminiClassifier(ctx, c.GeminiAPIKey, c.GeminiModel, c.Timeout)
	case "local":
		return services.NewLocalClassifier(c.TFLiteModelPath, c.TFLiteLabelsPath, c.TFLiteThreads, c.Timeout, log)
	}
	return nil, fmt.Errorf("unknown classifier backend %q", c.Backend)
}

func buildImageStore(ctx context.Context, cfg *config.Config) (services.ImageStore, error) {
	switch cfg.Images.Backend {
	case "gcs":
		return services.NewGCSImageStore(ctx, cfg.Images, cfg.Classify.GoogleCredentialsFile)
	case "", "s3":
		return services.NewS3ImageStore(ctx, cfg.Images)
	}
	return nil, fmt.Errorf("unknown image store %q", cfg.Images.Backend)
}
