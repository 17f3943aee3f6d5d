package services

import (
	"context"
	"log/slog"
	"time"

	"calorietrack/apperrors"
	"calorietrack/logger"
	"calorietrack/metrics"
	"calorietrack/models"
)

const (
	identifiedMessage = "Food identified successfully"
	fallbackMessage   = "AI could not identify food. Please search manually."
	maxSuggestions    = 5
)

// Identification is the outcome of an identify request. An empty
// Predictions list always comes with FallbackToManualSearch set.
type Identification struct {
	Predictions            []Prediction           `json:"predictions"`
	ImageURL               string                 `json:"imageUrl,omitempty"`
	FallbackToManualSearch bool                   `json:"fallbackToManualSearch"`
	Suggestions            []models.FoodCandidate `json:"suggestions,omitempty"`
	Message                string                 `json:"-"`
}

// FoodSearcher is the search half of the USDA resolver.
type FoodSearcher interface {
	Search(ctx context.Context, term string, pageSize int) ([]models.FoodCandidate, error)
}

// IdentifyService runs the configured classifier and never fails because of
// it: classifier errors and empty results become the manual-search fallback.
type IdentifyService struct {
	classifier Classifier
	search     FoodSearcher
	log        *slog.Logger
	metrics    *metrics.Metrics
}

func NewIdentifyService(c Classifier, search FoodSearcher, log *slog.Logger, m *metrics.Metrics) *IdentifyService {
	if c == nil {
		c = NoneClassifier{}
	}
	return &IdentifyService{classifier: c, search: search, log: logger.Module(log, "identify"), metrics: m}
}

func (s *IdentifyService) Backend() string { return s.classifier.Name() }

// Identify returns an error only when neither an image URL nor image data is
// given. Anything a backend fails on, including fetching, decoding or size,
// ends in the manual-search fallback.
func (s *IdentifyService) Identify(ctx context.Context, img ImageRef) (*Identification, error) {
	if img.URL == "" && len(img.Data) == 0 {
		return nil, apperrors.InvalidInput("identify", "Image URL is required")
	}

	backend := s.classifier.Name()
	start := time.Now()
	preds, err := s.classifier.Identify(ctx, img)
	if backend != "none" {
		s.metrics.ObserveUpstream(backend, "identify", start, err)
	}

	switch {
	case err != nil:
		s.log.WarnContext(ctx, "classifier failed, falling back", "backend", backend, "image_url", img.URL, "error", err)
		s.metrics.Fallback(backend, "error")
		return s.fallback(img), nil
	case len(preds) == 0:
		s.metrics.Fallback(backend, "no_predictions")
		return s.fallback(img), nil
	}

	out := &Identification{
		Predictions: preds,
		ImageURL:    img.URL,
		Message:     identifiedMessage,
	}
	if s.search != nil {
		found, err := s.search.Search(ctx, preds[0].Label, maxSuggestions)
		if err != nil {
			s.log.WarnContext(ctx, "suggestion search failed", "label", preds[0].Label, "error", err)
		} else {
			out.Suggestions = found
		}
	}
	return out, nil
}

func (s *IdentifyService) fallback(img ImageRef) *Identification {
	return &Identification{
		Predictions:            []Prediction{},
		ImageURL:               img.URL,
		FallbackToManualSearch: true,
		Message:                fallbackMessage,
	}
}
