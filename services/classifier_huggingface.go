package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"calorietrack/apperrors"
)

const DefaultHuggingFaceBaseURL = "https://router.huggingface.co/hf-inference/models"

// HuggingFaceClassifier calls the Inference API image-classification task.
type HuggingFaceClassifier struct {
	token   string
	model   string
	baseURL string
	client  *http.Client
	fetch   imageFetcher
}

func NewHuggingFaceClassifier(token, model, baseURL string, timeout time.Duration) *HuggingFaceClassifier {
	if model == "" {
		model = "nateraw/food"
	}
	if baseURL == "" {
		baseURL = DefaultHuggingFaceBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HuggingFaceClassifier{
		token:   token,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		fetch:   newImageFetcher(timeout),
	}
}

func (h *HuggingFaceClassifier) Name() string { return "huggingface" }

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (h *HuggingFaceClassifier) Identify(ctx context.Context, img ImageRef) ([]Prediction, error) {
	const op = "huggingface.identify"

	if h.token == "" {
		return nil, apperrors.Configuration(op, "HUGGINGFACE_API_TOKEN is not configured")
	}
	data, ct, err := h.fetch.load(ctx, img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/"+h.model, bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Internal(op, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", ct)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.Upstream(op, "Failed to identify food from image", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Upstream(op, "Failed to identify food from image", 0, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.Upstream(op, "API rate limit exceeded. Please try again in a few minutes.",
			http.StatusTooManyRequests, fmt.Errorf("huggingface status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.Upstream(op, "Invalid Hugging Face API token", http.StatusBadGateway,
			fmt.Errorf("huggingface status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Upstream(op, "Failed to identify food from image", 0,
			fmt.Errorf("huggingface status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var labels []hfLabel
	if err := json.Unmarshal(body, &labels); err != nil {
		return nil, apperrors.Upstream(op, "Failed to identify food from image", 0, err)
	}

	out := make([]Prediction, 0, len(labels))
	for _, l := range labels {
		if l.Score < 0.1 {
			continue
		}
		out = append(out, Prediction{
			Label:      strings.ReplaceAll(l.Label, "_", " "),
			Confidence: round2(l.Score),
		})
	}
	return topPredictions(out), nil
}
