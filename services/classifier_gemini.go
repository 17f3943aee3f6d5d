package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"calorietrack/apperrors"

	"google.golang.org/genai"
)

const geminiPrompt = `Identify the food in this photo. Return up to 5 candidate dish or food names, ` +
	`most likely first, each with a confidence between 0 and 1. Use common English food names ` +
	`suitable for a nutrition database search. Return an empty array if the photo shows no food.`

var geminiPredictionSchema = &genai.Schema{
	Type:        "array",
	Description: "Candidate food labels.",
	Items: &genai.Schema{
		Type: "object",
		Properties: map[string]*genai.Schema{
			"label": {
				Type:        "string",
				Description: "Food name.",
			},
			"confidence": {
				Type:        "number",
				Description: "Confidence between 0 and 1.",
			},
		},
		Required: []string{"label", "confidence"},
	},
}

// GeminiClassifier asks a multimodal Gemini model for food labels.
type GeminiClassifier struct {
	client *genai.Client
	model  string
	fetch  imageFetcher
}

func NewGeminiClassifier(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, apperrors.Configuration("gemini.init", "GEMINI_API_KEY is not configured")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model, fetch: newImageFetcher(timeout)}, nil
}

func (g *GeminiClassifier) Name() string { return "gemini" }

func (g *GeminiClassifier) Identify(ctx context.Context, img ImageRef) ([]Prediction, error) {
	const op = "gemini.identify"

	data, ct, err := g.fetch.load(ctx, img)
	if err != nil {
		return nil, err
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: ct, Data: data}},
			{Text: geminiPrompt},
		},
	}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiPredictionSchema,
	})
	if err != nil {
		return nil, apperrors.Upstream(op, "Failed to identify food from image", 0, err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, nil
	}

	return parseGeminiPredictions(res.Candidates[0].Content.Parts[0].Text)
}

func parseGeminiPredictions(text string) ([]Prediction, error) {
	var raw []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, apperrors.Upstream("gemini.identify", "Failed to identify food from image", 0,
			fmt.Errorf("unmarshal gemini response: %w", err))
	}

	out := make([]Prediction, 0, len(raw))
	for _, r := range raw {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			continue
		}
		out = append(out, Prediction{Label: label, Confidence: round2(math.Max(0, math.Min(1, r.Confidence)))})
	}
	return topPredictions(out), nil
}
