package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"calorietrack/apperrors"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// VisionClassifier uses Google Cloud Vision label detection. Labels are
// general-purpose, so only food-like or highly confident ones are kept.
type VisionClassifier struct {
	svc *vision.Service
}

// NewVisionClassifier authenticates with an API key when given, otherwise
// with a service-account file or application default credentials.
func NewVisionClassifier(ctx context.Context, apiKey, credentialsFile string, extra ...option.ClientOption) (*VisionClassifier, error) {
	var opts []option.ClientOption
	switch {
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, extra...)

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &VisionClassifier{svc: svc}, nil
}

func (v *VisionClassifier) Name() string { return "vision" }

func (v *VisionClassifier) Identify(ctx context.Context, img ImageRef) ([]Prediction, error) {
	const op = "vision.identify"

	image := &vision.Image{}
	switch {
	case len(img.Data) > 0:
		image.Content = base64.StdEncoding.EncodeToString(img.Data)
	case img.URL != "":
		image.Source = &vision.ImageSource{ImageUri: img.URL}
	default:
		return nil, apperrors.InvalidInput(op, "image URL or data is required")
	}

	res, err := v.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    image,
			Features: []*vision.Feature{{Type: "LABEL_DETECTION", MaxResults: 20}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.Upstream(op, "Failed to identify food from image", 0, err)
	}
	if len(res.Responses) == 0 {
		return nil, nil
	}
	r := res.Responses[0]
	if r.Error != nil {
		return nil, apperrors.Upstream(op, "Failed to identify food from image", 0,
			fmt.Errorf("vision error %d: %s", r.Error.Code, r.Error.Message))
	}

	labels := make([]Prediction, 0, len(r.LabelAnnotations))
	for _, l := range r.LabelAnnotations {
		labels = append(labels, Prediction{Label: l.Description, Confidence: l.Score})
	}
	return filterGeneralLabels(labels), nil
}
