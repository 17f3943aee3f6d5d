package services

import (
	"context"
	"fmt"
	"time"

	"calorietrack/apperrors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionAPI is the part of the Rekognition client used here.
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionClassifier uses AWS Rekognition DetectLabels.
type RekognitionClassifier struct {
	client RekognitionAPI
	fetch  imageFetcher
}

func NewRekognitionClassifier(ctx context.Context, region string, timeout time.Duration) (*RekognitionClassifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for Rekognition: %w", err)
	}
	return NewRekognitionClassifierWithClient(rekognition.NewFromConfig(cfg), timeout), nil
}

func NewRekognitionClassifierWithClient(client RekognitionAPI, timeout time.Duration) *RekognitionClassifier {
	return &RekognitionClassifier{client: client, fetch: newImageFetcher(timeout)}
}

func (r *RekognitionClassifier) Name() string { return "rekognition" }

func (r *RekognitionClassifier) Identify(ctx context.Context, img ImageRef) ([]Prediction, error) {
	data, _, err := r.fetch.load(ctx, img)
	if err != nil {
		return nil, err
	}

	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MaxLabels:     aws.Int32(20),
		MinConfidence: aws.Float32(50),
	})
	if err != nil {
		return nil, apperrors.Upstream("rekognition.identify", "Failed to identify food from image", 0, err)
	}

	labels := make([]Prediction, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil || l.Confidence == nil {
			continue
		}
		labels = append(labels, Prediction{
			Label:      aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)) / 100,
		})
	}
	return filterGeneralLabels(labels), nil
}
