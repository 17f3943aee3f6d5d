package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"calorietrack/apperrors"
	"calorietrack/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3ImageStore keeps images in an S3 bucket (or an S3-compatible endpoint
// such as MinIO) with public-read ACLs.
type S3ImageStore struct {
	client     *s3.Client
	bucket     string
	publicBase string
	publicACL  bool
}

// NewS3ImageStore builds a client from the default AWS credential chain, or
// from static keys when both are configured.
func NewS3ImageStore(ctx context.Context, cfg config.ImageStoreConfig) (*S3ImageStore, error) {
	if cfg.S3Bucket == "" {
		return nil, apperrors.Configuration("s3.init", "S3_BUCKET is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3ImageStoreWithClient(client, cfg.S3Bucket, publicBaseURL(cfg), cfg.S3Endpoint == ""), nil
}

func NewS3ImageStoreWithClient(client *s3.Client, bucket, publicBase string, publicACL bool) *S3ImageStore {
	return &S3ImageStore{client: client, bucket: bucket, publicBase: publicBase, publicACL: publicACL}
}

func publicBaseURL(cfg config.ImageStoreConfig) string {
	switch {
	case cfg.PublicBaseURL != "":
		return cfg.PublicBaseURL
	case cfg.S3Endpoint != "":
		return fmt.Sprintf("%s/%s", trimSlash(cfg.S3Endpoint), cfg.S3Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (s *S3ImageStore) Name() string { return "s3" }

func (s *S3ImageStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if s.publicACL {
		in.ACL = s3types.ObjectCannedACLPublicRead
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("%s/%s", s.publicBase, key), nil
}

// Remove deletes key. S3 deletes are idempotent, so existence is checked
// first to report missing objects.
func (s *S3ImageStore) Remove(ctx context.Context, key string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
			return apperrors.NotFound("s3.remove", "Image not found or already deleted")
		}
		return fmt.Errorf("head s3://%s/%s: %w", s.bucket, key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
