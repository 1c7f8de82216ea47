package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"a11yhub/internal/models"
	"a11yhub/internal/tasks"
	"a11yhub/internal/utils/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectStore is the subset of object storage the script service needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
}

var (
	_ models.ObjectURLGenerator = (*S3Service)(nil)
	_ tasks.ObjectReader        = (*S3Service)(nil)
	_ ObjectStore               = (*S3Service)(nil)
)

type S3Service struct {
	client     *s3.Client
	bucketName string
	provider   string
	logger     *logger.Logger
}

// S3Options mirrors the storage section of the configuration.
type S3Options struct {
	Provider   string
	BucketName string
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
}

func NewS3Service(ctx context.Context, opts S3Options) (*S3Service, error) {
	log := logger.New("s3_service")

	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, log.Error("S3 credentials are empty ❌", fmt.Errorf("accessKey or secretKey is empty"))
	}
	if opts.BucketName == "" {
		return nil, log.Error("S3 bucket is empty ❌", fmt.Errorf("bucket name is required"))
	}

	region := opts.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, log.Error("Unable to load SDK config ❌", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	// Verify credentials by making a test API call
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(opts.BucketName)}); err != nil {
		return nil, log.Error("Failed to verify S3 credentials ❌", err)
	}

	log.Success("S3 service initialized for bucket %s ✅", opts.BucketName)

	return &S3Service{
		client:     client,
		bucketName: opts.BucketName,
		provider:   opts.Provider,
		logger:     log,
	}, nil
}

// PutObject stores body under key. Scripts are private; they are only
// reachable through the delivery endpoints or a presigned URL.
func (s *S3Service) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	s.logger.Info("📤 Uploading object: %s (%d bytes)", key, len(body))

	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("private, max-age=0"),
	}
	// R2 rejects canned ACLs other than its defaults
	if s.provider != "r2" {
		input.ACL = types.ObjectCannedACLPrivate
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return s.logger.Error("Failed to upload object to storage ❌", err)
	}
	return nil
}

func (s *S3Service) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.logger.Error("Failed to fetch object "+key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.logger.Error("Failed to read object body", err)
	}
	return body, nil
}

// GetSignedURL implements models.ObjectURLGenerator
func (s *S3Service) GetSignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	presigned, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		return "", s.logger.Error("Failed to generate pre-signed URL ❌", err)
	}

	s.logger.Debug("Generated pre-signed URL for %s", key)
	return presigned.URL, nil
}
