package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"lingostream/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

type S3Storage struct {
	client *s3.Client
	bucket string
}

// NewS3Storage creates an S3 client for the audio archive bucket. A custom
// endpoint supports S3-compatible stores.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 storage initialized", zap.String("bucket", cfg.Bucket))

	return &S3Storage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// UploadObject uploads one object to the archive bucket.
func (s *S3Storage) UploadObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	logger.Debug("Object uploaded to S3", zap.String("key", key))
	return nil
}

// ChunkKey builds the object key for one audio chunk of a connection.
func (s *S3Storage) ChunkKey(connectionID string, seq int) string {
	date := time.Now().Format("2006/01/02")
	return path.Join("audio", date, connectionID, fmt.Sprintf("%05d.wav", seq))
}
