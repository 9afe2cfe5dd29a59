// Package storage provides object storage access for inbound shipment documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	infraconfig "github.com/shipbridge/backend/internal/infrastructure/config"
)

// Ensure S3DocumentStore implements the processor's DocumentStore port
var _ shippingapp.DocumentStore = (*S3DocumentStore)(nil)

// S3DocumentStore fetches shipment XML documents from S3 using AWS SDK v2.
// It is compatible with any S3-compatible storage (AWS S3, MinIO, etc.)
type S3DocumentStore struct {
	client *s3.Client
	logger *zap.Logger
}

// S3DocumentStoreOption is a functional option for configuring S3DocumentStore
type S3DocumentStoreOption func(*S3DocumentStore)

// WithLogger sets a custom logger for S3DocumentStore
func WithLogger(logger *zap.Logger) S3DocumentStoreOption {
	return func(s *S3DocumentStore) {
		s.logger = logger
	}
}

// NewS3DocumentStore creates a new S3DocumentStore from configuration.
func NewS3DocumentStore(cfg *infraconfig.StorageConfig, opts ...S3DocumentStoreOption) (*S3DocumentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	// Static credentials when configured; otherwise the SDK's default chain
	// (instance profile, env vars) applies.
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
			if err == nil {
				o.BaseEndpoint = aws.String(endpoint)
			}
		}
	})

	store := &S3DocumentStore{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// normalizeEndpoint ensures the endpoint carries a scheme and parses as a URL.
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// Fetch downloads the object at bucket/key and returns its raw bytes. The
// bucket comes from the inbound event record, not from configuration, so a
// single store serves documents dropped into any bucket we are notified about.
func (s *S3DocumentStore) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if key == "" {
		return nil, errors.New("object key is required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document body %s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("fetched document",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}
