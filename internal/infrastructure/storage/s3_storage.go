// Package storage reads signature images kept in S3-compatible object
// storage (AWS S3, MinIO, RustFS and similar).
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
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// Scheme is the URL scheme of object references, as in s3://bucket/key
const Scheme = "s3"

// ErrObjectNotFound is returned when the object does not exist
var ErrObjectNotFound = errors.New("object not found")

// Config holds the connection settings
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3ObjectStorage reads objects through the AWS SDK v2
type S3ObjectStorage struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// Option configures S3ObjectStorage
type Option func(*S3ObjectStorage)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3ObjectStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewS3ObjectStorage creates the storage from configuration. Static
// credentials are used when given; otherwise the default AWS chain applies.
func NewS3ObjectStorage(ctx context.Context, cfg Config, opts ...Option) (*S3ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3ObjectStorage{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Bucket returns the default bucket
func (s *S3ObjectStorage) Bucket() string {
	return s.bucket
}

// Get downloads an s3:// reference. An empty bucket in ref means the
// configured bucket. At most maxBytes are read when maxBytes is positive.
func (s *S3ObjectStorage) Get(ctx context.Context, ref string, maxBytes int64) ([]byte, string, error) {
	bucket, key, err := ParseURL(ref)
	if err != nil {
		return nil, "", err
	}
	if bucket == "" {
		bucket = s.bucket
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("%s: %w", ref, ErrObjectNotFound)
		}
		return nil, "", fmt.Errorf("failed to get object %s: %w", ref, err)
	}
	defer out.Body.Close()

	var r io.Reader = out.Body
	if maxBytes > 0 {
		r = io.LimitReader(out.Body, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %s: %w", ref, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("object %s exceeds %d bytes", ref, maxBytes)
	}

	s.logger.Debug("object downloaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return data, aws.ToString(out.ContentType), nil
}

// IsObjectURL reports whether ref uses the s3 scheme
func IsObjectURL(ref string) bool {
	return strings.HasPrefix(strings.ToLower(ref), Scheme+"://")
}

// ParseURL splits s3://bucket/key. "s3:///key" leaves the bucket empty.
func ParseURL(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("invalid object URL %q: %w", ref, err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return "", "", fmt.Errorf("invalid object URL %q: scheme must be %s", ref, Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid object URL %q: missing key", ref)
	}
	return u.Host, key, nil
}
