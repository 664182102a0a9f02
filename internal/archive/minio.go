package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPresignExpiry is used when no public base URL is configured.
const DefaultPresignExpiry = 7 * 24 * time.Hour

// MinIOConfig describes an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	PresignExpiry time.Duration
}

// objectClient is the subset of *minio.Client the store needs.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinIOStore uploads archived images to S3-compatible object storage.
type MinIOStore struct {
	client  objectClient
	bucket  string
	public  string
	presign time.Duration
}

// NewMinIOStore connects to the endpoint and verifies the bucket exists.
func NewMinIOStore(ctx context.Context, cfg MinIOConfig) (*MinIOStore, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	if endpoint == "" {
		return nil, errors.New("archive: s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive: s3 bucket is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: create minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("archive: check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("archive: bucket %s does not exist", cfg.Bucket)
	}
	return newMinIOStore(client, cfg), nil
}

func newMinIOStore(client objectClient, cfg MinIOConfig) *MinIOStore {
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	return &MinIOStore{
		client:  client,
		bucket:  cfg.Bucket,
		public:  strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		presign: expiry,
	}
}

func (s *MinIOStore) Name() string { return "s3" }

// Put uploads data and returns either its public URL or a presigned one.
func (s *MinIOStore) Put(ctx context.Context, key string, data []byte, mime string) (string, error) {
	if mime == "" {
		mime = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  mime,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	if s.public != "" {
		return s.public + "/" + key, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presign, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// splitEndpoint accepts host:port or a full URL; a scheme overrides useSSL.
func splitEndpoint(raw string, useSSL bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimRight(strings.TrimPrefix(raw, "https://"), "/"), true
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimRight(strings.TrimPrefix(raw, "http://"), "/"), false
	default:
		return strings.TrimRight(raw, "/"), useSSL
	}
}
