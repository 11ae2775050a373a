package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

// MinioStore wraps a MinIO client for listing and avatar images. Objects
// are publicly readable so the stored URLs can be used directly by <img>.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects, ensures the bucket exists with a public-read
// policy. publicURL is the externally reachable endpoint; when empty it is
// derived from endpoint.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	if err := client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
		return nil, fmt.Errorf("minio bucket policy: %w", err)
	}

	return &MinioStore{client: client, bucket: bucket, baseURL: ObjectBaseURL(endpoint, useSSL, publicURL, bucket)}, nil
}

// ObjectBaseURL is the URL prefix of every object in bucket.
func ObjectBaseURL(endpoint string, useSSL bool, publicURL, bucket string) string {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		base = scheme + "://" + endpoint
	}
	return base + "/" + bucket + "/"
}

// Upload streams size bytes from r under key and returns the public URL.
// Keys are generated server-side and contain only URL-safe characters.
func (s *MinioStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return s.baseURL + key, nil
}

// KeyFromURL returns the object key when rawURL points into this bucket.
func (s *MinioStore) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, s.baseURL) {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, s.baseURL)
	return key, key != ""
}

// Remove deletes an object.
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
