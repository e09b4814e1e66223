// Package storage issues pre-signed download URLs for uploaded files held in
// S3-compatible object storage. When storage is not configured (empty
// bucket), the NoopProvider is used and URL issuance reports unavailable
// instead of breaking.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/types"
)

// ErrNotConfigured is returned when object storage is not configured.
var ErrNotConfigured = errors.New("object storage not configured")

// Provider resolves file rows to downloadable URLs.
type Provider interface {
	// DownloadURL returns a pre-signed GET URL for the file's object,
	// plus the instant the URL expires.
	DownloadURL(ctx context.Context, f types.File) (url string, expiry time.Time, err error)
}

// s3Client defines the minimal minio.Client surface used by S3Provider.
// This interface enables testing with mock implementations.
type s3Client interface {
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

// minioClientWrapper adapts *minio.Client to the s3Client interface,
// pinning the request parameters we never vary.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Provider issues pre-signed URLs against S3-compatible storage.
type S3Provider struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
}

// DownloadURL returns a pre-signed GET URL for the file's stored object.
func (p *S3Provider) DownloadURL(ctx context.Context, f types.File) (string, time.Time, error) {
	key := f.StorageKey
	if key == "" {
		key = defaultObjectKey(f)
	}

	presigned, err := p.client.PresignedGetObject(ctx, p.bucket, key, p.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	return presigned.String(), time.Now().Add(p.urlExpiry), nil
}

// NoopProvider is used when object storage is not configured.
type NoopProvider struct{}

// DownloadURL returns ErrNotConfigured when storage is not configured.
func (p *NoopProvider) DownloadURL(ctx context.Context, f types.File) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewProvider creates the appropriate Provider based on configuration.
// Returns NoopProvider when the bucket is empty, S3Provider otherwise.
func NewProvider(cfg config.StorageConfig) (Provider, error) {
	if !cfg.Configured() {
		return &NoopProvider{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Provider{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.Bucket,
		urlExpiry: time.Duration(cfg.URLExpiry),
	}, nil
}

// defaultObjectKey is the upload convention for files stored without an
// explicit key: {company_id}/files/{file_id}/{name}.
func defaultObjectKey(f types.File) string {
	return f.CompanyID + "/files/" + f.ID + "/" + f.Name
}
