package storage

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/types"
)

// mockS3Client records the presign call and returns a canned URL.
type mockS3Client struct {
	gotBucket string
	gotKey    string
	gotExpiry time.Duration
	err       error
}

func (m *mockS3Client) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	m.gotBucket = bucket
	m.gotKey = objectName
	m.gotExpiry = expiry
	if m.err != nil {
		return nil, m.err
	}
	return url.Parse("https://s3.example.com/" + bucket + "/" + objectName + "?sig=abc")
}

func TestS3Provider_DownloadURL(t *testing.T) {
	mock := &mockS3Client{}
	p := &S3Provider{client: mock, bucket: "atelier-files", urlExpiry: 15 * time.Minute}

	before := time.Now()
	got, expiry, err := p.DownloadURL(context.Background(), types.File{
		ID:         "f_1",
		CompanyID:  "co_1",
		Name:       "brief.pdf",
		StorageKey: "custom/path/brief.pdf",
	})
	if err != nil {
		t.Fatal(err)
	}

	if mock.gotBucket != "atelier-files" {
		t.Errorf("bucket = %q", mock.gotBucket)
	}
	if mock.gotKey != "custom/path/brief.pdf" {
		t.Errorf("explicit storage key should win, got %q", mock.gotKey)
	}
	if mock.gotExpiry != 15*time.Minute {
		t.Errorf("expiry = %v", mock.gotExpiry)
	}
	if got == "" {
		t.Error("expected a URL")
	}
	if expiry.Before(before.Add(15 * time.Minute)) {
		t.Errorf("expiry %v is earlier than now+15m", expiry)
	}
}

func TestS3Provider_DefaultObjectKey(t *testing.T) {
	mock := &mockS3Client{}
	p := &S3Provider{client: mock, bucket: "atelier-files", urlExpiry: time.Minute}

	_, _, err := p.DownloadURL(context.Background(), types.File{
		ID:        "f_1",
		CompanyID: "co_1",
		Name:      "logo.svg",
	})
	if err != nil {
		t.Fatal(err)
	}

	if mock.gotKey != "co_1/files/f_1/logo.svg" {
		t.Errorf("key = %q, want upload convention", mock.gotKey)
	}
}

func TestS3Provider_PresignError(t *testing.T) {
	mock := &mockS3Client{err: errors.New("connection refused")}
	p := &S3Provider{client: mock, bucket: "atelier-files", urlExpiry: time.Minute}

	_, _, err := p.DownloadURL(context.Background(), types.File{ID: "f_1"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNoopProvider(t *testing.T) {
	p := &NoopProvider{}

	_, _, err := p.DownloadURL(context.Background(), types.File{ID: "f_1"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewProvider_UnconfiguredReturnsNoop(t *testing.T) {
	p, err := NewProvider(config.StorageConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*NoopProvider); !ok {
		t.Errorf("expected NoopProvider, got %T", p)
	}
}

func TestNewProvider_Configured(t *testing.T) {
	p, err := NewProvider(config.StorageConfig{
		Endpoint:  "s3.example.com",
		Bucket:    "atelier-files",
		AccessKey: "key",
		SecretKey: "secret",
		URLExpiry: config.Duration(15 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*S3Provider); !ok {
		t.Errorf("expected S3Provider, got %T", p)
	}
}
