package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/coursepack/internal/platform/logger"
)

const packageContentType = "application/zip"

// ArchiveBucket keeps a copy of every finished package in a GCS bucket.
type ArchiveBucket interface {
	UploadPackage(ctx context.Context, localPath, name string) (string, error)
	Close() error
}

type archiveBucket struct {
	log    *logger.Logger
	client *storage.Client
	cfg    ArchiveStorageConfig
}

func NewArchiveBucket(ctx context.Context, log *logger.Logger, cfg ArchiveStorageConfig) (ArchiveBucket, error) {
	if err := ValidateArchiveStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate archive storage config: %w", err)
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	serviceLog := log.With("service", "ArchiveBucket")
	serviceLog.Info("Archive storage initialized", "mode", cfg.Mode, "bucket", cfg.Bucket, "prefix", cfg.Prefix)
	return &archiveBucket{log: serviceLog, client: client, cfg: cfg}, nil
}

func newStorageClient(ctx context.Context, cfg ArchiveStorageConfig) (*storage.Client, error) {
	if cfg.IsEmulatorMode() {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

// UploadPackage copies the archive at localPath to <prefix>/<name> and returns a gs:// URI.
func (b *archiveBucket) UploadPackage(ctx context.Context, localPath, name string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open package: %w", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	key := b.cfg.ObjectKey(name)
	w := b.client.Bucket(b.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = packageContentType
	w.ContentDisposition = fmt.Sprintf("attachment; filename=%q", name)
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write package to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close GCS writer: %w", err)
	}
	uri := fmt.Sprintf("gs://%s/%s", b.cfg.Bucket, key)
	b.log.Debug("Package archived", "uri", uri)
	return uri, nil
}

func (b *archiveBucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}
