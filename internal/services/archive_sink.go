package services

import (
	"context"
	"fmt"
	"path"

	"github.com/yungbote/coursepack/internal/platform/gcp"
	"github.com/yungbote/coursepack/internal/platform/sftpclient"
)

// ArchiveSink keeps a copy of a finished package somewhere durable. Delivery is
// best effort; the export result does not depend on it.
type ArchiveSink interface {
	Name() string
	Deliver(ctx context.Context, localPath, filename string) (string, error)
}

type gcsSink struct {
	bucket gcp.ArchiveBucket
}

func NewGCSSink(bucket gcp.ArchiveBucket) ArchiveSink {
	return &gcsSink{bucket: bucket}
}

func (s *gcsSink) Name() string { return "gcs" }

func (s *gcsSink) Deliver(ctx context.Context, localPath, filename string) (string, error) {
	return s.bucket.UploadPackage(ctx, localPath, filename)
}

type sftpSink struct {
	cfg    sftpclient.Config
	upload func(ctx context.Context, cfg sftpclient.Config, localPath, remoteName string) error
}

func NewSFTPSink(cfg sftpclient.Config) (ArchiveSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &sftpSink{cfg: cfg, upload: sftpclient.UploadFile}, nil
}

func (s *sftpSink) Name() string { return "sftp" }

func (s *sftpSink) Deliver(ctx context.Context, localPath, filename string) (string, error) {
	if err := s.upload(ctx, s.cfg, localPath, filename); err != nil {
		return "", err
	}
	dir := s.cfg.RemoteDir
	if dir == "" {
		dir = "/"
	}
	return fmt.Sprintf("sftp://%s%s", s.cfg.Host, path.Join(dir, filename)), nil
}
