package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/coursepack/internal/platform/gcp"
	"github.com/yungbote/coursepack/internal/platform/logger"
	"github.com/yungbote/coursepack/internal/services"
)

var (
	newArchiveBucket          = gcp.NewArchiveBucket
	resolveArchiveStorageFrom = gcp.ResolveArchiveStorageConfigFromEnv
)

type ArchiveSinkBootstrapErrorCode string

const (
	ArchiveSinkBootstrapErrorInvalidSink         ArchiveSinkBootstrapErrorCode = "invalid_sink"
	ArchiveSinkBootstrapErrorInvalidConfig       ArchiveSinkBootstrapErrorCode = "invalid_config"
	ArchiveSinkBootstrapErrorMissingEmulatorHost ArchiveSinkBootstrapErrorCode = "missing_emulator_host"
	ArchiveSinkBootstrapErrorConnectFailed       ArchiveSinkBootstrapErrorCode = "connect_failed"
)

type ArchiveSinkBootstrapError struct {
	Code  ArchiveSinkBootstrapErrorCode
	Sink  string
	Cause error
}

func (e *ArchiveSinkBootstrapError) Error() string {
	if e == nil {
		return "archive sink bootstrap failed"
	}
	return fmt.Sprintf("archive sink bootstrap failed (code=%s sink=%q): %v", e.Code, e.Sink, e.Cause)
}

func (e *ArchiveSinkBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveArchiveSink builds the sink named by cfg.ArchiveSink. A nil sink with a
// nil error means archiving is off. The returned close func is never nil.
func resolveArchiveSink(ctx context.Context, log *logger.Logger, cfg Config) (services.ArchiveSink, func() error, error) {
	noop := func() error { return nil }
	switch cfg.ArchiveSink {
	case "", ArchiveSinkNone:
		log.Info("Archive sink disabled")
		return nil, noop, nil

	case ArchiveSinkSFTP:
		sink, err := services.NewSFTPSink(cfg.SFTP)
		if err != nil {
			return nil, noop, archiveSinkError(log, cfg.ArchiveSink, ArchiveSinkBootstrapErrorInvalidConfig, err)
		}
		log.Info("Archive sink selected", "sink", sink.Name(), "host", cfg.SFTP.Host, "remote_dir", cfg.SFTP.RemoteDir)
		return sink, noop, nil

	case ArchiveSinkGCS:
		storageCfg, err := resolveArchiveStorageFrom()
		if err != nil {
			return nil, noop, archiveSinkError(log, cfg.ArchiveSink, classifyStorageConfigError(err), err)
		}
		bucket, err := newArchiveBucket(ctx, log, storageCfg)
		if err != nil {
			return nil, noop, archiveSinkError(log, cfg.ArchiveSink, ArchiveSinkBootstrapErrorConnectFailed, err)
		}
		log.Info("Archive sink selected", "sink", ArchiveSinkGCS, "mode", storageCfg.Mode, "bucket", storageCfg.Bucket)
		return services.NewGCSSink(bucket), bucket.Close, nil

	default:
		return nil, noop, archiveSinkError(log, cfg.ArchiveSink, ArchiveSinkBootstrapErrorInvalidSink,
			fmt.Errorf("unsupported EXPORT_ARCHIVE_SINK %q (allowed: none, gcs, sftp)", cfg.ArchiveSink))
	}
}

func classifyStorageConfigError(err error) ArchiveSinkBootstrapErrorCode {
	var cfgErr *gcp.ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Code == gcp.ConfigErrorMissingEmulatorHost {
		return ArchiveSinkBootstrapErrorMissingEmulatorHost
	}
	return ArchiveSinkBootstrapErrorInvalidConfig
}

func archiveSinkError(log *logger.Logger, sink string, code ArchiveSinkBootstrapErrorCode, cause error) error {
	err := &ArchiveSinkBootstrapError{Code: code, Sink: sink, Cause: cause}
	log.Error("Archive sink bootstrap failed", "sink", sink, "error_code", code, "error", cause)
	return err
}
