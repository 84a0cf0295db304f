package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/coursepack/internal/clients/redis"
	"github.com/yungbote/coursepack/internal/data/db"
	"github.com/yungbote/coursepack/internal/platform/envutil"
	"github.com/yungbote/coursepack/internal/platform/sftpclient"
)

const (
	ArchiveSinkNone = "none"
	ArchiveSinkGCS  = "gcs"
	ArchiveSinkSFTP = "sftp"
)

type Config struct {
	LogMode     string
	Port        string
	Environment string
	Version     string
	CORSOrigins []string

	DB          db.Config
	AutoMigrate bool

	WorkspaceRoot     string
	RenderConcurrency int
	ArchiveSink       string
	SFTP              sftpclient.Config

	Redis redis.Config
}

func LoadConfig() Config {
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", "postgres"),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "coursepack"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath: envutil.String("SQLITE_PATH", ""),
		},
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),

		WorkspaceRoot:     envutil.String("EXPORT_WORKSPACE_ROOT", filepath.Join(os.TempDir(), "coursepack-exports")),
		RenderConcurrency: envutil.Int("EXPORT_RENDER_CONCURRENCY", 4),
		ArchiveSink:       strings.ToLower(envutil.String("EXPORT_ARCHIVE_SINK", ArchiveSinkNone)),
		SFTP: sftpclient.Config{
			Host:           envutil.String("SFTP_HOST", ""),
			Port:           envutil.Int("SFTP_PORT", 22),
			User:           envutil.String("SFTP_USER", ""),
			Pass:           envutil.String("SFTP_PASS", ""),
			RemoteDir:      envutil.String("SFTP_REMOTE_DIR", "/"),
			KnownHostsFile: envutil.String("SFTP_KNOWN_HOSTS", ""),
		},

		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			Channel:  envutil.String("REDIS_CHANNEL", redis.DefaultChannel),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
