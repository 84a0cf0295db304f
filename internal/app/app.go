package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/coursepack/internal/clients/redis"
	"github.com/yungbote/coursepack/internal/data/db"
	"github.com/yungbote/coursepack/internal/data/repos/learning"
	"github.com/yungbote/coursepack/internal/domain/export"
	httpserver "github.com/yungbote/coursepack/internal/http"
	httpH "github.com/yungbote/coursepack/internal/http/handlers"
	"github.com/yungbote/coursepack/internal/modules/export/scorm"
	"github.com/yungbote/coursepack/internal/modules/export/workspace"
	"github.com/yungbote/coursepack/internal/modules/export/xapi"
	"github.com/yungbote/coursepack/internal/observability"
	"github.com/yungbote/coursepack/internal/platform/logger"
	"github.com/yungbote/coursepack/internal/services"
)

const serviceName = "coursepack"

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Router  *gin.Engine
	Cfg     Config
	Metrics *observability.Metrics
	Exports services.ExportService
	Events  redis.ExportEventBus

	dbService     *db.DatabaseService
	closeSink     func() error
	shutdownTrace func(context.Context) error
	cancel        context.CancelFunc
}

func New() (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	ctx := context.Background()

	shutdownTrace := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	dbService, err := db.NewDatabaseService(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(dbService.DB()); err != nil {
			_ = dbService.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	events, err := redis.NewExportEventBus(log, cfg.Redis)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("init export event bus: %w", err)
	}

	sink, closeSink, err := resolveArchiveSink(ctx, log, cfg)
	if err != nil {
		_ = events.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	exports := services.NewExportService(log, services.ExportServiceDeps{
		Source:   learning.NewCourseExportRepo(dbService.DB(), log),
		Emitters: NewEmitters(log, cfg),
		Sink:     sink,
		Events:   events,
		Metrics:  metrics,
	})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Log:           log,
		ServiceName:   serviceName,
		CORSOrigins:   cfg.CORSOrigins,
		Metrics:       metrics,
		ExportHandler: httpH.NewExportHandler(log, exports),
		HealthHandler: httpH.NewHealthHandler(httpH.HealthCheck{Name: "database", Check: dbService.Ping}),
	})

	return &App{
		Log:           log,
		DB:            dbService.DB(),
		Router:        router,
		Cfg:           cfg,
		Metrics:       metrics,
		Exports:       exports,
		Events:        events,
		dbService:     dbService,
		closeSink:     closeSink,
		shutdownTrace: shutdownTrace,
	}, nil
}

// NewEmitters builds one emitter per supported format, all sharing a single
// workspace root.
func NewEmitters(log *logger.Logger, cfg Config) map[export.Format]export.Emitter {
	manager := workspace.NewManager(cfg.WorkspaceRoot, log)
	return map[export.Format]export.Emitter{
		export.FormatSCORM12:   scorm.NewEmitter(manager, log, cfg.RenderConcurrency),
		export.FormatSCORM2004: scorm.NewEmitter(manager, log, cfg.RenderConcurrency),
		export.FormatXAPI:      xapi.NewEmitter(manager, log, cfg.RenderConcurrency),
	}
}

// Start launches the background collectors. It is a no-op when already started.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Redis.Addr, a.Cfg.Redis.Password)
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &httpserver.Server{Engine: a.Router}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return srv.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.closeSink != nil {
		if err := a.closeSink(); err != nil {
			a.Log.Warn("Close archive sink failed", "error", err)
		}
	}
	if a.Events != nil {
		_ = a.Events.Close()
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.shutdownTrace != nil {
		_ = a.shutdownTrace(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
