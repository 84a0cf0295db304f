// Package xapi builds xAPI (Tin Can) packages: a tincan.xml descriptor, HTML
// pages and a browser runtime that records statements locally and forwards
// them to the configured LRS.
package xapi

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/modules/export/markup"
	"github.com/yungbote/coursepack/internal/modules/export/workspace"
	"github.com/yungbote/coursepack/internal/observability"
	"github.com/yungbote/coursepack/internal/platform/logger"
)

var (
	//go:embed assets/tincan-min.js
	tincanJS string
	//go:embed assets/xapi-wrapper.js
	wrapperJS string
)

const defaultConcurrency = 4

type Emitter struct {
	manager     *workspace.Manager
	log         *logger.Logger
	concurrency int
	now         func() time.Time
}

var _ export.Emitter = (*Emitter)(nil)

func NewEmitter(manager *workspace.Manager, log *logger.Logger, concurrency int) *Emitter {
	if log == nil {
		log = logger.Nop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Emitter{
		manager:     manager,
		log:         log.With("service", "XAPIEmitter"),
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (e *Emitter) CreatePackage(ctx context.Context, data *export.CourseData, opts export.PackageOptions) *export.PackageResult {
	if data == nil {
		return export.Failed("Failed to create xAPI package", fmt.Errorf("course data is required"))
	}
	opts = opts.WithDefaults(data.Course)

	ctx, span := observability.StartSpan(ctx, "xapi.CreatePackage",
		attribute.String("course.id", data.Course.ID),
		attribute.String("xapi.activity_id", opts.ActivityID),
		attribute.Int("modules", len(data.Modules)),
	)
	zipPath, err := e.build(ctx, data, opts)
	observability.EndSpan(span, err)
	if err != nil {
		e.log.Error("xAPI package failed", "course_id", data.Course.ID, "error", err)
		return export.Failed("Failed to create xAPI package", err)
	}

	filename := ZipName(opts)
	e.log.Info("xAPI package created", "course_id", data.Course.ID, "activity_id", opts.ActivityID, "filename", filename)
	return export.Succeeded(zipPath, filename, workspace.PackageSize(zipPath), "xAPI package created successfully")
}

func (e *Emitter) build(ctx context.Context, data *export.CourseData, opts export.PackageOptions) (string, error) {
	ws := e.manager.New()
	defer ws.Cleanup()
	if err := ws.EnsureDirectories(); err != nil {
		return "", err
	}

	quizDirs := markup.QuizDirs(data.Quizzes)
	cfg := newLaunchConfig(data, opts)

	if err := ws.WriteFile(descriptorFile, BuildDescriptor(data, opts, quizDirs)); err != nil {
		return "", err
	}
	for rel, content := range map[string]string{
		tincanScriptPath:  tincanJS,
		wrapperScriptPath: wrapperJS,
		commonCSSPath:     markup.CommonCSS,
	} {
		if err := ws.WriteFile(rel, content); err != nil {
			return "", err
		}
	}
	launch, err := renderLaunchPage(data, opts, cfg, quizDirs)
	if err != nil {
		return "", err
	}
	if err := ws.WriteFile(launchPage, launch); err != nil {
		return "", err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, m := range data.Modules {
		n, m := i+1, m
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("render module %d: %v", n, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := renderModulePage(n, len(data.Modules), m, opts, cfg)
			if err != nil {
				return err
			}
			return ws.WriteFile(modulePagePath(n), page)
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	for i, q := range data.Quizzes {
		page, err := renderQuizPage(q, quizDirs[i], opts, cfg)
		if err != nil {
			return "", err
		}
		if err := ws.WriteFile(quizPagePath(quizDirs[i]), page); err != nil {
			return "", err
		}
	}

	samples, err := sampleStatementsJSON(SampleStatements(data, opts, quizDirs, e.now()))
	if err != nil {
		return "", err
	}
	if err := ws.WriteFile(sampleStatementsFile, samples); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ws.CreateZipPackage(ZipName(opts))
}

// ZipName is "<title>_xAPI.zip" with the title made filename safe.
func ZipName(opts export.PackageOptions) string {
	title := workspace.SanitizeFilename(opts.Title)
	if title == "" {
		title = "course"
	}
	return title + "_xAPI.zip"
}
