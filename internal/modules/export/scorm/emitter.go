// Package scorm builds SCORM 1.2 and SCORM 2004 content packages.
package scorm

import (
	"context"
	_ "embed"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/modules/export/markup"
	"github.com/yungbote/coursepack/internal/modules/export/workspace"
	"github.com/yungbote/coursepack/internal/observability"
	"github.com/yungbote/coursepack/internal/platform/logger"
)

// apiShimJS discovers the LMS runtime (API or API_1484_11) and exposes
// ScormAPI/ScormPage to the generated pages.
//
//go:embed assets/scorm_api.js
var apiShimJS string

const defaultConcurrency = 4

type Emitter struct {
	manager     *workspace.Manager
	log         *logger.Logger
	concurrency int
}

var _ export.Emitter = (*Emitter)(nil)

func NewEmitter(manager *workspace.Manager, log *logger.Logger, concurrency int) *Emitter {
	if log == nil {
		log = logger.Nop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Emitter{manager: manager, log: log.With("service", "ScormEmitter"), concurrency: concurrency}
}

// CreatePackage writes a complete SCORM package for data and zips it next to
// the workspace root. Options are expected to be defaulted; ScormVersion
// selects the manifest dialect. The workspace is removed on every path.
func (e *Emitter) CreatePackage(ctx context.Context, data *export.CourseData, opts export.PackageOptions) *export.PackageResult {
	if data == nil {
		return export.Failed("Failed to create SCORM package", fmt.Errorf("course data is required"))
	}
	opts = opts.WithDefaults(data.Course)
	if opts.ScormVersion != export.ScormVersion2004 {
		opts.ScormVersion = export.ScormVersion12
	}

	ctx, span := observability.StartSpan(ctx, "scorm.CreatePackage",
		attribute.String("course.id", data.Course.ID),
		attribute.String("scorm.version", opts.ScormVersion),
		attribute.Int("modules", len(data.Modules)),
	)
	zipPath, err := e.build(ctx, data, opts)
	observability.EndSpan(span, err)
	if err != nil {
		e.log.Error("SCORM package failed", "course_id", data.Course.ID, "version", opts.ScormVersion, "error", err)
		return export.Failed("Failed to create SCORM package", err)
	}

	filename := ZipName(opts)
	e.log.Info("SCORM package created", "course_id", data.Course.ID, "version", opts.ScormVersion, "filename", filename)
	return export.Succeeded(zipPath, filename, workspace.PackageSize(zipPath),
		fmt.Sprintf("SCORM %s package created successfully", opts.ScormVersion))
}

func (e *Emitter) build(ctx context.Context, data *export.CourseData, opts export.PackageOptions) (string, error) {
	ws := e.manager.New()
	defer ws.Cleanup()
	if err := ws.EnsureDirectories(); err != nil {
		return "", err
	}

	quizDirs := markup.QuizDirs(data.Quizzes)
	if err := ws.WriteFile(manifestFile, BuildManifest(data, opts, quizDirs)); err != nil {
		return "", err
	}
	if err := ws.WriteFile(apiScriptPath, apiShimJS); err != nil {
		return "", err
	}
	if err := ws.WriteFile(commonCSSPath, markup.CommonCSS); err != nil {
		return "", err
	}
	if err := ws.WriteFile(launchPage, renderLaunchPage(data, opts, quizDirs)); err != nil {
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
			dir := moduleDir(n)
			if err := ws.WriteFile(dir+"/index.html", renderModulePage(n, len(data.Modules), m, opts)); err != nil {
				return err
			}
			return ws.WriteFile(dir+"/style.css", moduleStyle(n))
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	for i, q := range data.Quizzes {
		page, err := renderQuizPage(q, opts)
		if err != nil {
			return "", err
		}
		if err := ws.WriteFile("assessments/"+quizDirs[i]+"/index.html", page); err != nil {
			return "", err
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ws.CreateZipPackage(ZipName(opts))
}

// ZipName is "<title>_SCORM_<version>.zip" with the title made filename safe.
func ZipName(opts export.PackageOptions) string {
	title := workspace.SanitizeFilename(opts.Title)
	if title == "" {
		title = "course"
	}
	return fmt.Sprintf("%s_SCORM_%s.zip", title, opts.ScormVersion)
}
