package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/coursepack/internal/clients/redis"
	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/observability"
	pkgerrors "github.com/yungbote/coursepack/internal/pkg/errors"
	"github.com/yungbote/coursepack/internal/platform/logger"
)

// ExportSource loads the course tree for an export.
type ExportSource interface {
	LoadCourseData(ctx context.Context, courseID string) (*export.CourseData, error)
}

type ExportService interface {
	Validate(data *export.CourseData) []string
	ValidateRequest(req export.Request) []string
	// ExportCourse validates data and req, then builds the package. It never
	// panics and never returns nil.
	ExportCourse(ctx context.Context, data *export.CourseData, req export.Request) *export.PackageResult
	// ExportCourseByID loads the course first. A missing course yields a failed
	// result whose Err wraps errors.ErrNotFound.
	ExportCourseByID(ctx context.Context, courseID string, req export.Request) *export.PackageResult
	Formats() ([]export.FormatInfo, error)
}

type ExportServiceDeps struct {
	Source   ExportSource
	Emitters map[export.Format]export.Emitter
	Sink     ArchiveSink
	Events   redis.ExportEventBus
	Metrics  *observability.Metrics
}

type exportService struct {
	log      *logger.Logger
	source   ExportSource
	emitters map[export.Format]export.Emitter
	sink     ArchiveSink
	events   redis.ExportEventBus
	metrics  *observability.Metrics
}

func NewExportService(baseLog *logger.Logger, deps ExportServiceDeps) ExportService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	events := deps.Events
	if events == nil {
		events = redis.NopBus{}
	}
	return &exportService{
		log:      baseLog.With("service", "ExportService"),
		source:   deps.Source,
		emitters: deps.Emitters,
		sink:     deps.Sink,
		events:   events,
		metrics:  deps.Metrics,
	}
}

func (s *exportService) Validate(data *export.CourseData) []string {
	return ValidateCourse(data)
}

func (s *exportService) ValidateRequest(req export.Request) []string {
	return ValidateRequest(req)
}

func (s *exportService) Formats() ([]export.FormatInfo, error) {
	return loadFormats()
}

func (s *exportService) ExportCourse(ctx context.Context, data *export.CourseData, req export.Request) (res *export.PackageResult) {
	ctx, span := observability.StartSpan(ctx, "export.ExportCourse", attribute.String("export.format", string(req.Format)))
	defer func() {
		var err error
		if res != nil && !res.Success {
			err = res.Err
		}
		observability.EndSpan(span, err)
	}()

	reqErrs := s.ValidateRequest(req)
	errs := append(reqErrs, s.Validate(data)...)
	if !req.Format.Valid() {
		res = export.Failed("Unsupported export format", &export.UnsupportedFormatError{Format: string(req.Format)})
		res.Errors = errs
		return res
	}
	if len(errs) > 0 {
		s.log.Info("Export rejected", "format", req.Format, "errors", len(errs))
		return export.Failed("Validation failed", &export.ValidationError{Errors: errs})
	}

	emitter, ok := s.emitters[req.Format]
	if !ok || emitter == nil {
		return export.Failed("Unsupported export format", &export.UnsupportedFormatError{Format: string(req.Format)})
	}

	opts := req.Options
	if req.Format.IsSCORM() {
		opts.ScormVersion = req.Format.ScormVersion()
	}

	done := s.metrics.ExportStarted(string(req.Format))
	defer func() { done(res.Success, res.Size) }()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Emitter panicked", "format", req.Format, "course_id", data.Course.ID, "panic", r)
			res = export.Failed("Export failed", fmt.Errorf("internal error while building %s package: %v", req.Format, r))
		}
	}()
	res = emitter.CreatePackage(ctx, data, opts)
	if res == nil {
		res = export.Failed("Export failed", fmt.Errorf("%s emitter returned no result", req.Format))
	}
	return res
}

func (s *exportService) ExportCourseByID(ctx context.Context, courseID string, req export.Request) *export.PackageResult {
	s.publish(ctx, redis.ExportEvent{Type: redis.EventStarted, CourseID: courseID, Format: string(req.Format)})

	res := s.exportByID(ctx, courseID, req)

	ev := redis.ExportEvent{CourseID: courseID, Format: string(req.Format), Filename: res.Filename, Size: res.Size}
	if res.Success {
		ev.Type = redis.EventSucceeded
		ev.Location = s.deliver(ctx, res)
	} else {
		ev.Type = redis.EventFailed
		ev.Errors = res.Errors
	}
	s.publish(ctx, ev)
	return res
}

func (s *exportService) exportByID(ctx context.Context, courseID string, req export.Request) *export.PackageResult {
	if s.source == nil {
		return export.Failed("Export failed", errors.New("no course source configured"))
	}
	if strings.TrimSpace(courseID) == "" {
		return export.Failed("Course id is required", fmt.Errorf("course id: %w", pkgerrors.ErrInvalidArgument))
	}
	data, err := s.source.LoadCourseData(ctx, courseID)
	if err != nil {
		s.log.Warn("Load course failed", "course_id", courseID, "error", err)
		return export.Failed("Course could not be loaded", fmt.Errorf("load course %s: %w", courseID, err))
	}
	return s.ExportCourse(ctx, data, req)
}

// deliver copies the package to the archive sink and returns its location, or
// "" when there is no sink or delivery failed.
func (s *exportService) deliver(ctx context.Context, res *export.PackageResult) string {
	if s.sink == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	loc, err := s.sink.Deliver(ctx, res.PackagePath, res.Filename)
	s.metrics.ObserveDelivery(s.sink.Name(), err)
	if err != nil {
		s.log.Warn("Archive delivery failed", "sink", s.sink.Name(), "filename", res.Filename, "error", err)
		return ""
	}
	s.log.Info("Package archived", "sink", s.sink.Name(), "location", loc)
	return loc
}

func (s *exportService) publish(ctx context.Context, ev redis.ExportEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("Publish export event failed", "type", ev.Type, "course_id", ev.CourseID, "error", err)
	}
}
