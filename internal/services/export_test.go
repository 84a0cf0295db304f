package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/coursepack/internal/clients/redis"
	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/domain/export/exporttest"
	"github.com/yungbote/coursepack/internal/modules/export/scorm"
	"github.com/yungbote/coursepack/internal/modules/export/workspace"
	"github.com/yungbote/coursepack/internal/modules/export/xapi"
	"github.com/yungbote/coursepack/internal/observability"
	pkgerrors "github.com/yungbote/coursepack/internal/pkg/errors"
	"github.com/yungbote/coursepack/internal/platform/logger"
	"github.com/yungbote/coursepack/internal/platform/sftpclient"
)

type fakeEmitter struct {
	calls int
	opts  export.PackageOptions
	panic bool
}

func (f *fakeEmitter) CreatePackage(_ context.Context, _ *export.CourseData, opts export.PackageOptions) *export.PackageResult {
	f.calls++
	f.opts = opts
	if f.panic {
		panic("boom")
	}
	return export.Succeeded("/tmp/x.zip", "x.zip", 10, "ok")
}

type fakeSource struct {
	data map[string]*export.CourseData
}

func (f fakeSource) LoadCourseData(_ context.Context, id string) (*export.CourseData, error) {
	d, ok := f.data[id]
	if !ok {
		return nil, fmt.Errorf("course %s: %w", id, pkgerrors.ErrNotFound)
	}
	return d, nil
}

type recordingBus struct {
	redis.NopBus
	mu     sync.Mutex
	events []redis.ExportEvent
}

func (b *recordingBus) Publish(_ context.Context, ev redis.ExportEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

type fakeSink struct {
	delivered []string
	err       error
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Deliver(_ context.Context, localPath, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.delivered = append(f.delivered, localPath)
	return "fake://" + filename, nil
}

func realService(t *testing.T) (ExportService, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "exports")
	manager := workspace.NewManager(root, logger.Nop())
	svc := NewExportService(logger.Nop(), ExportServiceDeps{
		Emitters: map[export.Format]export.Emitter{
			export.FormatSCORM12:   scorm.NewEmitter(manager, logger.Nop(), 2),
			export.FormatSCORM2004: scorm.NewEmitter(manager, logger.Nop(), 2),
			export.FormatXAPI:      xapi.NewEmitter(manager, logger.Nop(), 2),
		},
	})
	return svc, root
}

func intPtr(v int) *int { return &v }

func TestExportCourseScenarioC(t *testing.T) {
	svc, root := realService(t)
	data := exporttest.Course(0, 0)

	res := svc.ExportCourse(context.Background(), data, export.Request{Format: export.FormatSCORM12})
	if res.Success {
		t.Fatalf("expected failure")
	}
	found := false
	for _, e := range res.Errors {
		if strings.EqualFold(e, "at least one module is required") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing module error in %v", res.Errors)
	}
	var verr *export.ValidationError
	if !errors.As(res.Err, &verr) {
		t.Fatalf("expected ValidationError, got %T", res.Err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("workspace root should not exist, stat err=%v", err)
	}
}

func TestExportCourseScenarioD(t *testing.T) {
	svc, root := realService(t)
	req := export.Request{Format: export.FormatSCORM2004, Options: export.PackageOptions{MasteryScore: intPtr(150)}}

	res := svc.ExportCourse(context.Background(), exporttest.Course(1, 1), req)
	if res.Success {
		t.Fatalf("expected failure")
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Mastery score must be between 0 and 100" {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if res.PackagePath != "" {
		t.Fatalf("no package should be produced")
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("no workspace should be created")
	}
}

func TestValidationCollectsEveryDefect(t *testing.T) {
	svc, _ := realService(t)
	data := exporttest.Course(3, 1)
	data.Modules[0].Title = ""
	data.Modules[2].Title = "  "
	data.Quizzes = []export.Quiz{{Title: "Quiz", Questions: []export.Question{{Text: ""}}}}

	res := svc.ExportCourse(context.Background(), data, export.Request{Format: export.FormatXAPI})
	if res.Success {
		t.Fatalf("expected failure")
	}
	want := []string{
		"Module 1: title is required",
		"Module 3: title is required",
		"Quiz 1, question 1: text is required",
	}
	if strings.Join(res.Errors, "|") != strings.Join(want, "|") {
		t.Fatalf("errors = %v, want %v", res.Errors, want)
	}
}

func TestValidateCourse(t *testing.T) {
	data := exporttest.Course(2, 1)
	data.Course.Title = ""
	data.Course.Instructor.ID = ""
	data.Modules[1].Chapters = nil
	data.Modules[0].Chapters[0].Title = ""
	data.Quizzes = []export.Quiz{{Title: ""}}

	got := ValidateCourse(data)
	want := []string{
		"Course title is required",
		"Course instructor is required",
		"Module 1, chapter 1: title is required",
		"Module 2: at least one chapter is required",
		"Quiz 1: title is required",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := ValidateCourse(nil); len(got) != 1 {
		t.Fatalf("nil data: %v", got)
	}
	if got := ValidateCourse(exporttest.Full()); len(got) != 0 {
		t.Fatalf("full course should be valid: %v", got)
	}
}

func TestValidateRequest(t *testing.T) {
	cases := []struct {
		name string
		req  export.Request
		want int
	}{
		{"defaults scorm12", export.Request{Format: export.FormatSCORM12}, 0},
		{"unknown format", export.Request{Format: "pdf"}, 1},
		{"mastery negative", export.Request{Format: export.FormatSCORM12, Options: export.PackageOptions{MasteryScore: intPtr(-1)}}, 1},
		{"mastery bounds", export.Request{Format: export.FormatSCORM12, Options: export.PackageOptions{MasteryScore: intPtr(100)}}, 0},
		{"mastery ignored for xapi", export.Request{Format: export.FormatXAPI, Options: export.PackageOptions{MasteryScore: intPtr(500)}}, 0},
		{"duration ok", export.Request{Format: export.FormatSCORM2004, Options: export.PackageOptions{MaxTimeAllowed: "PT1H30M"}}, 0},
		{"duration days", export.Request{Format: export.FormatSCORM2004, Options: export.PackageOptions{MaxTimeAllowed: "P1DT2H"}}, 0},
		{"duration bad", export.Request{Format: export.FormatSCORM2004, Options: export.PackageOptions{MaxTimeAllowed: "2 hours"}}, 1},
		{"duration empty T", export.Request{Format: export.FormatSCORM2004, Options: export.PackageOptions{MaxTimeAllowed: "PT"}}, 1},
		{"time limit action", export.Request{Format: export.FormatSCORM12, Options: export.PackageOptions{TimeLimitAction: "exit,message"}}, 0},
		{"time limit action bad", export.Request{Format: export.FormatSCORM12, Options: export.PackageOptions{TimeLimitAction: "stop"}}, 1},
		{"xapi urls ok", export.Request{Format: export.FormatXAPI, Options: export.PackageOptions{ActivityID: "https://x.org/c/1", Endpoint: "https://lrs.x.org/xapi/"}}, 0},
		{"xapi urls bad", export.Request{Format: export.FormatXAPI, Options: export.PackageOptions{ActivityID: "not a url", Endpoint: "lrs.example.org"}}, 2},
	}
	for _, tc := range cases {
		if got := ValidateRequest(tc.req); len(got) != tc.want {
			t.Fatalf("%s: got %v, want %d errors", tc.name, got, tc.want)
		}
	}
}

func TestValidateRequestMessages(t *testing.T) {
	cases := []struct {
		req  export.Request
		want string
	}{
		{export.Request{Format: "pdf"}, `unsupported export format "pdf"`},
		{export.Request{Format: export.FormatSCORM12, Options: export.PackageOptions{MaxTimeAllowed: " 2 hours "}}, `Max time allowed "2 hours" is not an ISO 8601 duration`},
		{export.Request{Format: export.FormatSCORM2004, Options: export.PackageOptions{TimeLimitAction: "stop"}}, "Time limit action must be one of: exit,message; exit,no message; continue,message; continue,no message"},
		{export.Request{Format: export.FormatXAPI, Options: export.PackageOptions{Endpoint: "lrs.example.org"}}, "Endpoint must be a valid URL"},
	}
	for _, tc := range cases {
		got := ValidateRequest(tc.req)
		if len(got) != 1 || got[0] != tc.want {
			t.Fatalf("%+v: got %v, want %q", tc.req, got, tc.want)
		}
	}
}

func TestValidateCourseBlankTitles(t *testing.T) {
	data := exporttest.Course(1, 2)
	data.Modules[0].Chapters[1].Title = "\t "
	data.Course.Instructor.ID = " "
	got := ValidateCourse(data)
	want := []string{"Course instructor is required", "Module 1, chapter 2: title is required"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExportCourseUnsupportedFormat(t *testing.T) {
	em := &fakeEmitter{}
	svc := NewExportService(logger.Nop(), ExportServiceDeps{Emitters: map[export.Format]export.Emitter{export.FormatXAPI: em}})
	res := svc.ExportCourse(context.Background(), exporttest.Course(1, 1), export.Request{Format: "cmi5"})
	var uerr *export.UnsupportedFormatError
	if res.Success || !errors.As(res.Err, &uerr) || uerr.Format != "cmi5" {
		t.Fatalf("expected unsupported format failure, got %+v", res)
	}
	if len(res.Errors) != 1 || em.calls != 0 {
		t.Fatalf("unexpected errors=%v calls=%d", res.Errors, em.calls)
	}
}

func TestExportCourseInjectsScormVersion(t *testing.T) {
	em := &fakeEmitter{}
	svc := NewExportService(logger.Nop(), ExportServiceDeps{Emitters: map[export.Format]export.Emitter{export.FormatSCORM2004: em}})
	req := export.Request{Format: export.FormatSCORM2004, Options: export.PackageOptions{ScormVersion: "1.2"}}
	if res := svc.ExportCourse(context.Background(), exporttest.Course(1, 1), req); !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	if em.opts.ScormVersion != export.ScormVersion2004 {
		t.Fatalf("scorm version = %q", em.opts.ScormVersion)
	}
}

func TestExportCourseRecoversPanics(t *testing.T) {
	em := &fakeEmitter{panic: true}
	svc := NewExportService(logger.Nop(), ExportServiceDeps{Emitters: map[export.Format]export.Emitter{export.FormatXAPI: em}})
	res := svc.ExportCourse(context.Background(), exporttest.Course(1, 1), export.Request{Format: export.FormatXAPI})
	if res == nil || res.Success {
		t.Fatalf("expected failure result, got %+v", res)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "boom") {
		t.Fatalf("panic not reported: %v", res.Errors)
	}
}

func TestExportCourseEndToEnd(t *testing.T) {
	svc, root := realService(t)
	for _, f := range []export.Format{export.FormatSCORM12, export.FormatSCORM2004, export.FormatXAPI} {
		res := svc.ExportCourse(context.Background(), exporttest.Full(), export.Request{Format: f})
		if !res.Success {
			t.Fatalf("%s: %+v", f, res)
		}
		if filepath.Dir(res.PackagePath) != root {
			t.Fatalf("%s: package outside root: %s", f, res.PackagePath)
		}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 archives and no workspaces, got %v", entries)
	}
	for _, e := range entries {
		if e.IsDir() {
			t.Fatalf("workspace left behind: %s", e.Name())
		}
	}
}

func TestExportCourseByIDNotFound(t *testing.T) {
	bus := &recordingBus{}
	svc := NewExportService(logger.Nop(), ExportServiceDeps{
		Source:   fakeSource{},
		Emitters: map[export.Format]export.Emitter{export.FormatXAPI: &fakeEmitter{}},
		Events:   bus,
	})
	res := svc.ExportCourseByID(context.Background(), "missing", export.Request{Format: export.FormatXAPI})
	if res.Success || !errors.Is(res.Err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %+v", res)
	}
	if len(bus.events) != 2 || bus.events[0].Type != redis.EventStarted || bus.events[1].Type != redis.EventFailed {
		t.Fatalf("unexpected events %+v", bus.events)
	}
}

func TestExportCourseByIDBlankID(t *testing.T) {
	svc := NewExportService(logger.Nop(), ExportServiceDeps{
		Source:   fakeSource{},
		Emitters: map[export.Format]export.Emitter{export.FormatXAPI: &fakeEmitter{}},
	})
	res := svc.ExportCourseByID(context.Background(), "  ", export.Request{Format: export.FormatXAPI})
	if res.Success || !errors.Is(res.Err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %+v", res)
	}
}

func TestExportCourseByIDDeliversAndPublishes(t *testing.T) {
	bus := &recordingBus{}
	sink := &fakeSink{}
	svc := NewExportService(logger.Nop(), ExportServiceDeps{
		Source:   fakeSource{data: map[string]*export.CourseData{"c-101": exporttest.Course(1, 1)}},
		Emitters: map[export.Format]export.Emitter{export.FormatSCORM12: &fakeEmitter{}},
		Sink:     sink,
		Events:   bus,
	})
	res := svc.ExportCourseByID(context.Background(), "c-101", export.Request{Format: export.FormatSCORM12})
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	if len(sink.delivered) != 1 || sink.delivered[0] != "/tmp/x.zip" {
		t.Fatalf("sink not used: %v", sink.delivered)
	}
	last := bus.events[len(bus.events)-1]
	if last.Type != redis.EventSucceeded || last.Location != "fake://x.zip" || last.Filename != "x.zip" {
		t.Fatalf("unexpected final event %+v", last)
	}
}

func TestExportCourseByIDSinkFailureKeepsResult(t *testing.T) {
	sink := &fakeSink{err: errors.New("bucket down")}
	svc := NewExportService(logger.Nop(), ExportServiceDeps{
		Source:   fakeSource{data: map[string]*export.CourseData{"c-101": exporttest.Course(1, 1)}},
		Emitters: map[export.Format]export.Emitter{export.FormatSCORM12: &fakeEmitter{}},
		Sink:     sink,
	})
	if res := svc.ExportCourseByID(context.Background(), "c-101", export.Request{Format: export.FormatSCORM12}); !res.Success {
		t.Fatalf("sink failure must not fail the export: %+v", res)
	}
}

func TestExportCourseRecordsMetrics(t *testing.T) {
	m := observability.NewMetrics()
	svc := NewExportService(logger.Nop(), ExportServiceDeps{
		Source:   fakeSource{data: map[string]*export.CourseData{"c-101": exporttest.Course(1, 1)}},
		Emitters: map[export.Format]export.Emitter{export.FormatXAPI: &fakeEmitter{}, export.FormatSCORM12: &fakeEmitter{panic: true}},
		Sink:     &fakeSink{},
		Metrics:  m,
	})
	svc.ExportCourseByID(context.Background(), "c-101", export.Request{Format: export.FormatXAPI})
	svc.ExportCourse(context.Background(), exporttest.Course(1, 1), export.Request{Format: export.FormatSCORM12})

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`cp_export_total{format="xapi",outcome="succeeded"} 1.000000`,
		`cp_export_total{format="scorm12",outcome="failed"} 1.000000`,
		`cp_archive_deliveries_total{sink="fake",status="ok"} 1.000000`,
		"cp_export_inflight 0.000000",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormats(t *testing.T) {
	svc := NewExportService(logger.Nop(), ExportServiceDeps{})
	got, err := svc.Formats()
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	if len(got) != 3 || got[0].ID != export.FormatSCORM12 || got[2].ID != export.FormatXAPI {
		t.Fatalf("unexpected catalog %+v", got)
	}
	for _, f := range got {
		if f.Name == "" || len(f.Features) == 0 {
			t.Fatalf("incomplete entry %+v", f)
		}
	}
}

func TestFormatsReturnsPrivateCopy(t *testing.T) {
	svc := NewExportService(logger.Nop(), ExportServiceDeps{})
	first, err := svc.Formats()
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	name, feature := first[0].Name, first[0].Features[0]
	first[0].Name = "mutated"
	first[0].Features[0] = "mutated"
	first = append(first[:0], first[2])

	again, err := svc.Formats()
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	if len(again) != 3 || again[0].Name != name || again[0].Features[0] != feature {
		t.Fatalf("catalog changed through a caller's slice: %+v", again)
	}
}

func TestParseFormatsRejectsUnknown(t *testing.T) {
	if _, err := parseFormats([]byte("formats:\n  - id: pdf\n    name: PDF\n")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := parseFormats([]byte("formats: []\n")); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
	if _, err := parseFormats([]byte("formats:\n  - id: xapi\n  - id: xapi\n")); err == nil {
		t.Fatalf("expected error for duplicates")
	}
}

func TestSFTPSinkLocation(t *testing.T) {
	var gotName string
	s := &sftpSink{
		cfg: sftpclient.Config{Host: "files.example.org", User: "u", Pass: "p", RemoteDir: "/exports"},
		upload: func(_ context.Context, _ sftpclient.Config, _, remoteName string) error {
			gotName = remoteName
			return nil
		},
	}
	loc, err := s.Deliver(context.Background(), "/tmp/a.zip", "a.zip")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if gotName != "a.zip" || loc != "sftp://files.example.org/exports/a.zip" {
		t.Fatalf("unexpected delivery name=%q loc=%q", gotName, loc)
	}
	if _, err := NewSFTPSink(sftpclient.Config{Host: "h"}); !errors.Is(err, sftpclient.ErrMissingConfig) {
		t.Fatalf("expected missing config error, got %v", err)
	}
}
