// Command packcourse builds a course package from a JSON course file without a
// database, or tails export lifecycle events from redis.
//
//	packcourse build -in course.json -format scorm2004 -out ./dist
//	packcourse watch
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yungbote/coursepack/internal/app"
	"github.com/yungbote/coursepack/internal/clients/redis"
	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/platform/logger"
	"github.com/yungbote/coursepack/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "formats":
		err = runFormats()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "packcourse: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: packcourse <build|watch|formats> [flags]")
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("in", "", "course JSON file (required)")
	format := fs.String("format", string(export.FormatSCORM12), "scorm12, scorm2004 or xapi")
	optsPath := fs.String("options", "", "package options JSON file")
	out := fs.String("out", ".", "directory the archive is written to")
	concurrency := fs.Int("concurrency", 4, "module pages rendered in parallel")
	logMode := fs.String("log", "test", "log mode (development, production, test)")
	_ = fs.Parse(args)

	if *in == "" {
		fs.Usage()
		return fmt.Errorf("-in is required")
	}
	var data export.CourseData
	if err := readJSON(*in, &data); err != nil {
		return err
	}
	req := export.Request{Format: export.Format(*format)}
	if *optsPath != "" {
		if err := readJSON(*optsPath, &req.Options); err != nil {
			return err
		}
	}

	log, err := logger.New(*logMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	root, err := filepath.Abs(*out)
	if err != nil {
		return err
	}
	svc := services.NewExportService(log, services.ExportServiceDeps{
		Emitters: app.NewEmitters(log, app.Config{WorkspaceRoot: root, RenderConcurrency: *concurrency}),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := svc.ExportCourse(ctx, &data, req)
	if res.Success {
		final := filepath.Join(root, res.Filename)
		if err := os.Rename(res.PackagePath, final); err != nil {
			return fmt.Errorf("rename package: %w", err)
		}
		res.PackagePath = final
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%s", res.Message)
	}
	return nil
}

func runWatch(args []string) error {
	cfg := app.LoadConfig()
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := fs.String("addr", cfg.Redis.Addr, "redis address (defaults to REDIS_ADDR)")
	channel := fs.String("channel", cfg.Redis.Channel, "redis channel")
	_ = fs.Parse(args)

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	bus, err := redis.NewExportEventBus(log, redis.Config{Addr: *addr, Password: cfg.Redis.Password, Channel: *channel})
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	if err := bus.StartForwarder(ctx, func(ev redis.ExportEvent) {
		_ = enc.Encode(ev)
	}); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func runFormats() error {
	svc := services.NewExportService(logger.Nop(), services.ExportServiceDeps{})
	formats, err := svc.Formats()
	if err != nil {
		return err
	}
	for _, f := range formats {
		fmt.Printf("%-10s %s\n", f.ID, f.Name)
	}
	return nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
