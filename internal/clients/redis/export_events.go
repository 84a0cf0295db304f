package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursepack/internal/platform/logger"
)

const DefaultChannel = "course-exports"

type EventType string

const (
	EventStarted   EventType = "export.started"
	EventSucceeded EventType = "export.succeeded"
	EventFailed    EventType = "export.failed"
)

// ExportEvent describes one step of an export's lifecycle.
type ExportEvent struct {
	Type      EventType `json:"type"`
	CourseID  string    `json:"course_id"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename,omitempty"`
	Size      int64     `json:"size,omitempty"`
	Location  string    `json:"location,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ExportEventBus interface {
	Publish(ctx context.Context, ev ExportEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev ExportEvent)) error
	Close() error
}

type Config struct {
	Addr     string
	Password string
	Channel  string
}

type exportEventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewExportEventBus connects to redis and verifies the connection. An empty
// Addr yields a bus that drops every event.
func NewExportEventBus(log *logger.Logger, cfg Config) (ExportEventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return NopBus{}, nil
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &exportEventBus{
		log:     log.With("service", "RedisExportEventBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *exportEventBus) Publish(ctx context.Context, ev ExportEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis export event bus not initialized")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *exportEventBus) StartForwarder(ctx context.Context, onEvent func(ev ExportEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis export event bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev ExportEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad redis export event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (b *exportEventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// NopBus drops events; used when redis is not configured.
type NopBus struct{}

func (NopBus) Publish(context.Context, ExportEvent) error { return nil }

func (NopBus) StartForwarder(context.Context, func(ExportEvent)) error {
	return fmt.Errorf("export events are disabled (REDIS_ADDR not set)")
}

func (NopBus) Close() error { return nil }
