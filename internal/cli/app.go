package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/audit"
	"github.com/ksyq12/vhostctl/internal/config"
	"github.com/ksyq12/vhostctl/internal/docroot"
	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/executor"
	"github.com/ksyq12/vhostctl/internal/metrics"
	"github.com/ksyq12/vhostctl/internal/portpool"
	"github.com/ksyq12/vhostctl/internal/render"
	"github.com/ksyq12/vhostctl/internal/siteconf"
	"github.com/ksyq12/vhostctl/internal/store"
	"github.com/ksyq12/vhostctl/internal/store/filestore"
	"github.com/ksyq12/vhostctl/internal/store/redisstore"
	"github.com/ksyq12/vhostctl/internal/vhost"
)

// App is the orchestrator wired for one command invocation.
type App struct {
	Config      *config.Config
	Service     *vhost.Service
	Store       store.Store
	Metrics     *metrics.Metrics
	Directories *docroot.Manager
	Configs     *siteconf.Manager

	events  *audit.Dispatcher
	history historyReader
	closers []func() error
}

// historyReader returns recorded events for hostID (0 for all), oldest first.
type historyReader func(ctx context.Context, hostID int64, limit int) ([]audit.Event, error)

// Events returns up to limit of the newest recorded events for hostID.
func (a *App) Events(ctx context.Context, hostID int64, limit int) ([]audit.Event, error) {
	if a.history == nil {
		return nil, errors.Validation("The audit log is disabled (audit.sink is none).")
	}
	events, err := a.history(ctx, hostID, limit)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Close flushes pending events and releases the store.
func (a *App) Close() error {
	var first error
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			first = err
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type buildOptions struct {
	controller driver.Controller
	exec       executor.CommandExecutor
	registry   *prometheus.Registry
	logger     *zap.Logger
}

func buildApp(cfg *config.Config, opts buildOptions) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}

	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	var client *redis.Client
	switch cfg.Store.Driver {
	case config.StoreRedis:
		rs, err := redisstore.Open(cfg.Store.RedisURL, cfg.Store.RedisPrefix)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, "invalid store.redis_url", err)
		}
		client = rs.Client()
		app.Store = rs
	default:
		fs, err := filestore.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		app.Store = fs
	}
	app.closers = append(app.closers, app.Store.Close)

	renderer, err := render.New(cfg.Driver)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "no templates for driver "+cfg.Driver, err)
	}
	app.Directories = docroot.New(cfg.Paths.ContentRoot, renderer)
	app.Configs = siteconf.New(cfg.Paths.Available, cfg.Paths.Enabled, renderer)

	web := opts.controller
	if web == nil {
		ctrl, err := driver.New(cfg.Driver, cfg.Webserver.Commands, opts.exec, cfg.Webserver.TimeoutDuration())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, "invalid webserver commands", err)
		}
		web = ctrl
	}

	sink, err := app.openSink(cfg, client)
	if err != nil {
		return nil, err
	}
	app.events = audit.NewDispatcher(sink, cfg.Audit.Buffer, opts.logger)
	app.Metrics = metrics.New(opts.registry)

	app.Service = vhost.New(vhost.Deps{
		Store:       app.Store,
		Ports:       portpool.New(cfg.PortFloor),
		Directories: app.Directories,
		Configs:     app.Configs,
		Webserver:   web,
		Events:      app.events,
		Metrics:     app.Metrics,
		Logger:      opts.logger,
		PerPage:     cfg.Server.PerPage,
	})
	return app, nil
}

// openSink builds the configured audit sink. A redis sink shares the store's
// client when the store is redis too.
func (a *App) openSink(cfg *config.Config, client *redis.Client) (audit.Sink, error) {
	switch cfg.Audit.Sink {
	case config.SinkFile:
		fs := audit.NewFileSink(cfg.Audit.Path)
		a.history = func(ctx context.Context, hostID int64, limit int) ([]audit.Event, error) {
			return fs.Events(hostID)
		}
		return fs, nil
	case config.SinkRedis:
		if client == nil {
			opt, err := redis.ParseURL(cfg.Store.RedisURL)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfig, "invalid store.redis_url", err)
			}
			client = redis.NewClient(opt)
			a.closers = append(a.closers, client.Close)
		}
		rs := audit.NewRedisSink(client, cfg.Audit.Stream)
		a.history = func(ctx context.Context, hostID int64, limit int) ([]audit.Event, error) {
			count := int64(audit.DefaultMaxLen)
			if hostID == 0 && limit > 0 {
				count = int64(limit)
			}
			events, err := rs.Events(ctx, count)
			if err != nil {
				return nil, err
			}
			if hostID == 0 {
				return events, nil
			}
			matched := events[:0]
			for _, e := range events {
				if e.HostID == hostID {
					matched = append(matched, e)
				}
			}
			return matched, nil
		}
		return rs, nil
	case config.SinkNone:
		return audit.NopSink{}, nil
	default:
		return nil, errors.Wrap(errors.ErrCodeConfig, fmt.Sprintf("unknown audit sink %q", cfg.Audit.Sink), nil)
	}
}
