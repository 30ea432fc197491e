package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/plugindocs/internal/config"
	"git.home.luguber.info/inful/plugindocs/internal/metrics"
	"git.home.luguber.info/inful/plugindocs/internal/preview"
	"git.home.luguber.info/inful/plugindocs/internal/resolve"
)

// ServeCmd implements the 'serve' command. It always runs in development
// mode so one broken plugin does not take the preview down.
type ServeCmd struct {
	Addr    string `help:"Listen address; defaults to preview.addr from the configuration"`
	NoWatch bool   `name:"no-watch" help:"Do not re-resolve when the nav or sources file changes"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	cfg.Mode = config.ModeDevelopment
	logger := g.Logger

	// Inputs are validated up front so configuration mistakes fail fast.
	if _, err := loadInputs(cfg); err != nil {
		return err
	}

	rt := newRuntime(cfg, logger)
	defer rt.close()

	build := func(ctx context.Context) (*resolve.Result, error) {
		in, err := loadInputs(cfg)
		if err != nil {
			return nil, err
		}
		result, err := rt.resolver(cfg, logger, resolve.OptionsFromConfig(cfg)).Resolve(ctx, in.local, in.sources)
		if result != nil {
			rt.publish(ctx, result.Report, logger)
		}
		return result, err
	}

	opts := []preview.Option{preview.WithLogger(logger)}
	if rt.registry != nil {
		opts = append(opts, preview.WithMetrics(cfg.Metrics.Path, metrics.HTTPHandler(rt.registry)))
	}
	srv := preview.NewServer(build, opts...)
	if err := srv.Refresh(ctx); err != nil {
		logger.Warn("Initial resolution failed; serving once a refresh succeeds", "error", err)
	}

	if cfg.Preview.Watch && !s.NoWatch {
		w, err := preview.NewWatcher([]string{cfg.NavFile, cfg.SourcesFile}, preview.DefaultDebounce, logger, func(ctx context.Context) {
			_ = srv.Refresh(ctx)
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
	}

	if interval := cfg.RefreshInterval(); interval > 0 {
		sched, err := preview.NewScheduler(logger)
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleRefresh(ctx, interval, srv); err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
		logger.Info("Periodic refresh enabled", slog.Duration("interval", interval))
	}

	addr := s.Addr
	if addr == "" {
		addr = cfg.Preview.Addr
	}
	return srv.ListenAndServe(ctx, addr)
}
