package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/plugindocs/internal/config"
	"git.home.luguber.info/inful/plugindocs/internal/fetch"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/metrics"
	"git.home.luguber.info/inful/plugindocs/internal/nav"
	"git.home.luguber.info/inful/plugindocs/internal/notify"
	"git.home.luguber.info/inful/plugindocs/internal/resolve"
	"git.home.luguber.info/inful/plugindocs/internal/retry"
	"git.home.luguber.info/inful/plugindocs/internal/version"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "PLUGINDOCS_LOG_LEVEL"

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"plugindocs.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Mode    string           `help:"Failure policy (production or development); overrides config and PLUGINDOCS_MODE"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Resolve ResolveCmd `cmd:"" help:"Resolve every plugin source and write the merged navigation tree"`
	Check   CheckCmd   `cmd:"" help:"Fetch and validate plugin sources without merging"`
	Pack    PackCmd    `cmd:"" help:"Build a docs archive from a git repository"`
	Serve   ServeCmd   `cmd:"" help:"Serve the merged tree for local development"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; sets up a default logger until the
// configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = NewLogger(c.Verbose, config.LoggingConfig{})
	slog.SetDefault(g.Logger)
	return nil
}

// NewLogger builds the process logger. -v wins over PLUGINDOCS_LOG_LEVEL,
// which wins over the configured level.
func NewLogger(verbose bool, lc config.LoggingConfig) *slog.Logger {
	level := lc.Level
	if env := strings.TrimSpace(os.Getenv(EnvLogLevel)); env != "" {
		level = config.NormalizeLogLevel(env)
	}
	if verbose {
		level = config.LogLevelDebug
	}
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the configuration and applies the --mode flag.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if root.Mode != "" {
		mode, err := config.NormalizeMode(root.Mode)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid --mode").Fatal().Build()
		}
		cfg.Mode = mode
	}
	g.Logger = NewLogger(root.Verbose, cfg.Logging)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// inputs are the files a resolution run reads before touching the network.
type inputs struct {
	local   []*nav.Node
	sources []config.Source
}

func loadInputs(cfg *config.Config) (*inputs, error) {
	local, err := nav.LoadFile(cfg.NavFile, nav.LoadOptions{ContentDir: cfg.ContentDir})
	if err != nil {
		return nil, err
	}
	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	return &inputs{local: local, sources: sources}, nil
}

// runtime carries the collaborators built from configuration.
type runtime struct {
	recorder  metrics.Recorder
	registry  *prom.Registry
	publisher notify.Publisher
}

func newRuntime(cfg *config.Config, logger *slog.Logger) *runtime {
	rt := &runtime{recorder: metrics.NoopRecorder{}, publisher: notify.NoopPublisher{}}
	if cfg.Metrics.Enabled {
		rt.registry = prom.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}
	if cfg.Notify.NATSURL != "" {
		p, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject, logger)
		if err != nil {
			// Notifications are best effort; resolution does not depend on them.
			logger.Warn("Report notifications disabled", "error", err)
		} else {
			rt.publisher = p
		}
	}
	return rt
}

func (rt *runtime) close() {
	_ = rt.publisher.Close()
}

func (rt *runtime) fetcher(cfg *config.Config, logger *slog.Logger) fetch.Fetcher {
	opts := []fetch.Option{
		fetch.WithAsset(cfg.GitHub.DocsAsset),
		fetch.WithUserAgent(version.UserAgent()),
		fetch.WithRateLimit(cfg.GitHub.RequestsPerSecond),
		fetch.WithRecorder(rt.recorder),
		fetch.WithLogger(logger),
	}
	if cfg.GitHub.Token != "" {
		opts = append(opts, fetch.WithToken(cfg.GitHub.Token))
	}
	if d := cfg.HTTPTimeout(); d > 0 {
		opts = append(opts, fetch.WithHTTPClient(&http.Client{Timeout: d}))
	}
	var f fetch.Fetcher = fetch.NewGitHubFetcher(cfg.GitHub.BaseURL, opts...)
	if cfg.GitHub.Retries > 0 {
		policy := retry.NewPolicy(retry.Backoff(cfg.GitHub.RetryBackoff), cfg.RetryDelay(), 0, cfg.GitHub.Retries)
		f = retry.NewFetcher(f, policy, logger)
	}
	return f
}

func (rt *runtime) resolver(cfg *config.Config, logger *slog.Logger, opts resolve.Options) *resolve.Resolver {
	return resolve.New(rt.fetcher(cfg, logger), opts,
		resolve.WithRecorder(rt.recorder),
		resolve.WithLogger(logger))
}

// publish sends the report when notifications are configured.
func (rt *runtime) publish(ctx context.Context, report *resolve.Report, logger *slog.Logger) {
	if report == nil {
		return
	}
	if err := rt.publisher.Publish(ctx, report); err != nil {
		logger.Warn("Failed to publish resolution report", "error", err)
	}
}
