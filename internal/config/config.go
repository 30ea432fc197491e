package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
)

// Config is the plugindocs tool configuration.
type Config struct {
	Mode        Mode   `yaml:"mode"`
	NavFile     string `yaml:"nav_file" validate:"required"`
	SourcesFile string `yaml:"sources_file" validate:"required"`
	// ContentDir is the local content root local leaves are resolved against.
	ContentDir   string        `yaml:"content_dir,omitempty"`
	Output       string        `yaml:"output,omitempty"`
	DocsRoot     string        `yaml:"docs_root,omitempty" validate:"omitempty,excludesall=/"`
	TrustedOwner string        `yaml:"trusted_owner,omitempty"`
	Concurrency  int           `yaml:"concurrency,omitempty" validate:"gte=1,lte=64"`
	GitHub       GitHubConfig  `yaml:"github"`
	Logging      LoggingConfig `yaml:"logging,omitempty"`
	Preview      PreviewConfig `yaml:"preview,omitempty"`
	Metrics      MetricsConfig `yaml:"metrics,omitempty"`
	Notify       NotifyConfig  `yaml:"notify,omitempty"`
}

// GitHubConfig describes the host serving release assets and source archives.
type GitHubConfig struct {
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	Token     string `yaml:"token,omitempty"`
	DocsAsset string `yaml:"docs_asset" validate:"required"`
	// RequestsPerSecond limits outbound fetches; zero disables the limit.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" validate:"gte=0"`
	// Timeout is an optional per-request timeout (Go duration). Empty means
	// the transport default.
	Timeout string `yaml:"timeout,omitempty"`
	// Retries re-attempts transient fetch failures; zero fails on the first.
	Retries      int    `yaml:"retries,omitempty" validate:"gte=0,lte=10"`
	RetryBackoff string `yaml:"retry_backoff,omitempty" validate:"omitempty,oneof=fixed linear exponential"`
	// RetryDelay is the initial backoff delay (Go duration), 1s when empty.
	RetryDelay string `yaml:"retry_delay,omitempty"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// PreviewConfig configures the development preview server.
type PreviewConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// RefreshInterval re-resolves the tree periodically (Go duration). Empty disables it.
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
	Watch           bool   `yaml:"watch,omitempty"`
}

// MetricsConfig enables the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// NotifyConfig publishes resolution reports to NATS when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// EnvMode overrides the configured mode.
const EnvMode = "PLUGINDOCS_MODE"

var validate = newValidator()

// Load loads and validates the configuration file. Every failure is a fatal
// ConfigError raised before any network activity.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "configuration file not readable").
			Fatal().
			WithContext("file", configPath).
			Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		if c, ok := errors.AsClassified(err); ok {
			return nil, c.WithContext("file", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration bytes, expanding ${VAR} references, applying
// defaults and the PLUGINDOCS_MODE override, then validating.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	if env := strings.TrimSpace(os.Getenv(EnvMode)); env != "" {
		cfg.Mode = Mode(env)
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) error {
	mode, err := NormalizeMode(string(cfg.Mode))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid mode").Fatal().Build()
	}
	cfg.Mode = mode
	if cfg.DocsRoot == "" {
		cfg.DocsRoot = "docs"
	}
	if cfg.TrustedOwner == "" {
		cfg.TrustedOwner = DefaultTrustedOwner
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 8
	}
	if cfg.Output == "" {
		cfg.Output = "nav-data.json"
	}
	if cfg.GitHub.BaseURL == "" {
		cfg.GitHub.BaseURL = "https://github.com"
	}
	cfg.GitHub.BaseURL = strings.TrimSuffix(cfg.GitHub.BaseURL, "/")
	if cfg.GitHub.DocsAsset == "" {
		cfg.GitHub.DocsAsset = "docs.zip"
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Preview.Addr == "" {
		cfg.Preview.Addr = "127.0.0.1:8089"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "plugindocs.reports"
	}
	return nil
}

// Validate checks struct constraints and duration fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fieldErrors("configuration validation failed", err)
	}
	for name, raw := range map[string]string{
		"github.timeout":           c.GitHub.Timeout,
		"github.retry_delay":       c.GitHub.RetryDelay,
		"preview.refresh_interval": c.Preview.RefreshInterval,
	} {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			return errors.ConfigError(fmt.Sprintf("%s must be a positive duration, got %q", name, raw)).Build()
		}
	}
	return nil
}

// HTTPTimeout returns the parsed GitHub request timeout, zero when unset.
func (c *Config) HTTPTimeout() time.Duration {
	d, _ := time.ParseDuration(c.GitHub.Timeout)
	return d
}

// RetryDelay returns the parsed initial retry delay, zero when unset.
func (c *Config) RetryDelay() time.Duration {
	d, _ := time.ParseDuration(c.GitHub.RetryDelay)
	return d
}

// RefreshInterval returns the parsed preview refresh interval, zero when unset.
func (c *Config) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Preview.RefreshInterval)
	return d
}

// loadEnvFiles loads .env and .env.local when present. Variables already set
// in the process environment win.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", envPath, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
	}
}

// fieldErrors converts validator output into a ConfigError listing every problem.
func fieldErrors(message string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.WrapError(err, errors.CategoryConfig, message).Fatal().Build()
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeField(fe))
	}
	return errors.ConfigError(message).WithContext("invalid_paths", problems).Build()
}

func describeField(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s: failed %s (value %v)", field, fe.Tag(), fe.Value())
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Config{
		Mode:         ModeProduction,
		NavFile:      "data/docs-nav-data.json",
		SourcesFile:  "data/docs-remote-plugins.json",
		ContentDir:   "content/docs",
		Output:       "build/docs-nav-data.json",
		DocsRoot:     "docs",
		TrustedOwner: DefaultTrustedOwner,
		Concurrency:  8,
		GitHub: GitHubConfig{
			BaseURL:      "https://github.com",
			Token:        "${GITHUB_TOKEN}",
			DocsAsset:    "docs.zip",
			Retries:      2,
			RetryBackoff: "exponential",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Preview: PreviewConfig{Addr: "127.0.0.1:8089", RefreshInterval: "10m", Watch: true},
		Metrics: MetricsConfig{Enabled: false, Path: "/metrics"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").Build()
	}
	return nil
}
