package config

import (
	"strings"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/normalization"
)

// Mode selects the failure policy of a resolution run.
type Mode string

const (
	// ModeProduction fails the run when any source resolves no component type.
	ModeProduction Mode = "production"
	// ModeDevelopment logs such sources and continues without them.
	ModeDevelopment Mode = "development"
)

var modes = normalization.New("mode", map[string]Mode{
	"production":  ModeProduction,
	"prod":        ModeProduction,
	"development": ModeDevelopment,
	"dev":         ModeDevelopment,
	"preview":     ModeDevelopment,
})

// NormalizeMode maps raw input to a Mode. Empty input means production, so a
// build never becomes lenient by omission.
func NormalizeMode(raw string) (Mode, error) {
	if strings.TrimSpace(raw) == "" {
		return ModeProduction, nil
	}
	return modes.Lookup(raw)
}

// Tier is the editorial classification of a plugin source.
type Tier string

const (
	TierOfficial  Tier = "official"
	TierCommunity Tier = "community"
)

// DefaultTrustedOwner is the repository owner whose plugins are official by default.
const DefaultTrustedOwner = "hashicorp"

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = normalization.New("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
})

// NormalizeLogLevel folds case and falls back to info for unknown values.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevels.Or(raw, LogLevelInfo)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = normalization.New("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
})

// NormalizeLogFormat folds case and falls back to text.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormats.Or(raw, LogFormatText)
}
