package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyRepo       = "repository"
	KeyTag        = "tag"
	KeyComponent  = "component"
	KeyArchive    = "archive_kind"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyMode       = "mode"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyDigest     = "digest"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Component(c string) slog.Attr    { return slog.String(KeyComponent, c) }
func ArchiveKind(k string) slog.Attr  { return slog.String(KeyArchive, k) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Digest(d string) slog.Attr       { return slog.String(KeyDigest, d) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
