package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyMember     = "member"
	KeyGroup      = "group"
	KeyBatchID    = "batch_id"
	KeyCount      = "count"
	KeyErrorCount = "error_count"
	KeyAttempt    = "attempt"
	KeyPath       = "path"
	KeySink       = "sink"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyWatermark  = "last_event"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Member(name string) slog.Attr    { return slog.String(KeyMember, name) }
func Group(name string) slog.Attr     { return slog.String(KeyGroup, name) }
func BatchID(id string) slog.Attr     { return slog.String(KeyBatchID, id) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func ErrorCount(n int) slog.Attr      { return slog.Int(KeyErrorCount, n) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Sink(name string) slog.Attr      { return slog.String(KeySink, name) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to the canonical duration_ms field.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

// Watermark renders a member watermark; nil means no activity seen yet.
func Watermark(t *time.Time) slog.Attr {
	if t == nil {
		return slog.String(KeyWatermark, "")
	}
	return slog.Time(KeyWatermark, *t)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
