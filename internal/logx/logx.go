// Package logx is a thin leveled wrapper around the standard library's
// log package. The teacher's ambient stack never reaches for a
// structured logging library (see cmd/server/main.go, internal/monitor),
// so this keeps that texture while adding the level filter the CLI's
// -v/-vv/-vvv flags and the AURA_LOG environment variable require.
package logx

import (
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "warn"
	}
}

// ParseLevel accepts the level names warn/info/debug/trace,
// case-insensitively. Unrecognized names fall back to LevelWarn.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	default:
		return LevelWarn
	}
}

var current atomic.Int32

// SetLevel sets the process-wide log level.
func SetLevel(l Level) { current.Store(int32(l)) }

// CurrentLevel returns the process-wide log level.
func CurrentLevel() Level { return Level(current.Load()) }

// LevelFromEnv resolves AURA_LOG, defaulting to warn when unset, as
// documented in SPEC_FULL.md §6.
func LevelFromEnv() Level {
	if v, ok := os.LookupEnv("AURA_LOG"); ok {
		return ParseLevel(v)
	}
	return LevelWarn
}

// LevelFromVerbosity maps a CLI -v counter (0, 1, 2, 3+) to a level,
// one step per flag: warn, info, debug, trace.
func LevelFromVerbosity(count int) Level {
	switch {
	case count <= 0:
		return LevelWarn
	case count == 1:
		return LevelInfo
	case count == 2:
		return LevelDebug
	default:
		return LevelTrace
	}
}

func init() {
	SetLevel(LevelFromEnv())
}

func logf(l Level, prefix, format string, args ...any) {
	if l > CurrentLevel() {
		return
	}
	log.Printf(prefix+" "+format, args...)
}

func Warnf(format string, args ...any)  { logf(LevelWarn, "WARN", format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, "INFO", format, args...) }
func Debugf(format string, args ...any) { logf(LevelDebug, "DEBUG", format, args...) }
func Tracef(format string, args ...any) { logf(LevelTrace, "TRACE", format, args...) }
