package rollout

import (
	"sync"
	"time"

	"github.com/fahchen/aura/internal/logx"
)

// DegradedThreshold is the number of consecutive failures (discover or
// parse) that moves a source from healthy to degraded/failed.
const DegradedThreshold = 5

// Status is a source's log-only health classification. It is never
// placed on the IPC wire or exposed through the registry: doing so
// would silently extend the closed AgentEvent sum type with a variant
// SPEC_FULL.md never names. See DESIGN.md.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	default:
		return "healthy"
	}
}

// sourceHealth tracks consecutive failure counts for one agent source
// (claude-code, codex) of the rollout watcher. Grounded on
// internal/monitor/health.go::sourceHealth, trimmed to this package's
// log-only reporting (no websocket emission).
type sourceHealth struct {
	mu               sync.Mutex
	discoverFailures int
	lastDiscoverErr  string
	parseFailures    map[string]int
	lastParseErr     string
	lastStatus       Status
	name             string
}

func newSourceHealth(name string) *sourceHealth {
	return &sourceHealth{name: name, parseFailures: make(map[string]int)}
}

func (h *sourceHealth) recordDiscoverSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discoverFailures = 0
	h.lastDiscoverErr = ""
	h.logIfChanged()
}

func (h *sourceHealth) recordDiscoverFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discoverFailures++
	h.lastDiscoverErr = err.Error()
	h.logIfChanged()
}

func (h *sourceHealth) recordParseSuccess(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.parseFailures, key)
	h.logIfChanged()
}

func (h *sourceHealth) recordParseFailure(key string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.parseFailures[key]++
	h.lastParseErr = err.Error()
	h.logIfChanged()
}

// logIfChanged logs a transition when the computed status differs from
// the last logged one. Caller must hold h.mu.
func (h *sourceHealth) logIfChanged() {
	status := h.statusLocked()
	if status == h.lastStatus {
		return
	}
	h.lastStatus = status
	switch status {
	case StatusFailed:
		logx.Warnf("rollout: source %s is now failed (discover_failures=%d last_err=%q)", h.name, h.discoverFailures, h.lastDiscoverErr)
	case StatusDegraded:
		logx.Warnf("rollout: source %s is now degraded (parse_failures=%d last_err=%q)", h.name, h.degradedSessionCountLocked(), h.lastParseErr)
	default:
		logx.Infof("rollout: source %s recovered to healthy", h.name)
	}
}

func (h *sourceHealth) statusLocked() Status {
	if h.discoverFailures >= DegradedThreshold {
		return StatusFailed
	}
	if h.degradedSessionCountLocked() > 0 {
		return StatusDegraded
	}
	return StatusHealthy
}

func (h *sourceHealth) degradedSessionCountLocked() int {
	count := 0
	for _, n := range h.parseFailures {
		if n >= DegradedThreshold {
			count++
		}
	}
	return count
}

func (h *sourceHealth) status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statusLocked()
}

// backoff implements the reconnect-delay helper of SPEC_FULL.md §5: it
// starts at 1s, doubles to a cap of 60s, and resets once the caller
// reports 30s of stable uptime. No current producer in this repository
// needs an external subprocess to discover sessions, so nothing drives
// this type yet; it is unit-tested standalone for when one does.
type backoff struct {
	mu      sync.Mutex
	current time.Duration
	upSince time.Time
}

const (
	backoffInitial    = time.Second
	backoffCap        = 60 * time.Second
	backoffResetAfter = 30 * time.Second
)

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// Next returns the delay to wait before the next reconnect attempt and
// doubles the internal delay toward the cap.
func (b *backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.current
	b.current *= 2
	if b.current > backoffCap {
		b.current = backoffCap
	}
	return d
}

// MarkConnected records a successful connection start time.
func (b *backoff) MarkConnected(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upSince = now
}

// MarkDisconnected resets the backoff delay if the connection stayed
// up at least backoffResetAfter.
func (b *backoff) MarkDisconnected(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.upSince.IsZero() && now.Sub(b.upSince) >= backoffResetAfter {
		b.current = backoffInitial
	}
	b.upSince = time.Time{}
}
