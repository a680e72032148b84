package registry

import (
	"sync"
	"time"

	"github.com/fahchen/aura/internal/events"
	"github.com/fahchen/aura/internal/logx"
)

// nowFunc is overridable in tests; New sets it to time.Now, and clock
// falls back to time.Now when it is nil.
type nowFunc func() time.Time

// Registry is the authoritative session store. All mutation goes
// through Apply (process_event); reads go through Get/GetAll, which
// return defensive copies so callers never observe a registry mutation
// mid-read. Grounded on internal/session/store.go's Store (mutex shape)
// generalized to original_source/src/registry.rs's algorithm.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	dirty    Dirty
	now      nowFunc
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (r *Registry) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Dirty returns the registry's dirty signal (SPEC_FULL.md §4.7).
func (r *Registry) Dirty() *Dirty { return &r.dirty }

func (r *Registry) getOrCreate(sessionID, cwd string, defaultAgent events.AgentType, now time.Time) (*Session, bool) {
	if s, ok := r.sessions[sessionID]; ok {
		return s, false
	}
	s := newSession(sessionID, cwd, defaultAgent, now)
	r.sessions[sessionID] = s
	return s, true
}

// Apply is process_event(event, default_agent): the single mutation
// entry point, documented per-variant in SPEC_FULL.md §4.6.
func (r *Registry) Apply(e events.AgentEvent, defaultAgent events.AgentType) {
	now := r.clock()

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.dirty.Set()

	switch e.Type {
	case events.TypeSessionStarted:
		if s, ok := r.sessions[e.SessionID]; ok {
			s.Cwd = e.Cwd
			s.Agent = e.Agent
			s.touch(now)
			return
		}
		r.sessions[e.SessionID] = newSession(e.SessionID, e.Cwd, e.Agent, now)

	case events.TypeActivity:
		s, _ := r.getOrCreate(e.SessionID, e.Cwd, defaultAgent, now)
		if s.State == StateIdle || s.State == StateStale {
			s.transitionToRunning(now)
		}
		s.touch(now)

	case events.TypeToolStarted:
		s, _ := r.getOrCreate(e.SessionID, e.Cwd, defaultAgent, now)
		s.addTool(RunningTool{ToolID: e.ToolID, ToolName: e.ToolName, ToolLabel: e.ToolLabel}, now)

	case events.TypeToolCompleted:
		s, _ := r.getOrCreate(e.SessionID, e.Cwd, defaultAgent, now)
		s.completeTool(e.ToolID, now)

	case events.TypeNeedsAttention:
		s, _ := r.getOrCreate(e.SessionID, e.Cwd, defaultAgent, now)
		s.State = StateAttention
		s.PermissionTool = e.Message
		s.touch(now)

	case events.TypeWaitingForInput:
		s, _ := r.getOrCreate(e.SessionID, e.Cwd, defaultAgent, now)
		s.State = StateWaiting
		s.touch(now)

	case events.TypeCompacting:
		s, _ := r.getOrCreate(e.SessionID, e.Cwd, defaultAgent, now)
		s.State = StateCompacting
		s.touch(now)

	case events.TypeIdle:
		s, _ := r.getOrCreate(e.SessionID, e.Cwd, defaultAgent, now)
		s.setIdle(now)

	case events.TypeSessionEnded:
		delete(r.sessions, e.SessionID)

	case events.TypeSessionNameUpdated:
		if s, ok := r.sessions[e.SessionID]; ok {
			s.Name = e.Name
			s.touch(now)
		}

	default:
		logx.Debugf("registry: ignoring unknown event type %q", e.Type)
	}
}

// Get returns a snapshot of one session, or ok=false if it doesn't exist.
func (r *Registry) Get(sessionID string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return Info{}, false
	}
	return s.toInfo(r.clock()), true
}

// GetAll returns snapshots of every session currently in the registry,
// in no particular order.
func (r *Registry) GetAll() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.clock()
	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.toInfo(now))
	}
	return out
}

// Len reports the number of sessions currently tracked.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Has reports whether sessionID is currently tracked.
func (r *Registry) Has(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sessionID]
	return ok
}

// RemoveSession performs renderer-initiated explicit removal.
func (r *Registry) RemoveSession(sessionID string) {
	r.mu.Lock()
	_, existed := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if existed {
		r.dirty.Set()
	}
}

// MarkStale implements mark_stale(timeout): first drops expired
// recent_tools on every session, then moves any session whose time
// since last_activity has reached timeout (and whose state is a stale
// candidate) into Stale.
func (r *Registry) MarkStale(timeout time.Duration) {
	now := r.clock()

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.dirty.Set()

	for _, s := range r.sessions {
		s.dropExpiredRecentTools(now)
		if !s.isStaleCandidate() {
			continue
		}
		if now.Sub(s.LastActivity) >= timeout {
			s.State = StateStale
			s.StaleAt = now
		}
	}
}

// NextStaleAt implements next_stale_at(timeout): the earliest deadline
// at which some tracked session becomes eligible to decay to Stale, or
// ok=false if there are no stale candidates.
func (r *Registry) NextStaleAt(timeout time.Duration) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		next  time.Time
		found bool
	)
	for _, s := range r.sessions {
		if !s.isStaleCandidate() {
			continue
		}
		deadline := s.LastActivity.Add(timeout)
		if !found || deadline.Before(next) {
			next = deadline
			found = true
		}
	}
	return next, found
}
