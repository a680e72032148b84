// Package registry implements the authoritative in-memory session
// registry: the process_event state machine, stale decay, and
// read-only snapshots exposed to a renderer. Grounded on
// original_source/src/registry.rs (the algorithm) and the teacher's
// internal/session package (the Go concurrency shape: a mutex-guarded
// map with defensive-copy reads).
package registry

import (
	"time"

	"github.com/fahchen/aura/internal/events"
)

// RecentActivityMax bounds the recent_activity dedup queue (invariant 7).
const RecentActivityMax = 6

// MinToolDisplay is the minimum time a completed tool stays visible
// after ToolCompleted, per SPEC_FULL.md §3 RecentTool.
const MinToolDisplay = 1 * time.Second

// RecentToolPrefix marks the synthetic ids given to just-completed
// tools still within their display window, so renderer keys stay
// stable across the running/recent boundary.
const RecentToolPrefix = "recent_"

// DefaultStaleTimeout is the default decay timeout (SPEC_FULL.md §4.6).
const DefaultStaleTimeout = 10 * time.Minute

// State is the closed session-state enumeration, ordered by priority
// for aggregate display (not currently used for sorting here, but kept
// in declaration order to match SPEC_FULL.md §3).
type State string

const (
	StateRunning    State = "running"
	StateAttention  State = "attention"
	StateWaiting    State = "waiting"
	StateCompacting State = "compacting"
	StateIdle       State = "idle"
	StateStale      State = "stale"
)

// RunningTool is a tool invocation currently in flight within a session.
type RunningTool struct {
	ToolID    string
	ToolName  string
	ToolLabel string
}

// recentTool is a completed tool kept visible for MinToolDisplay past
// its completion.
type recentTool struct {
	ToolName  string
	ToolLabel string
	ExpiresAt time.Time
}

// Session is the internal mutable record for one agent session.
type Session struct {
	SessionID string
	Agent     events.AgentType
	Cwd       string
	Name      string

	State        State
	RunningTools []RunningTool
	recentTools  []recentTool

	LastActivity time.Time
	StoppedAt    time.Time
	StaleAt      time.Time

	PermissionTool string
	RecentActivity []string
}

func newSession(sessionID, cwd string, agent events.AgentType, now time.Time) *Session {
	return &Session{
		SessionID:    sessionID,
		Agent:        agent,
		Cwd:          cwd,
		State:        StateRunning,
		LastActivity: now,
	}
}

// clearTimestamps clears the decay timestamps and permission hint, the
// common prelude to any transition into Running. Grounded on
// original_source/src/registry.rs::clear_timestamps.
func (s *Session) clearTimestamps() {
	s.StoppedAt = time.Time{}
	s.StaleAt = time.Time{}
	s.PermissionTool = ""
}

func (s *Session) transitionToRunning(now time.Time) {
	s.State = StateRunning
	s.clearTimestamps()
	s.LastActivity = now
}

func (s *Session) touch(now time.Time) {
	s.LastActivity = now
}

// isStaleCandidate reports whether this session's state participates
// in decay-to-stale scheduling (invariant 8 / next_stale_at contract).
func (s *Session) isStaleCandidate() bool {
	switch s.State {
	case StateIdle, StateWaiting, StateStale:
		return false
	default:
		return true
	}
}

// pushRecentActivity appends label to the dedup queue per invariant 7:
// skip if it equals the current tail; otherwise remove any existing
// occurrence elsewhere before appending; cap at RecentActivityMax by
// dropping from the front. Grounded on
// original_source/src/registry.rs::push_recent_activity.
func (s *Session) pushRecentActivity(label string) {
	if label == "" {
		return
	}
	if n := len(s.RecentActivity); n > 0 && s.RecentActivity[n-1] == label {
		return
	}
	for i, existing := range s.RecentActivity {
		if existing == label {
			s.RecentActivity = append(s.RecentActivity[:i], s.RecentActivity[i+1:]...)
			break
		}
	}
	s.RecentActivity = append(s.RecentActivity, label)
	for len(s.RecentActivity) > RecentActivityMax {
		s.RecentActivity = s.RecentActivity[1:]
	}
}

// addTool transitions to Running and appends a new RunningTool.
func (s *Session) addTool(tool RunningTool, now time.Time) {
	s.transitionToRunning(now)
	s.RunningTools = append(s.RunningTools, tool)
}

// completeTool moves the matching running tool (by ToolID) into the
// recent-tools window and records its label in recent_activity. If the
// session wasn't already Running it transitions first.
func (s *Session) completeTool(toolID string, now time.Time) {
	if s.State != StateRunning {
		s.transitionToRunning(now)
	}
	idx := -1
	for i, rt := range s.RunningTools {
		if rt.ToolID == toolID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	completed := s.RunningTools[idx]
	s.RunningTools = append(s.RunningTools[:idx], s.RunningTools[idx+1:]...)
	s.recentTools = append(s.recentTools, recentTool{
		ToolName:  completed.ToolName,
		ToolLabel: completed.ToolLabel,
		ExpiresAt: now.Add(MinToolDisplay),
	})
	label := completed.ToolLabel
	if label == "" {
		label = completed.ToolName
	}
	s.pushRecentActivity(label)
	s.touch(now)
}

// setIdle clears running and recently-completed tools and the
// permission hint, and marks stopped_at.
func (s *Session) setIdle(now time.Time) {
	s.State = StateIdle
	s.RunningTools = nil
	s.recentTools = nil
	s.StoppedAt = now
	s.PermissionTool = ""
	s.touch(now)
}

// dropExpiredRecentTools removes recent tools whose display window has
// elapsed, per invariant 3.
func (s *Session) dropExpiredRecentTools(now time.Time) {
	if len(s.recentTools) == 0 {
		return
	}
	kept := s.recentTools[:0]
	for _, rt := range s.recentTools {
		if rt.ExpiresAt.After(now) {
			kept = append(kept, rt)
		}
	}
	s.recentTools = kept
}

// VisibleTool is a merged projection of a running or still-visible
// recently-completed tool, for SessionInfo.
type VisibleTool struct {
	ToolID    string
	ToolName  string
	ToolLabel string
}

// visibleTools returns RunningTools followed by non-expired recentTools
// (given synthetic recent_ ids), per the Snapshot construction rule in
// SPEC_FULL.md §4.6.
func (s *Session) visibleTools(now time.Time) []VisibleTool {
	out := make([]VisibleTool, 0, len(s.RunningTools)+len(s.recentTools))
	for _, rt := range s.RunningTools {
		out = append(out, VisibleTool{ToolID: rt.ToolID, ToolName: rt.ToolName, ToolLabel: rt.ToolLabel})
	}
	for _, rt := range s.recentTools {
		if rt.ExpiresAt.After(now) {
			out = append(out, VisibleTool{
				ToolID:    RecentToolPrefix + rt.ToolName,
				ToolName:  rt.ToolName,
				ToolLabel: rt.ToolLabel,
			})
		}
	}
	return out
}

// Info is the read-only snapshot exposed to the renderer: same shape
// as Session but with instants projected to wall-clock seconds and
// tools already merged.
type Info struct {
	SessionID string
	Agent     events.AgentType
	Cwd       string
	Name      string

	State        State
	RunningTools []VisibleTool

	LastActivity   int64
	StoppedAt      int64
	StaleAt        int64
	PermissionTool string
	RecentActivity []string
}

func (s *Session) toInfo(now time.Time) Info {
	info := Info{
		SessionID:      s.SessionID,
		Agent:          s.Agent,
		Cwd:            s.Cwd,
		Name:           s.Name,
		State:          s.State,
		RunningTools:   s.visibleTools(now),
		PermissionTool: s.PermissionTool,
	}
	if !s.LastActivity.IsZero() {
		info.LastActivity = s.LastActivity.Unix()
	}
	if !s.StoppedAt.IsZero() {
		info.StoppedAt = s.StoppedAt.Unix()
	}
	if !s.StaleAt.IsZero() {
		info.StaleAt = s.StaleAt.Unix()
	}
	if len(s.RecentActivity) > 0 {
		info.RecentActivity = append([]string(nil), s.RecentActivity...)
	}
	return info
}
