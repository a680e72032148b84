package registry

import (
	"testing"
	"time"

	"github.com/fahchen/aura/internal/events"
)

func newTestRegistry(t *testing.T) (*Registry, *time.Time) {
	t.Helper()
	cur := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := New()
	r.now = func() time.Time { return cur }
	return r, &cur
}

// Scenario 1 — Claude hook lifecycle.
func TestScenario1ClaudeHookLifecycle(t *testing.T) {
	r, clock := newTestRegistry(t)

	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)
	r.Apply(events.NewToolStarted("s1", "/p", "t1", "Read", "main.rs"), events.AgentClaudeCode)
	r.Apply(events.NewToolCompleted("s1", "/p", "t1"), events.AgentClaudeCode)

	info, ok := r.Get("s1")
	if !ok {
		t.Fatal("expected session s1 to exist")
	}
	if info.State != StateRunning {
		t.Errorf("state = %v, want Running", info.State)
	}
	if len(info.RunningTools) != 1 || info.RunningTools[0].ToolID != "recent_Read" {
		t.Errorf("running tools = %+v", info.RunningTools)
	}

	r.Apply(events.NewIdle("s1", "/p"), events.AgentClaudeCode)
	info, _ = r.Get("s1")
	if info.State != StateIdle {
		t.Errorf("state = %v, want Idle", info.State)
	}
	if len(info.RunningTools) != 0 {
		t.Errorf("expected no running tools after idle, got %+v", info.RunningTools)
	}
	if info.StoppedAt == 0 {
		t.Error("expected stopped_at to be set")
	}

	*clock = clock.Add(time.Second)
	r.Apply(events.NewSessionEnded("s1"), events.AgentClaudeCode)
	if r.Has("s1") {
		t.Error("expected session removed after SessionEnded")
	}
}

// Scenario 4 — Late registration.
func TestScenario4LateRegistration(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewToolStarted("late", "/x", "t1", "Bash", ""), events.AgentCodex)

	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
	info, ok := r.Get("late")
	if !ok {
		t.Fatal("expected late session to exist")
	}
	if info.Agent != events.AgentCodex {
		t.Errorf("agent = %v, want default Codex", info.Agent)
	}
	if len(info.RunningTools) != 1 {
		t.Errorf("running tools len = %d, want 1", len(info.RunningTools))
	}
	if info.State != StateRunning {
		t.Errorf("state = %v, want Running", info.State)
	}
}

// Scenario 5 — Stale decay and recovery.
func TestScenario5StaleDecayAndRecovery(t *testing.T) {
	r, clock := newTestRegistry(t)
	timeout := 10 * time.Minute

	r.Apply(events.NewSessionStarted("s5", "/p", events.AgentClaudeCode), events.AgentClaudeCode)
	*clock = clock.Add(timeout + time.Second)
	r.MarkStale(timeout)

	info, _ := r.Get("s5")
	if info.State != StateStale {
		t.Fatalf("state = %v, want Stale", info.State)
	}
	if info.StaleAt == 0 {
		t.Error("expected stale_at set")
	}

	r.Apply(events.NewActivity("s5", "/p"), events.AgentClaudeCode)
	info, _ = r.Get("s5")
	if info.State != StateRunning {
		t.Errorf("state = %v, want Running", info.State)
	}
	if info.StaleAt != 0 || info.StoppedAt != 0 || info.PermissionTool != "" {
		t.Errorf("expected decay timestamps cleared, got %+v", info)
	}
}

// Scenario 6 — Attention heuristic consumer (registry side: the
// NeedsAttention variant itself, independent of which parser produced it).
func TestScenario6NeedsAttentionSetsPermissionTool(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewNeedsAttention("s6", "/p", "exec_command"), events.AgentCodex)

	info, _ := r.Get("s6")
	if info.State != StateAttention {
		t.Errorf("state = %v, want Attention", info.State)
	}
	if info.PermissionTool != "exec_command" {
		t.Errorf("permission_tool = %q, want exec_command", info.PermissionTool)
	}
}

func TestToolStartThenCompleteRestoresVisibleLength(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)
	r.Apply(events.NewToolStarted("s1", "/p", "t1", "Bash", "ls"), events.AgentClaudeCode)

	info, _ := r.Get("s1")
	before := len(info.RunningTools)

	r.Apply(events.NewToolCompleted("s1", "/p", "t1"), events.AgentClaudeCode)
	info, _ = r.Get("s1")
	// The running tool moves to recent_tools but stays visible within
	// its display window, so the visible count is unchanged.
	if len(info.RunningTools) != before {
		t.Errorf("visible running tools after complete = %d, want %d", len(info.RunningTools), before)
	}
	if info.RunningTools[0].ToolID != "recent_Bash" {
		t.Errorf("expected synthetic recent_ id, got %q", info.RunningTools[0].ToolID)
	}
}

func TestRecentActivityDedupAndCap(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)

	labels := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i, label := range labels {
		toolID := label
		r.Apply(events.NewToolStarted("s1", "/p", toolID, "Bash", label), events.AgentClaudeCode)
		r.Apply(events.NewToolCompleted("s1", "/p", toolID), events.AgentClaudeCode)
		_ = i
	}

	r.mu.RLock()
	s := r.sessions["s1"]
	got := append([]string(nil), s.RecentActivity...)
	r.mu.RUnlock()

	if len(got) != RecentActivityMax {
		t.Fatalf("recent_activity len = %d, want %d (%v)", len(got), RecentActivityMax, got)
	}
	want := []string{"b", "c", "d", "e", "f", "g"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recent_activity[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRecentActivitySkipsAdjacentDuplicate(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)

	r.Apply(events.NewToolStarted("s1", "/p", "t1", "Bash", "ls"), events.AgentClaudeCode)
	r.Apply(events.NewToolCompleted("s1", "/p", "t1"), events.AgentClaudeCode)
	r.Apply(events.NewToolStarted("s1", "/p", "t2", "Bash", "ls"), events.AgentClaudeCode)
	r.Apply(events.NewToolCompleted("s1", "/p", "t2"), events.AgentClaudeCode)

	r.mu.RLock()
	got := r.sessions["s1"].RecentActivity
	r.mu.RUnlock()

	if len(got) != 1 || got[0] != "ls" {
		t.Errorf("recent_activity = %v, want [ls]", got)
	}
}

func TestRecentActivityMovesExistingOccurrenceToTail(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)

	for _, pair := range [][2]string{{"t1", "a"}, {"t2", "b"}, {"t3", "a"}} {
		r.Apply(events.NewToolStarted("s1", "/p", pair[0], "Bash", pair[1]), events.AgentClaudeCode)
		r.Apply(events.NewToolCompleted("s1", "/p", pair[0]), events.AgentClaudeCode)
	}

	r.mu.RLock()
	got := append([]string(nil), r.sessions["s1"].RecentActivity...)
	r.mu.RUnlock()

	want := []string{"b", "a"}
	if len(got) != len(want) {
		t.Fatalf("recent_activity = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recent_activity[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNextStaleAtAdvancesPastMarkStale(t *testing.T) {
	r, clock := newTestRegistry(t)
	timeout := 10 * time.Minute

	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)
	next, ok := r.NextStaleAt(timeout)
	if !ok {
		t.Fatal("expected a stale candidate")
	}
	if !next.Equal(clock.Add(timeout)) {
		t.Errorf("next = %v, want %v", next, clock.Add(timeout))
	}

	*clock = next
	r.MarkStale(timeout)
	if _, ok := r.NextStaleAt(timeout); ok {
		t.Error("expected no stale candidates once session is Stale")
	}
}

func TestIdleAndWaitingAreNotStaleCandidates(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)
	r.Apply(events.NewIdle("s1", "/p"), events.AgentClaudeCode)

	r.Apply(events.NewSessionStarted("s2", "/p", events.AgentClaudeCode), events.AgentClaudeCode)
	r.Apply(events.NewWaitingForInput("s2", "/p", ""), events.AgentClaudeCode)

	if _, ok := r.NextStaleAt(time.Minute); ok {
		t.Error("expected no stale candidates among Idle/Waiting sessions")
	}
}

func TestSessionNameUpdatedNoOpWhenAbsent(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewSessionNameUpdated("ghost", "hello"), events.AgentClaudeCode)
	if r.Has("ghost") {
		t.Error("expected SessionNameUpdated not to create a session")
	}
}

func TestSessionStartedPreservesExistingFieldsOtherThanCwdAgent(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Apply(events.NewSessionStarted("s1", "/p", events.AgentClaudeCode), events.AgentClaudeCode)
	r.Apply(events.NewSessionNameUpdated("s1", "my session"), events.AgentClaudeCode)
	r.Apply(events.NewSessionStarted("s1", "/q", events.AgentClaudeCode), events.AgentClaudeCode)

	info, _ := r.Get("s1")
	if info.Cwd != "/q" {
		t.Errorf("cwd = %q, want /q", info.Cwd)
	}
	if info.Name != "my session" {
		t.Errorf("name = %q, want preserved", info.Name)
	}
}

func TestDirtySetOnMutationAndSwapClears(t *testing.T) {
	r, _ := newTestRegistry(t)
	d := r.Dirty()
	if d.Peek() {
		t.Fatal("expected clean registry initially")
	}
	r.Apply(events.NewActivity("s1", "/p"), events.AgentClaudeCode)
	if !d.Peek() {
		t.Error("expected dirty flag set after mutation")
	}
	if !d.Swap() {
		t.Error("expected Swap to return true once")
	}
	if d.Peek() {
		t.Error("expected dirty flag cleared after Swap")
	}
}
