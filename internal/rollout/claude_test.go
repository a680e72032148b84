package rollout

import (
	"testing"

	"github.com/fahchen/aura/internal/events"
)

func parseClaude(t *testing.T, state *State, raw string) []events.AgentEvent {
	t.Helper()
	out, err := ParseClaudeLine(state, []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestClaudeProgressStopMapsToIdle(t *testing.T) {
	state := &State{}
	out := parseClaude(t, state, `{"type":"progress","sessionId":"s1","cwd":"/p","data":{"hookEvent":"Stop"}}`)
	if len(out) != 1 || out[0].Type != events.TypeIdle {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeProgressSessionStartMapsToActivity(t *testing.T) {
	state := &State{}
	out := parseClaude(t, state, `{"type":"progress","sessionId":"s1","cwd":"/p","data":{"hookEvent":"SessionStart"}}`)
	if len(out) != 1 || out[0].Type != events.TypeActivity {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeExitCommandEndsSessionAndStopsProcessing(t *testing.T) {
	state := &State{}
	out := parseClaude(t, state, `{"type":"assistant","sessionId":"s1","cwd":"/p","message":{"content":"<command-name>/exit</command-name>"}}`)
	if len(out) != 1 || out[0].Type != events.TypeSessionEnded {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudePermissionPromptTextMapsToNeedsAttention(t *testing.T) {
	state := &State{}
	out := parseClaude(t, state, `{"type":"assistant","sessionId":"s1","message":{"content":"please confirm <permission_prompt> now"}}`)
	foundAttention := false
	for _, e := range out {
		if e.Type == events.TypeNeedsAttention {
			foundAttention = true
		}
	}
	if !foundAttention {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeIdlePromptTextMapsToWaitingForInput(t *testing.T) {
	state := &State{}
	out := parseClaude(t, state, `{"type":"assistant","sessionId":"s1","message":{"content":"<idle_prompt> waiting"}}`)
	found := false
	for _, e := range out {
		if e.Type == events.TypeWaitingForInput {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeToolUseEmitsToolStarted(t *testing.T) {
	state := &State{}
	raw := `{"type":"assistant","sessionId":"s1","cwd":"/p","message":{"content":[{"type":"tool_use","id":"t1","name":"Read","input":{"file_path":"/p/main.go"}}]}}`
	out := parseClaude(t, state, raw)
	if len(out) != 1 || out[0].Type != events.TypeToolStarted || out[0].ToolID != "t1" || out[0].ToolName != "Read" {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeAskUserQuestionReroutesToNeedsAttention(t *testing.T) {
	state := &State{}
	raw := `{"type":"assistant","sessionId":"s1","message":{"content":[{"type":"tool_use","id":"t1","name":"AskUserQuestion","input":{}}]}}`
	out := parseClaude(t, state, raw)
	if len(out) != 1 || out[0].Type != events.TypeNeedsAttention {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeToolResultEmitsToolCompleted(t *testing.T) {
	state := &State{}
	raw := `{"type":"user","sessionId":"s1","message":{"content":[{"type":"tool_result","tool_use_id":"t1"}]}}`
	out := parseClaude(t, state, raw)
	found := false
	for _, e := range out {
		if e.Type == events.TypeToolCompleted && e.ToolID == "t1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeBashSetNameEmitsSessionNameUpdated(t *testing.T) {
	state := &State{}
	raw := `{"type":"assistant","sessionId":"s1","message":{"content":[{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"aura set-name \"fix login bug\""}}]}}`
	out := parseClaude(t, state, raw)
	found := false
	for _, e := range out {
		if e.Type == events.TypeSessionNameUpdated && e.Name == "fix login bug" {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeBareUserAssistantLineYieldsActivity(t *testing.T) {
	state := &State{}
	out := parseClaude(t, state, `{"type":"user","sessionId":"s1","cwd":"/p"}`)
	if len(out) != 1 || out[0].Type != events.TypeActivity {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeMissingSessionIDUsesCarriedState(t *testing.T) {
	state := &State{SessionID: "s1", Cwd: "/p"}
	out := parseClaude(t, state, `{"type":"progress","data":{"hookEvent":"Stop"}}`)
	if len(out) != 1 || out[0].SessionID != "s1" || out[0].Cwd != "/p" {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeMissingSessionIDAndNoCarriedStateYieldsNoEvents(t *testing.T) {
	state := &State{}
	out := parseClaude(t, state, `{"type":"progress","data":{"hookEvent":"Stop"}}`)
	if len(out) != 0 {
		t.Fatalf("got %+v", out)
	}
}

func TestClaudeMalformedJSONReturnsError(t *testing.T) {
	_, err := ParseClaudeLine(&State{}, []byte(`not json`))
	if err == nil {
		t.Fatal("expected error")
	}
}
