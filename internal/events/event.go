// Package events defines the normalized, agent-agnostic event vocabulary
// that hook decoders and rollout decoders both produce and that the
// session registry consumes.
package events

import "fmt"

// AgentType identifies the producing agent family. It is purely
// informational inside the registry; producers attach it when
// constructing SessionStarted events, and the registry uses a default
// value for late-registered sessions.
type AgentType string

const (
	AgentClaudeCode AgentType = "claude_code"
	AgentGeminiCLI  AgentType = "gemini_cli"
	AgentCodex      AgentType = "codex"
	AgentOpenCode   AgentType = "open_code"
)

// Type is the wire discriminator for AgentEvent, externally tagged by
// the "type" field per SPEC_FULL.md §4.1.
type Type string

const (
	TypeSessionStarted     Type = "session_started"
	TypeActivity           Type = "activity"
	TypeToolStarted        Type = "tool_started"
	TypeToolCompleted      Type = "tool_completed"
	TypeNeedsAttention     Type = "needs_attention"
	TypeWaitingForInput    Type = "waiting_for_input"
	TypeCompacting         Type = "compacting"
	TypeIdle               Type = "idle"
	TypeSessionEnded       Type = "session_ended"
	TypeSessionNameUpdated Type = "session_name_updated"
)

// AgentEvent is the closed sum type shared by the IPC wire format and
// internal dispatch. Every variant carries SessionID; most also carry
// Cwd. Fields not meaningful for a given Type are left zero and omitted
// on the wire. Use the New* constructors rather than populating this
// struct by hand so an impossible field combination can't be built.
type AgentEvent struct {
	Type Type `json:"type"`

	SessionID string `json:"session_id"`
	Cwd       string `json:"cwd,omitempty"`

	Agent AgentType `json:"agent,omitempty"`

	ToolID    string `json:"tool_id,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	ToolLabel string `json:"tool_label,omitempty"`

	Message string `json:"message,omitempty"`

	Name string `json:"name,omitempty"`
}

func NewSessionStarted(sessionID, cwd string, agent AgentType) AgentEvent {
	return AgentEvent{Type: TypeSessionStarted, SessionID: sessionID, Cwd: cwd, Agent: agent}
}

func NewActivity(sessionID, cwd string) AgentEvent {
	return AgentEvent{Type: TypeActivity, SessionID: sessionID, Cwd: cwd}
}

func NewToolStarted(sessionID, cwd, toolID, toolName, toolLabel string) AgentEvent {
	return AgentEvent{Type: TypeToolStarted, SessionID: sessionID, Cwd: cwd, ToolID: toolID, ToolName: toolName, ToolLabel: toolLabel}
}

func NewToolCompleted(sessionID, cwd, toolID string) AgentEvent {
	return AgentEvent{Type: TypeToolCompleted, SessionID: sessionID, Cwd: cwd, ToolID: toolID}
}

func NewNeedsAttention(sessionID, cwd, message string) AgentEvent {
	return AgentEvent{Type: TypeNeedsAttention, SessionID: sessionID, Cwd: cwd, Message: message}
}

func NewWaitingForInput(sessionID, cwd, message string) AgentEvent {
	return AgentEvent{Type: TypeWaitingForInput, SessionID: sessionID, Cwd: cwd, Message: message}
}

func NewCompacting(sessionID, cwd string) AgentEvent {
	return AgentEvent{Type: TypeCompacting, SessionID: sessionID, Cwd: cwd}
}

func NewIdle(sessionID, cwd string) AgentEvent {
	return AgentEvent{Type: TypeIdle, SessionID: sessionID, Cwd: cwd}
}

func NewSessionEnded(sessionID string) AgentEvent {
	return AgentEvent{Type: TypeSessionEnded, SessionID: sessionID}
}

func NewSessionNameUpdated(sessionID, name string) AgentEvent {
	return AgentEvent{Type: TypeSessionNameUpdated, SessionID: sessionID, Name: name}
}

// Validate reports whether e has a non-empty SessionID and a known
// Type, the two properties every variant must satisfy per §3.
func (e AgentEvent) Validate() error {
	if e.SessionID == "" {
		return fmt.Errorf("event %q: empty session_id", e.Type)
	}
	switch e.Type {
	case TypeSessionStarted, TypeActivity, TypeToolStarted, TypeToolCompleted,
		TypeNeedsAttention, TypeWaitingForInput, TypeCompacting, TypeIdle,
		TypeSessionEnded, TypeSessionNameUpdated:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
}
