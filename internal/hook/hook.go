// Package hook decodes one host-agent hook JSON object (delivered on
// stdin to a short-lived helper process) into zero-or-more normalized
// AgentEvents. Grounded on original_source/src/agents/claude_code.rs
// (the exhaustive hook_event_name mapping) and
// original_source/crates/aura-claude-code-hook/src/main.rs (the
// pure-parse/impure-IO split this package mirrors: Decode never touches
// stdin/stdout/the network).
package hook

import (
	"encoding/json"
	"fmt"

	"github.com/fahchen/aura/internal/events"
)

// AgentName is the value accepted by the --agent CLI flag.
type AgentName string

const (
	AgentNameClaudeCode AgentName = "claude-code"
	AgentNameCodex      AgentName = "codex"
	AgentNameGeminiCLI  AgentName = "gemini-cli"
	AgentNameOpenCode   AgentName = "open-code"
)

// Decoder converts one raw hook JSON payload into normalized events.
// Implementations are total: every payload yields either a (possibly
// empty) event list or an error for malformed or incomplete input,
// never a panic (SPEC_FULL.md §8).
type Decoder func(raw []byte) ([]events.AgentEvent, error)

// decoders is the capability-record dispatch table named in
// SPEC_FULL.md §9 ("Dynamic dispatch over agent formats... a small
// capability record... adding a new agent is a file, not a subclass").
// Only claude-code is fully wired; the rest degrade to no-op per §6.
var decoders = map[AgentName]Decoder{
	AgentNameClaudeCode: DecodeClaudeCode,
	AgentNameCodex:      noopDecoder,
	AgentNameGeminiCLI:  noopDecoder,
	AgentNameOpenCode:   noopDecoder,
}

func noopDecoder(_ []byte) ([]events.AgentEvent, error) { return nil, nil }

// ForAgent looks up the decoder registered for name.
func ForAgent(name AgentName) (Decoder, bool) {
	d, ok := decoders[name]
	return d, ok
}

type claudeHookPayload struct {
	HookEventName    string         `json:"hook_event_name"`
	SessionID        string         `json:"session_id"`
	Cwd              string         `json:"cwd"`
	ToolName         string         `json:"tool_name"`
	ToolUseID        string         `json:"tool_use_id"`
	ToolInput        map[string]any `json:"tool_input"`
	NotificationType string         `json:"notification_type"`
	Message          string         `json:"message"`
}

// DecodeClaudeCode implements the exhaustive hook_event_name mapping of
// SPEC_FULL.md §4.2. Grounded on original_source/src/agents/claude_code.rs::convert_claude_code.
func DecodeClaudeCode(raw []byte) ([]events.AgentEvent, error) {
	var p claudeHookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("hook: malformed json: %w", err)
	}
	if p.HookEventName == "" {
		return nil, fmt.Errorf("hook: missing hook_event_name")
	}
	if p.SessionID == "" {
		return nil, fmt.Errorf("hook: missing session_id")
	}

	switch p.HookEventName {
	case "SessionStart":
		return []events.AgentEvent{events.NewSessionStarted(p.SessionID, p.Cwd, events.AgentClaudeCode)}, nil

	case "PreToolUse":
		toolName := p.ToolName
		if toolName == "" {
			toolName = "unknown"
		}
		toolID := p.ToolUseID
		if toolID == "" {
			toolID = "unknown"
		}
		label := toolLabel(toolName, p.ToolInput)
		return []events.AgentEvent{events.NewToolStarted(p.SessionID, p.Cwd, toolID, toolName, label)}, nil

	case "PostToolUse", "PostToolUseFailure":
		toolID := p.ToolUseID
		if toolID == "" {
			toolID = "unknown"
		}
		return []events.AgentEvent{events.NewToolCompleted(p.SessionID, p.Cwd, toolID)}, nil

	case "Notification":
		switch p.NotificationType {
		case "permission_prompt":
			return []events.AgentEvent{events.NewNeedsAttention(p.SessionID, p.Cwd, p.ToolName)}, nil
		case "idle_prompt":
			return []events.AgentEvent{events.NewWaitingForInput(p.SessionID, p.Cwd, p.Message)}, nil
		default:
			return []events.AgentEvent{events.NewNeedsAttention(p.SessionID, p.Cwd, p.Message)}, nil
		}

	case "PermissionRequest":
		return []events.AgentEvent{events.NewNeedsAttention(p.SessionID, p.Cwd, p.ToolName)}, nil

	case "Stop":
		return []events.AgentEvent{events.NewIdle(p.SessionID, p.Cwd)}, nil

	case "PreCompact":
		return []events.AgentEvent{events.NewCompacting(p.SessionID, p.Cwd)}, nil

	case "SessionEnd":
		return []events.AgentEvent{events.NewSessionEnded(p.SessionID)}, nil

	case "UserPromptSubmit":
		return []events.AgentEvent{events.NewActivity(p.SessionID, p.Cwd)}, nil

	case "SubagentStart", "SubagentStop":
		return nil, nil

	default:
		return nil, nil
	}
}
