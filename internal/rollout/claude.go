package rollout

import (
	"encoding/json"
	"strings"

	"github.com/fahchen/aura/internal/agentutil"
	"github.com/fahchen/aura/internal/events"
)

type claudeLine struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Cwd       string `json:"cwd"`
	Data      *struct {
		HookEvent string `json:"hookEvent"`
	} `json:"data"`
	Message *struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type claudeContentItem struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id"`
}

// claudeToolRequiresAttention matches tool families whose invocation is
// itself a permission-style prompt, rerouted to NeedsAttention instead
// of ToolStarted. Grounded on
// original_source/crates/aura-daemon/src/parsers/claude.rs::tool_requires_attention.
func claudeToolRequiresAttention(toolName string) bool {
	return toolName == "AskUserQuestion" || toolName == "ExitPlanMode"
}

// ParseClaudeLine decodes one line of a Claude Code rollout JSONL file,
// per the claude-flavored event-message mapping of SPEC_FULL.md §4.3.
// Grounded on
// original_source/crates/aura-daemon/src/parsers/claude.rs::events_from_transcript.
func ParseClaudeLine(state *State, raw []byte) ([]events.AgentEvent, error) {
	var line claudeLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return nil, err
	}

	sessionID := line.SessionID
	if sessionID == "" {
		sessionID = state.SessionID
	}
	if sessionID == "" {
		return nil, nil
	}
	state.SessionID = sessionID

	cwd := line.Cwd
	if cwd == "" {
		cwd = state.Cwd
	} else {
		state.Cwd = cwd
	}

	var out []events.AgentEvent

	if line.Type == "progress" && line.Data != nil {
		switch line.Data.HookEvent {
		case "Stop":
			out = append(out, events.NewIdle(sessionID, cwd))
		case "SessionStart":
			out = append(out, events.NewActivity(sessionID, cwd))
		}
	}

	if line.Message != nil && len(line.Message.Content) > 0 {
		var text string
		if err := json.Unmarshal(line.Message.Content, &text); err == nil {
			if strings.Contains(text, "<command-name>/exit</command-name>") {
				return append(out, events.NewSessionEnded(sessionID)), nil
			}
			if strings.Contains(text, "<permission_prompt>") {
				out = append(out, events.NewNeedsAttention(sessionID, cwd, ""))
			}
			if strings.Contains(text, "<idle_prompt>") {
				out = append(out, events.NewWaitingForInput(sessionID, cwd, ""))
			}
		} else {
			var items []claudeContentItem
			if err := json.Unmarshal(line.Message.Content, &items); err == nil {
				for _, item := range items {
					switch item.Type {
					case "tool_use":
						if item.ID == "" || item.Name == "" {
							continue
						}
						if claudeToolRequiresAttention(item.Name) {
							out = append(out, events.NewNeedsAttention(sessionID, cwd, ""))
						} else {
							out = append(out, events.NewToolStarted(sessionID, cwd, item.ID, item.Name, ""))
						}
						if item.Name == "Bash" {
							if cmd, _ := item.Input["command"].(string); cmd != "" {
								if name, ok := agentutil.ParseSetNameCommand(cmd); ok {
									out = append(out, events.NewSessionNameUpdated(sessionID, name))
								}
							}
						}
					case "tool_result":
						if item.ToolUseID != "" {
							out = append(out, events.NewToolCompleted(sessionID, cwd, item.ToolUseID))
						}
					}
				}
			}
		}
	}

	if len(out) == 0 && (line.Type == "user" || line.Type == "assistant") {
		out = append(out, events.NewActivity(sessionID, cwd))
	}

	return out, nil
}
