package rollout

import (
	"encoding/json"
	"strings"

	"github.com/fahchen/aura/internal/agentutil"
	"github.com/fahchen/aura/internal/events"
	"github.com/fahchen/aura/internal/logx"
)

// codexEnvelope is the outer {"type": ..., "payload": ...} shape every
// codex rollout line uses.
type codexEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type codexSessionMeta struct {
	SessionID string `json:"session_id"`
	Cwd       string `json:"cwd"`
}

type codexTurnContext struct {
	Cwd string `json:"cwd"`
}

type codexEventMsg struct {
	Type string `json:"type"`
}

type codexResponseItem struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	CallID    string `json:"call_id"`
	Arguments string `json:"arguments"`
	Timestamp string `json:"timestamp"`
	Query     string `json:"query"`
}

// ParseCodexLine decodes one line of a Codex rollout JSONL file, per
// the session-meta rule, codex-flavored event-message mapping,
// response-item mapping, and attention heuristic of SPEC_FULL.md §4.3.
// Grounded on the envelope shape of
// internal/monitor/codex_source.go::parseCodexEnvelope, with the field
// vocabulary taken from SPEC_FULL.md §4.3 (no matching original_source
// file was retained for this line format).
func ParseCodexLine(state *State, raw []byte) ([]events.AgentEvent, error) {
	var env codexEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case "session_meta":
		return parseCodexSessionMeta(state, env.Payload)
	case "turn_context":
		return parseCodexTurnContext(state, env.Payload)
	case "event_msg":
		return parseCodexEventMsg(state, env.Payload)
	case "response_item":
		return parseCodexResponseItem(state, env.Payload)
	default:
		return nil, nil
	}
}

func parseCodexSessionMeta(state *State, payload json.RawMessage) ([]events.AgentEvent, error) {
	var meta codexSessionMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, err
	}
	if !state.SessionEmitted {
		if meta.SessionID != "" {
			state.SessionID = meta.SessionID
		}
		state.Cwd = meta.Cwd
	} else if meta.SessionID != "" && meta.SessionID != state.SessionID {
		// Subsequent mismatches are logged and ignored, per §4.3.
		logx.Debugf("rollout: ignoring session_meta id %q for already-started session %q", meta.SessionID, state.SessionID)
		return nil, nil
	}

	if state.SessionEmitted {
		return nil, nil
	}
	state.SessionEmitted = true
	return []events.AgentEvent{events.NewSessionStarted(state.SessionID, state.Cwd, events.AgentCodex)}, nil
}

func parseCodexTurnContext(state *State, payload json.RawMessage) ([]events.AgentEvent, error) {
	var tc codexTurnContext
	if err := json.Unmarshal(payload, &tc); err != nil {
		return nil, err
	}
	if tc.Cwd == "" || tc.Cwd == state.Cwd {
		return nil, nil
	}
	state.Cwd = tc.Cwd
	if !state.SessionEmitted {
		return nil, nil
	}
	return []events.AgentEvent{events.NewSessionStarted(state.SessionID, state.Cwd, events.AgentCodex)}, nil
}

func parseCodexEventMsg(state *State, payload json.RawMessage) ([]events.AgentEvent, error) {
	var msg codexEventMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case "task_started", "user_message", "agent_message", "entered_review_mode", "exited_review_mode":
		return []events.AgentEvent{events.NewActivity(state.SessionID, state.Cwd)}, nil
	case "context_compacted":
		return []events.AgentEvent{events.NewCompacting(state.SessionID, state.Cwd)}, nil
	case "task_complete", "turn_aborted":
		return []events.AgentEvent{events.NewIdle(state.SessionID, state.Cwd)}, nil
	case "request_user_input":
		return []events.AgentEvent{events.NewWaitingForInput(state.SessionID, state.Cwd, "")}, nil
	case "token_count", "agent_reasoning":
		return nil, nil
	default:
		return nil, nil
	}
}

// codexRequiresAttention implements the attention heuristic of
// SPEC_FULL.md §4.3: a function_call is routed to NeedsAttention if its
// arguments contain sandbox_permissions == "require_escalated", a
// justification field, or require_approval == true.
func codexRequiresAttention(args map[string]any) bool {
	if v, _ := args["sandbox_permissions"].(string); v == "require_escalated" {
		return true
	}
	if _, ok := args["justification"]; ok {
		return true
	}
	if v, ok := args["require_approval"].(bool); ok && v {
		return true
	}
	return false
}

func firstShellToken(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseCodexResponseItem(state *State, payload json.RawMessage) ([]events.AgentEvent, error) {
	var item codexResponseItem
	if err := json.Unmarshal(payload, &item); err != nil {
		return nil, err
	}

	switch item.Type {
	case "function_call", "custom_tool_call":
		var args map[string]any
		if item.Arguments != "" {
			_ = json.Unmarshal([]byte(item.Arguments), &args)
		}

		toolName := item.Name
		toolLabel := ""
		var setNameEvent *events.AgentEvent
		if item.Name == "exec_command" {
			if cmd, _ := args["cmd"].(string); cmd != "" {
				toolName = firstShellToken(cmd)
				toolLabel = cmd
				if name, ok := agentutil.ParseSetNameCommand(cmd); ok {
					e := events.NewSessionNameUpdated(state.SessionID, name)
					setNameEvent = &e
				}
			}
		}

		var out []events.AgentEvent
		if codexRequiresAttention(args) {
			out = append(out, events.NewNeedsAttention(state.SessionID, state.Cwd, toolName))
		} else {
			out = append(out, events.NewToolStarted(state.SessionID, state.Cwd, item.CallID, toolName, toolLabel))
		}
		if setNameEvent != nil {
			out = append(out, *setNameEvent)
		}
		return out, nil

	case "function_call_output", "custom_tool_call_output":
		return []events.AgentEvent{events.NewToolCompleted(state.SessionID, state.Cwd, item.CallID)}, nil

	case "web_search_call":
		id := state.nextWebSearchID(item.Timestamp)
		return []events.AgentEvent{
			events.NewToolStarted(state.SessionID, state.Cwd, id, "WebSearch", item.Query),
			events.NewToolCompleted(state.SessionID, state.Cwd, id),
		}, nil

	case "message", "reasoning":
		return []events.AgentEvent{events.NewActivity(state.SessionID, state.Cwd)}, nil

	case "ghost_snapshot":
		return nil, nil

	default:
		return nil, nil
	}
}
