package hook

import "github.com/fahchen/aura/internal/agentutil"

// toolLabel extracts a human-readable label for a tool invocation from
// its tool_input object, per SPEC_FULL.md §4.2.1. toolInput may be nil.
func toolLabel(toolName string, toolInput map[string]any) string {
	str := func(key string) (string, bool) {
		if toolInput == nil {
			return "", false
		}
		v, ok := toolInput[key].(string)
		return v, ok && v != ""
	}

	switch toolName {
	case "Bash":
		if v, ok := str("description"); ok {
			return agentutil.Truncate(v, 60)
		}
		if v, ok := str("command"); ok {
			return agentutil.Truncate(v, 60)
		}
		return ""
	case "Read", "Write", "Edit":
		if v, ok := str("file_path"); ok {
			return agentutil.ShortPath(v)
		}
		return ""
	case "Glob":
		v, _ := str("pattern")
		return v
	case "Grep":
		if v, ok := str("pattern"); ok {
			return agentutil.Truncate(v, 40)
		}
		return ""
	case "WebFetch":
		if v, ok := str("url"); ok {
			return agentutil.Truncate(v, 60)
		}
		return ""
	case "WebSearch":
		if v, ok := str("query"); ok {
			return agentutil.Truncate(v, 60)
		}
		return ""
	case "Task":
		if v, ok := str("description"); ok {
			return agentutil.Truncate(v, 60)
		}
		return ""
	default:
		return ""
	}
}
