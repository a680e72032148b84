// Package agentutil holds the small string helpers shared by every
// per-agent decoder (hook and rollout): Unicode-safe truncation, path
// basenames, and the `aura set-name` command parser. Grounded on
// original_source/src/agents/mod.rs, which keeps these as one shared
// module rather than duplicating them per agent.
package agentutil

import "strings"

// Truncate cuts s to at most max Unicode scalar values, never splitting
// a multi-byte rune.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// ShortPath returns the final '/'-separated component of path.
func ShortPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// ParseSetNameCommand parses `aura set-name <name>` out of a shell
// command string, tolerating a path prefix on the binary
// ("./aura", "/usr/local/bin/aura"), arbitrary interior whitespace, and
// a single pair of matching quotes around the name. Returns "", false
// when command is not a recognized set-name invocation or the
// resulting name is empty.
func ParseSetNameCommand(command string) (string, bool) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return "", false
	}
	if ShortPath(fields[0]) != "aura" {
		return "", false
	}
	if fields[1] != "set-name" {
		return "", false
	}

	idx := strings.Index(trimmed, "set-name")
	if idx == -1 {
		return "", false
	}
	rest := strings.TrimSpace(trimmed[idx+len("set-name"):])
	if rest == "" {
		return "", false
	}

	if len(rest) >= 2 {
		if (rest[0] == '"' && rest[len(rest)-1] == '"') ||
			(rest[0] == '\'' && rest[len(rest)-1] == '\'') {
			inner := rest[1 : len(rest)-1]
			if inner == "" {
				return "", false
			}
			return inner, true
		}
	}

	return rest, true
}
