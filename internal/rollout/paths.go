package rollout

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fahchen/aura/internal/events"
)

// AgentForPath routes a rollout file path to the agent flavor that
// produced it, per SPEC_FULL.md §4.5's path-to-agent routing rule.
// Matching is a plain substring test, not a parsed-path check; see
// DESIGN.md for why that is sufficient here.
func AgentForPath(path string) (events.AgentType, bool) {
	switch {
	case strings.Contains(path, filepath.Join(".claude", "projects")):
		return events.AgentClaudeCode, true
	case strings.Contains(path, filepath.Join(".codex", "sessions")):
		return events.AgentCodex, true
	default:
		return "", false
	}
}

// CodexHomeDir returns the base Codex directory, honoring CODEX_HOME.
// Grounded on internal/monitor/codex_source.go::codexHomeDir.
func CodexHomeDir() string {
	if env := os.Getenv("CODEX_HOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codex")
}

// ClaudeProjectsDir returns ~/.claude/projects.
func ClaudeProjectsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "projects")
}

// DecodeClaudeProjectPath reverses Claude Code's own project-directory
// naming scheme (the working directory with every "/" replaced by
// "-"). The mapping is ambiguous when the original path itself
// contains hyphens, so it falls back to checking candidates against
// the filesystem. Grounded on internal/monitor/jsonl.go::DecodeProjectPath.
func DecodeClaudeProjectPath(encoded string) string {
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		decoded = encoded
	}

	if !strings.HasPrefix(decoded, "-") {
		return decoded
	}

	candidate := strings.ReplaceAll(decoded, "-", "/")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	parts := strings.Split(decoded[1:], "-")
	for numSlashes := len(parts) - 1; numSlashes > 0; numSlashes-- {
		pathParts := make([]string, numSlashes)
		for i := 0; i < numSlashes; i++ {
			pathParts[i] = parts[i]
		}
		rest := strings.Join(parts[numSlashes:], "-")
		candidate := "/" + strings.Join(pathParts, "/")
		if rest != "" {
			candidate += "/" + rest
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return candidate
}

// CodexSessionIDFromFilename extracts the trailing UUID from a Codex
// rollout filename of the form rollout-{timestamp}-{uuid}.jsonl.
// Grounded on internal/monitor/codex_source.go::codexSessionIDFromFilename.
func CodexSessionIDFromFilename(name string) string {
	name = strings.TrimSuffix(name, ".jsonl")
	name = strings.TrimPrefix(name, "rollout-")

	if len(name) < 36 {
		return name
	}
	candidate := name[len(name)-36:]
	if candidate[8] == '-' && candidate[13] == '-' && candidate[18] == '-' && candidate[23] == '-' {
		return candidate
	}
	return name
}
