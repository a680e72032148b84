// Package rollout decodes lines of an agent's append-only session
// rollout (JSONL) into normalized events, and discovers/tails/bootstraps
// the files that carry them. Grounded on
// internal/monitor/{claude_source,codex_source,monitor,jsonl}.go (the
// teacher's Source/Discover/Parse/cursor shape) and
// original_source/crates/aura-daemon/src/parsers/claude.rs (the
// claude-flavored text-marker detection rules).
package rollout

import "fmt"

// State is the per-file streaming context threaded through successive
// calls to ParseClaudeLine / ParseCodexLine, per SPEC_FULL.md §4.3.
type State struct {
	SessionID      string
	Cwd            string
	SessionEmitted bool

	webSearchSeq int
}

// nextWebSearchID returns ts if non-empty, else an in-parser monotonic
// counter value, per SPEC_FULL.md §4.3.1.
func (s *State) nextWebSearchID(ts string) string {
	if ts != "" {
		return ts
	}
	s.webSearchSeq++
	return fmt.Sprintf("web_search:seq:%d", s.webSearchSeq)
}
