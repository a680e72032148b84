package rollout

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/fahchen/aura/internal/events"
	"github.com/fahchen/aura/internal/logx"
)

// BootstrapReplayMax bounds how many non-identity events a bootstrap
// replays from a file's backlog, per SPEC_FULL.md §4.5.
const BootstrapReplayMax = 4

// LineParser decodes one rollout line against a carried State, the
// shape both ParseClaudeLine and ParseCodexLine satisfy.
type LineParser func(state *State, raw []byte) ([]events.AgentEvent, error)

// Cursor is the per-file streaming context for one tracked rollout
// file: {path, byte_offset, leftover_line_buffer, parser_streaming_state}
// per SPEC_FULL.md §4.5.
type Cursor struct {
	Path   string
	Offset int64

	leftover []byte
	state    State
	parse    LineParser
}

// NewCursor builds a cursor for path, parsed with parse.
func NewCursor(path string, parse LineParser) *Cursor {
	return &Cursor{Path: path, parse: parse}
}

// isIdentityEvent reports whether e is SessionStarted: already
// replayed separately (synthesized fresh from the carried state) and
// so excluded from the bootstrap's "last N" window. SessionNameUpdated
// is also pulled out separately (see Bootstrap), but every other event
// — Activity included — counts toward BootstrapReplayMax.
func isIdentityEvent(e events.AgentEvent) bool {
	return e.Type == events.TypeSessionStarted
}

// Bootstrap reads the entire file once, per SPEC_FULL.md §4.5's
// "Bootstrap (recent file)" rule: it replays exactly one SessionStarted
// (synthesized from the final observed session id/cwd), at most one
// SessionNameUpdated (the most recent), and the last
// BootstrapReplayMax other events — including Activity — then pins the
// cursor to EOF with the session-emitted flag set.
func (c *Cursor) Bootstrap(agent events.AgentType) ([]events.AgentEvent, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var allEvents []events.AgentEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out, err := c.parse(&c.state, line)
		if err != nil {
			logx.Warnf("rollout: skipping unparsable line in %s: %v", c.Path, err)
			continue
		}
		allEvents = append(allEvents, out...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var lastName *events.AgentEvent
	var tail []events.AgentEvent
	for i := range allEvents {
		e := allEvents[i]
		if e.Type == events.TypeSessionNameUpdated {
			ev := e
			lastName = &ev
			continue
		}
		if isIdentityEvent(e) {
			continue
		}
		tail = append(tail, e)
	}
	if len(tail) > BootstrapReplayMax {
		tail = tail[len(tail)-BootstrapReplayMax:]
	}

	replayed := []events.AgentEvent{events.NewSessionStarted(c.state.SessionID, c.state.Cwd, agent)}
	if lastName != nil {
		replayed = append(replayed, *lastName)
	}
	replayed = append(replayed, tail...)

	c.Offset = info.Size()
	c.state.SessionEmitted = true
	return replayed, nil
}

// Tail processes new bytes appended to the file since Offset, per
// SPEC_FULL.md §4.5's "Tail" rule: truncation forces a fresh bootstrap;
// no growth is a no-op; growth is read as a suffix, appended to the
// leftover buffer, drained by complete line, and fed to the parser.
func (c *Cursor) Tail(agent events.AgentType) ([]events.AgentEvent, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	length := info.Size()

	if length < c.Offset {
		c.Offset = 0
		c.leftover = nil
		c.state = State{}
		return c.Bootstrap(agent)
	}
	if length == c.Offset {
		return nil, nil
	}

	if _, err := f.Seek(c.Offset, 0); err != nil {
		return nil, err
	}
	buf := make([]byte, length-c.Offset)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return nil, err
	}
	c.leftover = append(c.leftover, buf[:n]...)
	c.Offset += int64(n)

	var out []events.AgentEvent
	for {
		idx := bytes.IndexByte(c.leftover, '\n')
		if idx < 0 {
			break
		}
		line := c.leftover[:idx]
		c.leftover = c.leftover[idx+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		evs, err := c.parse(&c.state, line)
		if err != nil {
			logx.Warnf("rollout: skipping unparsable line in %s: %v", c.Path, err)
			continue
		}
		out = append(out, evs...)
	}
	return out, nil
}

// String implements fmt.Stringer for diagnostic logging.
func (c *Cursor) String() string {
	return fmt.Sprintf("%s@%d", c.Path, c.Offset)
}
