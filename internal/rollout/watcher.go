package rollout

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fahchen/aura/internal/events"
	"github.com/fahchen/aura/internal/logx"
	"github.com/fahchen/aura/internal/registry"
)

// VisibilityWindow bounds how old a newly discovered file may be and
// still get bootstrapped, per SPEC_FULL.md §4.5.
const VisibilityWindow = 10 * time.Minute

// RescanInterval is the periodic focused-rescan tick that backstops
// the OS file-watch, per SPEC_FULL.md §4.5.
const RescanInterval = 2 * time.Second

// dirtySet is the shared structure of SPEC_FULL.md §4.5: explicit dirty
// paths plus a full-rescan flag, guarded by a mutex; notify is the
// condition/notify primitive the watcher goroutine selects on to sleep
// until there is work.
type dirtySet struct {
	mu         sync.Mutex
	paths      map[string]struct{}
	fullRescan bool
	notify     chan struct{}
}

func newDirtySet() *dirtySet {
	return &dirtySet{paths: make(map[string]struct{}), notify: make(chan struct{}, 1)}
}

func (d *dirtySet) signal() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *dirtySet) markPath(path string) {
	d.mu.Lock()
	d.paths[path] = struct{}{}
	d.mu.Unlock()
	d.signal()
}

func (d *dirtySet) markFullRescan() {
	d.mu.Lock()
	d.fullRescan = true
	d.mu.Unlock()
	d.signal()
}

// drain returns and clears the accumulated dirty paths and full-rescan
// flag. It blocks until there is something to drain or stop is closed.
func (d *dirtySet) drain(stop <-chan struct{}) (paths []string, full bool, stopped bool) {
	for {
		d.mu.Lock()
		if len(d.paths) > 0 || d.fullRescan {
			for p := range d.paths {
				paths = append(paths, p)
			}
			full = d.fullRescan
			d.paths = make(map[string]struct{})
			d.fullRescan = false
			d.mu.Unlock()
			return paths, full, false
		}
		d.mu.Unlock()

		select {
		case <-stop:
			return nil, false, true
		case <-d.notify:
		}
	}
}

// Watcher discovers, bootstraps, and tails Claude Code and Codex rollout
// files, applying the normalized events it produces to a Registry.
// Grounded on internal/monitor/monitor.go's poll loop, generalized to
// the fsnotify-plus-periodic-rescan discovery of SPEC_FULL.md §4.5
// (pattern for the fsnotify half taken from
// telnet2-opencode/go-opencode/internal/vcs/watcher.go).
type Watcher struct {
	reg   *registry.Registry
	dirty *dirtySet

	mu      sync.Mutex
	cursors map[string]*Cursor
	health  map[events.AgentType]*sourceHealth
}

// NewWatcher builds a Watcher writing into reg.
func NewWatcher(reg *registry.Registry) *Watcher {
	return &Watcher{
		reg:     reg,
		dirty:   newDirtySet(),
		cursors: make(map[string]*Cursor),
		health: map[events.AgentType]*sourceHealth{
			events.AgentClaudeCode: newSourceHealth("claude-code"),
			events.AgentCodex:      newSourceHealth("codex"),
		},
	}
}

// roots returns the directories to watch/scan: the Claude Code projects
// root and the Codex sessions root.
func (w *Watcher) roots() []string {
	var out []string
	if p := ClaudeProjectsDir(); p != "" {
		out = append(out, p)
	}
	if home := CodexHomeDir(); home != "" {
		out = append(out, filepath.Join(home, "sessions"))
	}
	return out
}

// Run drives discovery, bootstrap and tail until ctx is canceled. Per
// SPEC_FULL.md §4.5's failure mode: watcher initialization failure is
// logged and Run returns (no retry); the rollout path is best-effort.
func (w *Watcher) Run(ctx context.Context) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logx.Warnf("rollout: watcher init failed, rollout tracking disabled: %v", err)
		return
	}
	defer fsw.Close()

	for _, root := range w.roots() {
		w.watchNearestAncestor(fsw, root)
	}

	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	go func() {
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				w.dirty.markPath(ev.Name)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logx.Warnf("rollout: fsnotify error, requesting full rescan: %v", err)
				w.dirty.markFullRescan()
			case <-stop:
				return
			}
		}
	}()

	ticker := time.NewTicker(RescanInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				w.dirty.markFullRescan()
			case <-stop:
				return
			}
		}
	}()

	for {
		paths, full, stopped := w.dirty.drain(stop)
		if stopped {
			return
		}
		if full {
			w.focusedRescan()
		}
		for _, p := range paths {
			w.processPath(p)
		}
	}
}

// watchNearestAncestor adds a recursive watch on root if it exists, or
// a non-recursive watch on the nearest existing ancestor otherwise.
// fsnotify itself is non-recursive; "recursive" here means adding every
// existing subdirectory. Watches are added once, when Run starts:
// directories created afterwards (the root itself, or new
// subdirectories) are not added, and files in them are reached only if
// they lie in a directory the focused rescan covers.
func (w *Watcher) watchNearestAncestor(fsw *fsnotify.Watcher, root string) {
	dir := root
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if dir == root {
				addRecursive(fsw, dir)
			} else {
				_ = fsw.Add(dir)
			}
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func addRecursive(fsw *fsnotify.Watcher, dir string) {
	_ = fsw.Add(dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			addRecursive(fsw, filepath.Join(dir, e.Name()))
		}
	}
}

// focusedRescan implements the periodic scan of SPEC_FULL.md §4.5: the
// root, today's and yesterday's date partitions, and the latest
// existing date partition, for each configured root.
func (w *Watcher) focusedRescan() {
	now := time.Now()
	for _, root := range w.roots() {
		dirs := []string{root}
		dirs = append(dirs, datePartition(root, now), datePartition(root, now.Add(-24*time.Hour)))
		if latest, ok := latestDatePartition(root); ok {
			dirs = append(dirs, latest)
		}
		for _, dir := range dirs {
			w.scanDir(dir, now)
		}
	}
}

func datePartition(root string, t time.Time) string {
	return filepath.Join(root, t.Format("2006"), t.Format("01"), t.Format("02"))
}

// latestDatePartition finds the lexicographically-latest YYYY/MM/DD
// directory under root, if any exist.
func latestDatePartition(root string) (string, bool) {
	years, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	year, ok := latestDirName(years)
	if !ok {
		return "", false
	}
	months, err := os.ReadDir(filepath.Join(root, year))
	if err != nil {
		return "", false
	}
	month, ok := latestDirName(months)
	if !ok {
		return "", false
	}
	days, err := os.ReadDir(filepath.Join(root, year, month))
	if err != nil {
		return "", false
	}
	day, ok := latestDirName(days)
	if !ok {
		return "", false
	}
	return filepath.Join(root, year, month, day), true
}

func latestDirName(entries []os.DirEntry) (string, bool) {
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[len(names)-1], true
}

func (w *Watcher) scanDir(dir string, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= VisibilityWindow {
			w.processPath(path)
		} else {
			w.registerStale(path)
		}
	}
}

// registerStale pins an out-of-window file's cursor to EOF without
// bootstrapping, per the visibility window rule.
func (w *Watcher) registerStale(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, tracked := w.cursors[path]; tracked {
		return
	}
	agent, ok := AgentForPath(path)
	if !ok {
		return
	}
	c := w.newCursorFor(path, agent)
	if info, err := os.Stat(path); err == nil {
		c.Offset = info.Size()
		c.state.SessionEmitted = true
	}
	w.cursors[path] = c
}

// newCursorFor builds a cursor for path, pre-seeding its state with a
// session id (and, for Claude, a cwd) derived from the filename/parent
// directory. A rollout's own session_meta/sessionId line overrides this
// once parsed; the seed only matters for lines emitted before that
// point ever appears, or never does.
func (w *Watcher) newCursorFor(path string, agent events.AgentType) *Cursor {
	parser := ParseClaudeLine
	if agent == events.AgentCodex {
		parser = ParseCodexLine
	}
	c := NewCursor(path, parser)
	switch agent {
	case events.AgentCodex:
		c.state.SessionID = CodexSessionIDFromFilename(filepath.Base(path))
	case events.AgentClaudeCode:
		c.state.SessionID = strings.TrimSuffix(filepath.Base(path), ".jsonl")
		c.state.Cwd = DecodeClaudeProjectPath(filepath.Base(filepath.Dir(path)))
	}
	return c
}

// processPath bootstraps a newly-tracked file or tails an existing one,
// applying the resulting events to the registry.
func (w *Watcher) processPath(path string) {
	agent, ok := AgentForPath(path)
	if !ok {
		return
	}
	h := w.health[agent]

	w.mu.Lock()
	c, tracked := w.cursors[path]
	if !tracked {
		info, err := os.Stat(path)
		if err != nil {
			w.mu.Unlock()
			if h != nil {
				h.recordDiscoverFailure(err)
			}
			return
		}
		if time.Since(info.ModTime()) > VisibilityWindow {
			w.mu.Unlock()
			w.registerStale(path)
			return
		}
		c = w.newCursorFor(path, agent)
		w.cursors[path] = c
	}
	w.mu.Unlock()

	var out []events.AgentEvent
	var err error
	if !tracked {
		out, err = c.Bootstrap(agent)
	} else {
		out, err = c.Tail(agent)
	}
	if err != nil {
		if h != nil {
			h.recordParseFailure(path, err)
		}
		logx.Warnf("rollout: %s tail error: %v", path, err)
		return
	}
	if h != nil {
		h.recordParseSuccess(path)
	}
	for _, e := range out {
		if e.Agent == "" {
			e.Agent = agent
		}
		w.reg.Apply(e, agent)
	}
}
