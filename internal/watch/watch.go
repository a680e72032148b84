// Package watch implements a minimal terminal renderer for the session
// registry: the SUPPLEMENTED FEATURES stub of SPEC_FULL.md that gives
// the read-only snapshot path a real consumer in this repository, since
// the windowed GUI itself is explicitly out of scope.
package watch

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fahchen/aura/internal/registry"
)

// FrameTick is how often the renderer polls even without a dirty
// signal, so animations (none here) would stay alive; mirrors
// SPEC_FULL.md §4.7's "renderer additionally polls" rule.
const FrameTick = 500 * time.Millisecond

// Run renders session snapshots to w every FrameTick, swapping the
// registry's dirty flag to false before each frame, until ctx is
// canceled. A set dirty flag does not bring a frame forward.
func Run(ctx context.Context, reg *registry.Registry, w io.Writer) {
	ticker := time.NewTicker(FrameTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Dirty().Swap()
			renderFrame(reg, w)
		}
	}
}

func renderFrame(reg *registry.Registry, w io.Writer) {
	sessions := reg.GetAll()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tAGENT\tSTATE\tNAME\tTOOLS")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", shortID(s.SessionID), s.Agent, s.State, s.Name, len(s.RunningTools))
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
