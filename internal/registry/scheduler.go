package registry

import (
	"context"
	"time"

	"github.com/fahchen/aura/internal/logx"
)

// slack is added to a computed stale deadline before sleeping, so a
// session whose last_activity lands exactly on the wake instant is
// reliably past it once MarkStale runs.
const slack = 50 * time.Millisecond

// idleWait is the sleep duration used when no session currently
// participates in stale-decay scheduling (NextStaleAt returns none);
// the scheduler wakes periodically anyway to notice newly-added
// sessions without needing an explicit wake channel.
const idleWait = 5 * time.Second

// RunStaleScheduler sleeps until the next stale deadline reported by
// NextStaleAt, then calls MarkStale, repeating until ctx is cancelled.
// Grounded on SPEC_FULL.md §4.6's stale-scheduler contract: "the
// scheduler sleeps until that instant (plus a small slack) ... sessions
// added later will perturb the next computation."
func RunStaleScheduler(ctx context.Context, r *Registry, timeout time.Duration) {
	for {
		wait := idleWait
		if next, ok := r.NextStaleAt(timeout); ok {
			if d := time.Until(next) + slack; d > 0 {
				wait = d
			} else {
				wait = slack
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			r.MarkStale(timeout)
			logx.Tracef("stale scheduler: ran mark_stale(timeout=%s)", timeout)
		}
	}
}
