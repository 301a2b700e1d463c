// Package fw implements the forwarding pipelines, strategy dispatch, and
// scheduler (spec.md C8-C10) — the heart of the design. A single Forwarder
// drives one cooperative event loop: every pipeline step below runs to
// completion on the goroutine that calls it, matching spec.md §5's
// single-threaded model (faces deliver packets by invoking handlers, which
// call straight into the pipeline; nothing here takes a lock).
package fw

import (
	"time"

	"github.com/reflexndn/rfwd/table"
)

// Scheduler is the single timer wheel spec.md §5/C10 describes. It exists
// mainly to give every PIT entry's expiry timer one common construction
// point; Go's runtime timer wheel does the actual scheduling.
type Scheduler struct{}

// NewScheduler constructs a Scheduler.
func NewScheduler() *Scheduler { return &Scheduler{} }

// NewTimer satisfies table.NewTimerFunc.
func (s *Scheduler) NewTimer(d time.Duration, cb func()) table.Timer {
	return &wheelTimer{t: time.AfterFunc(d, cb)}
}

type wheelTimer struct{ t *time.Timer }

func (w *wheelTimer) Reset(d time.Duration) { w.t.Reset(d) }
func (w *wheelTimer) Stop()                 { w.t.Stop() }
