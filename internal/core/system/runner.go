package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	stopped bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once. A stopped runner does nothing.
func (r *Runner) Tick(dt time.Duration) {
	if r.stopped {
		return
	}
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
}

// TickPhase runs only the systems of one phase, in registration order. A
// stopped runner does nothing.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if r.stopped {
		return
	}
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Stop makes every later Tick a no-op. Periodic work driven by the runner
// (throttled sends, sweeps, agent steps) ends with it.
func (r *Runner) Stop() {
	r.stopped = true
}

func (r *Runner) Stopped() bool {
	return r.stopped
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
