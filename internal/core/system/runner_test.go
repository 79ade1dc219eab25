package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"out", PhaseOutput, &log})
	r.Register(recorder{"in-a", PhaseInput, &log})
	r.Register(recorder{"upd", PhaseUpdate, &log})
	r.Register(recorder{"in-b", PhaseInput, &log})
	r.Register(recorder{"clean", PhaseCleanup, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"in-a", "in-b", "upd", "out", "clean"}, log)
}

func TestTickPhaseRunsOnlyThatPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"upd", PhaseUpdate, &log})
	r.Register(recorder{"in-1", PhaseInput, &log})
	r.Register(recorder{"in-2", PhaseInput, &log})

	r.TickPhase(PhaseInput, 0)
	assert.Equal(t, []string{"in-1", "in-2"}, log)
}

func TestStoppedRunnerIsInert(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"upd", PhaseUpdate, &log})
	r.Stop()

	r.Tick(time.Millisecond)
	r.TickPhase(PhaseUpdate, 0)
	assert.Empty(t, log)
	assert.True(t, r.Stopped())
}
