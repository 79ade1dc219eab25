package system

import (
	"time"

	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/handler"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/world"
)

// BroadcastSystem hands the local position to the sync coordinator, which
// throttles and builds the outbound snapshot. Phase 4 (Output), registered
// before OutputSystem.
type BroadcastSystem struct {
	sync  *handler.Sync
	local PositionSource
}

func NewBroadcastSystem(sync *handler.Sync, local PositionSource) *BroadcastSystem {
	return &BroadcastSystem{sync: sync, local: local}
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *BroadcastSystem) Update(_ time.Duration) {
	s.sync.OnLocalTick(s.local.Position(), s.local.Heading())
}

// OutputSystem flushes every channel's buffered frames to its writer.
// Phase 4 (Output).
type OutputSystem struct {
	world *world.State
}

func NewOutputSystem(ws *world.State) *OutputSystem {
	return &OutputSystem{world: ws}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.world.Channels.ForEach(func(ch *net.Channel) {
		ch.FlushOutput()
	})
}

// Sweeper evicts stale presence records; satisfied by *handler.Sync.
type Sweeper interface {
	Sweep() []string
}

// SweepSystem runs the staleness sweep every interval of accumulated tick
// time, carrying the remainder so sweeps keep the interval's cadence.
// Phase 3 (PostUpdate).
type SweepSystem struct {
	sync     Sweeper
	interval time.Duration
	acc      time.Duration
}

func NewSweepSystem(sync Sweeper, interval time.Duration) *SweepSystem {
	return &SweepSystem{sync: sync, interval: interval}
}

func (s *SweepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SweepSystem) Update(dt time.Duration) {
	s.acc += dt
	if s.acc < s.interval {
		return
	}
	s.acc -= s.interval
	s.sync.Sweep()
}
