package system

import (
	"time"

	"github.com/strangerhq/stranger/internal/core/event"
	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem removes closed channels at tick end. Presence is left alone:
// the peer's record ages out through the staleness sweep. Phase 5 (Cleanup).
type CleanupSystem struct {
	world *world.State
	bus   *event.Bus
	log   *zap.Logger
}

func NewCleanupSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: ws, bus: bus, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	var closed []*net.Channel
	s.world.Channels.ForEach(func(ch *net.Channel) {
		// keep a closed channel until its inbox is drained
		if ch.IsClosed() && len(ch.InQueue) == 0 {
			closed = append(closed, ch)
		}
	})
	for _, ch := range closed {
		s.world.Channels.Remove(ch.ID)
		s.log.Info("channel closed",
			zap.Uint64("channel", ch.ID),
			zap.String("peer", ch.RemoteID),
		)
		event.Emit(s.bus, event.ChannelLost{ChannelID: ch.ID, PeerID: ch.RemoteID})
	}
}
