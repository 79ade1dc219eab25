package system

import (
	"time"

	"github.com/strangerhq/stranger/internal/core/event"
	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/handler"
	"github.com/strangerhq/stranger/internal/identity"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
)

// EventSystem swaps the bus buffers and delivers last tick's events.
// Phase 1 (PreUpdate).
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// SubscribeSession wires the session-level reactions to bus events.
func SubscribeSession(deps *handler.Deps) {
	ws := deps.World
	log := deps.Log

	event.Subscribe(deps.Bus, func(e event.PlayerCaught) {
		if ws.Game.Catch() {
			log.Info("caught by the neighbor", zap.Float64("distance", e.Distance))
		}
	})

	event.Subscribe(deps.Bus, func(e event.ChannelLost) {
		if e.PeerID == "" {
			return
		}
		name := identity.DisplayName(e.PeerID)
		if rec, ok := ws.Presence.Get(e.PeerID); ok && rec.DisplayName != "" {
			name = rec.DisplayName
		}
		ws.Chat.Notice(name+" disconnected", world.ColorInfo)
	})

	event.Subscribe(deps.Bus, func(e event.AgentModeChanged) {
		log.Debug("neighbor mode", zap.String("from", e.From), zap.String("to", e.To))
	})

	event.Subscribe(deps.Bus, func(e event.AgentSpoke) {
		log.Debug("neighbor says", zap.String("line", e.Line))
	})
}
