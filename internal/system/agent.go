package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strangerhq/stranger/internal/agent"
	"github.com/strangerhq/stranger/internal/core/event"
	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/world"
)

// PositionSource is the render/physics boundary: the local participant's
// authoritative position and heading.
type PositionSource interface {
	Position() mgl64.Vec3
	Heading() float64
}

// AgentSystem steps the neighbor controller against the local participant
// and hands the resulting velocity to its body. It reads only local state,
// never the network. Phase 2 (Update).
type AgentSystem struct {
	ctrl   *agent.Controller
	body   *world.Body
	target PositionSource // nil: no target
	game   *world.Game
	bus    *event.Bus
}

func NewAgentSystem(ctrl *agent.Controller, body *world.Body, target PositionSource, game *world.Game, bus *event.Bus) *AgentSystem {
	return &AgentSystem{ctrl: ctrl, body: body, target: target, game: game, bus: bus}
}

func (s *AgentSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AgentSystem) Update(_ time.Duration) {
	if !s.game.Playing() {
		s.body.SetVelocity(mgl64.Vec3{})
		return
	}

	p := agent.Perception{Self: s.body.Position()}
	if s.target != nil {
		p.Target = s.target.Position()
		p.TargetKnown = true
	}

	prev := s.ctrl.State().Mode
	dec := s.ctrl.Tick(p)
	s.body.SetVelocity(dec.Velocity)
	s.body.SetHeading(dec.Heading)

	if dec.Entered != agent.ModeIdle {
		event.Emit(s.bus, event.AgentModeChanged{From: prev.String(), To: dec.Entered.String()})
	}
	if dec.Utterance != "" {
		event.Emit(s.bus, event.AgentSpoke{Line: dec.Utterance})
	}
	if dec.Caught {
		event.Emit(s.bus, event.PlayerCaught{Distance: dec.Distance})
	}
}

func (s *AgentSystem) Controller() *agent.Controller {
	return s.ctrl
}
