package system

import (
	"io"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strangerhq/stranger/internal/agent"
	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/data"
	"github.com/strangerhq/stranger/internal/handler"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
)

// Options wires one participant's tick loop.
type Options struct {
	Deps     *handler.Deps
	Sources  []ChannelSource
	Failures FailureSource // nil for a coordinator

	// Local is the participant's own body; its position is what gets synced.
	// Required.
	Local *world.Body

	// Agent enables the neighbor. AgentBody is the body it steers.
	Agent      *agent.Controller
	AgentBody  *world.Body
	AgentSpawn mgl64.Vec3

	// Bots enables the ambient bots.
	Bots *data.BotsEntry
	Rng  *rand.Rand

	// Commands carries typed lines; Out receives chat lines. Both optional.
	Commands <-chan string
	Out      io.Writer
	Quit     func()
}

// Session is a fully wired participant: registry, sync coordinator and the
// phased runner that drives them.
type Session struct {
	Runner   *coresys.Runner
	Deps     *handler.Deps
	Registry *packet.Registry
	Sync     *handler.Sync
	Agent    *AgentSystem
	Bots     *BotSystem
}

func NewSession(o Options) *Session {
	deps := o.Deps
	reg := packet.NewRegistry(deps.Log)
	handler.RegisterAll(reg, deps)
	sync := handler.NewSync(deps)
	SubscribeSession(deps)

	s := &Session{
		Runner:   coresys.NewRunner(),
		Deps:     deps,
		Registry: reg,
		Sync:     sync,
	}
	ws := deps.World

	if o.Agent != nil && o.AgentBody != nil {
		var target PositionSource
		if o.Local != nil {
			target = o.Local
		}
		s.Agent = NewAgentSystem(o.Agent, o.AgentBody, target, ws.Game, deps.Bus)
	}
	if o.Bots != nil {
		s.Bots = NewBotSystem(*o.Bots, deps.Config.Chat.BotChatter, ws.Game, ws.Chat, o.Rng)
	}

	// Phase 0
	s.Runner.Register(NewInputSystem(o.Sources, o.Failures, reg, deps))
	if o.Commands != nil {
		s.Runner.Register(NewCommandSystem(CommandOptions{
			Lines:      o.Commands,
			Sync:       sync,
			World:      ws,
			Local:      o.Local,
			Agent:      s.Agent,
			AgentBody:  o.AgentBody,
			AgentSpawn: o.AgentSpawn,
			Out:        o.Out,
			Quit:       o.Quit,
			Now:        deps.Now,
		}))
	}
	// Phase 1
	s.Runner.Register(NewEventSystem(deps.Bus))
	// Phase 2
	if s.Agent != nil {
		s.Runner.Register(s.Agent)
	}
	if s.Bots != nil {
		s.Runner.Register(s.Bots)
	}
	// Phase 3
	var bodies []*world.Body
	for _, b := range []*world.Body{o.Local, o.AgentBody} {
		if b != nil {
			bodies = append(bodies, b)
		}
	}
	s.Runner.Register(NewPhysicsSystem(bodies...))
	s.Runner.Register(NewSweepSystem(sync, deps.Config.Sync.SweepInterval))
	// Phase 4
	s.Runner.Register(NewBroadcastSystem(sync, o.Local))
	s.Runner.Register(NewOutputSystem(ws))
	// Phase 5
	s.Runner.Register(NewCleanupSystem(ws, deps.Bus, deps.Log))
	if o.Out != nil {
		s.Runner.Register(NewChatPrinter(ws.Chat, o.Out))
	}
	return s
}

func (s *Session) Tick(dt time.Duration) {
	s.Runner.Tick(dt)
}

// Teardown stops the round, closes every channel, freezes Presence and stops
// the runner so no periodic work runs again.
func (s *Session) Teardown() {
	s.Deps.World.Game.Stop()
	s.Sync.Teardown()
	s.Runner.Stop()
}
