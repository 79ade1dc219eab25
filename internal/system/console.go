package system

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/handler"
	"github.com/strangerhq/stranger/internal/world"
)

// CommandSystem applies lines typed by the local participant: slash commands
// drive the round, anything else is sent as chat. Phase 0 (Input).
type CommandSystem struct {
	lines  <-chan string
	sync   *handler.Sync
	world  *world.State
	local  *world.Body
	agent  *AgentSystem // nil when the neighbor is disabled
	spawn  mgl64.Vec3   // neighbor spawn point, restored on /reset
	agentB *world.Body
	out    io.Writer
	quit   func()
	now    func() time.Time
}

// CommandOptions configures a CommandSystem.
type CommandOptions struct {
	Lines      <-chan string
	Sync       *handler.Sync
	World      *world.State
	Local      *world.Body
	Agent      *AgentSystem
	AgentBody  *world.Body
	AgentSpawn mgl64.Vec3
	Out        io.Writer
	Quit       func()
	Now        func() time.Time
}

func NewCommandSystem(o CommandOptions) *CommandSystem {
	if o.Out == nil {
		o.Out = io.Discard
	}
	if o.Quit == nil {
		o.Quit = func() {}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &CommandSystem{
		lines:  o.Lines,
		sync:   o.Sync,
		world:  o.World,
		local:  o.Local,
		agent:  o.Agent,
		spawn:  o.AgentSpawn,
		agentB: o.AgentBody,
		out:    o.Out,
		quit:   o.Quit,
		now:    o.Now,
	}
}

func (s *CommandSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *CommandSystem) Update(_ time.Duration) {
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.lines = nil
				return
			}
			s.apply(line)
		default:
			return
		}
	}
}

func (s *CommandSystem) apply(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, "/") {
		s.sync.SendChat(line)
		return
	}

	fields := strings.Fields(line)
	game := s.world.Game
	switch fields[0] {
	case "/start":
		game.Start()
		fmt.Fprintln(s.out, "round started")
	case "/stop":
		game.Stop()
	case "/key":
		game.PickUpKey()
	case "/win":
		if game.Win() {
			fmt.Fprintln(s.out, "You found the secret stash! You win!")
		}
	case "/reset":
		game.Reset()
		if s.agent != nil {
			s.agent.Controller().Reset()
		}
		if s.agentB != nil {
			s.agentB.SetPosition(s.spawn)
		}
	case "/who":
		s.who()
	case "/pos":
		s.move(fields[1:])
	case "/quit":
		s.quit()
	default:
		fmt.Fprintf(s.out, "unknown command %s (try /start /stop /key /win /reset /who /pos x y z /quit)\n", fields[0])
	}
}

func (s *CommandSystem) who() {
	live := s.world.Presence.Live(s.now())
	fmt.Fprintf(s.out, "%s (you) room=%s role=%s, %d others\n",
		s.world.Self.DisplayName, s.world.Room.ID, s.world.Room.Role, len(live))
	for _, r := range live {
		fmt.Fprintf(s.out, "  %-16s %6.2f %6.2f %6.2f\n", r.DisplayName, r.Position[0], r.Position[1], r.Position[2])
	}
}

func (s *CommandSystem) move(args []string) {
	if len(args) != 3 || s.local == nil {
		fmt.Fprintln(s.out, "usage: /pos x y z")
		return
	}
	var v mgl64.Vec3
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			fmt.Fprintf(s.out, "bad coordinate %q\n", a)
			return
		}
		v[i] = f
	}
	s.local.SetPosition(v)
}

// ChatPrinter writes chat lines appended during the tick. Phase 5 (Cleanup).
type ChatPrinter struct {
	chat *world.ChatLog
	out  io.Writer
	seen uint64
}

func NewChatPrinter(chat *world.ChatLog, out io.Writer) *ChatPrinter {
	return &ChatPrinter{chat: chat, out: out}
}

func (s *ChatPrinter) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *ChatPrinter) Update(_ time.Duration) {
	var entries []world.ChatEntry
	entries, s.seen = s.chat.Since(s.seen)
	for _, e := range entries {
		if e.System {
			fmt.Fprintf(s.out, "* %s\n", e.Text)
			continue
		}
		fmt.Fprintf(s.out, "<%s> %s\n", e.Sender, e.Text)
	}
}
