package system

import (
	"errors"
	"time"

	"github.com/strangerhq/stranger/internal/core/event"
	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/handler"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
)

// ChannelSource hands newly opened channels to the tick loop: the server's
// accepted channels or the dialer's upstream.
type ChannelSource interface {
	NewChannels() <-chan *net.Channel
}

// FailureSource reports failed dials.
type FailureSource interface {
	Failures() <-chan error
}

// InputSystem registers new channels, reports dial failures and drains every
// channel's inbox through the message registry. Phase 0 (Input).
type InputSystem struct {
	sources    []ChannelSource
	failures   FailureSource
	registry   *packet.Registry
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(sources []ChannelSource, failures FailureSource, registry *packet.Registry, deps *handler.Deps) *InputSystem {
	return &InputSystem{
		sources:    sources,
		failures:   failures,
		registry:   registry,
		deps:       deps,
		maxPerTick: deps.Config.Network.MaxMessagesPerTick,
		log:        deps.Log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	ws := s.deps.World

	// Accept new channels
	for _, src := range s.sources {
	accept:
		for {
			select {
			case ch := <-src.NewChannels():
				s.register(ch)
			default:
				break accept
			}
		}
	}

	// Dial failures become notices; the session carries on alone.
	if s.failures != nil {
	failed:
		for {
			select {
			case err := <-s.failures.Failures():
				s.reportFailure(err)
			default:
				break failed
			}
		}
	}

	// Drain frames from each channel (up to maxPerTick per channel).
	// Closed channels are drained too; CleanupSystem removes them.
	role := ws.Room.Role
	ws.Channels.ForEach(func(ch *net.Channel) {
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-ch.InQueue:
				if err := s.registry.Dispatch(ch, role, data); err != nil {
					s.log.Debug("message dispatch error",
						zap.Uint64("channel", ch.ID),
						zap.Error(err),
					)
				}
			default:
				return
			}
		}
	})

	// Early flush: replies produced while draining (HELLO, relayed chat)
	// enter OutQueue now; OutputSystem flushes the rest of the tick.
	ws.Channels.ForEach(func(ch *net.Channel) {
		ch.FlushOutput()
	})
}

func (s *InputSystem) register(ch *net.Channel) {
	ws := s.deps.World
	if !ws.Room.IsCoordinator() && ws.Upstream() != nil {
		s.log.Warn("follower already has an upstream, closing extra channel", zap.Uint64("channel", ch.ID))
		ch.Close()
		return
	}
	ws.Channels.Add(ch)
	handler.SendHello(ch, s.deps)
	s.log.Debug("channel registered",
		zap.Uint64("channel", ch.ID),
		zap.String("peer", ch.Peer),
		zap.Int("channels", ws.Channels.Len()),
	)
}

func (s *InputSystem) reportFailure(err error) {
	room := s.deps.World.Room.ID
	var ce *net.ConnectError
	if errors.As(err, &ce) {
		room = ce.Room
	}
	text := "Could not reach room " + room
	if errors.Is(err, net.ErrRoomNotFound) {
		text = "Room " + room + " not found"
	}
	s.log.Warn("connect failed", zap.String("room", room), zap.Error(err))
	s.deps.World.Chat.Notice(text, world.ColorAlert)
	event.Emit(s.deps.Bus, event.ConnectFailed{Room: room, Err: err})
}
