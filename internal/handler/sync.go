package handler

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
)

// Sync drives the outbound half of the protocol: throttled snapshots, local
// chat, the staleness sweep and teardown. Tick loop only.
type Sync struct {
	deps     *Deps
	lastSent time.Time
	sentOnce bool
	closed   bool
}

func NewSync(deps *Deps) *Sync {
	return &Sync{deps: deps}
}

// OnLocalTick sends the local snapshot (follower) or the merged view
// (coordinator), at most once per send interval. Reports whether anything
// was sent.
func (s *Sync) OnLocalTick(pos mgl64.Vec3, headingY float64) bool {
	if s.closed {
		return false
	}
	now := s.deps.now()
	if s.sentOnce && now.Sub(s.lastSent) < s.deps.Config.Sync.SendInterval {
		return false
	}

	w := s.deps.World
	local := w.LocalSnapshot(pos, headingY)
	sent := false

	if w.Room.IsCoordinator() {
		open := w.Channels.Open()
		if len(open) > 0 {
			live := w.Presence.Live(now)
			players := make([]packet.Snapshot, 0, len(live)+1)
			players = append(players, local)
			for _, rec := range live {
				players = append(players, rec.Snapshot())
			}
			msg := &packet.WorldState{Players: players}
			for _, ch := range open {
				ch.Send(msg)
			}
			sent = true
		}
	} else if up := w.Upstream(); up != nil {
		up.Send(&packet.UpdateMe{Snapshot: local})
		sent = true
	}

	if sent {
		s.lastSent = now
		s.sentOnce = true
	}
	return sent
}

// SendChat posts text locally as "You" and sends it to the coordinator, or
// to every follower when coordinating. Returns the local entry, or false if
// the text was empty after sanitizing.
func (s *Sync) SendChat(text string) (world.ChatEntry, bool) {
	if s.closed {
		return world.ChatEntry{}, false
	}
	w := s.deps.World
	text = world.SanitizeText(text, s.deps.Config.Chat.MaxRunes)
	if text == "" {
		return world.ChatEntry{}, false
	}

	entry := w.Chat.Post("You", text, w.Self.ColorTag)
	msg := &packet.Chat{
		SenderID: w.Self.ID,
		Message: packet.ChatEvent{
			ID:     entry.ID,
			Sender: w.Self.DisplayName,
			Text:   text,
			Color:  w.Self.ColorTag,
		},
	}

	var targets []*net.Channel
	if w.Room.IsCoordinator() {
		targets = w.Channels.Open()
	} else if up := w.Upstream(); up != nil {
		targets = []*net.Channel{up}
	}
	for _, ch := range targets {
		ch.Send(msg)
	}
	return entry, true
}

// Sweep evicts stale records.
func (s *Sync) Sweep() []string {
	if s.closed {
		return nil
	}
	expired := s.deps.World.Presence.Sweep(s.deps.now())
	for _, id := range expired {
		s.deps.Log.Info("peer timed out", zap.String("peer", id))
	}
	return expired
}

// Teardown closes every channel and freezes Presence. Later calls to any
// Sync method are no-ops.
func (s *Sync) Teardown() {
	if s.closed {
		return
	}
	s.closed = true
	w := s.deps.World
	w.Channels.ForEach(func(ch *net.Channel) {
		ch.Close()
	})
	w.Channels.ForEach(func(ch *net.Channel) {
		w.Channels.Remove(ch.ID)
	})
	w.Presence.Freeze()
	s.deps.Log.Info("session torn down")
}

func (s *Sync) Closed() bool {
	return s.closed
}
