package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strangerhq/stranger/internal/identity"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
)

// Room is fixed once at session start, before any channel is opened.
type Room struct {
	ID   string
	Role packet.Role
}

func (r Room) IsCoordinator() bool { return r.Role == packet.RoleCoordinator }

// State is the explicit session context passed to handlers and systems.
// Channels is accessed only from the tick loop; Presence, Chat and Game are
// safe for concurrent readers.
type State struct {
	Self     identity.Identity
	Room     Room
	Presence *Presence
	Chat     *ChatLog
	Game     *Game
	Channels *net.ChannelStore
}

func NewState(self identity.Identity, room Room, staleAfter time.Duration, chatCapacity int) *State {
	chat := NewChatLog(chatCapacity, self.ID+"-")
	return &State{
		Self:     self,
		Room:     room,
		Presence: NewPresence(self.ID, staleAfter),
		Chat:     chat,
		Game:     NewGame(chat),
		Channels: net.NewChannelStore(),
	}
}

// Upstream returns the follower's open coordinator channel, or nil.
func (s *State) Upstream() *net.Channel {
	if s.Room.IsCoordinator() {
		return nil
	}
	open := s.Channels.Open()
	if len(open) == 0 {
		return nil
	}
	return open[0]
}

// LocalSnapshot builds the local participant's snapshot.
func (s *State) LocalSnapshot(pos mgl64.Vec3, headingY float64) packet.Snapshot {
	return packet.Snapshot{
		ID:          s.Self.ID,
		DisplayName: s.Self.DisplayName,
		Position:    pos,
		HeadingY:    headingY,
		ColorTag:    s.Self.ColorTag,
	}
}
