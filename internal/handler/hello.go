package handler

import (
	"github.com/strangerhq/stranger/internal/core/event"
	"github.com/strangerhq/stranger/internal/identity"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
)

// SendHello introduces the local participant on a freshly opened channel.
func SendHello(ch *net.Channel, deps *Deps) {
	self := deps.World.Self
	ch.Send(&packet.Hello{
		ID:          self.ID,
		DisplayName: self.DisplayName,
		ColorTag:    self.ColorTag,
	})
}

// HandleHello records who is on the other end of ch and posts a "joined"
// notice. It never touches Presence: the first snapshot does that.
func HandleHello(ch *net.Channel, msg *packet.Hello, deps *Deps) {
	if msg.ID == deps.World.Self.ID {
		deps.Log.Warn("channel loops back to self, closing", zap.Uint64("channel", ch.ID))
		ch.Close()
		return
	}
	if ch.RemoteID == msg.ID {
		return // repeated HELLO
	}
	ch.RemoteID = msg.ID

	name := world.SanitizeText(msg.DisplayName, deps.Config.Chat.MaxRunes)
	if name == "" {
		name = identity.DisplayName(msg.ID)
	}

	deps.Log.Info("peer joined",
		zap.Uint64("channel", ch.ID),
		zap.String("peer", msg.ID),
		zap.String("name", name),
	)
	deps.World.Chat.Notice(name+" joined", world.ColorInfo)
	event.Emit(deps.Bus, event.PeerJoined{
		ChannelID:   ch.ID,
		PeerID:      msg.ID,
		DisplayName: name,
		ColorTag:    msg.ColorTag,
	})
}
