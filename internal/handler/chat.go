package handler

import (
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
)

// HandleChat appends a remote chat line. The coordinator also relays the
// frame verbatim to every other open channel, never back to the source.
func HandleChat(ch *net.Channel, msg *packet.Chat, raw []byte, deps *Deps) {
	if msg.SenderID == deps.World.Self.ID {
		return
	}

	maxRunes := deps.Config.Chat.MaxRunes
	text := world.SanitizeText(msg.Message.Text, maxRunes)
	if text == "" {
		return
	}
	sender := world.SanitizeText(msg.Message.Sender, maxRunes)
	if sender == "" {
		sender = msg.SenderID
	}

	deps.Log.Debug("chat",
		zap.String("from", msg.SenderID),
		zap.String("text", text),
	)
	deps.World.Chat.Append(world.ChatEntry{
		ID:     msg.Message.ID,
		Sender: sender,
		Text:   text,
		Color:  msg.Message.Color,
	})

	if !deps.World.Room.IsCoordinator() {
		return
	}
	for _, other := range deps.World.Channels.Open() {
		if other.ID == ch.ID {
			continue
		}
		other.SendRaw(raw)
	}
}
