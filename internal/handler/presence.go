package handler

import (
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"go.uber.org/zap"
)

// HandleUpdateMe merges one follower snapshot, stamped with receipt time.
func HandleUpdateMe(ch *net.Channel, msg *packet.UpdateMe, deps *Deps) {
	if !deps.World.Presence.Upsert(msg.Snapshot, deps.now()) {
		deps.Log.Debug("snapshot ignored",
			zap.Uint64("channel", ch.ID),
			zap.String("id", msg.Snapshot.ID),
		)
	}
}

// HandleWorldState merges the coordinator's view, skipping the local entry.
func HandleWorldState(ch *net.Channel, msg *packet.WorldState, deps *Deps) {
	now := deps.now()
	self := deps.World.Self.ID
	for _, snap := range msg.Players {
		if snap.ID == self {
			continue
		}
		deps.World.Presence.Upsert(snap, now)
	}
}
