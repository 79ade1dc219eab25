package handler

import (
	"time"

	"github.com/strangerhq/stranger/internal/config"
	"github.com/strangerhq/stranger/internal/core/event"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger
	World  *world.State
	Bus    *event.Bus
	// Now is the receipt clock. Defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// RegisterAll registers all message handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	bothRoles := []packet.Role{packet.RoleCoordinator, packet.RoleFollower}

	reg.Register(packet.KindHello, bothRoles,
		func(from any, msg packet.Message, _ []byte) {
			HandleHello(from.(*net.Channel), msg.(*packet.Hello), deps)
		},
	)

	// Followers report to the coordinator only.
	reg.Register(packet.KindUpdateMe,
		[]packet.Role{packet.RoleCoordinator},
		func(from any, msg packet.Message, _ []byte) {
			HandleUpdateMe(from.(*net.Channel), msg.(*packet.UpdateMe), deps)
		},
	)

	// The merged view flows coordinator → followers only.
	reg.Register(packet.KindWorldState,
		[]packet.Role{packet.RoleFollower},
		func(from any, msg packet.Message, _ []byte) {
			HandleWorldState(from.(*net.Channel), msg.(*packet.WorldState), deps)
		},
	)

	reg.Register(packet.KindChat, bothRoles,
		func(from any, msg packet.Message, raw []byte) {
			HandleChat(from.(*net.Channel), msg.(*packet.Chat), raw, deps)
		},
	)
}
