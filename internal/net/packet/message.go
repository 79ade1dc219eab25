package packet

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags the four message shapes exchanged over a peer channel.
type Kind string

const (
	KindHello      Kind = "HELLO"
	KindUpdateMe   Kind = "UPDATE_ME"
	KindWorldState Kind = "WORLD_STATE"
	KindChat       Kind = "CHAT"
)

// Role is the local participant's place in the star.
type Role int

const (
	RoleCoordinator Role = iota
	RoleFollower
)

func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "Coordinator"
	case RoleFollower:
		return "Follower"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// Message is implemented only by the types in this file.
type Message interface {
	Kind() Kind
	sealed()
}

// Snapshot is the full public state of one participant at send time.
type Snapshot struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Position    mgl64.Vec3 `json:"position"`
	HeadingY    float64    `json:"headingY"`
	ColorTag    string     `json:"colorTag"`
}

// ChatEvent is one line of chat. Sender is a display name, not an id.
type ChatEvent struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Color  string `json:"color"`
}

// Hello is sent once per newly opened channel.
type Hello struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ColorTag    string `json:"colorTag"`
}

// UpdateMe carries a follower's own snapshot to the coordinator.
type UpdateMe struct {
	Snapshot Snapshot
}

// WorldState carries every participant the coordinator knows, itself included.
// On the wire it is an object keyed by participant id.
type WorldState struct {
	Players []Snapshot
}

// Chat wraps a chat line with the originating participant id.
type Chat struct {
	SenderID string    `json:"senderId"`
	Message  ChatEvent `json:"message"`
}

func (*Hello) Kind() Kind      { return KindHello }
func (*UpdateMe) Kind() Kind   { return KindUpdateMe }
func (*WorldState) Kind() Kind { return KindWorldState }
func (*Chat) Kind() Kind       { return KindChat }

func (*Hello) sealed()      {}
func (*UpdateMe) sealed()   {}
func (*WorldState) sealed() {}
func (*Chat) sealed()       {}
