package event

// PeerJoined is emitted when a HELLO arrives on a channel.
type PeerJoined struct {
	ChannelID   uint64
	PeerID      string
	DisplayName string
	ColorTag    string
}

// ChannelLost is emitted when a channel closes. Presence is left to the sweep.
type ChannelLost struct {
	ChannelID uint64
	PeerID    string // empty if the peer never said HELLO
}

// ConnectFailed is emitted when the upstream dial fails.
type ConnectFailed struct {
	Room string
	Err  error
}

// PlayerCaught is emitted once per approach when the agent reaches the
// local participant.
type PlayerCaught struct {
	Distance float64
}

// AgentModeChanged is emitted on every agent state entry.
type AgentModeChanged struct {
	From string
	To   string
}

// AgentSpoke carries a cosmetic agent utterance.
type AgentSpoke struct {
	Line string
}
