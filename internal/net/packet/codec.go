package packet

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMalformed marks a frame that is not a valid envelope or whose payload
	// does not match its tag. Callers drop such frames.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownKind marks a well-formed envelope with an unrecognized tag.
	ErrUnknownKind = errors.New("unknown message kind")
)

type envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode renders msg as a JSON envelope.
func Encode(msg Message) ([]byte, error) {
	var payload any
	switch m := msg.(type) {
	case *Hello:
		payload = m
	case *UpdateMe:
		payload = m.Snapshot
	case *WorldState:
		players := make(map[string]Snapshot, len(m.Players))
		for _, p := range m.Players {
			players[p.ID] = p
		}
		payload = players
	case *Chat:
		payload = m
	default:
		return nil, fmt.Errorf("encode %T: %w", msg, ErrUnknownKind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msg.Kind(), err)
	}
	return json.Marshal(envelope{Type: msg.Kind(), Payload: raw})
}

// Decode parses one frame. Every tag is handled explicitly; anything else is
// reported as ErrUnknownKind.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%w: %s without payload", ErrMalformed, env.Type)
	}

	switch env.Type {
	case KindHello:
		var m Hello
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("%w: hello: %v", ErrMalformed, err)
		}
		if m.ID == "" {
			return nil, fmt.Errorf("%w: hello without id", ErrMalformed)
		}
		return &m, nil

	case KindUpdateMe:
		var s Snapshot
		if err := json.Unmarshal(env.Payload, &s); err != nil {
			return nil, fmt.Errorf("%w: update: %v", ErrMalformed, err)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("%w: update without id", ErrMalformed)
		}
		return &UpdateMe{Snapshot: s}, nil

	case KindWorldState:
		var players map[string]Snapshot
		if err := json.Unmarshal(env.Payload, &players); err != nil {
			return nil, fmt.Errorf("%w: world state: %v", ErrMalformed, err)
		}
		ids := make([]string, 0, len(players))
		for id := range players {
			if id != "" {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		m := &WorldState{Players: make([]Snapshot, 0, len(ids))}
		for _, id := range ids {
			s := players[id]
			s.ID = id // the key is authoritative
			m.Players = append(m.Players, s)
		}
		return m, nil

	case KindChat:
		var m Chat
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("%w: chat: %v", ErrMalformed, err)
		}
		if m.SenderID == "" {
			return nil, fmt.Errorf("%w: chat without sender", ErrMalformed)
		}
		return &m, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}
