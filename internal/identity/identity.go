// Package identity mints the per-process participant identity.
package identity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// Identity is fixed for the lifetime of the process.
type Identity struct {
	ID          string
	DisplayName string
	ColorTag    string
}

// Generator hands out identities. Production code uses Random; tests inject
// a Sequence so ids are predictable.
type Generator interface {
	Next() Identity
}

// Random mints UUID-based identities.
type Random struct{}

func (Random) Next() Identity {
	return New(uuid.NewString())
}

// Sequence mints "<prefix>1", "<prefix>2", ...
type Sequence struct {
	Prefix string
	n      int
}

func (s *Sequence) Next() Identity {
	s.n++
	return New(fmt.Sprintf("%s%d", s.Prefix, s.n))
}

// New derives the display name and color tag from id.
func New(id string) Identity {
	return Identity{
		ID:          id,
		DisplayName: DisplayName(id),
		ColorTag:    ColorTag(id),
	}
}

// WithDisplayName returns a copy carrying name, or the original when name is empty.
func (i Identity) WithDisplayName(name string) Identity {
	if name != "" {
		i.DisplayName = name
	}
	return i
}

// DisplayName is "Player " followed by the first three characters of id.
func DisplayName(id string) string {
	r := []rune(id)
	if len(r) > 3 {
		r = r[:3]
	}
	return "Player " + string(r)
}

// ColorTag maps id to a stable hue.
func ColorTag(id string) string {
	hue := xxh3.HashString(id) % 360
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", hue)
}
