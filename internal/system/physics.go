package system

import (
	"time"

	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/world"
)

// PhysicsSystem integrates kinematic bodies after the steering systems have
// set their velocities. Phase 3 (PostUpdate).
type PhysicsSystem struct {
	bodies []*world.Body
}

func NewPhysicsSystem(bodies ...*world.Body) *PhysicsSystem {
	return &PhysicsSystem{bodies: bodies}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *PhysicsSystem) Update(dt time.Duration) {
	for _, b := range s.bodies {
		b.Integrate(dt)
	}
}
