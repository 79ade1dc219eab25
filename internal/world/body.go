package world

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Body is a headless kinematic body: the stand-in for the physics layer.
// Velocity is applied on Integrate; the body never sinks below Floor.
type Body struct {
	mu       sync.RWMutex
	position mgl64.Vec3
	velocity mgl64.Vec3
	heading  float64
	Floor    float64
}

func NewBody(pos mgl64.Vec3) *Body {
	return &Body{position: pos}
}

func (b *Body) Position() mgl64.Vec3 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.position
}

func (b *Body) SetPosition(pos mgl64.Vec3) {
	b.mu.Lock()
	b.position = pos
	b.mu.Unlock()
}

func (b *Body) Velocity() mgl64.Vec3 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.velocity
}

// SetVelocity sets the velocity and, if it has a horizontal component, turns
// the heading to face it.
func (b *Body) SetVelocity(v mgl64.Vec3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.velocity = v
	if v[0] != 0 || v[2] != 0 {
		b.heading = math.Atan2(v[0], v[2])
	}
}

// Heading is the rotation about Y in radians.
func (b *Body) Heading() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.heading
}

func (b *Body) SetHeading(h float64) {
	b.mu.Lock()
	b.heading = h
	b.mu.Unlock()
}

// Integrate advances the body by dt.
func (b *Body) Integrate(dt time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.position = b.position.Add(b.velocity.Mul(dt.Seconds()))
	if b.position[1] < b.Floor {
		b.position[1] = b.Floor
	}
}
