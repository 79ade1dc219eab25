// Package agent implements the neighbor: a patrol/chase state machine that
// steers a kinematic body around a waypoint loop and after the local
// participant.
package agent

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

type Mode int

const (
	ModeIdle Mode = iota // reserved, never entered by the controller
	ModePatrol
	ModeChase
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModePatrol:
		return "Patrol"
	case ModeChase:
		return "Chase"
	default:
		return "Unknown"
	}
}

// Params are the controller tunables. Distances are world units, speeds
// units per second.
type Params struct {
	DetectionRange  float64
	Hysteresis      float64 // chase ends beyond DetectionRange * Hysteresis
	CatchRange      float64
	ChaseSpeed      float64
	PatrolSpeed     float64
	WaypointRadius  float64
	FallSpeed       float64 // constant downward velocity handed to the body
	UtteranceChance float64 // per waypoint advance
}

func DefaultParams() Params {
	return Params{
		DetectionRange:  9,
		Hysteresis:      1.5,
		CatchRange:      1.3,
		ChaseSpeed:      5.2,
		PatrolSpeed:     2.5,
		WaypointRadius:  1.5,
		FallSpeed:       5,
		UtteranceChance: 0.4,
	}
}

// LoseRange is the distance beyond which a chase is dropped.
func (p Params) LoseRange() float64 {
	return p.DetectionRange * p.Hysteresis
}

// State is the controller's singleton state, mutated once per Tick.
type State struct {
	Mode          Mode
	PatrolTarget  int
	LastUtterance string
}

// Perception is what the agent senses this tick. A missing target is
// treated as infinitely far away.
type Perception struct {
	Self        mgl64.Vec3
	Target      mgl64.Vec3
	TargetKnown bool
}

// Decision is the controller's output for one tick.
type Decision struct {
	Velocity  mgl64.Vec3
	Heading   float64 // rotation about Y, facing the target when known
	Distance  float64
	Caught    bool   // raised once per approach
	Entered   Mode   // mode entered this tick, ModeIdle if unchanged
	Utterance string // empty when silent
}

// Controller is the agent state machine. Not safe for concurrent use.
type Controller struct {
	params    Params
	waypoints []mgl64.Vec3
	voice     Voice
	rng       *rand.Rand
	state     State
	inCatch   bool
}

// NewController starts in Patrol heading for the first waypoint. A nil voice
// keeps the agent silent; a nil rng uses a time-independent default source.
func NewController(params Params, waypoints []mgl64.Vec3, voice Voice, rng *rand.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if voice == nil {
		voice = Silent{}
	}
	wps := make([]mgl64.Vec3, len(waypoints))
	copy(wps, waypoints)
	return &Controller{
		params:    params,
		waypoints: wps,
		voice:     voice,
		rng:       rng,
		state:     State{Mode: ModePatrol},
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Params() Params {
	return c.params
}

// Reset returns to Patrol at the first waypoint and re-arms the catch signal.
func (c *Controller) Reset() {
	c.state = State{Mode: ModePatrol}
	c.inCatch = false
}

// Tick evaluates one frame.
func (c *Controller) Tick(p Perception) Decision {
	d := math.Inf(1)
	if p.TargetKnown {
		d = p.Target.Sub(p.Self).Len()
	}
	dec := Decision{Distance: d}

	if d < c.params.CatchRange {
		if !c.inCatch {
			c.inCatch = true
			dec.Caught = true
		}
	} else {
		c.inCatch = false
	}

	switch {
	case d < c.params.DetectionRange:
		if c.state.Mode != ModeChase {
			c.enter(ModeChase, CueSpotted, &dec)
		}
	case c.state.Mode == ModeChase && d > c.params.LoseRange():
		c.enter(ModePatrol, CueLost, &dec)
	}

	var dir mgl64.Vec3
	speed := 0.0
	switch c.state.Mode {
	case ModeChase:
		dir = p.Target.Sub(p.Self)
		speed = c.params.ChaseSpeed
	case ModePatrol:
		if len(c.waypoints) > 0 {
			wp := c.waypoints[c.state.PatrolTarget]
			if wp.Sub(p.Self).Len() < c.params.WaypointRadius {
				c.state.PatrolTarget = (c.state.PatrolTarget + 1) % len(c.waypoints)
				wp = c.waypoints[c.state.PatrolTarget]
				if c.rng.Float64() < c.params.UtteranceChance && dec.Utterance == "" {
					c.say(CueWander, &dec)
				}
			}
			dir = wp.Sub(p.Self)
			speed = c.params.PatrolSpeed
		}
	}

	v := steer(dir, speed)
	dec.Velocity = mgl64.Vec3{v[0], -c.params.FallSpeed, v[2]}

	switch {
	case p.TargetKnown:
		to := p.Target.Sub(p.Self)
		dec.Heading = math.Atan2(to[0], to[2])
	case v[0] != 0 || v[2] != 0:
		dec.Heading = math.Atan2(v[0], v[2])
	}
	return dec
}

func (c *Controller) enter(m Mode, cue Cue, dec *Decision) {
	c.state.Mode = m
	dec.Entered = m
	c.say(cue, dec)
}

func (c *Controller) say(cue Cue, dec *Decision) {
	line := c.voice.Line(cue, c.state)
	if line == "" {
		return
	}
	c.state.LastUtterance = line
	dec.Utterance = line
}

// steer scales the unit vector toward dir by speed. A zero-length dir gives
// no motion.
func steer(dir mgl64.Vec3, speed float64) mgl64.Vec3 {
	l := dir.Len()
	if l == 0 || speed == 0 {
		return mgl64.Vec3{}
	}
	return dir.Mul(speed / l)
}
