package agent

import "math/rand"

// Cue is the situation an utterance reacts to.
type Cue int

const (
	CueSpotted Cue = iota // entered Chase
	CueLost               // dropped back to Patrol
	CueWander             // advanced to the next waypoint
)

func (c Cue) String() string {
	switch c {
	case CueSpotted:
		return "spotted"
	case CueLost:
		return "lost"
	case CueWander:
		return "wander"
	default:
		return "unknown"
	}
}

// Voice picks the agent's lines. An empty line means silence.
type Voice interface {
	Line(cue Cue, st State) string
}

// Silent never speaks.
type Silent struct{}

func (Silent) Line(Cue, State) string { return "" }

// TableVoice draws lines at random from fixed lists.
type TableVoice struct {
	lines map[Cue][]string
	rng   *rand.Rand
}

func NewTableVoice(spotted, lost, wander []string, rng *rand.Rand) *TableVoice {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &TableVoice{
		lines: map[Cue][]string{
			CueSpotted: spotted,
			CueLost:    lost,
			CueWander:  wander,
		},
		rng: rng,
	}
}

func (v *TableVoice) Line(cue Cue, _ State) string {
	lines := v.lines[cue]
	if len(lines) == 0 {
		return ""
	}
	return lines[v.rng.Intn(len(lines))]
}
