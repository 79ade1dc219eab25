package scripting

import (
	"math/rand"

	"github.com/strangerhq/stranger/internal/agent"
	"github.com/strangerhq/stranger/internal/data"
)

// Voice lets a Lua agent_line function pick the neighbor's lines, falling
// back to a random pick from the data table when the script declines.
type Voice struct {
	engine   *Engine
	lines    data.AgentLines
	fallback *agent.TableVoice
	rng      *rand.Rand
}

// NewVoice builds the voice. engine may be nil, in which case only the table
// is used.
func NewVoice(engine *Engine, lines data.AgentLines, rng *rand.Rand) *Voice {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Voice{
		engine:   engine,
		lines:    lines,
		fallback: agent.NewTableVoice(lines.Spotted, lines.Lost, lines.Wander, rng),
		rng:      rng,
	}
}

func (v *Voice) Line(cue agent.Cue, st agent.State) string {
	if v.engine != nil {
		line, ok := v.engine.AgentLine(AgentLineContext{
			Cue:   cue.String(),
			Mode:  st.Mode.String(),
			Last:  st.LastUtterance,
			Lines: v.candidates(cue),
			Roll:  v.rng.Float64(),
		})
		if ok {
			return line
		}
	}
	return v.fallback.Line(cue, st)
}

func (v *Voice) candidates(cue agent.Cue) []string {
	switch cue {
	case agent.CueSpotted:
		return v.lines.Spotted
	case agent.CueLost:
		return v.lines.Lost
	case agent.CueWander:
		return v.lines.Wander
	default:
		return nil
	}
}
