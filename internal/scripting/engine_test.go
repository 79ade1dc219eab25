package scripting

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/strangerhq/stranger/internal/agent"
	"github.com/strangerhq/stranger/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestShippedVoiceScript(t *testing.T) {
	e := newEngine(t, filepath.Join("..", "..", "scripts"))
	require.True(t, e.Has("agent_line"))

	line, ok := e.AgentLine(AgentLineContext{Cue: "spotted", Lines: []string{"I SEE YOU!"}, Roll: 0.99})
	require.True(t, ok)
	assert.Equal(t, "I SEE YOU!", line)

	lines := []string{"a", "b", "c"}
	line, ok = e.AgentLine(AgentLineContext{Cue: "wander", Lines: lines, Last: "a", Roll: 0.1})
	require.True(t, ok)
	assert.Equal(t, "b", line, "wander never repeats the last thought")

	_, ok = e.AgentLine(AgentLineContext{Cue: "lost"})
	assert.False(t, ok, "no candidates defers to the host")
}

func TestMissingScriptsDirIsEmptyEngine(t *testing.T) {
	e := newEngine(t, filepath.Join(t.TempDir(), "nope"))
	assert.False(t, e.Has("agent_line"))
	_, ok := e.AgentLine(AgentLineContext{Cue: "spotted"})
	assert.False(t, ok)
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "agent"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agent", "bad.lua"), []byte("function ("), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}

func TestRuntimeErrorFallsBack(t *testing.T) {
	e := newEngine(t, "")
	require.NoError(t, e.LoadString(`function agent_line(ctx) error("boom") end`))
	_, ok := e.AgentLine(AgentLineContext{Cue: "spotted"})
	assert.False(t, ok)
}

func TestVoiceUsesScriptThenTable(t *testing.T) {
	lines := data.AgentLines{Spotted: []string{"I SEE YOU!"}, Lost: []string{"Lost him..."}, Wander: []string{"Hmm..."}}

	e := newEngine(t, "")
	require.NoError(t, e.LoadString(`
function agent_line(ctx)
    if ctx.cue == "spotted" then return "GOTCHA (" .. ctx.mode .. ")" end
    if ctx.cue == "wander" then return "" end
    return nil
end`))
	v := NewVoice(e, lines, rand.New(rand.NewSource(3)))

	assert.Equal(t, "GOTCHA (Chase)", v.Line(agent.CueSpotted, agent.State{Mode: agent.ModeChase}))
	assert.Equal(t, "Lost him...", v.Line(agent.CueLost, agent.State{Mode: agent.ModePatrol}))
	assert.Equal(t, "", v.Line(agent.CueWander, agent.State{Mode: agent.ModePatrol}))

	tableOnly := NewVoice(nil, lines, nil)
	assert.Equal(t, "Hmm...", tableOnly.Line(agent.CueWander, agent.State{}))
}
