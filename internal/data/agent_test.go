package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAgentTable(t *testing.T) {
	tbl, err := DefaultAgentTable()
	require.NoError(t, err)

	wps := tbl.Waypoints()
	require.Len(t, wps, 6)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, wps[0])
	assert.Equal(t, mgl64.Vec3{4, 1, 4}, wps[5])
	assert.Equal(t, mgl64.Vec3{0, 3, 0}, tbl.Spawn())

	assert.Equal(t, []string{"I SEE YOU!"}, tbl.Agent.Lines.Spotted)
	assert.Len(t, tbl.Agent.Lines.Wander, 5)

	require.Len(t, tbl.Bots.Profiles, 3)
	assert.Equal(t, "xX_Slayer_Xx", tbl.Bots.Profiles[0].Name)
	assert.Equal(t, "#f472b6", tbl.Bots.Profiles[2].Color)
	assert.Equal(t, 8*time.Second, tbl.Bots.ChatMin)
	assert.Equal(t, 15*time.Second, tbl.Bots.ChatJitter)
	assert.Equal(t, 0.2, tbl.Bots.ChatChance)
	assert.Len(t, tbl.Bots.Phrases, 6)
}

func TestLoadAgentTableEmptyPathUsesBuiltIn(t *testing.T) {
	tbl, err := LoadAgentTable("")
	require.NoError(t, err)
	assert.Len(t, tbl.Waypoints(), 6)
}

func TestLoadAgentTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  waypoints: [[1, 0, 1], [2, 0, 2]]
  lines:
    spotted: ["boo"]
bots:
  profiles: []
`), 0o644))

	tbl, err := LoadAgentTable(path)
	require.NoError(t, err)
	assert.Equal(t, []mgl64.Vec3{{1, 0, 1}, {2, 0, 2}}, tbl.Waypoints())
	assert.Empty(t, tbl.Bots.Profiles)
}

func TestLoadAgentTableRejectsEmptyLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  waypoints: []\n"), 0o644))
	_, err := LoadAgentTable(path)
	assert.Error(t, err)

	_, err = LoadAgentTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
