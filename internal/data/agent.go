package data

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

//go:embed agent.yaml
var defaultAgentYAML []byte

// AgentLines are the neighbor's utterances per cue.
type AgentLines struct {
	Spotted []string `yaml:"spotted"`
	Lost    []string `yaml:"lost"`
	Wander  []string `yaml:"wander"`
}

// AgentEntry describes the neighbor.
type AgentEntry struct {
	Spawn     [3]float64   `yaml:"spawn"`
	Waypoints [][3]float64 `yaml:"waypoints"`
	Lines     AgentLines   `yaml:"lines"`
}

// BotProfile is one ambient bot.
type BotProfile struct {
	Name  string     `yaml:"name"`
	Color string     `yaml:"color"`
	Start [3]float64 `yaml:"start"`
}

// BotsEntry configures the local-only ambient bots.
type BotsEntry struct {
	Area         [2]float64    `yaml:"area"` // width (x) and depth (z) centred on the origin
	Speed        float64       `yaml:"speed"`
	ArriveRadius float64       `yaml:"arrive_radius"`
	ChatMin      time.Duration `yaml:"chat_min"`
	ChatJitter   time.Duration `yaml:"chat_jitter"`
	ChatChance   float64       `yaml:"chat_chance"`
	Profiles     []BotProfile  `yaml:"profiles"`
	Phrases      []string      `yaml:"phrases"`
}

// AgentTable is the parsed agent.yaml.
type AgentTable struct {
	Agent AgentEntry `yaml:"agent"`
	Bots  BotsEntry  `yaml:"bots"`
}

// LoadAgentTable loads an agent table from path. An empty path returns the
// built-in table.
func LoadAgentTable(path string) (*AgentTable, error) {
	if path == "" {
		return DefaultAgentTable()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent table: %w", err)
	}
	t, err := parseAgentTable(raw)
	if err != nil {
		return nil, fmt.Errorf("parse agent table %s: %w", path, err)
	}
	return t, nil
}

// DefaultAgentTable returns the built-in table.
func DefaultAgentTable() (*AgentTable, error) {
	t, err := parseAgentTable(defaultAgentYAML)
	if err != nil {
		return nil, fmt.Errorf("parse built-in agent table: %w", err)
	}
	return t, nil
}

func parseAgentTable(raw []byte) (*AgentTable, error) {
	var t AgentTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	if len(t.Agent.Waypoints) == 0 {
		return nil, fmt.Errorf("agent.waypoints is empty")
	}
	for _, b := range t.Bots.Profiles {
		if b.Name == "" {
			return nil, fmt.Errorf("bot profile without name")
		}
	}
	return &t, nil
}

// Waypoints returns the patrol loop as vectors.
func (t *AgentTable) Waypoints() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(t.Agent.Waypoints))
	for i, w := range t.Agent.Waypoints {
		out[i] = w
	}
	return out
}

// Spawn returns the neighbor's spawn point.
func (t *AgentTable) Spawn() mgl64.Vec3 {
	return t.Agent.Spawn
}
