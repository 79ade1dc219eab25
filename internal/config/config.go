package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Session    SessionConfig    `toml:"session"`
	Network    NetworkConfig    `toml:"network"`
	Sync       SyncConfig       `toml:"sync"`
	Agent      AgentConfig      `toml:"agent"`
	Chat       ChatConfig       `toml:"chat"`
	Rendezvous RendezvousConfig `toml:"rendezvous"`
	Data       DataConfig       `toml:"data"`
	Logging    LoggingConfig    `toml:"logging"`
	Sentry     SentryConfig     `toml:"sentry"`
}

type SessionConfig struct {
	DisplayName string `toml:"display_name"` // empty = "Player <first 3 chars of id>"
	StartTime   int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress        string        `toml:"bind_address"`
	AdvertiseURL       string        `toml:"advertise_url"` // ws URL published to the rendezvous; empty = derived from bind_address
	TickRate           time.Duration `toml:"tick_rate"`
	InQueueSize        int           `toml:"in_queue_size"`
	OutQueueSize       int           `toml:"out_queue_size"`
	MaxMessagesPerTick int           `toml:"max_messages_per_tick"`
	DialTimeout        time.Duration `toml:"dial_timeout"`
	RedialInterval     time.Duration `toml:"redial_interval"` // 0 = never redial after the upstream drops
	WriteTimeout       time.Duration `toml:"write_timeout"`
}

type SyncConfig struct {
	SendInterval  time.Duration `toml:"send_interval"`  // minimum gap between two local snapshot sends
	SweepInterval time.Duration `toml:"sweep_interval"` // cadence of the staleness sweep
	StaleAfter    time.Duration `toml:"stale_after"`    // presence records older than this are evicted
}

type AgentConfig struct {
	DetectionRange  float64 `toml:"detection_range"`
	Hysteresis      float64 `toml:"hysteresis"` // chase is dropped beyond detection_range * hysteresis
	CatchRange      float64 `toml:"catch_range"`
	ChaseSpeed      float64 `toml:"chase_speed"`
	PatrolSpeed     float64 `toml:"patrol_speed"`
	WaypointRadius  float64 `toml:"waypoint_radius"`
	FallSpeed       float64 `toml:"fall_speed"`
	UtteranceChance float64 `toml:"utterance_chance"` // chance of a line on each waypoint advance (0.0-1.0)
	Enabled         bool    `toml:"enabled"`
}

type ChatConfig struct {
	Capacity   int  `toml:"capacity"`
	MaxRunes   int  `toml:"max_runes"`
	BotChatter bool `toml:"bot_chatter"`
}

type RendezvousConfig struct {
	URL         string `toml:"url"`          // directory base URL used by host/join
	BindAddress string `toml:"bind_address"` // listen address of `stranger rendezvous`
}

type DataConfig struct {
	AgentTable string `toml:"agent_table"` // empty = built-in table
	ScriptsDir string `toml:"scripts_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type SentryConfig struct {
	DSN         string `toml:"dsn"` // empty disables reporting
	Environment string `toml:"environment"`
}

// Load overlays the TOML file at path on the defaults. A missing file is
// not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := defaults()
	cfg.Session.StartTime = time.Now().Unix()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.Network.TickRate <= 0 {
		return fmt.Errorf("network.tick_rate must be positive")
	}
	if c.Sync.StaleAfter <= 0 || c.Sync.SweepInterval <= 0 {
		return fmt.Errorf("sync.stale_after and sync.sweep_interval must be positive")
	}
	if c.Agent.Hysteresis < 1 {
		return fmt.Errorf("agent.hysteresis must be >= 1, got %v", c.Agent.Hysteresis)
	}
	if c.Chat.Capacity < 1 {
		return fmt.Errorf("chat.capacity must be >= 1")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Network: NetworkConfig{
			BindAddress:        "0.0.0.0:7300",
			TickRate:           16 * time.Millisecond,
			InQueueSize:        128,
			OutQueueSize:       256,
			MaxMessagesPerTick: 32,
			DialTimeout:        5 * time.Second,
			RedialInterval:     2 * time.Second,
			WriteTimeout:       10 * time.Second,
		},
		Sync: SyncConfig{
			SendInterval:  50 * time.Millisecond,
			SweepInterval: time.Second,
			StaleAfter:    4 * time.Second,
		},
		Agent: AgentConfig{
			DetectionRange:  9,
			Hysteresis:      1.5,
			CatchRange:      1.3,
			ChaseSpeed:      5.2,
			PatrolSpeed:     2.5,
			WaypointRadius:  1.5,
			FallSpeed:       5,
			UtteranceChance: 0.4,
			Enabled:         true,
		},
		Chat: ChatConfig{
			Capacity:   9,
			MaxRunes:   200,
			BotChatter: true,
		},
		Rendezvous: RendezvousConfig{
			URL:         "http://127.0.0.1:7399",
			BindAddress: "0.0.0.0:7399",
		},
		Data: DataConfig{
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
