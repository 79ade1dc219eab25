package main

import (
	"bytes"
	"testing"

	"github.com/strangerhq/stranger/internal/config"
	"github.com/strangerhq/stranger/internal/identity"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvertiseURL(t *testing.T) {
	cases := map[string]struct {
		cfg  config.NetworkConfig
		want string
	}{
		"wildcard":   {config.NetworkConfig{BindAddress: "0.0.0.0:7300"}, "ws://127.0.0.1:7300/ws"},
		"empty host": {config.NetworkConfig{BindAddress: ":7300"}, "ws://127.0.0.1:7300/ws"},
		"explicit":   {config.NetworkConfig{BindAddress: "10.0.0.4:9000"}, "ws://10.0.0.4:9000/ws"},
		"override":   {config.NetworkConfig{BindAddress: "0.0.0.0:7300", AdvertiseURL: "wss://house.example/ws"}, "wss://house.example/ws"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, advertiseURL(tc.cfg))
		})
	}
}

func TestAgentParamsFromConfig(t *testing.T) {
	p := agentParams(config.Default().Agent)
	assert.Equal(t, 9.0, p.DetectionRange)
	assert.Equal(t, 13.5, p.LoseRange())
	assert.Equal(t, 1.3, p.CatchRange)
}

func TestJoinRequiresRoom(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"join"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "stranger "+version+"\n", out.String())
}

func TestConfigFlagDefaultsFromEnv(t *testing.T) {
	t.Setenv(configEnv, "/etc/stranger.toml")
	cmd := newRootCmd()
	f := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, "/etc/stranger.toml", f.DefValue)
}

func TestHostUsesPeerIdAsDefaultRoom(t *testing.T) {
	o := playOptions{host: true, ids: &identity.Sequence{Prefix: "peer-"}}
	me, role, room := o.self("")
	assert.Equal(t, "peer-1", me.ID)
	assert.Equal(t, "Player pee", me.DisplayName)
	assert.Equal(t, packet.RoleCoordinator, role)
	assert.Equal(t, "peer-1", room)

	o.room = "kitchen"
	me, _, room = o.self("Alice")
	assert.Equal(t, "peer-2", me.ID)
	assert.Equal(t, "Alice", me.DisplayName)
	assert.Equal(t, "kitchen", room)
}

func TestJoinKeepsRequestedRoom(t *testing.T) {
	o := playOptions{room: "peer-9", ids: &identity.Sequence{Prefix: "guest-"}}
	me, role, room := o.self("")
	assert.Equal(t, "guest-1", me.ID)
	assert.Equal(t, packet.RoleFollower, role)
	assert.Equal(t, "peer-9", room)
}
