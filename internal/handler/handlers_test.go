package handler

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strangerhq/stranger/internal/core/event"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelloPostsNoticeOnly(t *testing.T) {
	f := newFixture(t, "coord", packet.RoleCoordinator)
	ch := f.open("")

	var joined []event.PeerJoined
	event.Subscribe(f.deps.Bus, func(e event.PeerJoined) { joined = append(joined, e) })

	require.NoError(t, f.deliver(t, ch, &packet.Hello{ID: "abc999", DisplayName: "Ada", ColorTag: "hsl(1, 70%, 50%)"}))
	require.NoError(t, f.deliver(t, ch, &packet.Hello{ID: "abc999", DisplayName: "Ada"}))

	assert.Equal(t, "abc999", ch.RemoteID)
	assert.Equal(t, 0, f.deps.World.Presence.Len())
	entries := f.deps.World.Chat.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Ada joined", entries[0].Text)
	assert.True(t, entries[0].System)

	f.deps.Bus.SwapBuffers()
	f.deps.Bus.DispatchAll()
	require.Len(t, joined, 1)
	assert.Equal(t, ch.ID, joined[0].ChannelID)
}

func TestHelloWithoutNameUsesDerivedName(t *testing.T) {
	f := newFixture(t, "coord", packet.RoleCoordinator)
	ch := f.open("")
	require.NoError(t, f.deliver(t, ch, &packet.Hello{ID: "xyz123"}))
	assert.Equal(t, "Player xyz joined", f.deps.World.Chat.Entries()[0].Text)
}

func TestHelloFromSelfClosesChannel(t *testing.T) {
	f := newFixture(t, "coord", packet.RoleCoordinator)
	ch := f.open("")
	require.NoError(t, f.deliver(t, ch, &packet.Hello{ID: "coord"}))
	assert.True(t, ch.IsClosed())
	assert.Equal(t, 0, f.deps.World.Chat.Len())
}

func TestUpdateMeIsIdempotent(t *testing.T) {
	f := newFixture(t, "coord", packet.RoleCoordinator)
	ch := f.open("a")
	msg := &packet.UpdateMe{Snapshot: packet.Snapshot{ID: "a", Position: mgl64.Vec3{1, 2, 3}}}

	require.NoError(t, f.deliver(t, ch, msg))
	first, _ := f.deps.World.Presence.Get("a")
	require.NoError(t, f.deliver(t, ch, msg))
	second, _ := f.deps.World.Presence.Get("a")

	assert.Equal(t, 1, f.deps.World.Presence.Len())
	assert.Equal(t, first, second)
}

func TestUpdateMeRejectedByFollower(t *testing.T) {
	f := newFixture(t, "follower", packet.RoleFollower)
	ch := f.open("coord")
	err := f.deliver(t, ch, &packet.UpdateMe{Snapshot: packet.Snapshot{ID: "a"}})
	assert.Error(t, err)
	assert.Equal(t, 0, f.deps.World.Presence.Len())
}

func TestWorldStateSkipsSelf(t *testing.T) {
	f := newFixture(t, "me", packet.RoleFollower)
	ch := f.open("coord")
	require.NoError(t, f.deliver(t, ch, &packet.WorldState{Players: []packet.Snapshot{
		{ID: "coord", Position: mgl64.Vec3{1, 0, 0}},
		{ID: "me", Position: mgl64.Vec3{5, 5, 5}},
		{ID: "other", Position: mgl64.Vec3{2, 0, 0}},
	}}))

	assert.Equal(t, 2, f.deps.World.Presence.Len())
	_, ok := f.deps.World.Presence.Get("me")
	assert.False(t, ok)
}

func TestWorldStateRejectedByCoordinator(t *testing.T) {
	f := newFixture(t, "coord", packet.RoleCoordinator)
	ch := f.open("a")
	assert.Error(t, f.deliver(t, ch, &packet.WorldState{Players: []packet.Snapshot{{ID: "a"}}}))
}

func TestStaleRecordDisappearsAfterSilence(t *testing.T) {
	f := newFixture(t, "me", packet.RoleFollower)
	ch := f.open("coord")
	require.NoError(t, f.deliver(t, ch, &packet.WorldState{Players: []packet.Snapshot{{ID: "coord"}}}))

	f.clock.Advance(4*time.Second - time.Nanosecond)
	assert.Len(t, f.deps.World.Presence.Live(f.clock.Now()), 1)
	f.clock.Advance(time.Nanosecond)
	assert.Empty(t, f.deps.World.Presence.Live(f.clock.Now()))
}

func TestChatRelayFanOut(t *testing.T) {
	f := newFixture(t, "coord", packet.RoleCoordinator)
	a := f.open("a")
	b := f.open("b")
	c := f.open("c")

	msg := &packet.Chat{SenderID: "a", Message: packet.ChatEvent{ID: "a-1", Sender: "Player a", Text: "behind you", Color: "red"}}
	raw, err := packet.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, f.reg.Dispatch(a, packet.RoleCoordinator, raw))

	entries := f.deps.World.Chat.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, world.ChatEntry{ID: "a-1", Sender: "Player a", Text: "behind you", Color: "red"}, entries[0])

	assert.Equal(t, 0, a.Pending(), "never echoed to the source")
	b.FlushOutput()
	c.FlushOutput()
	require.Eventually(t, func() bool {
		return f.conns[b.ID].count() == 1 && f.conns[c.ID].count() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, raw, f.conns[b.ID].raw()[0], "relayed verbatim")
	assert.Equal(t, raw, f.conns[c.ID].raw()[0])
}

func TestChatRelayPreservesOrder(t *testing.T) {
	f := newFixture(t, "coord", packet.RoleCoordinator)
	a := f.open("a")
	b := f.open("b")

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, f.deliver(t, a, &packet.Chat{SenderID: "a", Message: packet.ChatEvent{ID: text, Text: text}}))
	}
	msgs := f.sent(t, b, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, msgs[i].(*packet.Chat).Message.Text)
	}
}

func TestFollowerDoesNotRelayChat(t *testing.T) {
	f := newFixture(t, "me", packet.RoleFollower)
	up := f.open("coord")
	require.NoError(t, f.deliver(t, up, &packet.Chat{SenderID: "b", Message: packet.ChatEvent{ID: "b-1", Text: "hi"}}))

	assert.Equal(t, 1, f.deps.World.Chat.Len())
	assert.Equal(t, 0, up.Pending())
}

func TestOwnChatIsNotAppended(t *testing.T) {
	f := newFixture(t, "me", packet.RoleFollower)
	up := f.open("coord")
	require.NoError(t, f.deliver(t, up, &packet.Chat{SenderID: "me", Message: packet.ChatEvent{ID: "me-1", Text: "echo"}}))
	assert.Equal(t, 0, f.deps.World.Chat.Len())
}

func TestSendHello(t *testing.T) {
	f := newFixture(t, "me", packet.RoleFollower)
	up := f.open("coord")
	SendHello(up, f.deps)
	hello := f.sent(t, up, 1)[0].(*packet.Hello)
	assert.Equal(t, f.deps.World.Self.ID, hello.ID)
	assert.Equal(t, f.deps.World.Self.ColorTag, hello.ColorTag)
}
