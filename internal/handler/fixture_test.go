package handler

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/strangerhq/stranger/internal/config"
	"github.com/strangerhq/stranger/internal/core/event"
	"github.com/strangerhq/stranger/internal/identity"
	"github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordConn captures written frames; reads block until Close.
type recordConn struct {
	mu     sync.Mutex
	frames [][]byte
	done   chan struct{}
	once   sync.Once
}

func newRecordConn() *recordConn {
	return &recordConn{done: make(chan struct{})}
}

func (c *recordConn) ReadMessage() ([]byte, error) {
	<-c.done
	return nil, io.EOF
}

func (c *recordConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	c.frames = append(c.frames, data)
	c.mu.Unlock()
	return nil
}

func (c *recordConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *recordConn) RemoteAddr() string { return "test" }

func (c *recordConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *recordConn) raw() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	deps  *Deps
	reg   *packet.Registry
	sync  *Sync
	clock *clock
	conns map[uint64]*recordConn
}

func newFixture(t *testing.T, selfID string, role packet.Role) *fixture {
	t.Helper()
	cfg := config.Default()
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	state := world.NewState(identity.New(selfID), world.Room{ID: "room", Role: role}, cfg.Sync.StaleAfter, cfg.Chat.Capacity)
	deps := &Deps{
		Config: cfg,
		Log:    zap.NewNop(),
		World:  state,
		Bus:    event.NewBus(),
		Now:    clk.Now,
	}
	reg := packet.NewRegistry(deps.Log)
	RegisterAll(reg, deps)
	f := &fixture{deps: deps, reg: reg, sync: NewSync(deps), clock: clk, conns: map[uint64]*recordConn{}}
	t.Cleanup(func() {
		state.Channels.ForEach(func(ch *net.Channel) { ch.Close() })
	})
	return f
}

// open adds an open channel whose remote participant is remoteID.
func (f *fixture) open(remoteID string) *net.Channel {
	ch := net.NewChannel(net.NextChannelID(), remoteID, 16, 16, zap.NewNop())
	conn := newRecordConn()
	ch.Attach(conn)
	ch.RemoteID = remoteID
	f.deps.World.Channels.Add(ch)
	f.conns[ch.ID] = conn
	return ch
}

// sent flushes ch and waits for want frames to reach the wire.
func (f *fixture) sent(t *testing.T, ch *net.Channel, want int) []packet.Message {
	t.Helper()
	ch.FlushOutput()
	conn := f.conns[ch.ID]
	require.Eventually(t, func() bool { return conn.count() >= want }, time.Second, time.Millisecond)
	var out []packet.Message
	for _, data := range conn.raw() {
		msg, err := packet.Decode(data)
		require.NoError(t, err)
		out = append(out, msg)
	}
	require.Len(t, out, want)
	return out
}

func (f *fixture) deliver(t *testing.T, from *net.Channel, msg packet.Message) error {
	t.Helper()
	data, err := packet.Encode(msg)
	require.NoError(t, err)
	return f.reg.Dispatch(from, f.deps.World.Room.Role, data)
}
