package net

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recvFrame(t *testing.T, ch *Channel) packet.Message {
	t.Helper()
	select {
	case data := <-ch.InQueue:
		msg, err := packet.Decode(data)
		require.NoError(t, err)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("channel %d: no frame received", ch.ID)
		return nil
	}
}

func openPair(t *testing.T) (*Channel, *Channel) {
	t.Helper()
	a, b := Pipe("a", "b", 16)
	left := NewChannel(NextChannelID(), "b", 16, 16, zap.NewNop())
	right := NewChannel(NextChannelID(), "a", 16, 16, zap.NewNop())
	require.NoError(t, left.Attach(a))
	require.NoError(t, right.Attach(b))
	t.Cleanup(func() {
		left.Close()
		right.Close()
	})
	return left, right
}

func TestChannelLifecycle(t *testing.T) {
	ch := NewChannel(NextChannelID(), "room", 4, 4, zap.NewNop())
	assert.Equal(t, StateConnecting, ch.State())

	a, _ := Pipe("a", "b", 4)
	ch.Attach(a)
	assert.Equal(t, StateOpen, ch.State())

	ch.Close()
	ch.Close()
	assert.Equal(t, StateClosed, ch.State())
	select {
	case <-ch.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestChannelAttachAfterCloseReleasesConn(t *testing.T) {
	ch := NewChannel(NextChannelID(), "room", 4, 4, zap.NewNop())
	ch.Close()

	a, b := Pipe("a", "b", 4)
	err := ch.Attach(a)
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Equal(t, StateClosed, ch.State())
	_, err = b.ReadMessage()
	assert.Error(t, err, "peer should observe the released conn")
}

func TestChannelDeliversInOrder(t *testing.T) {
	left, right := openPair(t)

	for i := 0; i < 5; i++ {
		left.Send(&packet.Chat{SenderID: "p1", Message: packet.ChatEvent{ID: string(rune('a' + i))}})
	}
	left.FlushOutput()

	for i := 0; i < 5; i++ {
		msg := recvFrame(t, right)
		assert.Equal(t, string(rune('a'+i)), msg.(*packet.Chat).Message.ID)
	}
}

func TestSendOnClosedChannelIsDropped(t *testing.T) {
	left, right := openPair(t)
	left.Close()

	assert.NotPanics(t, func() {
		left.Send(&packet.Hello{ID: "p1"})
		left.SendRaw([]byte("{}"))
		left.FlushOutput()
	})
	assert.Empty(t, left.outBuf)

	// the remote side notices the close
	select {
	case <-right.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("remote channel did not close")
	}
}

func TestFlushDropsWhenOutboxFull(t *testing.T) {
	ch := NewChannel(NextChannelID(), "room", 1, 1, zap.NewNop())
	// open without writer goroutines so the outbox never drains
	ch.state.Store(int32(StateOpen))

	ch.SendRaw([]byte("1"))
	ch.SendRaw([]byte("2"))
	ch.SendRaw([]byte("3"))
	ch.FlushOutput()

	assert.Len(t, ch.OutQueue, 1)
	assert.Empty(t, ch.outBuf)
}

func TestChannelStoreOrdering(t *testing.T) {
	s := NewChannelStore()
	c3 := NewChannel(3, "c", 1, 1, zap.NewNop())
	c1 := NewChannel(1, "a", 1, 1, zap.NewNop())
	c2 := NewChannel(2, "b", 1, 1, zap.NewNop())
	s.Add(c3)
	s.Add(c1)
	s.Add(c2)
	c1.state.Store(int32(StateOpen))
	c3.state.Store(int32(StateOpen))

	var ids []uint64
	s.ForEach(func(c *Channel) { ids = append(ids, c.ID) })
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	open := s.Open()
	require.Len(t, open, 2)
	assert.Equal(t, uint64(1), open[0].ID)
	assert.Equal(t, uint64(3), open[1].ID)

	s.Remove(1)
	assert.Nil(t, s.Get(1))
	assert.Equal(t, 2, s.Len())
}

func TestMemoryHubDialAndAccept(t *testing.T) {
	hub := NewMemoryHub(16)
	srv := NewServer(16, 16, time.Second, zap.NewNop())
	addr := hub.Bind("host", srv)
	require.NoError(t, hub.Register(context.Background(), "room-1", addr))

	d := NewDialer(hub, hub, 16, 16, time.Second, 0, zap.NewNop())
	up, err := d.Dial(context.Background(), "room-1")
	require.NoError(t, err)
	defer up.Close()
	assert.True(t, up.IsOpen())

	var down *Channel
	select {
	case down = <-srv.NewChannels():
	case <-time.After(time.Second):
		t.Fatal("server did not accept")
	}
	defer down.Close()

	up.Send(&packet.Hello{ID: "follower"})
	up.FlushOutput()
	assert.Equal(t, "follower", recvFrame(t, down).(*packet.Hello).ID)
}

func TestDialUnknownRoomIsConnectError(t *testing.T) {
	hub := NewMemoryHub(4)
	d := NewDialer(hub, hub, 4, 4, time.Second, 0, zap.NewNop())

	_, err := d.Dial(context.Background(), "nowhere")
	require.Error(t, err)
	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "nowhere", ce.Room)
	assert.True(t, errors.Is(err, ErrRoomNotFound))
}

func TestDialerRunReportsFailureWithoutRedial(t *testing.T) {
	hub := NewMemoryHub(4)
	d := NewDialer(hub, hub, 4, 4, time.Second, 0, zap.NewNop())

	d.Run(context.Background(), "nowhere")

	select {
	case err := <-d.Failures():
		assert.True(t, errors.Is(err, ErrRoomNotFound))
	default:
		t.Fatal("expected a failure")
	}
}

func TestDialerRunRedialsAfterUpstreamDrops(t *testing.T) {
	hub := NewMemoryHub(16)
	srv := NewServer(16, 16, time.Second, zap.NewNop())
	addr := hub.Bind("host", srv)
	require.NoError(t, hub.Register(context.Background(), "room", addr))

	d := NewDialer(hub, hub, 16, 16, time.Second, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, "room")

	first := <-d.NewChannels()
	first.Close()

	select {
	case second := <-d.NewChannels():
		assert.NotEqual(t, first.ID, second.ID)
		second.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("dialer did not redial")
	}
}

func TestDialerReportsCoordinatorGone(t *testing.T) {
	hub := NewMemoryHub(16)
	srv := NewServer(16, 16, time.Second, zap.NewNop())
	addr := hub.Bind("host", srv)
	require.NoError(t, hub.Register(context.Background(), "room", addr))

	d := NewDialer(hub, hub, 16, 16, time.Second, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, "room")

	first := <-d.NewChannels()
	hub.Unbind(addr)
	first.Close()

	select {
	case err := <-d.Failures():
		var ce *ConnectError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "room", ce.Room)
		assert.Contains(t, err.Error(), "nothing listening")
	case <-time.After(2 * time.Second):
		t.Fatal("redial against a vanished coordinator did not fail")
	}

	select {
	case ch := <-d.NewChannels():
		ch.Close()
		t.Fatal("dialer connected to an unbound address")
	default:
	}
}
