package net

import (
	"sync"
	"sync/atomic"

	"github.com/strangerhq/stranger/internal/net/packet"
	"go.uber.org/zap"
)

// ChannelState is the lifecycle of a Channel: Connecting → Open → Closed.
type ChannelState int32

const (
	StateConnecting ChannelState = iota
	StateOpen
	StateClosed
)

func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

var channelSeq atomic.Uint64

// NextChannelID returns a process-wide unique channel id.
func NextChannelID() uint64 {
	return channelSeq.Add(1)
}

// Channel represents one link to a remote participant. Network I/O runs in
// dedicated goroutines; everything else is accessed only from the tick loop.
type Channel struct {
	ID uint64
	// Peer is the remote reference known at creation: the dialed room id or
	// the accepted remote address.
	Peer string
	// RemoteID is the remote participant id, learned from its HELLO.
	// Tick loop only.
	RemoteID string

	conn  Conn
	state atomic.Int32

	InQueue  chan []byte // tick loop reads frames from here
	OutQueue chan []byte // writer goroutine reads from here

	outBuf [][]byte // buffered frames, flushed by OutputSystem (tick loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex // guards conn between Attach and Close

	log *zap.Logger
}

// NewChannel creates a channel in the Connecting state. Attach opens it.
func NewChannel(id uint64, peer string, inSize, outSize int, log *zap.Logger) *Channel {
	c := &Channel{
		ID:       id,
		Peer:     peer,
		InQueue:  make(chan []byte, inSize),
		OutQueue: make(chan []byte, outSize),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("channel", id), zap.String("peer", peer)),
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *Channel) State() ChannelState {
	return ChannelState(c.state.Load())
}

func (c *Channel) IsOpen() bool {
	return c.State() == StateOpen
}

func (c *Channel) IsClosed() bool {
	return c.State() == StateClosed
}

// Done is closed once the channel is closed.
func (c *Channel) Done() <-chan struct{} {
	return c.closeCh
}

// Attach binds an established connection, flips the channel to Open and
// launches the reader and writer goroutines. Attaching to a channel that was
// closed while connecting releases conn and returns ErrChannelClosed.
func (c *Channel) Attach(conn Conn) error {
	c.mu.Lock()
	if c.IsClosed() {
		c.mu.Unlock()
		conn.Close()
		return ErrChannelClosed
	}
	c.conn = conn
	c.state.Store(int32(StateOpen))
	c.mu.Unlock()

	go c.readLoop()
	go c.writeLoop()
	return nil
}

// Send encodes msg and buffers it. Nothing is written until FlushOutput.
// Sends on a channel that is not open are dropped silently.
// Called only from the tick loop.
func (c *Channel) Send(msg packet.Message) {
	if !c.IsOpen() {
		return
	}
	data, err := packet.Encode(msg)
	if err != nil {
		c.log.Error("encode failed", zap.String("kind", string(msg.Kind())), zap.Error(err))
		return
	}
	c.outBuf = append(c.outBuf, data)
}

// SendRaw buffers an already encoded frame, used for verbatim relay.
func (c *Channel) SendRaw(data []byte) {
	if !c.IsOpen() {
		return
	}
	c.outBuf = append(c.outBuf, data)
}

// Pending is the number of frames buffered since the last flush.
func (c *Channel) Pending() int {
	return len(c.outBuf)
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop goroutine.
// Non-blocking: frames that do not fit are dropped. Every frame carries full
// current state, so the next tick's frame replaces anything lost here.
func (c *Channel) FlushOutput() {
	if !c.IsOpen() {
		c.outBuf = c.outBuf[:0]
		return
	}
	dropped := 0
	for _, data := range c.outBuf {
		select {
		case c.OutQueue <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		c.log.Warn("outbox full, frames dropped", zap.Int("dropped", dropped))
	}
	c.outBuf = c.outBuf[:0]
}

// Close releases the connection. Safe to call more than once and from any goroutine.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state.Store(int32(StateClosed))
		conn := c.conn
		c.mu.Unlock()
		close(c.closeCh)
		if conn != nil {
			conn.Close()
		}
	})
}

// readLoop pushes inbound frames onto InQueue for the tick loop to consume.
func (c *Channel) readLoop() {
	defer c.Close()

	for {
		data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.IsClosed() {
				c.log.Debug("read ended", zap.Error(err))
			}
			return
		}
		// Block until InQueue has space or the channel closes. Blocking only
		// stalls this peer and keeps its frames in arrival order.
		select {
		case c.InQueue <- data:
		case <-c.closeCh:
			return
		}
	}
}

// writeLoop writes frames from OutQueue to the connection.
func (c *Channel) writeLoop() {
	defer c.Close()

	for {
		select {
		case data := <-c.OutQueue:
			if err := c.conn.WriteMessage(data); err != nil {
				if !c.IsClosed() {
					c.log.Debug("write failed", zap.Error(err))
				}
				return
			}
		case <-c.closeCh:
			return
		}
	}
}
