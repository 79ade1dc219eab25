package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one message-framed, bidirectional link to a remote participant.
// ReadMessage is called from a single reader goroutine and WriteMessage from
// a single writer goroutine; Close may be called from anywhere.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
	RemoteAddr() string
}

// Connector opens a Conn to an address obtained from the rendezvous.
type Connector interface {
	Connect(ctx context.Context, addr string) (Conn, error)
}

// ── websocket ──────────────────────────────────────────────────────

type wsConn struct {
	c            *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// NewWebsocketConn adapts an established websocket connection.
func NewWebsocketConn(c *websocket.Conn, writeTimeout time.Duration) Conn {
	return &wsConn{c: c, writeTimeout: writeTimeout}
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.c.ReadMessage()
	return data, err
}

func (w *wsConn) WriteMessage(data []byte) error {
	if w.writeTimeout > 0 {
		w.c.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.c.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		w.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = w.c.Close()
	})
	return err
}

func (w *wsConn) RemoteAddr() string {
	return w.c.RemoteAddr().String()
}

// WebsocketConnector dials ws:// and wss:// addresses.
type WebsocketConnector struct {
	Dialer       *websocket.Dialer
	WriteTimeout time.Duration
}

func (c WebsocketConnector) Connect(ctx context.Context, addr string) (Conn, error) {
	if !strings.HasPrefix(addr, "ws://") && !strings.HasPrefix(addr, "wss://") {
		return nil, fmt.Errorf("unsupported address %q", addr)
	}
	d := c.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}
	conn, resp, err := d.DialContext(ctx, addr, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", addr, err)
	}
	return NewWebsocketConn(conn, c.WriteTimeout), nil
}

// ── in-memory pipe ─────────────────────────────────────────────────

var errPipeClosed = errors.New("pipe closed")

type pipeConn struct {
	in        <-chan []byte
	out       chan<- []byte
	done      chan struct{}
	peerDone  <-chan struct{}
	closeOnce sync.Once
	remote    string
}

// Pipe returns two connected in-memory Conns. Each side buffers up to size
// frames; a closed side reads io.EOF once its buffer is drained.
func Pipe(addrA, addrB string, size int) (Conn, Conn) {
	ab := make(chan []byte, size)
	ba := make(chan []byte, size)
	doneA := make(chan struct{})
	doneB := make(chan struct{})
	a := &pipeConn{in: ba, out: ab, done: doneA, peerDone: doneB, remote: addrB}
	b := &pipeConn{in: ab, out: ba, done: doneB, peerDone: doneA, remote: addrA}
	return a, b
}

func (p *pipeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	default:
	}
	select {
	case data := <-p.in:
		return data, nil
	case <-p.done:
		return nil, io.EOF
	case <-p.peerDone:
		// drain what the peer wrote before closing
		select {
		case data := <-p.in:
			return data, nil
		default:
			return nil, io.EOF
		}
	}
}

func (p *pipeConn) WriteMessage(data []byte) error {
	select {
	case <-p.done:
		return errPipeClosed
	case <-p.peerDone:
		return errPipeClosed
	default:
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	select {
	case p.out <- buf:
		return nil
	case <-p.done:
		return errPipeClosed
	case <-p.peerDone:
		return errPipeClosed
	}
}

func (p *pipeConn) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (p *pipeConn) RemoteAddr() string {
	return p.remote
}
