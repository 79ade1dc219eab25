package net

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const memScheme = "mem://"

// MemoryHub is an in-process rendezvous: a Directory plus a Connector that
// links dialers to bound Servers with Pipe conns. Used by tests and by
// single-process demos.
type MemoryHub struct {
	mu      sync.Mutex
	rooms   map[string]string
	servers map[string]*Server
	dialSeq int
	bufSize int
}

func NewMemoryHub(bufSize int) *MemoryHub {
	return &MemoryHub{
		rooms:   make(map[string]string),
		servers: make(map[string]*Server),
		bufSize: bufSize,
	}
}

// Bind makes srv reachable at mem://name and returns that address.
func (h *MemoryHub) Bind(name string, srv *Server) string {
	addr := memScheme + name
	h.mu.Lock()
	h.servers[addr] = srv
	h.mu.Unlock()
	return addr
}

// Unbind makes addr unreachable; later Connects fail.
func (h *MemoryHub) Unbind(addr string) {
	h.mu.Lock()
	delete(h.servers, addr)
	h.mu.Unlock()
}

func (h *MemoryHub) Register(_ context.Context, roomID, addr string) error {
	h.mu.Lock()
	h.rooms[roomID] = addr
	h.mu.Unlock()
	return nil
}

func (h *MemoryHub) Resolve(ctx context.Context, roomID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	addr, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		return "", ErrRoomNotFound
	}
	return addr, nil
}

func (h *MemoryHub) Unregister(_ context.Context, roomID string) error {
	h.mu.Lock()
	delete(h.rooms, roomID)
	h.mu.Unlock()
	return nil
}

func (h *MemoryHub) Connect(ctx context.Context, addr string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(addr, memScheme) {
		return nil, fmt.Errorf("unsupported address %q", addr)
	}
	h.mu.Lock()
	srv, ok := h.servers[addr]
	h.dialSeq++
	client := fmt.Sprintf("mem-client-%d", h.dialSeq)
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("nothing listening at %s", addr)
	}
	local, remote := Pipe(client, addr, h.bufSize)
	srv.Accept(remote)
	return local, nil
}
