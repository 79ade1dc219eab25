package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Directory is the rendezvous boundary: it maps a room id to the address
// followers dial to reach that room's coordinator.
type Directory interface {
	Register(ctx context.Context, roomID, addr string) error
	Resolve(ctx context.Context, roomID string) (string, error)
	Unregister(ctx context.Context, roomID string) error
}

type roomEntry struct {
	Addr string `json:"addr"`
}

// ── HTTP client ────────────────────────────────────────────────────

// HTTPDirectory talks to a DirectoryHandler over HTTP.
type HTTPDirectory struct {
	base   string
	client *nethttp.Client
}

func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	return &HTTPDirectory{
		base:   strings.TrimRight(baseURL, "/"),
		client: &nethttp.Client{Timeout: timeout},
	}
}

func (d *HTTPDirectory) roomURL(roomID string) string {
	return d.base + "/rooms/" + url.PathEscape(roomID)
}

func (d *HTTPDirectory) Register(ctx context.Context, roomID, addr string) error {
	body, err := json.Marshal(roomEntry{Addr: addr})
	if err != nil {
		return err
	}
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPut, d.roomURL(roomID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("register room %s: %w", roomID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("register room %s: %w", roomID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != nethttp.StatusNoContent && resp.StatusCode != nethttp.StatusOK {
		return fmt.Errorf("register room %s: unexpected status %d", roomID, resp.StatusCode)
	}
	return nil
}

func (d *HTTPDirectory) Resolve(ctx context.Context, roomID string) (string, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, d.roomURL(roomID), nil)
	if err != nil {
		return "", fmt.Errorf("resolve room %s: %w", roomID, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve room %s: %w", roomID, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case nethttp.StatusOK:
	case nethttp.StatusNotFound:
		return "", ErrRoomNotFound
	default:
		return "", fmt.Errorf("resolve room %s: unexpected status %d", roomID, resp.StatusCode)
	}
	var entry roomEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return "", fmt.Errorf("resolve room %s: %w", roomID, err)
	}
	if entry.Addr == "" {
		return "", ErrRoomNotFound
	}
	return entry.Addr, nil
}

func (d *HTTPDirectory) Unregister(ctx context.Context, roomID string) error {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodDelete, d.roomURL(roomID), nil)
	if err != nil {
		return fmt.Errorf("unregister room %s: %w", roomID, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("unregister room %s: %w", roomID, err)
	}
	resp.Body.Close()
	return nil
}

// ── HTTP server ────────────────────────────────────────────────────

// DirectoryHandler serves the room directory over HTTP. Entries live in
// memory only.
type DirectoryHandler struct {
	mu    sync.RWMutex
	rooms map[string]string
	mux   *nethttp.ServeMux
	log   *zap.Logger
}

func NewDirectoryHandler(log *zap.Logger) *DirectoryHandler {
	h := &DirectoryHandler{
		rooms: make(map[string]string),
		mux:   nethttp.NewServeMux(),
		log:   log,
	}
	h.mux.HandleFunc("PUT /rooms/{room}", h.put)
	h.mux.HandleFunc("GET /rooms/{room}", h.get)
	h.mux.HandleFunc("DELETE /rooms/{room}", h.delete)
	return h
}

func (h *DirectoryHandler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *DirectoryHandler) put(w nethttp.ResponseWriter, r *nethttp.Request) {
	room := r.PathValue("room")
	var entry roomEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil || entry.Addr == "" {
		nethttp.Error(w, "body must be {\"addr\": \"...\"}", nethttp.StatusBadRequest)
		return
	}
	h.mu.Lock()
	h.rooms[room] = entry.Addr
	h.mu.Unlock()
	h.log.Info("room registered", zap.String("room", room), zap.String("addr", entry.Addr))
	w.WriteHeader(nethttp.StatusNoContent)
}

func (h *DirectoryHandler) get(w nethttp.ResponseWriter, r *nethttp.Request) {
	room := r.PathValue("room")
	h.mu.RLock()
	addr, ok := h.rooms[room]
	h.mu.RUnlock()
	if !ok {
		nethttp.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roomEntry{Addr: addr})
}

func (h *DirectoryHandler) delete(w nethttp.ResponseWriter, r *nethttp.Request) {
	room := r.PathValue("room")
	h.mu.Lock()
	delete(h.rooms, room)
	h.mu.Unlock()
	h.log.Info("room removed", zap.String("room", room))
	w.WriteHeader(nethttp.StatusNoContent)
}
