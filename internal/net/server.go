package net

import (
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server accepts inbound channels. New channels are handed to the tick loop
// through NewChannels; the server never touches them afterwards.
type Server struct {
	newConns     chan *Channel
	inSize       int
	outSize      int
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	log          *zap.Logger
	closeCh      chan struct{}
	closeOnce    sync.Once
}

func NewServer(inSize, outSize int, writeTimeout time.Duration, log *zap.Logger) *Server {
	return &Server{
		newConns:     make(chan *Channel, 64),
		inSize:       inSize,
		outSize:      outSize,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
		log:     log,
		closeCh: make(chan struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and accepts it as a channel.
func (s *Server) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	select {
	case <-s.closeCh:
		nethttp.Error(w, "shutting down", nethttp.StatusServiceUnavailable)
		return
	default:
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	s.Accept(NewWebsocketConn(conn, s.writeTimeout))
}

// Accept wraps an established conn in an open channel and queues it.
func (s *Server) Accept(conn Conn) *Channel {
	ch := NewChannel(NextChannelID(), conn.RemoteAddr(), s.inSize, s.outSize, s.log)
	ch.Attach(conn)

	select {
	case <-s.closeCh:
		ch.Close()
		return ch
	default:
	}

	s.log.Info("peer connected", zap.Uint64("channel", ch.ID), zap.String("remote", ch.Peer))

	select {
	case s.newConns <- ch:
	default:
		s.log.Warn("accept queue full, rejecting peer", zap.String("remote", ch.Peer))
		ch.Close()
	}
	return ch
}

// NewChannels returns the stream of accepted channels.
func (s *Server) NewChannels() <-chan *Channel {
	return s.newConns
}

// Shutdown stops accepting new channels.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}
