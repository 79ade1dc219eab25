package net

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Dialer opens the follower's upstream channel: rendezvous lookup by room id,
// then a connector dial to the returned address.
type Dialer struct {
	dir       Directory
	connector Connector
	inSize    int
	outSize   int
	timeout   time.Duration
	redial    time.Duration
	newConns  chan *Channel
	failures  chan error
	log       *zap.Logger
}

func NewDialer(dir Directory, connector Connector, inSize, outSize int, timeout, redial time.Duration, log *zap.Logger) *Dialer {
	return &Dialer{
		dir:       dir,
		connector: connector,
		inSize:    inSize,
		outSize:   outSize,
		timeout:   timeout,
		redial:    redial,
		newConns:  make(chan *Channel, 4),
		failures:  make(chan error, 8),
		log:       log,
	}
}

// Dial resolves roomID and returns an open channel, or a *ConnectError.
func (d *Dialer) Dial(ctx context.Context, roomID string) (*Channel, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ch := NewChannel(NextChannelID(), roomID, d.inSize, d.outSize, d.log)

	addr, err := d.dir.Resolve(ctx, roomID)
	if err != nil {
		ch.Close()
		return nil, &ConnectError{Room: roomID, Err: err}
	}
	conn, err := d.connector.Connect(ctx, addr)
	if err != nil {
		ch.Close()
		return nil, &ConnectError{Room: roomID, Err: err}
	}
	if err := ch.Attach(conn); err != nil {
		return nil, &ConnectError{Room: roomID, Err: err}
	}
	return ch, nil
}

// Run dials roomID in the background of the caller's goroutine and hands
// results to the tick loop through NewChannels and Failures. With a redial
// interval it keeps the upstream alive: after a failure or after the channel
// closes it waits and dials again. Returns when ctx is done, or after the
// first failure/close when redial is disabled.
func (d *Dialer) Run(ctx context.Context, roomID string) {
	for {
		ch, err := d.Dial(ctx, roomID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Warn("dial failed", zap.String("room", roomID), zap.Error(err))
			select {
			case d.failures <- err:
			default:
			}
		} else {
			d.log.Info("upstream connected", zap.String("room", roomID), zap.Uint64("channel", ch.ID))
			select {
			case d.newConns <- ch:
			case <-ctx.Done():
				ch.Close()
				return
			}
			select {
			case <-ch.Done():
			case <-ctx.Done():
				return
			}
		}

		if d.redial <= 0 {
			return
		}
		select {
		case <-time.After(d.redial):
		case <-ctx.Done():
			return
		}
	}
}

// NewChannels returns the stream of opened upstream channels.
func (d *Dialer) NewChannels() <-chan *Channel {
	return d.newConns
}

// Failures returns the stream of *ConnectError values.
func (d *Dialer) Failures() <-chan error {
	return d.failures
}
