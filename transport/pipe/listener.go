package pipe

import (
	"context"
	"sync"

	"httpwire/transport"

	"github.com/benbjohnson/clock"
)

type dialRequest struct {
	conn     transport.Conn
	accepted chan struct{}
}

// Listener hands out in-memory connections: every Dial produces a fresh pipe
// pair whose far end comes out of Accept.
type Listener struct {
	addr Addr
	clk  clock.Clock

	requests chan dialRequest
	closed   chan struct{}
	once     sync.Once
}

var (
	_ transport.ConnListener = (*Listener)(nil)
	_ transport.ConnDialer   = (*Listener)(nil)
)

func NewListener(addr Addr, clk clock.Clock) *Listener {
	return &Listener{
		addr:     addr,
		clk:      clk,
		requests: make(chan dialRequest),
		closed:   make(chan struct{}),
	}
}

func (l *Listener) Addr() transport.Addr { return l.addr }

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case req := <-l.requests:
		close(req.accepted)
		return req.conn, nil
	}
}

func (l *Listener) Dial(ctx context.Context) (transport.Conn, error) {
	local, remote := Pair("dialer", l.addr.Name, l.clk)

	req := dialRequest{conn: remote, accepted: make(chan struct{})}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnRefused
	case l.requests <- req:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnRefused
	case <-req.accepted:
	}

	return local, nil
}

func (l *Listener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}
