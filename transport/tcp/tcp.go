// Package tcp adapts the standard library's TCP sockets to the transport
// interfaces.
package tcp

import (
	"context"
	"io"
	"net"
	"syscall"
	"time"

	"httpwire/transport"

	"github.com/pkg/errors"
)

type Addr struct{ netAddr net.Addr }

var _ transport.Addr = Addr{}

func (a Addr) String() string {
	if a.netAddr == nil {
		return ""
	}
	return a.netAddr.String()
}

type Listener struct {
	l net.Listener
}

var _ transport.ConnListener = (*Listener)(nil)

// Listen starts listening on addr (e.g. ":8080").
func Listen(addr string) (*Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "listening on tcp address")
	}

	return &Listener{l: l}, nil
}

func (l *Listener) Addr() transport.Addr { return Addr{netAddr: l.l.Addr()} }

// Accept blocks until a connection arrives or ctx is done. Cancelling ctx
// closes the listener, since the standard library offers no other way to
// interrupt a pending accept.
func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		c, err := l.l.Accept()
		ch <- result{conn: c, err: err}
	}()

	select {
	case <-ctx.Done():
		l.l.Close()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, net.ErrClosed) {
				return nil, transport.ErrConnListenerClosed
			}
			return nil, errors.Wrap(r.err, "accepting connection")
		}
		return &conn{c: r.conn}, nil
	}
}

func (l *Listener) Close() error { return l.l.Close() }

type conn struct {
	c net.Conn
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.c.Read(p)
	return n, mapErr(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.c.Write(p)
	return n, mapErr(err)
}

func (c *conn) Close() error { return c.c.Close() }

func (c *conn) LocalAddr() transport.Addr  { return Addr{netAddr: c.c.LocalAddr()} }
func (c *conn) RemoteAddr() transport.Addr { return Addr{netAddr: c.c.RemoteAddr()} }

func (c *conn) SetReadDeadLine(t time.Time)  { c.c.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { c.c.SetWriteDeadline(t) }

// mapErr classifies socket errors onto the transport sentinels. EOF is kept
// as-is so line-oriented readers can tell a clean end of stream apart from a
// torn connection.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return err
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return transport.ErrConnClosed
	}

	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return transport.ErrDeadLineExceeded
	}

	return err
}
