// Package server accepts connections and feeds each one through the request
// parser exactly once: decode, dispatch, respond, close. Connection reuse,
// TLS and fancier framing live elsewhere.
package server

import (
	"context"
	"log/slog"
	"sync"

	"httpwire/transport"

	"github.com/benbjohnson/clock"
	"github.com/dchest/uniuri"
	"github.com/pkg/errors"
)

const connIDLen = 8

type Server struct {
	l transport.ConnListener

	closeListener func()
	wg            sync.WaitGroup

	logger *slog.Logger
	opts   Options

	handle HandleFunc
	clock  clock.Clock
}

func New(
	l transport.ConnListener,
	logger *slog.Logger,
	clock clock.Clock,
	handle HandleFunc,
	opts Options,
) *Server {
	return &Server{
		l:      l,
		logger: logger,
		opts:   opts,
		handle: handle,
		clock:  clock,
	}
}

func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.closeListener = cancel
	go func() {
		connCtx, connCancel := context.WithCancel(context.Background())
		for {
			conn, err := s.acceptConn(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Error(
						"unexpected error when accepting connection",
						"error", err.Error(),
					)
				}
				connCancel()
				return
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				conn.start(connCtx)
			}()
		}
	}()
}

func (s *Server) acceptConn(ctx context.Context) (*conn, error) {
	con, err := s.l.Accept(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listening for connection")
	}

	conn := &conn{
		con:    con,
		handle: s.handle,
		opts:   s.opts,
		logger: s.logger.With(
			"conn", con.RemoteAddr().String(),
			"id", uniuri.NewLen(connIDLen),
		),
		clock: s.clock,
	}

	return conn, nil
}

func (s *Server) Close() error {
	s.closeListener()
	s.wg.Wait()
	return nil
}
