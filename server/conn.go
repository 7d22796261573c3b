package server

import (
	"context"
	"log/slog"

	"httpwire/http"
	"httpwire/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type conn struct {
	con transport.Conn

	handle HandleFunc
	clock  clock.Clock

	logger *slog.Logger

	opts Options
}

func (c *conn) start(ctx context.Context) {
	defer func() {
		c.logger.Debug("closing connection")
		if err := c.con.Close(); err != nil {
			c.logger.Error("error when closing connection", "error", err)
		}
	}()

	err := c.serve(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// no-op.
	case errors.Is(err, transport.ErrConnClosed):
		c.logger.Error("unexpected connection closure")
	default:
		c.logger.Error("unknown error occurred", "error", err)
	}
}

// serve handles exactly one request on the connection.
func (c *conn) serve(ctx context.Context) error {
	dec := http.NewRequestDecoder(c.con)
	enc := http.NewResponseEncoder(c.con)

	if t := c.opts.Timeout.Read; t > 0 {
		c.con.SetReadDeadLine(c.clock.Now().Add(t))
	}

	var response *http.Response

	var request http.Request
	if err := dec.Decode(&request); err != nil {
		c.logger.Debug("failed to read request", "error", err)

		response = parseErrToResponse(err)
		if response == nil {
			// The peer went away without sending anything;
			// no one is listening for a reply.
			return nil
		}
	} else {
		res, err := doHandle(ctx, c.handle, &request)
		if err != nil {
			c.logger.Error("handler failed", "error", err)
			res = &http.Response{Status: http.StatusInternalServerError}
		}
		response = res
	}

	if t := c.opts.Timeout.Write; t > 0 {
		c.con.SetWriteDeadLine(c.clock.Now().Add(t))
	}

	return errors.Wrap(enc.Encode(*response), "writing response")
}

// parseErrToResponse maps a request parse failure onto the response the peer
// gets back. A nil response means there is nothing to respond to.
func parseErrToResponse(err error) *http.Response {
	switch {
	case errors.Is(err, transport.ErrDeadLineExceeded):
		return &http.Response{Status: http.StatusRequestTimeout}
	case errors.Is(err, http.ErrMissingStartLine):
		return nil
	case errors.Is(err, http.ErrUnknownMethod):
		return &http.Response{Status: http.StatusNotImplemented}
	}

	return &http.Response{Status: http.StatusBadRequest}
}
