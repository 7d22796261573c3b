package tcp

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"httpwire/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptReadWrite(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c, err := net.Dial("tcp", l.Addr().String())
		require.NoError(t, err)
		defer c.Close()

		_, err = c.Write([]byte("ping"))
		require.NoError(t, err)

		buf := make([]byte, 4)
		_, err = c.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte("pong"), buf)
	}()

	conn, err := l.Accept(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	buf := make([]byte, 4)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), buf[:n])

	_, err = conn.Write([]byte("pong"))
	require.NoError(t, err)
}

func TestAcceptCancelled(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := l.Accept(ctx)
		done <- err
	}()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestReadDeadLine(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c, err := net.Dial("tcp", l.Addr().String())
		require.NoError(t, err)
		defer c.Close()

		// Keep the conn open but never send anything.
		buf := make([]byte, 1)
		c.Read(buf)
	}()

	conn, err := l.Accept(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadLine(time.Now().Add(10 * time.Millisecond))

	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, transport.ErrDeadLineExceeded)
}
