// Package pipe provides synchronous in-memory connections. They behave like
// the real transport, deadlines included, which makes them the test double
// for anything that consumes a transport.Conn.
package pipe

import (
	"sync"
	"time"

	"httpwire/transport"

	"github.com/benbjohnson/clock"
)

type Addr struct{ Name string }

var _ transport.Addr = Addr{}

func (a Addr) String() string { return a.Name }

// chunk carries bytes across the pipe; the receiver reports how many it
// consumed on n so the writer can resend the remainder.
type chunk struct {
	data []byte
	n    chan int
}

type pipe struct {
	stream chan chunk

	writeMu sync.Mutex

	closed chan struct{}
	once   sync.Once

	rdeadLine *deadLine
	wdeadLine *deadLine

	counterpart *pipe

	addr Addr
}

var _ transport.Conn = (*pipe)(nil)

// Pair creates two connected pipe ends. Reads and writes are unbuffered: a
// write only completes once the counterpart has consumed every byte.
func Pair(name1, name2 string, clk clock.Clock) (c1, c2 transport.Conn) {
	p1 := newPipe(name1, clk)
	p2 := newPipe(name2, clk)
	p1.counterpart, p2.counterpart = p2, p1
	return p1, p2
}

func newPipe(name string, clk clock.Clock) *pipe {
	return &pipe{
		stream:    make(chan chunk),
		closed:    make(chan struct{}),
		rdeadLine: newDeadLine(clk),
		wdeadLine: newDeadLine(clk),
		addr:      Addr{Name: name},
	}
}

func (p *pipe) LocalAddr() transport.Addr  { return p.addr }
func (p *pipe) RemoteAddr() transport.Addr { return p.counterpart.addr }

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipe) Read(b []byte) (n int, err error) {
	if err := p.checkOK(p.rdeadLine); err != nil {
		return 0, err
	}

	select {
	case c := <-p.counterpart.stream:
		n := copy(b, c.data)
		c.n <- n
		return n, nil
	case <-p.closed:
		return 0, transport.ErrConnClosed
	case <-p.counterpart.closed:
		return 0, transport.ErrConnClosed
	case <-p.rdeadLine.expired():
		return 0, transport.ErrDeadLineExceeded
	}
}

func (p *pipe) Write(b []byte) (n int, err error) {
	if err := p.checkOK(p.wdeadLine); err != nil {
		return 0, err
	}

	if len(b) == 0 {
		return 0, nil
	}

	// Serialize writes so concurrent writers cannot interleave bytes.
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	written := 0
	for len(b) > 0 {
		c := chunk{data: b, n: make(chan int, 1)}

		select {
		case p.stream <- c:
			consumed := <-c.n
			b = b[consumed:]
			written += consumed
		case <-p.closed:
			return written, transport.ErrConnClosed
		case <-p.counterpart.closed:
			return written, transport.ErrConnClosed
		case <-p.wdeadLine.expired():
			return written, transport.ErrDeadLineExceeded
		}
	}

	return written, nil
}

func (p *pipe) checkOK(d *deadLine) error {
	switch {
	case isClosed(p.closed), isClosed(p.counterpart.closed):
		return transport.ErrConnClosed
	case isClosed(d.expired()):
		return transport.ErrDeadLineExceeded
	}
	return nil
}

func (p *pipe) SetReadDeadLine(t time.Time)  { p.rdeadLine.set(t) }
func (p *pipe) SetWriteDeadLine(t time.Time) { p.wdeadLine.set(t) }

// deadLine turns an absolute point in time into a channel that closes once
// the clock passes it. A zero time disarms it.
type deadLine struct {
	clk clock.Clock

	timer *clock.Timer
	mu    sync.Mutex

	done chan struct{}
}

func newDeadLine(clk clock.Clock) *deadLine {
	return &deadLine{clk: clk, done: make(chan struct{})}
}

func (d *deadLine) set(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	// Always swap in a fresh channel: a timer that fires late only closes
	// the channel it captured, never the current one.
	done := make(chan struct{})
	d.done = done

	if t.IsZero() {
		return
	}

	d.timer = d.clk.AfterFunc(d.clk.Until(t), func() {
		close(done)
	})
}

func (d *deadLine) expired() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
