package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront-checkout/internal/common/enum"
)

type fakeConn struct {
	frames chan []byte
	ends   chan error

	mu       sync.Mutex
	written  [][]byte
	closed   bool
	closeArg int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		ends:   make(chan error, 1),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.ends:
		return nil, err
	}
}

func (c *fakeConn) WriteMessage(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed conn")
	}
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) Close(code int, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.closeArg = code
	}
	return nil
}

func (c *fakeConn) push(frame string) {
	c.frames <- []byte(frame)
}

func (c *fakeConn) drop(code int, clean bool) {
	c.ends <- &CloseError{Code: code, Clean: clean}
}

func (c *fakeConn) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

func (c *fakeConn) IsClosed() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeArg
}

// fakeDialer hands out queued results in order; with an empty queue it
// returns a fresh fakeConn.
type fakeDialer struct {
	mu      sync.Mutex
	results []error
	conns   []*fakeConn
	calls   int
	lastURL string
	lastCrd string
}

func (d *fakeDialer) failNext(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, err)
}

func (d *fakeDialer) Dial(_ context.Context, endpoint, credential string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.lastURL, d.lastCrd = endpoint, credential

	if len(d.results) > 0 {
		err := d.results[0]
		d.results = d.results[1:]
		if err != nil {
			return nil, err
		}
	}

	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) Conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

type timer struct {
	delay   time.Duration
	f       func()
	stopped bool
}

// fakeScheduler records timers instead of running them.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*timer
}

func (s *fakeScheduler) Schedule(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &timer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

func (s *fakeScheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *fakeScheduler) Active() []*timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*timer
	for _, t := range s.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// FireLast runs the most recent timer synchronously.
func (s *fakeScheduler) FireLast() {
	s.mu.Lock()
	t := s.timers[len(s.timers)-1]
	t.stopped = true
	s.mu.Unlock()
	t.f()
}

type stateRecorder struct {
	mu     sync.Mutex
	states []enum.ConnectionStateEnum
}

func (r *stateRecorder) record(s enum.ConnectionStateEnum) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) States() []enum.ConnectionStateEnum {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]enum.ConnectionStateEnum(nil), r.states...)
}
