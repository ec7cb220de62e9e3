package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/common/enum"
	"storefront-checkout/internal/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Conn is one realtime duplex channel instance. ReadMessage blocks until a
// frame arrives or the channel ends; the end is reported as a *CloseError
// where the transport can tell.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close(code int, reason string) error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint, credential string) (Conn, error)
}

type Handler func(push *Push)

type StateListener func(state enum.ConnectionStateEnum)

// Scheduler runs f once after d and returns a function that cancels it.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type Options struct {
	Backoff     *Backoff
	Schedule    Scheduler
	DialTimeout time.Duration
}

func DefaultOptions() *Options {
	return &Options{
		Backoff:     FixedBackoff(DefaultReconnectDelay),
		Schedule:    AfterFunc,
		DialTimeout: 15 * time.Second,
	}
}

// Manager owns a single realtime channel to the order backend. It is the only
// place channels are opened and closed; everyone else sends through it and
// subscribes to it.
type Manager struct {
	dialer Dialer
	opts   *Options
	group  singleflight.Group

	mu               sync.Mutex
	state            enum.ConnectionStateEnum
	conn             Conn
	endpoint         string
	credential       string
	closed           bool
	reconnectPending bool
	stopTimer        func() bool

	nextID    uint64
	handlers  map[uint64]Handler
	listeners map[uint64]StateListener

	pendingStates []enum.ConnectionStateEnum
	delivering    bool
}

func NewManager(dialer Dialer, opts *Options) *Manager {
	def := DefaultOptions()
	if opts == nil {
		opts = def
	}
	if opts.Backoff == nil {
		opts.Backoff = def.Backoff
	}
	if opts.Schedule == nil {
		opts.Schedule = def.Schedule
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = def.DialTimeout
	}

	return &Manager{
		dialer:    dialer,
		opts:      opts,
		state:     enum.CLOSED,
		handlers:  make(map[uint64]Handler),
		listeners: make(map[uint64]StateListener),
	}
}

func (m *Manager) State() enum.ConnectionStateEnum {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the channel to endpoint. A failed dial is treated like an
// abnormal close: the error is returned and a reconnect is scheduled.
func (m *Manager) Connect(ctx context.Context, endpoint, credential string) error {
	m.mu.Lock()
	m.endpoint = endpoint
	m.credential = credential
	m.closed = false
	m.cancelReconnectLocked()
	m.opts.Backoff.Reset()
	m.mu.Unlock()

	return m.dial(ctx)
}

// Reconnect is the manual retry: it resets the backoff policy and dials a
// fresh channel unless one is already open.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	if m.endpoint == "" {
		m.mu.Unlock()
		return ErrNoEndpoint
	}
	if m.state == enum.OPEN && m.conn != nil {
		m.mu.Unlock()
		return nil
	}
	m.closed = false
	m.cancelReconnectLocked()
	m.opts.Backoff.Reset()
	m.mu.Unlock()

	return m.dial(ctx)
}

// Close ends the channel with a clean close handshake. No reconnect follows.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.cancelReconnectLocked()
	conn := m.conn
	m.conn = nil
	m.setStateLocked(enum.CLOSED)
	m.mu.Unlock()
	m.deliverStates()

	if conn != nil {
		return conn.Close(CloseNormal, "")
	}
	return nil
}

// Send writes v as one JSON frame. Nothing is buffered: unless the channel is
// OPEN the call fails with ErrNotConnected.
func (m *Manager) Send(ctx context.Context, v any) error {
	m.mu.Lock()
	conn := m.conn
	open := m.state == enum.OPEN && conn != nil
	m.mu.Unlock()

	if !open {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	if err := conn.WriteMessage(ctx, data); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// Subscribe registers h for every push of the current and future channels.
func (m *Manager) Subscribe(h Handler) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.handlers[id] = h

	return func() {
		m.mu.Lock()
		delete(m.handlers, id)
		m.mu.Unlock()
	}
}

// OnStateChange registers l for state transitions. Transitions are delivered
// in order; a listener may call back into the manager.
func (m *Manager) OnStateChange(l StateListener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners[id] = l

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) dial(ctx context.Context) error {
	_, err, _ := m.group.Do("dial", func() (interface{}, error) {
		return nil, m.dialOnce(ctx)
	})
	return err
}

func (m *Manager) dialOnce(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	endpoint, credential := m.endpoint, m.credential
	m.setStateLocked(enum.CONNECTING)
	m.mu.Unlock()
	m.deliverStates()

	dialCtx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	conn, err := m.dialer.Dial(dialCtx, endpoint, credential)
	cancel()

	if err != nil {
		logger.Warning.Printf("Realtime dial failed: %v", err)
		m.mu.Lock()
		if !m.closed {
			m.scheduleReconnectLocked()
		}
		m.mu.Unlock()
		m.deliverStates()
		return fmt.Errorf("failed to connect realtime channel: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close(CloseNormal, "")
		return ErrManagerClosed
	}
	old := m.conn
	m.conn = conn
	m.opts.Backoff.Reset()
	m.setStateLocked(enum.OPEN)
	m.mu.Unlock()
	m.deliverStates()

	if old != nil {
		_ = old.Close(CloseNormal, "replaced")
	}

	logger.Info.Println("Realtime channel open")
	go m.readLoop(conn)
	return nil
}

func (m *Manager) readLoop(conn Conn) {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(conn, err)
			return
		}

		m.mu.Lock()
		if m.conn != conn {
			m.mu.Unlock()
			return
		}
		handlers := make([]Handler, 0, len(m.handlers))
		for _, h := range m.handlers {
			handlers = append(handlers, h)
		}
		m.mu.Unlock()

		push, err := DecodePush(raw)
		if err != nil {
			logger.Warning.Printf("Dropping realtime frame: %v", err)
			continue
		}

		for _, h := range handlers {
			h(push)
		}
	}
}

func (m *Manager) handleClose(conn Conn, err error) {
	m.mu.Lock()
	if m.conn != conn {
		// a replaced or deliberately closed channel
		m.mu.Unlock()
		return
	}
	m.conn = nil

	switch {
	case m.closed:
		m.setStateLocked(enum.CLOSED)
	case IsAbnormalClose(err):
		logger.Warning.Printf("Realtime channel lost: %v", err)
		m.scheduleReconnectLocked()
	default:
		logger.Info.Printf("Realtime channel closed: %v", err)
		m.setStateLocked(enum.CLOSED)
	}
	m.mu.Unlock()
	m.deliverStates()

	_ = conn.Close(CloseNormal, "")
}

// scheduleReconnectLocked arms at most one reconnect timer. Once the policy
// runs out of attempts the manager stays CLOSED until Reconnect.
func (m *Manager) scheduleReconnectLocked() {
	if m.reconnectPending {
		m.setStateLocked(enum.CONNECTING)
		return
	}

	delay, ok := m.opts.Backoff.Next()
	if !ok {
		logger.Error.Printf("Realtime reconnect gave up after %d attempts", m.opts.Backoff.Attempts())
		m.setStateLocked(enum.CLOSED)
		return
	}

	m.reconnectPending = true
	m.stopTimer = m.opts.Schedule(delay, m.fireReconnect)
	m.setStateLocked(enum.CONNECTING)
	logger.Info.Printf("Realtime reconnect #%d in %v", m.opts.Backoff.Attempts(), delay)
}

func (m *Manager) fireReconnect() {
	m.mu.Lock()
	if !m.reconnectPending || m.closed {
		m.mu.Unlock()
		return
	}
	m.reconnectPending = false
	m.stopTimer = nil
	m.mu.Unlock()

	if err := m.dial(context.Background()); err != nil && !errors.Is(err, ErrManagerClosed) {
		logger.Warning.Printf("Realtime reconnect failed: %v", err)
	}
}

func (m *Manager) cancelReconnectLocked() {
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
	m.reconnectPending = false
}

func (m *Manager) setStateLocked(s enum.ConnectionStateEnum) {
	if m.state == s {
		return
	}
	m.state = s
	m.pendingStates = append(m.pendingStates, s)
}

// deliverStates drains queued transitions to the listeners outside the lock.
// Only one goroutine drains at a time, so listeners observe transitions in
// the order they happened.
func (m *Manager) deliverStates() {
	m.mu.Lock()
	if m.delivering {
		m.mu.Unlock()
		return
	}
	m.delivering = true

	for len(m.pendingStates) > 0 {
		s := m.pendingStates[0]
		m.pendingStates = m.pendingStates[1:]
		listeners := make([]StateListener, 0, len(m.listeners))
		for _, l := range m.listeners {
			listeners = append(listeners, l)
		}
		m.mu.Unlock()

		for _, l := range listeners {
			l(s)
		}

		m.mu.Lock()
	}

	m.delivering = false
	m.mu.Unlock()
}
