package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/logger"
	"storefront-checkout/internal/pkg/realtime"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	TypeCreateOrder  = "create_order"
	TypeOrderCreated = "order_created"

	DefaultTimeout = 30 * time.Second
)

// Channel is the part of the connection manager the submitter relies on.
type Channel interface {
	State() enum.ConnectionStateEnum
	Send(ctx context.Context, v any) error
	Subscribe(h realtime.Handler) (unsubscribe func())
	OnStateChange(l realtime.StateListener) (unsubscribe func())
}

type ISubmitter interface {
	Submit(ctx context.Context, req *types.OrderRequest) (*types.OrderRecord, error)
	InFlight() bool
	Close()
}

type outcome struct {
	record *types.OrderRecord
	err    error
}

type pending struct {
	requestID string
	result    chan outcome
}

// Submitter sends create_order messages and pairs each with the
// order_created push that answers it. The backend answers submissions in
// order without always echoing the request id, so only one may be pending.
type Submitter struct {
	ch      Channel
	timeout time.Duration

	mu      sync.Mutex
	pending *pending
	unsubs  []func()
}

func NewSubmitter(ch Channel, timeout time.Duration) *Submitter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &Submitter{ch: ch, timeout: timeout}
	s.unsubs = append(s.unsubs,
		ch.Subscribe(s.onPush),
		ch.OnStateChange(s.onStateChange),
	)
	return s
}

// Submit sends req and waits for the server to confirm the order. Nothing is
// sent when another submission is pending or the channel is not open.
func (s *Submitter) Submit(ctx context.Context, req *types.OrderRequest) (*types.OrderRecord, error) {
	requestID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request id: %w", err)
	}

	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if s.ch.State() != enum.OPEN {
		s.mu.Unlock()
		return nil, realtime.ErrNotConnected
	}
	p := &pending{requestID: requestID, result: make(chan outcome, 1)}
	s.pending = p
	s.mu.Unlock()

	err = s.ch.Send(ctx, realtime.Envelope{
		Type:      TypeCreateOrder,
		RequestID: requestID,
		Message:   req,
	})
	if err != nil {
		s.release(p)
		return nil, err
	}

	logger.Info.Printf("Order %s submitted (amount %d, payment %s)", requestID, req.Amount, req.PaymentType.ToString())

	timer := time.NewTimer(s.timeout)

	select {
	case o := <-p.result:
		timer.Stop()
		return o.record, o.err
	case <-timer.C:
		if s.release(p) {
			logger.Warning.Printf("Order %s not confirmed within %v", requestID, s.timeout)
			return nil, ErrCorrelationTimeout
		}
		o := <-p.result
		return o.record, o.err
	case <-ctx.Done():
		// the server may still answer; the slot stays taken until it does,
		// the channel drops or the timeout fires
		go s.abandon(p, timer)
		return nil, ctx.Err()
	}
}

// abandon keeps a submission whose caller stopped waiting pending until it
// reaches an outcome of its own.
func (s *Submitter) abandon(p *pending, timer *time.Timer) {
	select {
	case o := <-p.result:
		timer.Stop()
		if o.record != nil {
			logger.Warning.Printf("Order %s confirmed as #%s after its caller left", p.requestID, o.record.OrderNumber)
			return
		}
		logger.Warning.Printf("Order %s ended after its caller left: %v", p.requestID, o.err)
	case <-timer.C:
		if s.release(p) {
			logger.Warning.Printf("Order %s not confirmed within %v", p.requestID, s.timeout)
			return
		}
		<-p.result
	}
}

func (s *Submitter) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Submitter) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// release clears p if it is still the pending submission. It returns false
// when an outcome was already delivered to p.
func (s *Submitter) release(p *pending) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != p {
		return false
	}
	s.pending = nil
	return true
}

func (s *Submitter) resolve(p *pending, o outcome) {
	s.pending = nil
	p.result <- o
}

func (s *Submitter) onPush(push *realtime.Push) {
	if push.Type != TypeOrderCreated {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending
	if p == nil {
		logger.Warning.Printf("Dropping order_created push with no pending submission: %s", push.Data)
		return
	}
	if push.RequestID != "" && push.RequestID != p.requestID {
		logger.Warning.Printf("Dropping order_created push for request %s, waiting for %s", push.RequestID, p.requestID)
		return
	}

	record, err := realtime.DecodeData[types.OrderRecord](push)
	if err == nil && record.ID == 0 {
		err = fmt.Errorf("%w: order_created without id", realtime.ErrMalformedFrame)
	}
	if err != nil {
		logger.Error.Printf("Order %s confirmation unreadable: %v", p.requestID, err)
		s.resolve(p, outcome{err: err})
		return
	}

	logger.Info.Printf("Order %s confirmed as #%s (id %d)", p.requestID, record.OrderNumber, record.ID)
	s.resolve(p, outcome{record: record})
}

func (s *Submitter) onStateChange(state enum.ConnectionStateEnum) {
	if state == enum.OPEN {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.pending; p != nil {
		logger.Warning.Printf("Order %s outcome unknown: channel went %s", p.requestID, state.ToString())
		s.resolve(p, outcome{err: ErrConnectionLost})
	}
}
