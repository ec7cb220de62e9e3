package order

import (
	"context"
	"encoding/json"
	"sync"

	"storefront-checkout/internal/common/enum"
	"storefront-checkout/internal/pkg/realtime"
)

type fakeChannel struct {
	mu        sync.Mutex
	state     enum.ConnectionStateEnum
	sent      []realtime.Envelope
	sendErr   error
	handlers  []realtime.Handler
	listeners []realtime.StateListener
	onSend    func(env realtime.Envelope)
}

func newFakeChannel(state enum.ConnectionStateEnum) *fakeChannel {
	return &fakeChannel{state: state}
}

func (c *fakeChannel) State() enum.ConnectionStateEnum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeChannel) Send(_ context.Context, v any) error {
	c.mu.Lock()
	if c.sendErr != nil {
		err := c.sendErr
		c.mu.Unlock()
		return err
	}
	env := v.(realtime.Envelope)
	c.sent = append(c.sent, env)
	onSend := c.onSend
	c.mu.Unlock()

	if onSend != nil {
		onSend(env)
	}
	return nil
}

func (c *fakeChannel) Subscribe(h realtime.Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
	i := len(c.handlers) - 1
	return func() {
		c.mu.Lock()
		c.handlers[i] = nil
		c.mu.Unlock()
	}
}

func (c *fakeChannel) OnStateChange(l realtime.StateListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
	return func() {}
}

func (c *fakeChannel) Sent() []realtime.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Envelope(nil), c.sent...)
}

func (c *fakeChannel) emit(pushType, requestID string, data any) {
	raw, _ := json.Marshal(data)
	push := &realtime.Push{Type: pushType, RequestID: requestID, Data: raw}

	c.mu.Lock()
	handlers := append([]realtime.Handler(nil), c.handlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(push)
		}
	}
}

func (c *fakeChannel) setState(s enum.ConnectionStateEnum) {
	c.mu.Lock()
	c.state = s
	listeners := append([]realtime.StateListener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		l(s)
	}
}
