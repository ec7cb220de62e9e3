package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRequest() *types.OrderRequest {
	return &types.OrderRequest{
		Amount:       159000,
		PaymentType:  enum.CASH,
		DeliveryType: enum.DELIVERY,
		Receiver:     types.Receiver{FirstName: "Aziz", Phone: "+998901234567"},
		Items:        []types.OrderItem{{Product: 1, Price: 50000, Quantity: 3}},
	}
}

type submitResult struct {
	record *types.OrderRecord
	err    error
}

func submitAsync(s *Submitter, ctx context.Context) <-chan submitResult {
	out := make(chan submitResult, 1)
	go func() {
		rec, err := s.Submit(ctx, orderRequest())
		out <- submitResult{rec, err}
	}()
	return out
}

func waitSent(t *testing.T, ch *fakeChannel, n int) []realtime.Envelope {
	t.Helper()
	require.Eventually(t, func() bool { return len(ch.Sent()) == n }, time.Second, 5*time.Millisecond)
	return ch.Sent()
}

func TestSubmitCorrelatesPush(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, time.Second)

	ch.onSend = func(env realtime.Envelope) {
		go ch.emit(TypeOrderCreated, env.RequestID, map[string]any{"id": 77, "order_number": "A-77"})
	}

	rec, err := s.Submit(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(77), rec.ID)
	assert.Equal(t, "A-77", rec.OrderNumber)
	assert.False(t, s.InFlight())

	sent := ch.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, TypeCreateOrder, sent[0].Type)
	assert.NotEmpty(t, sent[0].RequestID)
	assert.Equal(t, int64(159000), sent[0].Message.(*types.OrderRequest).Amount)
}

func TestSubmitAcceptsPushWithoutRequestID(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, time.Second)

	res := submitAsync(s, context.Background())
	waitSent(t, ch, 1)
	ch.emit(TypeOrderCreated, "", map[string]any{"id": 5, "order_number": "5"})

	r := <-res
	require.NoError(t, r.err)
	assert.Equal(t, int64(5), r.record.ID)
}

func TestSubmitIgnoresForeignRequestID(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, time.Second)

	res := submitAsync(s, context.Background())
	sent := waitSent(t, ch, 1)

	ch.emit(TypeOrderCreated, "someone-else", map[string]any{"id": 1})
	ch.emit("cart_updated", sent[0].RequestID, map[string]any{"id": 2})
	assert.True(t, s.InFlight())

	ch.emit(TypeOrderCreated, sent[0].RequestID, map[string]any{"id": 3, "order_number": "3"})
	r := <-res
	require.NoError(t, r.err)
	assert.Equal(t, int64(3), r.record.ID)
}

func TestSubmitRejectsSecondSubmitWhilePending(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, time.Second)

	res := submitAsync(s, context.Background())
	waitSent(t, ch, 1)

	_, err := s.Submit(context.Background(), orderRequest())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Len(t, ch.Sent(), 1, "no second message on the wire")

	ch.emit(TypeOrderCreated, "", map[string]any{"id": 9})
	require.NoError(t, (<-res).err)
}

func TestSubmitNotConnectedSendsNothing(t *testing.T) {
	for _, state := range []enum.ConnectionStateEnum{enum.CONNECTING, enum.CLOSED} {
		ch := newFakeChannel(state)
		s := NewSubmitter(ch, time.Second)

		_, err := s.Submit(context.Background(), orderRequest())
		assert.ErrorIs(t, err, realtime.ErrNotConnected)
		assert.Empty(t, ch.Sent())
		assert.False(t, s.InFlight())
	}
}

func TestSubmitSendFailureReleasesGuard(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	ch.sendErr = realtime.ErrNotConnected
	s := NewSubmitter(ch, time.Second)

	_, err := s.Submit(context.Background(), orderRequest())
	assert.ErrorIs(t, err, realtime.ErrNotConnected)
	assert.False(t, s.InFlight())
}

func TestSubmitTimeout(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, 30*time.Millisecond)

	_, err := s.Submit(context.Background(), orderRequest())
	assert.ErrorIs(t, err, ErrCorrelationTimeout)
	assert.False(t, s.InFlight())

	// a late push has nobody to go to and is dropped
	ch.emit(TypeOrderCreated, "", map[string]any{"id": 1})
	assert.False(t, s.InFlight())
}

func TestSubmitConnectionLost(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, time.Second)

	res := submitAsync(s, context.Background())
	waitSent(t, ch, 1)
	ch.setState(enum.CONNECTING)

	r := <-res
	assert.ErrorIs(t, r.err, ErrConnectionLost)
	assert.False(t, s.InFlight())
}

func TestSubmitContextCancelKeepsGuardUntilTimeout(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	res := submitAsync(s, ctx)
	waitSent(t, ch, 1)
	cancel()

	r := <-res
	assert.True(t, errors.Is(r.err, context.Canceled))
	assert.True(t, s.InFlight())

	_, err := s.Submit(context.Background(), orderRequest())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Len(t, ch.Sent(), 1)

	require.Eventually(t, func() bool { return !s.InFlight() }, time.Second, 5*time.Millisecond)
}

func TestSubmitContextCancelLatePushGoesToFirstRequest(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	res := submitAsync(s, ctx)
	waitSent(t, ch, 1)
	cancel()
	<-res

	// a push without a request id still belongs to the abandoned submission
	ch.emit(TypeOrderCreated, "", map[string]any{"id": 1, "order_number": "FIRST"})
	require.Eventually(t, func() bool { return !s.InFlight() }, time.Second, 5*time.Millisecond)

	second := submitAsync(s, context.Background())
	waitSent(t, ch, 2)
	ch.emit(TypeOrderCreated, ch.Sent()[1].RequestID, map[string]any{"id": 2, "order_number": "SECOND"})

	r := <-second
	require.NoError(t, r.err)
	assert.Equal(t, "SECOND", r.record.OrderNumber)
}

func TestSubmitMalformedConfirmation(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, time.Second)

	res := submitAsync(s, context.Background())
	waitSent(t, ch, 1)
	ch.emit(TypeOrderCreated, "", map[string]any{"order_number": "no-id"})

	r := <-res
	assert.ErrorIs(t, r.err, realtime.ErrMalformedFrame)
}

func TestSubmitterClose(t *testing.T) {
	ch := newFakeChannel(enum.OPEN)
	s := NewSubmitter(ch, 30*time.Millisecond)
	s.Close()

	res := submitAsync(s, context.Background())
	waitSent(t, ch, 1)
	ch.emit(TypeOrderCreated, "", map[string]any{"id": 1})

	assert.ErrorIs(t, (<-res).err, ErrCorrelationTimeout)
}
