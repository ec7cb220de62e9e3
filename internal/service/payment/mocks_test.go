package payment

import (
	"context"
	"sync"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/storeapi"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	receiptErr error
	cardErr    error
	codeErr    error
	verifyErr  error
	payErr     error

	wait     time.Duration
	block    chan struct{}
	lastCode string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{wait: time.Minute}
}

func (g *fakeGateway) record(name string) {
	g.mu.Lock()
	g.calls = append(g.calls, name)
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) count(name string) int {
	n := 0
	for _, c := range g.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (g *fakeGateway) CreateReceipt(_ context.Context, _ string, amount, orderID int64) (*types.ReceiptHandle, error) {
	g.record("create_receipt")
	if g.receiptErr != nil {
		return nil, g.receiptErr
	}
	return &types.ReceiptHandle{ReceiptID: "rcpt-1", Amount: amount, OrderID: orderID}, nil
}

func (g *fakeGateway) CreateCard(_ context.Context, _, cardNumber, expire string) (*storeapi.Card, error) {
	g.record("create_card")
	if g.cardErr != nil {
		return nil, g.cardErr
	}
	return &storeapi.Card{Number: cardNumber, Expire: expire, Token: "tok-" + cardNumber[len(cardNumber)-4:]}, nil
}

func (g *fakeGateway) GetVerifyCode(_ context.Context, _, _ string) (*types.VerifyCodeInfo, error) {
	g.record("get_verify_code")
	if g.codeErr != nil {
		return nil, g.codeErr
	}
	return &types.VerifyCodeInfo{Phone: "+998901234567", Wait: g.wait}, nil
}

func (g *fakeGateway) VerifyCard(_ context.Context, _, _, code string) error {
	g.record("verify_card")
	g.mu.Lock()
	g.lastCode = code
	g.mu.Unlock()
	return g.verifyErr
}

func (g *fakeGateway) PayReceipt(_ context.Context, _, _, _ string) error {
	g.record("pay_receipt")
	return g.payErr
}
