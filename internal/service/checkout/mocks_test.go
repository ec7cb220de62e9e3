package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"storefront-checkout/internal/common/enum"
	"storefront-checkout/internal/common/models"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/realtime"
	"storefront-checkout/internal/pkg/storeapi"
	checkoutRepo "storefront-checkout/internal/repository/checkout"
	"storefront-checkout/internal/service/pricing"
)

/*----------- connection -----------*/

type fakeConn struct {
	mu         sync.Mutex
	state      enum.ConnectionStateEnum
	sent       []realtime.Envelope
	handlers   map[int]realtime.Handler
	listeners  map[int]realtime.StateListener
	nextID     int
	connectErr error
	closed     int
	onSend     func(env realtime.Envelope)
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		state:     enum.CLOSED,
		handlers:  make(map[int]realtime.Handler),
		listeners: make(map[int]realtime.StateListener),
	}
}

func (c *fakeConn) State() enum.ConnectionStateEnum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeConn) Send(_ context.Context, v any) error {
	c.mu.Lock()
	if c.state != enum.OPEN {
		c.mu.Unlock()
		return realtime.ErrNotConnected
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

func (c *fakeConn) Sent() []realtime.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Envelope(nil), c.sent...)
}

func (c *fakeConn) Subscribe(h realtime.Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.handlers[id] = h
	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

func (c *fakeConn) OnStateChange(l realtime.StateListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *fakeConn) Connect(_ context.Context, _, _ string) error {
	c.setState(enum.CONNECTING)
	if c.connectErr != nil {
		return c.connectErr
	}
	c.setState(enum.OPEN)
	return nil
}

func (c *fakeConn) Reconnect(ctx context.Context) error {
	return c.Connect(ctx, "", "")
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	c.setState(enum.CLOSED)
	return nil
}

func (c *fakeConn) setState(s enum.ConnectionStateEnum) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	listeners := make([]realtime.StateListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

func (c *fakeConn) emit(typ, requestID string, data any) {
	raw, _ := json.Marshal(data)
	push := &realtime.Push{Type: typ, RequestID: requestID, Data: raw}

	c.mu.Lock()
	handlers := make([]realtime.Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(push)
	}
}

// answerOrders confirms every create_order with the next order id.
func (c *fakeConn) answerOrders(firstID int64) {
	next := firstID
	var mu sync.Mutex
	c.onSend = func(env realtime.Envelope) {
		mu.Lock()
		id := next
		next++
		mu.Unlock()
		go c.emit("order_created", env.RequestID, map[string]any{"id": id, "order_number": "A-" + itoa(id)})
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

/*----------- store -----------*/

type fakeStore struct {
	mu    sync.Mutex
	calls []string

	cart    types.CartSnapshot
	profile types.UserProfile

	cartErr    error
	clearErr   error
	receiptErr error
	verifyErr  error
	payErr     error
	payBlock   chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cart: types.CartSnapshot{Items: []types.CartItem{
			{ProductID: 1, Name: "Plov", UnitPrice: 50000, Quantity: 3},
		}},
		profile: types.UserProfile{ID: 7, FirstName: "Aziz", LastName: "Karimov", Phone: "+998901234567"},
	}
}

func (s *fakeStore) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

func (s *fakeStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeStore) count(name string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (s *fakeStore) GetCart(_ context.Context, _ string) (*types.CartSnapshot, error) {
	s.record("get_cart")
	if s.cartErr != nil {
		return nil, s.cartErr
	}
	cart := s.cart
	cart.CapturedAt = time.Now()
	return &cart, nil
}

func (s *fakeStore) ClearCart(_ context.Context, _ string) error {
	s.record("clear_cart")
	return s.clearErr
}

func (s *fakeStore) GetProfile(_ context.Context, _ string) (*types.UserProfile, error) {
	s.record("get_profile")
	profile := s.profile
	return &profile, nil
}

func (s *fakeStore) CreateReceipt(_ context.Context, _ string, amount, orderID int64) (*types.ReceiptHandle, error) {
	s.record("create_receipt")
	if s.receiptErr != nil {
		return nil, s.receiptErr
	}
	return &types.ReceiptHandle{ReceiptID: "rcpt-" + itoa(orderID), Amount: amount, OrderID: orderID}, nil
}

func (s *fakeStore) CreateCard(_ context.Context, _, cardNumber, expire string) (*storeapi.Card, error) {
	s.record("create_card")
	return &storeapi.Card{Number: cardNumber, Expire: expire, Token: "tok-1"}, nil
}

func (s *fakeStore) GetVerifyCode(_ context.Context, _, _ string) (*types.VerifyCodeInfo, error) {
	s.record("get_verify_code")
	return &types.VerifyCodeInfo{Phone: "+998901234567", Wait: time.Minute}, nil
}

func (s *fakeStore) VerifyCard(_ context.Context, _, _, _ string) error {
	s.record("verify_card")
	return s.verifyErr
}

func (s *fakeStore) PayReceipt(_ context.Context, _, _, _ string) error {
	s.record("pay_receipt")
	s.mu.Lock()
	block := s.payBlock
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	return s.payErr
}

/*----------- ledger -----------*/

type fakeLedger struct {
	mu       sync.Mutex
	attempts map[string]*models.CheckoutAttempt
	err      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{attempts: make(map[string]*models.CheckoutAttempt)}
}

func (l *fakeLedger) Create(_ context.Context, attempt *models.CheckoutAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	cp := *attempt
	cp.CreatedAt = time.Now()
	l.attempts[attempt.ID] = &cp
	return nil
}

func (l *fakeLedger) FindByID(_ context.Context, id string) (*models.CheckoutAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.attempts[id]
	if !ok {
		return nil, checkoutRepo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (l *fakeLedger) FindByOrderID(_ context.Context, orderID int64) (*models.CheckoutAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.attempts {
		if a.OrderID != nil && *a.OrderID == orderID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, checkoutRepo.ErrNotFound
}

func (l *fakeLedger) FindByUser(_ context.Context, userID int64, limit int) ([]models.CheckoutAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	var out []models.CheckoutAttempt
	for _, a := range l.attempts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *fakeLedger) Update(_ context.Context, id string, updates map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.attempts[id]
	if !ok {
		return checkoutRepo.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "order_id":
			orderID := v.(int64)
			a.OrderID = &orderID
		case "order_number":
			a.OrderNumber = v.(string)
		case "status":
			a.Status = v.(string)
		case "receipt_id":
			a.ReceiptID = v.(string)
		case "payment_state":
			a.PaymentState = v.(string)
		case "failed_step":
			a.FailedStep = v.(string)
		case "error_message":
			a.ErrorMessage = v.(string)
		case "paid_at":
			paidAt := v.(time.Time)
			a.PaidAt = &paidAt
		default:
			return errors.New("unknown column " + k)
		}
	}
	return nil
}

func (l *fakeLedger) only() *models.CheckoutAttempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.attempts {
		cp := *a
		return &cp
	}
	return nil
}

/*----------- publisher / pool / settings -----------*/

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := payload.(Event)
	ev.Type = routingKey
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func (p *fakePublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type goPool struct{}

func (goPool) Submit(task func()) error {
	go task()
	return nil
}

type fullPool struct{}

func (fullPool) Submit(func()) error {
	return errors.New("too many goroutines blocked on submit or Nonblocking is set")
}

type staticSettings struct{ settings pricing.Settings }

func (s staticSettings) Settings(context.Context) pricing.Settings {
	return s.settings
}

/*----------- wiring -----------*/

type harness struct {
	conn      *fakeConn
	store     *fakeStore
	ledger    *fakeLedger
	publisher *fakePublisher
	deps      *Deps
}

func newHarness() *harness {
	h := &harness{
		conn:      newFakeConn(),
		store:     newFakeStore(),
		ledger:    newFakeLedger(),
		publisher: &fakePublisher{},
	}
	h.deps = &Deps{
		Store:     h.store,
		Settings:  staticSettings{pricing.DefaultSettings()},
		Ledger:    h.ledger,
		Publisher: h.publisher,
		Pool:      goPool{},
		NewConnection: func() Connection {
			return h.conn
		},
		Options: &Options{
			Endpoint:        "wss://store.example/ws",
			OrderTimeout:    time.Second,
			StepTimeout:     time.Second,
			DefaultLocation: Location{Longitude: 25.552, Latitude: 54.548},
		},
	}
	return h
}

var testUser = types.UserWithAuth{ID: 7, Credential: "Bearer test"}
