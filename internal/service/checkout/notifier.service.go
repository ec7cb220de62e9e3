package checkout

import (
	"context"
	"sync"
	"time"

	"storefront-checkout/internal/common/enum"
	"storefront-checkout/internal/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	EventOrderCreated   = "checkout.order.created"
	EventOrderUnknown   = "checkout.order.unknown"
	EventCashConfirmed  = "checkout.cash.confirmed"
	EventPaymentPending = "checkout.payment.pending"
	EventPaymentPaid    = "checkout.payment.paid"
	EventPaymentFailed  = "checkout.payment.failed"

	notificationLimit = 50
	publishTimeout    = 10 * time.Second
)

// Publisher delivers checkout events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Pool runs tasks off the caller's goroutine.
type Pool interface {
	Submit(task func()) error
}

type Notification struct {
	ID        string                    `json:"id"`
	Kind      enum.NotificationKindEnum `json:"kind"`
	Message   string                    `json:"message"`
	CreatedAt time.Time                 `json:"created_at"`
}

type Event struct {
	ID          string                  `json:"id"`
	Type        string                  `json:"type"`
	SessionID   string                  `json:"session_id"`
	UserID      int64                   `json:"user_id"`
	AttemptID   string                  `json:"attempt_id,omitempty"`
	OrderID     int64                   `json:"order_id,omitempty"`
	OrderNumber string                  `json:"order_number,omitempty"`
	Amount      int64                   `json:"amount,omitempty"`
	Status      enum.CheckoutStatusEnum `json:"status,omitempty"`
	Step        enum.PaymentStepEnum    `json:"step,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Headers lets consumers filter on the attempt and order without decoding
// the body.
func (e Event) Headers() map[string]any {
	h := map[string]any{
		"session_id": e.SessionID,
		"user_id":    e.UserID,
		"attempt_id": e.AttemptID,
		"status":     e.Status.ToString(),
		"step":       e.Step.ToString(),
	}
	if e.OrderID != 0 {
		h["order_id"] = e.OrderID
	}
	return h
}

// Notifier keeps the user-facing messages of one session for the UI to poll
// and forwards checkout events to the broker.
type Notifier struct {
	sessionID string
	userID    int64
	publisher Publisher
	pool      Pool
	now       func() time.Time

	mu    sync.Mutex
	items []Notification
}

func NewNotifier(sessionID string, userID int64, publisher Publisher, pool Pool) *Notifier {
	return &Notifier{
		sessionID: sessionID,
		userID:    userID,
		publisher: publisher,
		pool:      pool,
		now:       time.Now,
	}
}

func (n *Notifier) Notify(kind enum.NotificationKindEnum, message string) Notification {
	item := Notification{
		ID:        gonanoid.Must(),
		Kind:      kind,
		Message:   message,
		CreatedAt: n.now(),
	}

	switch kind {
	case enum.NOTIFY_ERROR:
		logger.Error.Printf("[session %s] %s", n.sessionID, message)
	case enum.NOTIFY_WARNING:
		logger.Warning.Printf("[session %s] %s", n.sessionID, message)
	default:
		logger.Info.Printf("[session %s] %s", n.sessionID, message)
	}

	n.mu.Lock()
	n.items = append(n.items, item)
	if len(n.items) > notificationLimit {
		n.items = n.items[len(n.items)-notificationLimit:]
	}
	n.mu.Unlock()

	return item
}

// List returns the kept notifications, oldest first.
func (n *Notifier) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Emit publishes ev in the background. Broker failures are logged only; the
// ledger is the durable record.
func (n *Notifier) Emit(ev Event) {
	if n.publisher == nil {
		return
	}

	ev.ID = gonanoid.Must()
	ev.SessionID = n.sessionID
	ev.UserID = n.userID
	ev.CreatedAt = n.now()

	publish := func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := n.publisher.Publish(ctx, ev.Type, ev); err != nil {
			logger.Warning.Printf("Failed to publish %s for session %s: %v", ev.Type, n.sessionID, err)
		}
	}

	if err := n.pool.Submit(publish); err != nil {
		logger.Warning.Printf("Dropping %s event for session %s: %v", ev.Type, n.sessionID, err)
	}
}
