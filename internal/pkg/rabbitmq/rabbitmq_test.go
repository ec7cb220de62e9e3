package rabbitmq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headedPayload struct {
	OrderID   int64  `json:"order_id"`
	AttemptID string `json:"-"`
}

func (p headedPayload) Headers() map[string]any {
	return map[string]any{"attempt_id": p.AttemptID, "order_id": p.OrderID}
}

func TestNewMessage(t *testing.T) {
	t.Run("json payload", func(t *testing.T) {
		msg, err := NewMessage("checkout.order.created", map[string]any{"order_id": 7})
		require.NoError(t, err)
		assert.Equal(t, ContentTypeJSON, msg.ContentType)
		assert.JSONEq(t, `{"order_id":7}`, string(msg.Body))
		assert.Contains(t, msg.ID, "msg_")

		pub := msg.Publishing()
		assert.Equal(t, msg.ID, pub.MessageId)
		assert.Equal(t, "checkout.order.created", pub.Type)
		assert.Equal(t, ContentTypeJSON, pub.ContentType)
		assert.Equal(t, msg.ID, pub.Headers["id"])
		assert.Equal(t, "checkout.order.created", pub.Headers["event"])
		assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
		assert.NoError(t, pub.Headers.Validate())
	})

	t.Run("payload headers", func(t *testing.T) {
		msg, err := NewMessage("checkout.payment.paid", headedPayload{OrderID: 9, AttemptID: "att-1"})
		require.NoError(t, err)
		assert.Equal(t, "att-1", msg.Headers["attempt_id"])
		assert.Equal(t, int64(9), msg.Headers["order_id"])
		assert.JSONEq(t, `{"order_id":9}`, string(msg.Body))
	})

	t.Run("empty headers are dropped", func(t *testing.T) {
		msg, err := NewMessage("checkout.order.unknown", headedPayload{})
		require.NoError(t, err)
		assert.NotContains(t, msg.Headers, "attempt_id")
		assert.NoError(t, msg.Headers.Validate())
	})

	t.Run("unencodable payload", func(t *testing.T) {
		_, err := NewMessage("checkout.order.created", map[string]any{"bad": make(chan int)})
		assert.Error(t, err)
	})
}

func TestConfigURL(t *testing.T) {
	assert.Equal(t, "amqp://guest:pw@mq:5672/", (&Config{Username: "guest", Password: "pw", Host: "mq", Port: 5672}).URL())
	assert.Equal(t, "amqp://x", (&Config{URI: "amqp://x", Host: "ignored"}).URL())
}

func TestNewConnectionManagerUnreachable(t *testing.T) {
	_, err := NewConnectionManager(context.Background(), &Config{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestDefaultExchangeConfig(t *testing.T) {
	cfg := DefaultExchangeConfig("checkout.events")
	assert.Equal(t, amqp.ExchangeTopic, cfg.Kind)
	assert.True(t, cfg.Durable)
}
