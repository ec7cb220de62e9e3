package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ContentTypeJSON = "application/json"

// Headed is implemented by payloads that route or correlate on AMQP headers,
// so consumers can filter without decoding the body.
type Headed interface {
	Headers() map[string]any
}

type Message struct {
	ID          string
	RoutingKey  string
	Body        []byte
	Headers     amqp.Table
	Timestamp   time.Time
	ContentType string
}

// NewMessage encodes payload as JSON under routingKey. The routing key and
// the message id always travel as headers, next to any the payload carries.
func NewMessage(routingKey string, payload any) (*Message, error) {
	gid, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	now := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", routingKey, err)
	}

	msg := &Message{
		ID:          fmt.Sprintf("msg_%s_%d", gid, now.Unix()),
		RoutingKey:  routingKey,
		Body:        body,
		Headers:     amqp.Table{},
		Timestamp:   now,
		ContentType: ContentTypeJSON,
	}
	if h, ok := payload.(Headed); ok {
		for k, v := range h.Headers() {
			// unset values are left out
			if v == nil || v == "" {
				continue
			}
			msg.Headers[k] = v
		}
	}
	msg.Headers["event"] = routingKey
	msg.Headers["id"] = msg.ID
	return msg, nil
}

func (m *Message) Publishing() amqp.Publishing {
	return amqp.Publishing{
		ContentType:  m.ContentType,
		Body:         m.Body,
		MessageId:    m.ID,
		Type:         m.RoutingKey,
		Timestamp:    m.Timestamp,
		DeliveryMode: amqp.Persistent,
		Headers:      m.Headers,
	}
}
