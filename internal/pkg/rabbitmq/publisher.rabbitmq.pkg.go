package rabbitmq

import (
	"context"
	"fmt"

	"storefront-checkout/internal/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ExchangeConfig struct {
	Name    string
	Kind    string
	Durable bool
}

func DefaultExchangeConfig(name string) *ExchangeConfig {
	return &ExchangeConfig{
		Name:    name,
		Kind:    amqp.ExchangeTopic,
		Durable: true,
	}
}

// Publisher publishes persistent JSON messages to one exchange.
type Publisher struct {
	channels *ChannelManager
	exchange *ExchangeConfig
}

func NewPublisher(cm *ConnectionManager, exchange *ExchangeConfig) *Publisher {
	p := &Publisher{exchange: exchange}
	p.channels = NewChannelManager(cm, p.declareExchange)
	return p
}

func (p *Publisher) declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		p.exchange.Name,
		p.exchange.Kind,
		p.exchange.Durable,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange.Name, err)
	}
	return nil
}

// Publish sends payload to the exchange under routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	msg, err := NewMessage(routingKey, payload)
	if err != nil {
		return err
	}

	ch, err := p.channels.GetChannel()
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, p.exchange.Name, routingKey, false, false, msg.Publishing()); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	logger.Debug.Printf("Published %s to %s (%s)", msg.ID, p.exchange.Name, routingKey)
	return nil
}

func (p *Publisher) Close() error {
	return p.channels.Close()
}
