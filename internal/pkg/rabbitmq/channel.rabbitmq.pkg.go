package rabbitmq

import (
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNoConnection = errors.New("rabbitmq connection not available")

// ChannelManager hands out one AMQP channel and reopens it on the current
// connection once the broker closes it.
type ChannelManager struct {
	cm      *ConnectionManager
	mu      sync.Mutex
	channel *amqp.Channel
	setup   func(ch *amqp.Channel) error
}

// NewChannelManager creates a channel manager; setup, when set, runs on every
// freshly opened channel (exchange declarations and the like).
func NewChannelManager(cm *ConnectionManager, setup func(ch *amqp.Channel) error) *ChannelManager {
	return &ChannelManager{cm: cm, setup: setup}
}

func (m *ChannelManager) GetChannel() (*amqp.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel != nil && !m.channel.IsClosed() {
		return m.channel, nil
	}

	conn := m.cm.GetConnection()
	if conn == nil || conn.IsClosed() {
		return nil, ErrNoConnection
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if m.setup != nil {
		if err := m.setup(ch); err != nil {
			_ = ch.Close()
			return nil, err
		}
	}

	m.channel = ch
	return ch, nil
}

func (m *ChannelManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil || m.channel.IsClosed() {
		return nil
	}
	err := m.channel.Close()
	m.channel = nil
	return err
}
