package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ConnectionManager struct {
	conn          *amqp.Connection
	mu            sync.Mutex
	url           string
	isConnected   bool
	retryInterval time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
}

type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	URI      string
}

func (c *Config) URL() string {
	if c.URI != "" {
		return c.URI
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.Username, c.Password, c.Host, c.Port)
}

func NewConnectionManager(ctx context.Context, config *Config) (*ConnectionManager, error) {
	ctx, cancel := context.WithCancel(ctx)

	cm := &ConnectionManager{
		url:           config.URL(),
		retryInterval: time.Second * 2,
		ctx:           ctx,
		cancel:        cancel,
	}

	if err := cm.connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	return cm, nil
}

func (cm *ConnectionManager) connect() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.isConnected {
		return nil
	}

	if err := cm.ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}

	conn, err := amqp.Dial(cm.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	cm.conn = conn
	cm.isConnected = true

	go cm.connectionMonitor(conn)

	return nil
}

// connectionMonitor waits for conn to drop and redials until it succeeds or
// the manager is closed. Each successful dial starts its own monitor.
func (cm *ConnectionManager) connectionMonitor(conn *amqp.Connection) {
	connErr := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-cm.ctx.Done():
		return
	case err, ok := <-connErr:
		if !ok || err == nil {
			// closed by Close()
			return
		}

		cm.mu.Lock()
		cm.isConnected = false
		cm.mu.Unlock()
		logger.Warning.Printf("RabbitMQ connection lost: %v. Attempting to reconnect...", err)
	}

	for {
		select {
		case <-cm.ctx.Done():
			return
		case <-time.After(cm.retryInterval):
		}

		if err := cm.connect(); err != nil {
			logger.Warning.Printf("Failed to reconnect: %v. Retrying in %v...", err, cm.retryInterval)
			continue
		}

		logger.Info.Println("RabbitMQ reconnected successfully")
		return
	}
}

func (cm *ConnectionManager) GetConnection() *amqp.Connection {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.ctx.Err() != nil || !cm.isConnected {
		return nil
	}

	return cm.conn
}

func (cm *ConnectionManager) Close() error {
	cm.cancel()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.isConnected = false
	if cm.conn != nil {
		conn := cm.conn
		cm.conn = nil
		if err := conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	return nil
}

func (cm *ConnectionManager) IsClosed() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.ctx.Err() != nil || !cm.isConnected || cm.conn == nil || cm.conn.IsClosed()
}
