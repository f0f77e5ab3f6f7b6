package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Config holds the broker connection settings. Values are supplied by the
// hosting environment; zero values fall back to the defaults below.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// ConnectAttempts bounds how many times a single TryConnect call dials
	// the broker before giving up.
	ConnectAttempts int
	// ConnectDelay is the fixed pause between failed dial attempts.
	ConnectDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5672
	}
	if c.User == "" {
		c.User = "guest"
	}
	if c.Password == "" {
		c.Password = "guest"
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = defaultConnectAttempts
	}
	if c.ConnectDelay <= 0 {
		c.ConnectDelay = defaultConnectDelay
	}
	return c
}

// URL renders the AMQP connection URL for this configuration.
func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// Manager owns the single physical broker connection of a process.
//
// It hands out channels to publishers and consumers but never shares one:
// every caller gets its own channel and is responsible for recreating it
// when the broker invalidates it. The manager itself never reconnects on
// its own; callers detect a dead channel on next use and call Channel again,
// which redials if needed.
type Manager struct {
	cfg     Config
	logger  *zap.Logger
	metrics MetricsCollector

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool
}

// NewManager creates a connection manager. It does not dial; the first
// TryConnect or Channel call does.
func NewManager(cfg Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:     cfg.withDefaults(),
		logger:  zap.NewNop(),
		metrics: NewNopMetricsCollector(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsConnected reports whether the underlying connection is open.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isConnectedLocked()
}

func (m *Manager) isConnectedLocked() bool {
	return m.conn != nil && !m.conn.IsClosed() && !m.closed
}

// TryConnect establishes the broker connection if it is not already open.
// It returns true immediately when connected, and otherwise dials up to
// ConnectAttempts times with a fixed delay in between. A false return is
// not fatal: callers report unavailability upward and retry later.
func (m *Manager) TryConnect() bool {
	if m.IsConnected() {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the lock so concurrent callers do not dial twice.
	if m.isConnectedLocked() {
		return true
	}
	if m.closed {
		return false
	}

	for attempt := 1; attempt <= m.cfg.ConnectAttempts; attempt++ {
		conn, err := amqp.Dial(m.cfg.URL())
		if err == nil {
			m.conn = conn
			m.watch(conn)
			m.metrics.IncrementCounter("rabbitmq.connect_success", nil)
			m.logger.Info("Connected to RabbitMQ",
				zap.String("host", m.cfg.Host),
				zap.Int("port", m.cfg.Port),
			)
			return true
		}

		m.metrics.IncrementCounter("rabbitmq.connect_failed", nil)
		m.logger.Warn("Could not connect to RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.cfg.ConnectAttempts),
			zap.String("host", m.cfg.Host),
			zap.Error(err),
		)

		if attempt < m.cfg.ConnectAttempts {
			time.Sleep(m.cfg.ConnectDelay)
		}
	}

	m.logger.Error("Giving up connecting to RabbitMQ",
		zap.Int("attempts", m.cfg.ConnectAttempts),
	)
	return false
}

// watch registers connection observers. They only log; reconnecting is the
// responsibility of publishers and consumers on their next use.
func (m *Manager) watch(conn *amqp.Connection) {
	closes := conn.NotifyClose(make(chan *amqp.Error, 1))
	blocked := conn.NotifyBlocked(make(chan amqp.Blocking, 1))

	go func() {
		for {
			select {
			case err, ok := <-closes:
				if !ok {
					return
				}
				if err != nil {
					m.logger.Warn("RabbitMQ connection shut down", zap.Error(err))
				}
			case b, ok := <-blocked:
				if !ok {
					return
				}
				if b.Active {
					m.logger.Warn("RabbitMQ connection blocked", zap.String("reason", b.Reason))
				} else {
					m.logger.Info("RabbitMQ connection unblocked")
				}
			}
		}
	}()
}

// Channel creates a new channel on the shared connection, dialing first if
// necessary. The returned channel is owned exclusively by the caller.
func (m *Manager) Channel() (*amqp.Channel, error) {
	if !m.TryConnect() {
		return nil, ErrConnectionUnavailable
	}

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	return ch, nil
}

// DeclareTopology declares the given exchanges, queues, and bindings on a
// temporary channel. Declarations are idempotent on the broker side, so it
// is safe for every service instance to call this at startup.
func (m *Manager) DeclareTopology(t Topology) error {
	ch, err := m.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := t.declare(ch); err != nil {
		return err
	}

	m.logger.Info("RabbitMQ topology declared",
		zap.Int("exchanges", len(t.Exchanges)),
		zap.Int("queues", len(t.Queues)),
		zap.Int("bindings", len(t.Bindings)),
	)
	return nil
}

// Close shuts the connection down for good. The manager cannot be reused
// afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.conn != nil && !m.conn.IsClosed() {
		if err := m.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}
