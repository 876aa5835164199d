package bybit

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient handles the WebSocket connection to Bybit and message routing.
// A single connection carries any number of topic subscriptions; on read
// failure it reconnects with backoff and resubscribes every active topic.
type WSClient struct {
	url     string
	logger  *zap.Logger
	handler func([]byte)

	mu     sync.Mutex
	conn   *websocket.Conn
	topics map[string]struct{}
	closed bool
}

// NewWSClient creates a new WebSocket client with the given URL and logger.
func NewWSClient(url string, logger *zap.Logger) *WSClient {
	return &WSClient{
		url:    url,
		logger: logger,
		topics: make(map[string]struct{}),
	}
}

// SetMessageHandler sets the function to handle incoming messages. Must be
// called before Listen.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Connect establishes the WebSocket connection. It does not start the listener.
func (c *WSClient) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		c.logger.Error("failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("WebSocket connected", zap.String("url", c.url))
	return nil
}

// Subscription is a cancellable handle to a set of subscribed topics. Cancel
// unsubscribes exactly the topics this handle covers and is safe to call more
// than once.
type Subscription struct {
	client *WSClient
	topics []string
	once   sync.Once
}

// Cancel unsubscribes the handle's topics and removes them from the
// resubscribe set used after reconnects.
func (s *Subscription) Cancel() error {
	var err error
	s.once.Do(func() {
		err = s.client.unsubscribe(s.topics)
	})
	return err
}

// Subscribe sends a subscription request for the given topics and records
// them for automatic resubscription after a reconnect.
func (c *WSClient) Subscribe(topics ...string) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("websocket not connected")
	}
	if err := c.writeOp("subscribe", topics); err != nil {
		return nil, err
	}
	for _, t := range topics {
		c.topics[t] = struct{}{}
	}
	return &Subscription{client: c, topics: topics}, nil
}

func (c *WSClient) unsubscribe(topics []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range topics {
		delete(c.topics, t)
	}
	if c.conn == nil || c.closed {
		return nil
	}
	return c.writeOp("unsubscribe", topics)
}

// writeOp sends an op message. Caller must hold c.mu.
func (c *WSClient) writeOp(op string, topics []string) error {
	msg := map[string]interface{}{
		"op":   op,
		"args": topics,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("websocket %s failed: %w", op, err)
	}
	return nil
}

// Listen reads messages until Close is called, reconnecting and resubscribing
// on read errors. Run it in its own goroutine.
func (c *WSClient) Listen() {
	for {
		c.mu.Lock()
		conn, closed := c.conn, c.closed
		c.mu.Unlock()
		if closed || conn == nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed = c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			c.logger.Error("WebSocket read error", zap.Error(err))

			// Retry reconnecting until Close is called.
			backoff := time.Second
			for {
				time.Sleep(backoff)
				if backoff < 30*time.Second {
					backoff *= 2
				}
				if err := c.reconnectAndResubscribe(); err != nil {
					c.logger.Warn("retrying reconnect", zap.Error(err))
					c.mu.Lock()
					closed = c.closed
					c.mu.Unlock()
					if closed {
						return
					}
					continue
				}
				c.logger.Info("reconnected successfully")
				break
			}
			continue // Start listening again with the new connection
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

func (c *WSClient) reconnectAndResubscribe() error {
	newConn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		_ = newConn.Close()
		return nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = newConn

	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return nil
	}
	return c.writeOp("subscribe", topics)
}

// Close tears the connection down and stops the listen loop. Idempotent.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
