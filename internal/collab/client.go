package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	defaultSendBuffer = 256
	writeTimeout      = 10 * time.Second
	keepalive         = 30 * time.Second
	readLimit         = 256 * 1024
)

// Identity is who is on the other end of a connection.
type Identity struct {
	UserID      string
	DisplayName string
	ProjectID   string
	ClientID    string
}

// Client is one websocket connection joined to a project room. Outgoing
// messages are queued and written by Serve.
type Client struct {
	Identity

	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

type ClientOption func(*Client)

// WithSendBuffer sets how many outgoing messages may queue before new ones
// are dropped.
func WithSendBuffer(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.send = make(chan []byte, n)
		}
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, id Identity, opts ...ClientOption) *Client {
	c := &Client{Identity: id, hub: hub, conn: conn}
	for _, opt := range opts {
		opt(c)
	}
	if c.send == nil {
		c.send = make(chan []byte, defaultSendBuffer)
	}
	return c
}

// Serve registers the client, writes queued messages in the background and
// reads until the peer goes away or ctx ends. The client is unregistered
// before Serve returns.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.hub.Register(c)
	c.conn.SetReadLimit(readLimit)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		if err := c.writeLoop(ctx); err != nil {
			c.log().Debug("write loop", "error", err)
		}
	}()

	err := c.readLoop(ctx)
	if err != nil && !isClosure(err) {
		c.log().Debug("read loop", "error", err)
	}

	c.hub.Unregister(c)
	cancel()
	<-writerDone
	c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}
		msg, err := c.decode(data)
		if err != nil {
			c.log().Warn("invalid message", "error", err)
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

// decode parses an incoming frame and stamps it with the connection's
// identity so peers cannot speak for each other.
func (c *Client) decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("message has no type")
	}
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.ProjectID = c.ProjectID
	return &msg, nil
}

func (c *Client) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return nil
			}
			if err := c.withTimeout(ctx, func(ctx context.Context) error {
				return c.conn.Write(ctx, websocket.MessageText, data)
			}); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-ticker.C:
			if err := c.withTimeout(ctx, c.conn.Ping); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return fn(ctx)
}

// Send queues msg for delivery. A slow client whose queue is full loses the
// message; the next doc.sync brings it back in line.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log().Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.metrics.Dropped.Inc()
		c.log().Warn("send queue full, dropping message", "type", msg.Type)
	}
}

// close stops delivery. The write loop exits once the queue drains.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) log() *slog.Logger {
	return c.hub.logger.With("user", c.UserID, "client", c.ClientID)
}

func isClosure(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
