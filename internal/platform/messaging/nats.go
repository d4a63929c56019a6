// Package messaging publishes domain events to NATS subjects.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	SubjectPatientSubmitted = "ambugo.patient.submitted"
	SubjectPatientStatus    = "ambugo.patient.status"
)

// Publisher sends a JSON-encoded payload on subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Config struct {
	URL            string
	Name           string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		Name:           "ambugo-server",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  60,
		ConnectTimeout: 5 * time.Second,
	}
}

// Client is a core NATS publisher. Events are fire-and-forget notifications
// for downstream consumers, so no JetStream acknowledgement is awaited.
type Client struct {
	conn       *nats.Conn
	connected  atomic.Bool
	reconnects atomic.Int64
}

func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	client := &Client{}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			client.reconnects.Add(1)
			client.connected.Store(true)
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			client.connected.Store(false)
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	client.conn = conn
	client.connected.Store(true)
	return client, nil
}

func (c *Client) Publish(ctx context.Context, subject string, data interface{}) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (c *Client) IsConnected() bool { return c.connected.Load() }

func (c *Client) Reconnects() int64 { return c.reconnects.Load() }

// Close drains pending publishes before closing the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}

// Nop discards every event. Used when NATS_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
