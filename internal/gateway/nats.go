package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/config"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
)

// ConnectNATS opens a NATS connection with reconnect handling.
func ConnectNATS(cfg config.EventsConfig, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return nc, nil
}

// NATSPublisher relays committed domain events onto NATS subjects of the
// form <prefix>.<event type>. It satisfies auction.Publisher.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher creates a publisher on an existing connection.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Publish sends one event. The full event envelope rides as JSON.
func (p *NATSPublisher) Publish(_ context.Context, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", e.ID, err)
	}
	subject := p.prefix + "." + string(e.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Consumer subscribes to the relay subjects and feeds the websocket hub,
// so dashboards see events regardless of which replica produced them.
type Consumer struct {
	nc     *nats.Conn
	hub    *Hub
	prefix string
	logger *slog.Logger
	sub    *nats.Subscription
}

// NewConsumer creates a consumer on an existing connection.
func NewConsumer(nc *nats.Conn, hub *Hub, prefix string, logger *slog.Logger) *Consumer {
	return &Consumer{nc: nc, hub: hub, prefix: prefix, logger: logger}
}

// Start subscribes to every event subject under the prefix.
func (c *Consumer) Start() error {
	sub, err := c.nc.Subscribe(c.prefix+".>", func(msg *nats.Msg) {
		var e event.Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			c.logger.Error("failed to decode relayed event",
				slog.String("subject", msg.Subject),
				slog.Any("error", err),
			)
			return
		}
		c.hub.Broadcast(e)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s.>: %w", c.prefix, err)
	}
	c.sub = sub
	return nil
}

// Stop drains the subscription.
func (c *Consumer) Stop() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}
