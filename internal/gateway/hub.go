package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
)

// HubConfig holds websocket connection settings.
type HubConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	CheckOrigin    func(r *http.Request) bool
}

// DefaultHubConfig returns the hub settings used in production.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1024,
	}
}

// Hub fans auction and match events out to websocket dashboards. Clients
// subscribe per tournament; the hub is broadcast-only and drops slow
// consumers rather than blocking the event path.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*conn]struct{} // tournament id -> connections

	upgrader    websocket.Upgrader
	cfg         HubConfig
	logger      *slog.Logger
	broadcastCh chan event.Event
}

type conn struct {
	id           string
	tournamentID string
	ws           *websocket.Conn
	send         chan []byte
	hub          *Hub
}

// NewHub creates a hub. Call Run to start delivering broadcasts.
func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]map[*conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		cfg:         cfg,
		logger:      logger,
		broadcastCh: make(chan event.Event, 256),
	}
}

// Run delivers queued broadcasts until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-h.broadcastCh:
			h.deliver(e)
		}
	}
}

// Broadcast queues an event for all connections watching its tournament.
// Never blocks; the event is dropped when the queue is full.
func (h *Hub) Broadcast(e event.Event) {
	select {
	case h.broadcastCh <- e:
	default:
		h.logger.Warn("broadcast queue full, dropping event",
			slog.String("event_type", string(e.Type)),
			slog.String("aggregate_id", e.AggregateID),
		)
	}
}

// Subscribe upgrades the request to a websocket watching one tournament.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, tournamentID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &conn{
		id:           uuid.NewString(),
		tournamentID: tournamentID,
		ws:           ws,
		send:         make(chan []byte, 64),
		hub:          h,
	}

	h.mu.Lock()
	if h.conns[tournamentID] == nil {
		h.conns[tournamentID] = make(map[*conn]struct{})
	}
	h.conns[tournamentID][c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()

	h.logger.Info("websocket subscribed",
		slog.String("connection_id", c.id),
		slog.String("tournament_id", tournamentID),
	)
	return nil
}

// ConnectionCount reports active connections for a tournament.
func (h *Hub) ConnectionCount(tournamentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[tournamentID])
}

func (h *Hub) deliver(e event.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("failed to encode event for broadcast", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns[e.AggregateID]))
	for c := range h.conns[e.AggregateID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			// Slow consumer; closing the socket lets the pumps clean up.
			h.logger.Warn("websocket send buffer full, closing connection",
				slog.String("connection_id", c.id),
			)
			h.unregister(c)
			c.ws.Close()
		}
	}
}

// unregister removes the connection from its tournament pool. The send
// channel is never closed: deliver may hold a snapshot of targets taken
// before removal, so teardown goes through closing the socket instead and
// both pumps exit on the resulting read/write error.
func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if pool, ok := h.conns[c.tournamentID]; ok {
		delete(pool, c)
		if len(pool) == 0 {
			delete(h.conns, c.tournamentID)
		}
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames; the hub is broadcast-only, so inbound
// payloads are discarded and only keep the read deadline fresh.
func (c *conn) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
	}
}
