package auction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// Publisher delivers committed events to outside consumers (the gateway,
// a NATS relay). A nil publisher disables delivery.
type Publisher interface {
	Publish(ctx context.Context, e event.Event) error
}

// Manager coordinates auction lifecycle, the countdown tick loop and
// persistence. One goroutine per active auction drives its 1-second ticks;
// the auction aggregate itself serializes ticks against bids.
type Manager struct {
	mu       sync.RWMutex
	auctions map[string]*Auction
	cancels  map[string]context.CancelFunc

	events    event.Store
	snapshots store.SnapshotRepository
	publisher Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	clk       clockwork.Clock

	wg sync.WaitGroup
}

// NewManager creates a new auction Manager.
func NewManager(events event.Store, snapshots store.SnapshotRepository, pub Publisher, logger *slog.Logger, tp trace.TracerProvider, clk clockwork.Clock) *Manager {
	return &Manager{
		auctions:  make(map[string]*Auction),
		cancels:   make(map[string]context.CancelFunc),
		events:    events,
		snapshots: snapshots,
		publisher: pub,
		logger:    logger,
		tracer:    tp.Tracer("github.com/saiganeshwaran/cricket-auctioneer/internal/auction"),
		clk:       clk,
	}
}

// StartAuction builds an auction from the setup, persists the setup blob
// for recovery, starts the state machine and begins ticking its countdown.
func (m *Manager) StartAuction(ctx context.Context, setup Setup) (*Auction, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.StartAuction",
		trace.WithAttributes(
			attribute.String("tournament.id", setup.TournamentID),
			attribute.Int("pool.size", len(setup.Lots)),
		),
	)
	defer span.End()

	// Registering before the build claims the id atomically, so two
	// concurrent starts for the same tournament cannot both pass the
	// duplicate check and end up with two countdown loops.
	a := New(setup, m.clk)
	if !m.register(a) {
		return nil, fmt.Errorf("auction %s already running", setup.TournamentID)
	}

	blob, err := EncodeSetup(setup)
	if err != nil {
		m.deregister(a.ID)
		return nil, err
	}
	if err := m.snapshots.Save(ctx, setup.TournamentID, blob); err != nil {
		m.deregister(a.ID)
		return nil, fmt.Errorf("persisting auction setup: %w", err)
	}
	if err := a.Start(ctx); err != nil {
		m.deregister(a.ID)
		return nil, err
	}
	if err := m.flush(ctx, a); err != nil {
		m.deregister(a.ID)
		return nil, fmt.Errorf("persisting auction started events: %w", err)
	}

	// An empty pool completes the auction during Start; only live
	// auctions keep a countdown loop.
	if a.State() == StatusActive {
		m.startCountdown(a)
	} else {
		m.deregister(a.ID)
	}

	m.logger.InfoContext(ctx, "auction started",
		slog.String("auction_id", a.ID),
		slog.Int("pool_size", len(setup.Lots)),
		slog.Int("teams", len(setup.Teams)),
	)
	return a, nil
}

// PlaceBid places a bid on a running auction. Validation failures come
// back as the sentinel errors in validate.go.
func (m *Manager) PlaceBid(ctx context.Context, auctionID, teamID string, amount decimal.Decimal) error {
	ctx, span := m.tracer.Start(ctx, "Manager.PlaceBid",
		trace.WithAttributes(
			attribute.String("auction_id", auctionID),
			attribute.String("team_id", teamID),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	a, err := m.get(auctionID)
	if err != nil {
		return err
	}
	if err := a.PlaceBid(ctx, teamID, amount); err != nil {
		return err
	}
	if err := m.flush(ctx, a); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist bid event", slog.Any("error", err))
	}
	return nil
}

// Skip defers the open lot of a running auction to the back of the pool.
func (m *Manager) Skip(ctx context.Context, auctionID string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.Skip",
		trace.WithAttributes(attribute.String("auction_id", auctionID)),
	)
	defer span.End()

	a, err := m.get(auctionID)
	if err != nil {
		return err
	}
	if err := a.Skip(ctx); err != nil {
		return err
	}
	if err := m.flush(ctx, a); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist skip event", slog.Any("error", err))
	}
	return nil
}

// Complete ends a running auction early.
func (m *Manager) Complete(ctx context.Context, auctionID string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.Complete",
		trace.WithAttributes(attribute.String("auction_id", auctionID)),
	)
	defer span.End()

	a, err := m.get(auctionID)
	if err != nil {
		return err
	}
	if err := a.Complete(ctx); err != nil {
		return err
	}
	if err := m.flush(ctx, a); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist complete event", slog.Any("error", err))
	}
	m.untrack(auctionID)
	return nil
}

// Get returns a running auction by id.
func (m *Manager) Get(auctionID string) (*Auction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auctions[auctionID]
	return a, ok
}

// RecoverAuctions replays every auction found in the event store and
// resumes ticking the ones still active. Used on leader startup to restore
// state after a failover; the countdown restarts at the full timer.
func (m *Manager) RecoverAuctions(ctx context.Context) (int, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.RecoverAuctions")
	defer span.End()

	started, err := m.events.LoadByType(ctx, event.AuctionStarted)
	if err != nil {
		return 0, fmt.Errorf("loading auction started events: %w", err)
	}

	seen := make(map[string]struct{}, len(started))
	var ids []string
	for _, e := range started {
		if _, ok := seen[e.AggregateID]; !ok {
			seen[e.AggregateID] = struct{}{}
			ids = append(ids, e.AggregateID)
		}
	}

	recovered := 0
	for _, id := range ids {
		a, replayErr := m.replayAuction(ctx, id)
		if replayErr != nil {
			m.logger.WarnContext(ctx, "failed to replay auction during recovery",
				slog.String("auction_id", id),
				slog.Any("error", replayErr),
			)
			continue
		}
		if a.State() != StatusActive {
			continue
		}
		if !m.register(a) {
			continue
		}

		m.startCountdown(a)
		recovered++

		m.logger.InfoContext(ctx, "recovered active auction",
			slog.String("auction_id", id),
			slog.Int("bids", len(a.History())),
		)
	}

	m.logger.InfoContext(ctx, "auction recovery complete",
		slog.Int("total_started", len(ids)),
		slog.Int("recovered_active", recovered),
	)
	return recovered, nil
}

// Close stops all tick loops and waits for them to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) get(auctionID string) (*Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("auction %s not found", auctionID)
	}
	return a, nil
}

func (m *Manager) replayAuction(ctx context.Context, id string) (*Auction, error) {
	blob, err := m.snapshots.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading setup snapshot: %w", err)
	}
	setup, err := DecodeSetup(blob)
	if err != nil {
		return nil, err
	}
	events, err := m.events.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	return Replay(setup, events, m.clk)
}

// register claims the auction id. It reports false when an auction with
// the same id is already tracked; check and insert happen under one lock.
func (m *Manager) register(a *Auction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.auctions[a.ID]; exists {
		return false
	}
	m.auctions[a.ID] = a
	return true
}

func (m *Manager) deregister(auctionID string) {
	m.mu.Lock()
	delete(m.auctions, auctionID)
	m.mu.Unlock()
}

// startCountdown starts the tick loop for a registered auction.
func (m *Manager) startCountdown(a *Auction) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.cancels[a.ID] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runCountdown(ctx, a)
}

func (m *Manager) untrack(auctionID string) {
	m.mu.Lock()
	if cancel, ok := m.cancels[auctionID]; ok {
		cancel()
		delete(m.cancels, auctionID)
	}
	delete(m.auctions, auctionID)
	m.mu.Unlock()
}

// runCountdown drives one auction's countdown with 1-second ticks until it
// completes or the manager shuts down.
func (m *Manager) runCountdown(ctx context.Context, a *Auction) {
	defer m.wg.Done()

	ticker := m.clk.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := a.Tick(ctx); err != nil {
				m.logger.ErrorContext(ctx, "lot resolution failed",
					slog.String("auction_id", a.ID),
					slog.Any("error", err),
				)
			}
			if err := m.flush(ctx, a); err != nil {
				m.logger.ErrorContext(ctx, "failed to persist tick events",
					slog.String("auction_id", a.ID),
					slog.Any("error", err),
				)
			}
			if a.State() == StatusCompleted {
				m.logger.InfoContext(ctx, "auction completed",
					slog.String("auction_id", a.ID),
				)
				m.untrack(a.ID)
				return
			}
		}
	}
}

// flush persists and publishes any uncommitted auction events.
func (m *Manager) flush(ctx context.Context, a *Auction) error {
	events := a.PendingEvents()
	if len(events) == 0 {
		return nil
	}
	if err := m.events.Append(ctx, events...); err != nil {
		return err
	}
	if m.publisher == nil {
		return nil
	}
	for _, e := range events {
		if err := m.publisher.Publish(ctx, e); err != nil {
			m.logger.WarnContext(ctx, "failed to publish event",
				slog.String("event_type", string(e.Type)),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
