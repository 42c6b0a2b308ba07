package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
)

var tracer = otel.Tracer("github.com/saiganeshwaran/cricket-auctioneer/internal/auction")

// Status is the lifecycle state of an auction.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// LifecycleError reports a host operation invoked in the wrong state, such
// as starting an auction twice. It is distinct from the bid validation
// sentinels, which are expected outcomes of normal bidding.
type LifecycleError struct {
	Op    string
	State Status
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("cannot %s auction in %s state", e.Op, e.State)
}

// Bid is a single accepted bid.
type Bid struct {
	PlayerID string
	TeamID   string
	Amount   decimal.Decimal
	Time     time.Time
}

// Config holds the bidding rules for one auction.
type Config struct {
	// TimerSeconds is the countdown per lot; it resets on every accepted
	// bid.
	TimerSeconds int
	// IncrementRate is the minimum fractional raise over the standing bid.
	IncrementRate decimal.Decimal
	// MaxUnsoldPasses is how many no-bid expiries requeue a lot before it
	// becomes permanently unsold.
	MaxUnsoldPasses int
}

// Setup is everything needed to construct (or reconstruct) an auction:
// the rules, the teams and the player pool.
type Setup struct {
	TournamentID string
	Config       Config
	Teams        []TeamState
	Lots         []Lot
}

// SoldLot records a completed sale.
type SoldLot struct {
	Lot
	TeamID string
	Price  decimal.Decimal
	Time   time.Time
}

// Auction is the aggregate root for a single tournament auction. All
// operations are serialized under one mutex, so bids, ticks and host
// operations are applied in arrival order; the countdown can never fire
// between a bid's validation and its acceptance.
type Auction struct {
	mu sync.RWMutex

	ID      string
	Status  Status
	Version int

	cfg    Config
	rules  Rules
	pool   *Pool
	ledger *Ledger

	currentBid *Bid
	remaining  int // seconds left on the open lot

	history []Bid
	sold    []SoldLot
	unsold  []Lot

	events []event.Event
	clk    clockwork.Clock
}

// New creates an auction in the waiting state from a setup.
func New(setup Setup, clk clockwork.Clock) *Auction {
	return &Auction{
		ID:     setup.TournamentID,
		Status: StatusWaiting,
		cfg:    setup.Config,
		rules:  Rules{IncrementRate: setup.Config.IncrementRate},
		pool:   NewPool(setup.Lots),
		ledger: NewLedger(setup.Teams),
		clk:    clk,
	}
}

// Start transitions the auction from waiting to active and opens the first
// lot. An empty pool completes the auction immediately.
func (a *Auction) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Auction.Start",
		trace.WithAttributes(attribute.String("auction.id", a.ID)),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status != StatusWaiting {
		return &LifecycleError{Op: "start", State: a.Status}
	}
	a.Status = StatusActive
	a.recordEvent(event.AuctionStarted, event.AuctionStartedData{
		TournamentID: a.ID,
		PoolSize:     a.pool.Remaining(),
		TeamCount:    len(a.ledger.Teams()),
		TimerSeconds: a.cfg.TimerSeconds,
	})
	a.openNextLocked()

	slog.InfoContext(ctx, "auction started",
		slog.String("auction_id", a.ID),
		slog.Int("pool_size", a.pool.Remaining()),
	)
	return nil
}

// PlaceBid validates and accepts a bid from a team on the open lot. An
// accepted bid resets the countdown. Validation failures come back as the
// sentinel errors in validate.go.
func (a *Auction) PlaceBid(ctx context.Context, teamID string, amount decimal.Decimal) error {
	ctx, span := tracer.Start(ctx, "Auction.PlaceBid",
		trace.WithAttributes(
			attribute.String("auction.id", a.ID),
			attribute.String("team.id", teamID),
			attribute.String("bid.amount", amount.String()),
		),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	var lotp *Lot
	if lot, ok := a.pool.Current(); ok {
		lotp = &lot
	}
	team, _ := a.ledger.Team(teamID)

	if err := a.rules.ValidateBid(a.Status, lotp, a.currentBid, team, amount); err != nil {
		return err
	}

	bid := Bid{
		PlayerID: lotp.PlayerID,
		TeamID:   teamID,
		Amount:   amount,
		Time:     a.clk.Now().UTC(),
	}
	a.history = append(a.history, bid)
	a.currentBid = &bid
	a.remaining = a.cfg.TimerSeconds

	a.recordEvent(event.BidPlaced, event.BidPlacedData{
		PlayerID: bid.PlayerID,
		TeamID:   teamID,
		Amount:   amount,
	})

	slog.InfoContext(ctx, "bid placed",
		slog.String("auction_id", a.ID),
		slog.String("team_id", teamID),
		slog.String("player_id", bid.PlayerID),
		slog.String("amount", amount.String()),
	)
	return nil
}

// Tick advances the countdown by one second. When it reaches zero the open
// lot is resolved: sold to the standing bidder, or requeued/retired when no
// bids arrived. Ticks outside the active state are ignored, so the timer
// is effectively paused.
func (a *Auction) Tick(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status != StatusActive {
		return nil
	}
	if a.remaining > 0 {
		a.remaining--
	}
	if a.remaining > 0 {
		return nil
	}
	return a.resolveLotLocked()
}

// Skip defers the open lot to the back of the pool without a sale and
// without counting an unsold pass. Host operation.
func (a *Auction) Skip(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Auction.Skip",
		trace.WithAttributes(attribute.String("auction.id", a.ID)),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status != StatusActive {
		return &LifecycleError{Op: "skip", State: a.Status}
	}
	lot, ok := a.pool.Current()
	if !ok {
		return &LifecycleError{Op: "skip", State: a.Status}
	}
	a.recordEvent(event.LotSkipped, event.LotSkippedData{PlayerID: lot.PlayerID})
	a.pool.ReinsertAtEnd(lot)
	a.openNextLocked()

	slog.InfoContext(ctx, "lot skipped",
		slog.String("auction_id", a.ID),
		slog.String("player_id", lot.PlayerID),
	)
	return nil
}

// Complete force-ends the auction from any state, retiring lots still in
// the pool as permanently unsold. Only a completed auction rejects it.
// Host operation.
func (a *Auction) Complete(ctx context.Context) error {
	_, span := tracer.Start(ctx, "Auction.Complete",
		trace.WithAttributes(attribute.String("auction.id", a.ID)),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status == StatusCompleted {
		return &LifecycleError{Op: "complete", State: a.Status}
	}
	a.completeLocked()
	return nil
}

// resolveLotLocked handles a countdown expiry for the open lot.
func (a *Auction) resolveLotLocked() error {
	lot, ok := a.pool.Current()
	if !ok {
		a.completeLocked()
		return nil
	}

	if a.currentBid != nil {
		bid := *a.currentBid
		now := a.clk.Now().UTC()
		err := a.ledger.Settle(bid.TeamID, Purchase{
			PlayerID: lot.PlayerID,
			Name:     lot.Name,
			Role:     lot.Role,
			Price:    bid.Amount,
			Time:     now,
		})
		if err != nil {
			// The validator admitted a bid the ledger rejects. Retire the
			// lot rather than sell it on a broken invariant.
			a.pool.Advance()
			a.unsold = append(a.unsold, lot)
			a.recordEvent(event.LotUnsold, event.LotUnsoldData{
				PlayerID: lot.PlayerID,
				Requeued: false,
				Pass:     lot.Passes,
			})
			a.openNextLocked()
			return fmt.Errorf("resolving lot %s: %w", lot.PlayerID, err)
		}
		a.pool.Advance()
		a.sold = append(a.sold, SoldLot{Lot: lot, TeamID: bid.TeamID, Price: bid.Amount, Time: now})
		a.recordEvent(event.LotSold, event.LotSoldData{
			PlayerID: lot.PlayerID,
			TeamID:   bid.TeamID,
			Price:    bid.Amount,
		})
		a.openNextLocked()
		return nil
	}

	// No bids on this lot.
	lot.Passes++
	if lot.Passes <= a.cfg.MaxUnsoldPasses {
		a.pool.ReinsertAtEnd(lot)
		a.recordEvent(event.LotUnsold, event.LotUnsoldData{
			PlayerID: lot.PlayerID,
			Requeued: true,
			Pass:     lot.Passes,
		})
	} else {
		a.pool.Advance()
		a.unsold = append(a.unsold, lot)
		a.recordEvent(event.LotUnsold, event.LotUnsoldData{
			PlayerID: lot.PlayerID,
			Requeued: false,
			Pass:     lot.Passes,
		})
	}
	a.openNextLocked()
	return nil
}

// openNextLocked opens the lot now at the front of the pool, or completes
// the auction when the pool is exhausted.
func (a *Auction) openNextLocked() {
	lot, ok := a.pool.Current()
	if !ok {
		a.completeLocked()
		return
	}
	a.currentBid = nil
	a.remaining = a.cfg.TimerSeconds
	a.recordEvent(event.LotOpened, event.LotOpenedData{
		PlayerID:   lot.PlayerID,
		PlayerName: lot.Name,
		Role:       lot.Role.String(),
		BasePrice:  lot.BasePrice,
		Pass:       lot.Passes,
	})
}

// completeLocked retires any remaining lots and marks the auction done.
func (a *Auction) completeLocked() {
	if a.Status == StatusCompleted {
		return
	}
	for {
		lot, ok := a.pool.Advance()
		if !ok {
			break
		}
		a.unsold = append(a.unsold, lot)
	}
	a.Status = StatusCompleted
	a.currentBid = nil
	a.remaining = 0
	a.recordEvent(event.AuctionCompleted, event.AuctionCompletedData{
		SoldCount:   len(a.sold),
		UnsoldCount: len(a.unsold),
	})
}

// State returns the lifecycle status (thread-safe).
func (a *Auction) State() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Status
}

// CurrentLot returns the open lot and the seconds left on its countdown.
func (a *Auction) CurrentLot() (Lot, int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.Status != StatusActive {
		return Lot{}, 0, false
	}
	lot, ok := a.pool.Current()
	return lot, a.remaining, ok
}

// HighestBid returns a copy of the standing bid on the open lot.
func (a *Auction) HighestBid() *Bid {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.currentBid == nil {
		return nil
	}
	bid := *a.currentBid
	return &bid
}

// History returns a copy of the full bid log in arrival order.
func (a *Auction) History() []Bid {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Bid, len(a.history))
	copy(out, a.history)
	return out
}

// HistoryByTeam groups the bid log by team id, preserving arrival order
// within each group.
func (a *Auction) HistoryByTeam() map[string][]Bid {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string][]Bid)
	for _, b := range a.history {
		out[b.TeamID] = append(out[b.TeamID], b)
	}
	return out
}

// HistoryByPlayer groups the bid log by player id, preserving arrival
// order within each group.
func (a *Auction) HistoryByPlayer() map[string][]Bid {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string][]Bid)
	for _, b := range a.history {
		out[b.PlayerID] = append(out[b.PlayerID], b)
	}
	return out
}

// PendingEvents returns uncommitted events and clears the buffer.
func (a *Auction) PendingEvents() []event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	events := a.events
	a.events = nil
	return events
}

func (a *Auction) recordEvent(t event.Type, payload any) {
	a.Version++
	e, _ := event.New(a.ID, t, a.Version, a.clk.Now(), payload)
	a.events = append(a.events, e)
}

// Replay reconstructs an auction from its setup and stored event history.
// The countdown restarts at the full timer for the open lot; elapsed
// seconds are not carried across a restart.
func Replay(setup Setup, events []event.Event, clk clockwork.Clock) (*Auction, error) {
	a := New(setup, clk)
	for _, e := range events {
		if err := a.apply(e); err != nil {
			return nil, fmt.Errorf("replaying %s v%d: %w", e.Type, e.Version, err)
		}
		a.Version = e.Version
	}
	return a, nil
}

func (a *Auction) apply(e event.Event) error {
	switch e.Type {
	case event.AuctionStarted:
		a.Status = StatusActive

	case event.LotOpened:
		a.currentBid = nil
		a.remaining = a.cfg.TimerSeconds

	case event.BidPlaced:
		var d event.BidPlacedData
		if err := decode(e, &d); err != nil {
			return err
		}
		bid := Bid{PlayerID: d.PlayerID, TeamID: d.TeamID, Amount: d.Amount, Time: e.CreatedAt}
		a.history = append(a.history, bid)
		a.currentBid = &bid
		a.remaining = a.cfg.TimerSeconds

	case event.LotSold:
		var d event.LotSoldData
		if err := decode(e, &d); err != nil {
			return err
		}
		lot, ok := a.pool.Current()
		if !ok || lot.PlayerID != d.PlayerID {
			return fmt.Errorf("sold lot %s is not at the front of the pool", d.PlayerID)
		}
		if err := a.ledger.Settle(d.TeamID, Purchase{
			PlayerID: lot.PlayerID,
			Name:     lot.Name,
			Role:     lot.Role,
			Price:    d.Price,
			Time:     e.CreatedAt,
		}); err != nil {
			return err
		}
		a.pool.Advance()
		a.sold = append(a.sold, SoldLot{Lot: lot, TeamID: d.TeamID, Price: d.Price, Time: e.CreatedAt})
		a.currentBid = nil

	case event.LotUnsold:
		var d event.LotUnsoldData
		if err := decode(e, &d); err != nil {
			return err
		}
		lot, ok := a.pool.Current()
		if !ok || lot.PlayerID != d.PlayerID {
			return fmt.Errorf("unsold lot %s is not at the front of the pool", d.PlayerID)
		}
		if d.Requeued {
			lot.Passes = d.Pass
			a.pool.ReinsertAtEnd(lot)
		} else {
			a.pool.Advance()
			lot.Passes = d.Pass
			a.unsold = append(a.unsold, lot)
		}
		a.currentBid = nil

	case event.LotSkipped:
		lot, ok := a.pool.Current()
		if !ok {
			return fmt.Errorf("skipped lot with empty pool")
		}
		a.pool.ReinsertAtEnd(lot)
		a.currentBid = nil

	case event.AuctionCompleted:
		for {
			lot, ok := a.pool.Advance()
			if !ok {
				break
			}
			a.unsold = append(a.unsold, lot)
		}
		a.Status = StatusCompleted
		a.currentBid = nil
		a.remaining = 0
	}
	return nil
}

func decode(e event.Event, out any) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return nil
}
