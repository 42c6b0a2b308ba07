package auction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/auction"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
)

var testTime = time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func testConfig() auction.Config {
	return auction.Config{
		TimerSeconds:    15,
		IncrementRate:   decimal.NewFromFloat(0.05),
		MaxUnsoldPasses: 1,
	}
}

// newTestAuction builds and starts an auction with the given lots and
// teams, using a fake clock frozen at testTime.
func newTestAuction(t *testing.T, lots []auction.Lot, teams []auction.TeamState) *auction.Auction {
	t.Helper()
	a := auction.New(auction.Setup{
		TournamentID: "t-test",
		Config:       testConfig(),
		Teams:        teams,
		Lots:         lots,
	}, clockwork.NewFakeClockAt(testTime))
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return a
}

// expire runs enough ticks to let the countdown for the open lot run out.
func expire(t *testing.T, a *auction.Auction) {
	t.Helper()
	for i := 0; i < testConfig().TimerSeconds; i++ {
		if err := a.Tick(context.Background()); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}
}

func twoTeams() []auction.TeamState {
	return []auction.TeamState{
		{ID: "team-a", Name: "Team A", Budget: dec(1000), SlotsTotal: 3},
		{ID: "team-b", Name: "Team B", Budget: dec(1000), SlotsTotal: 3},
	}
}

func TestAuction_StartOpensHighestBaseLot(t *testing.T) {
	lots := []auction.Lot{
		{PlayerID: "px", Name: "Cheap", Role: auction.RoleBatter, BasePrice: dec(50)},
		{PlayerID: "py", Name: "Star", Role: auction.RoleBatter, BasePrice: dec(200)},
	}
	a := newTestAuction(t, lots, twoTeams())

	if a.State() != auction.StatusActive {
		t.Fatalf("State() = %q, want %q", a.State(), auction.StatusActive)
	}
	lot, remaining, ok := a.CurrentLot()
	if !ok {
		t.Fatal("expected an open lot after Start")
	}
	if lot.PlayerID != "py" {
		t.Errorf("open lot = %q, want %q (higher base price first)", lot.PlayerID, "py")
	}
	if remaining != testConfig().TimerSeconds {
		t.Errorf("remaining = %d, want %d", remaining, testConfig().TimerSeconds)
	}
}

func TestAuction_StartTwice(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	a := newTestAuction(t, lots, twoTeams())

	err := a.Start(context.Background())
	var lcErr *auction.LifecycleError
	if !errors.As(err, &lcErr) {
		t.Fatalf("second Start() error = %v, want LifecycleError", err)
	}
	if lcErr.Op != "start" {
		t.Errorf("LifecycleError.Op = %q, want %q", lcErr.Op, "start")
	}
}

func TestAuction_BidBeforeStart(t *testing.T) {
	a := auction.New(auction.Setup{
		TournamentID: "t-wait",
		Config:       testConfig(),
		Teams:        twoTeams(),
		Lots:         []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}},
	}, clockwork.NewFakeClockAt(testTime))

	err := a.PlaceBid(context.Background(), "team-a", dec(60))
	if !errors.Is(err, auction.ErrAuctionNotActive) {
		t.Fatalf("PlaceBid() before start error = %v, want ErrAuctionNotActive", err)
	}
}

func TestAuction_TimerResetOnBid(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := a.Tick(ctx); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}
	if _, remaining, _ := a.CurrentLot(); remaining != 5 {
		t.Fatalf("remaining after 10 ticks = %d, want 5", remaining)
	}

	if err := a.PlaceBid(ctx, "team-a", dec(60)); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	if _, remaining, _ := a.CurrentLot(); remaining != testConfig().TimerSeconds {
		t.Errorf("remaining after bid = %d, want %d", remaining, testConfig().TimerSeconds)
	}
}

// Scenario: a single 80 bid stands through expiry; the player is sold at 80
// and the team ledger reflects the spend.
func TestAuction_SaleOnExpiry(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "Player X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	teams := []auction.TeamState{{ID: "team-a", Name: "Team A", Budget: dec(100), SlotsTotal: 1}}
	a := newTestAuction(t, lots, teams)
	ctx := context.Background()

	if err := a.PlaceBid(ctx, "team-a", dec(80)); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	expire(t, a)

	out := a.Export()
	if a.State() != auction.StatusCompleted {
		t.Errorf("State() = %q, want completed (pool exhausted)", a.State())
	}
	if len(out.SoldPlayers) != 1 {
		t.Fatalf("sold = %d, want 1", len(out.SoldPlayers))
	}
	sale := out.SoldPlayers[0]
	if sale.TeamID != "team-a" || !sale.Price.Equal(dec(80)) {
		t.Errorf("sale = %+v, want team-a at 80", sale)
	}
	team := out.Teams[0]
	if !team.Budget.Equal(dec(20)) {
		t.Errorf("remaining budget = %s, want 20", team.Budget)
	}
	if team.SlotsOpen != 0 {
		t.Errorf("slots open = %d, want 0", team.SlotsOpen)
	}
}

// Scenario: a team with no open slots is rejected and no state changes.
func TestAuction_NoSlotAvailable(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	teams := []auction.TeamState{
		{ID: "team-a", Name: "Team A", Budget: dec(100), SlotsTotal: 0},
		{ID: "team-b", Name: "Team B", Budget: dec(100), SlotsTotal: 1},
	}
	a := newTestAuction(t, lots, teams)
	ctx := context.Background()

	_, before, _ := a.CurrentLot()
	err := a.PlaceBid(ctx, "team-a", dec(60))
	if !errors.Is(err, auction.ErrNoSlotAvailable) {
		t.Fatalf("PlaceBid() error = %v, want ErrNoSlotAvailable", err)
	}

	if got := a.History(); len(got) != 0 {
		t.Errorf("history after rejected bid = %d entries, want 0", len(got))
	}
	if _, after, _ := a.CurrentLot(); after != before {
		t.Errorf("remaining changed on rejected bid: %d -> %d", before, after)
	}
	if a.HighestBid() != nil {
		t.Error("rejected bid must not become the highest bid")
	}
}

// Scenario: current bid 100 at a 5% increment rate; 104 is too low, 105 is
// the exact minimum and is accepted.
func TestAuction_IncrementBoundary(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	if err := a.PlaceBid(ctx, "team-a", dec(100)); err != nil {
		t.Fatalf("PlaceBid(100) error = %v", err)
	}
	if err := a.PlaceBid(ctx, "team-b", dec(104)); !errors.Is(err, auction.ErrBidTooLow) {
		t.Fatalf("PlaceBid(104) error = %v, want ErrBidTooLow", err)
	}
	if err := a.PlaceBid(ctx, "team-b", dec(105)); err != nil {
		t.Fatalf("PlaceBid(105) error = %v", err)
	}
	if highest := a.HighestBid(); highest == nil || !highest.Amount.Equal(dec(105)) {
		t.Errorf("highest = %+v, want 105", highest)
	}
}

// Scenario: no bids before expiry requeues the lot once, then retires it
// permanently on the next no-bid expiry (max_unsold_passes = 1).
func TestAuction_UnsoldRequeueThenRetire(t *testing.T) {
	lots := []auction.Lot{
		{PlayerID: "py", Name: "Star", Role: auction.RoleBatter, BasePrice: dec(200)},
		{PlayerID: "px", Name: "Cheap", Role: auction.RoleBatter, BasePrice: dec(50)},
	}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	// First expiry with no bids: Star goes to the back, Cheap opens.
	expire(t, a)
	lot, _, ok := a.CurrentLot()
	if !ok || lot.PlayerID != "px" {
		t.Fatalf("open lot after first pass = %v, want px", lot.PlayerID)
	}

	// Sell Cheap so only Star remains.
	if err := a.PlaceBid(ctx, "team-a", dec(50)); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	expire(t, a)

	// Star is re-offered; a second no-bid expiry retires it.
	lot, _, ok = a.CurrentLot()
	if !ok || lot.PlayerID != "py" {
		t.Fatalf("re-offered lot = %v, want py", lot.PlayerID)
	}
	expire(t, a)

	out := a.Export()
	if a.State() != auction.StatusCompleted {
		t.Fatalf("State() = %q, want completed", a.State())
	}
	if len(out.UnsoldPlayers) != 1 || out.UnsoldPlayers[0].PlayerID != "py" {
		t.Fatalf("unsold = %+v, want [py]", out.UnsoldPlayers)
	}
	if out.UnsoldPlayers[0].Passes != 2 {
		t.Errorf("unsold passes = %d, want 2", out.UnsoldPlayers[0].Passes)
	}
}

// Scenario: the standing bidder cannot raise against itself.
func TestAuction_SelfOutbid(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	if err := a.PlaceBid(ctx, "team-b", dec(200)); err != nil {
		t.Fatalf("PlaceBid(200) error = %v", err)
	}
	err := a.PlaceBid(ctx, "team-b", dec(250))
	if !errors.Is(err, auction.ErrSelfOutbid) {
		t.Fatalf("PlaceBid() error = %v, want ErrSelfOutbid", err)
	}
	if highest := a.HighestBid(); !highest.Amount.Equal(dec(200)) {
		t.Errorf("highest after rejected self-outbid = %s, want 200", highest.Amount)
	}
}

func TestAuction_InsufficientBudget(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	teams := []auction.TeamState{
		{ID: "team-a", Name: "Team A", Budget: dec(70), SlotsTotal: 1},
		{ID: "team-b", Name: "Team B", Budget: dec(500), SlotsTotal: 1},
	}
	a := newTestAuction(t, lots, teams)

	err := a.PlaceBid(context.Background(), "team-a", dec(80))
	if !errors.Is(err, auction.ErrInsufficientBudget) {
		t.Fatalf("PlaceBid() error = %v, want ErrInsufficientBudget", err)
	}
}

func TestAuction_UnknownTeam(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	a := newTestAuction(t, lots, twoTeams())

	err := a.PlaceBid(context.Background(), "nobody", dec(80))
	if !errors.Is(err, auction.ErrUnknownTeam) {
		t.Fatalf("PlaceBid() error = %v, want ErrUnknownTeam", err)
	}
}

func TestAuction_MonotonicBidding(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	amounts := []int64{50, 60, 80, 100, 120}
	teams := []string{"team-a", "team-b", "team-a", "team-b", "team-a"}
	for i, amt := range amounts {
		if err := a.PlaceBid(ctx, teams[i], dec(amt)); err != nil {
			t.Fatalf("PlaceBid(%d) error = %v", amt, err)
		}
	}

	history := a.History()
	if len(history) != len(amounts) {
		t.Fatalf("history = %d entries, want %d", len(history), len(amounts))
	}
	for i := 1; i < len(history); i++ {
		if !history[i].Amount.GreaterThan(history[i-1].Amount) {
			t.Errorf("accepted bids not strictly increasing: %s then %s",
				history[i-1].Amount, history[i].Amount)
		}
		if history[i].TeamID == history[i-1].TeamID {
			t.Errorf("consecutive accepted bids from %s", history[i].TeamID)
		}
	}
}

func TestAuction_BudgetAndSlotConservation(t *testing.T) {
	lots := []auction.Lot{
		{PlayerID: "p1", Name: "One", Role: auction.RoleBatter, BasePrice: dec(100)},
		{PlayerID: "p2", Name: "Two", Role: auction.RoleBowler, BasePrice: dec(100)},
		{PlayerID: "p3", Name: "Three", Role: auction.RoleAllRounder, BasePrice: dec(150)},
	}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	check := func(stage string) {
		t.Helper()
		for _, team := range a.Export().Teams {
			if !team.Budget.Add(team.Spent).Equal(dec(1000)) {
				t.Errorf("%s: team %s budget %s + spent %s != 1000", stage, team.ID, team.Budget, team.Spent)
			}
			if team.SlotsOpen+len(team.Roster) != team.SlotsTotal {
				t.Errorf("%s: team %s slots %d + roster %d != %d", stage, team.ID, team.SlotsOpen, len(team.Roster), team.SlotsTotal)
			}
		}
	}

	check("initial")
	for i := 0; i < len(lots); i++ {
		bidder := "team-a"
		if i%2 == 1 {
			bidder = "team-b"
		}
		lot, _, ok := a.CurrentLot()
		if !ok {
			t.Fatal("expected an open lot")
		}
		if err := a.PlaceBid(ctx, bidder, lot.BasePrice); err != nil {
			t.Fatalf("PlaceBid() error = %v", err)
		}
		check("after bid")
		expire(t, a)
		check("after settlement")
	}

	if a.State() != auction.StatusCompleted {
		t.Errorf("State() = %q, want completed", a.State())
	}
}

func TestAuction_ExhaustiveTermination(t *testing.T) {
	var lots []auction.Lot
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		lots = append(lots, auction.Lot{
			PlayerID: "p" + name, Name: name, Role: auction.RoleBowler, BasePrice: dec(100),
		})
	}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	// Nobody ever bids. Every lot gets max_unsold_passes+1 offers, then the
	// auction must complete on its own.
	for i := 0; i < 10000 && a.State() == auction.StatusActive; i++ {
		if err := a.Tick(ctx); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}

	if a.State() != auction.StatusCompleted {
		t.Fatal("auction did not terminate with no bidders")
	}
	out := a.Export()
	if got := len(out.SoldPlayers) + len(out.UnsoldPlayers); got != len(lots) {
		t.Errorf("sold %d + unsold %d != pool %d", len(out.SoldPlayers), len(out.UnsoldPlayers), len(lots))
	}
}

func TestAuction_Skip(t *testing.T) {
	lots := []auction.Lot{
		{PlayerID: "py", Name: "Star", Role: auction.RoleBatter, BasePrice: dec(200)},
		{PlayerID: "px", Name: "Cheap", Role: auction.RoleBatter, BasePrice: dec(50)},
	}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	if err := a.Skip(ctx); err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	lot, remaining, ok := a.CurrentLot()
	if !ok || lot.PlayerID != "px" {
		t.Fatalf("open lot after skip = %v, want px", lot.PlayerID)
	}
	if remaining != testConfig().TimerSeconds {
		t.Errorf("remaining after skip = %d, want fresh timer %d", remaining, testConfig().TimerSeconds)
	}
	// A skip does not count as an unsold pass.
	if unsold := a.Export().UnsoldPlayers; len(unsold) != 0 {
		t.Errorf("unsold after skip = %d, want 0", len(unsold))
	}
}

func TestAuction_SkipBeforeStart(t *testing.T) {
	a := auction.New(auction.Setup{
		TournamentID: "t-wait",
		Config:       testConfig(),
		Teams:        twoTeams(),
		Lots:         []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}},
	}, clockwork.NewFakeClockAt(testTime))

	var lcErr *auction.LifecycleError
	if err := a.Skip(context.Background()); !errors.As(err, &lcErr) {
		t.Fatalf("Skip() before start error = %v, want LifecycleError", err)
	}
}

func TestAuction_CompleteEarly(t *testing.T) {
	lots := []auction.Lot{
		{PlayerID: "p1", Name: "One", Role: auction.RoleBatter, BasePrice: dec(100)},
		{PlayerID: "p2", Name: "Two", Role: auction.RoleBatter, BasePrice: dec(80)},
		{PlayerID: "p3", Name: "Three", Role: auction.RoleBatter, BasePrice: dec(60)},
	}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	if err := a.PlaceBid(ctx, "team-a", dec(100)); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	expire(t, a)

	if err := a.Complete(ctx); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if a.State() != auction.StatusCompleted {
		t.Fatalf("State() = %q, want completed", a.State())
	}

	out := a.Export()
	if len(out.SoldPlayers) != 1 || len(out.UnsoldPlayers) != 2 {
		t.Errorf("sold %d unsold %d, want 1 and 2", len(out.SoldPlayers), len(out.UnsoldPlayers))
	}

	// Completing again is a lifecycle error.
	var lcErr *auction.LifecycleError
	if err := a.Complete(ctx); !errors.As(err, &lcErr) {
		t.Errorf("second Complete() error = %v, want LifecycleError", err)
	}
	// Ticks after completion are ignored.
	if err := a.Tick(ctx); err != nil {
		t.Errorf("Tick() after completion error = %v", err)
	}
}

// Scenario: the host terminates an auction that never left the lobby. The
// pool is retired as unsold and the auction is completed, not rejected.
func TestAuction_CompleteFromWaiting(t *testing.T) {
	lots := []auction.Lot{
		{PlayerID: "p1", Name: "One", Role: auction.RoleBatter, BasePrice: dec(100)},
		{PlayerID: "p2", Name: "Two", Role: auction.RoleBowler, BasePrice: dec(50)},
	}
	a := auction.New(auction.Setup{
		TournamentID: "t-wait",
		Config:       testConfig(),
		Teams:        twoTeams(),
		Lots:         lots,
	}, clockwork.NewFakeClockAt(testTime))

	if err := a.Complete(context.Background()); err != nil {
		t.Fatalf("Complete() on waiting auction error = %v", err)
	}
	if a.State() != auction.StatusCompleted {
		t.Fatalf("State() = %q, want completed", a.State())
	}

	out := a.Export()
	if len(out.UnsoldPlayers) != len(lots) {
		t.Errorf("unsold = %d, want all %d pool entries retired", len(out.UnsoldPlayers), len(lots))
	}
	if len(out.SoldPlayers) != 0 {
		t.Errorf("sold = %d, want 0", len(out.SoldPlayers))
	}

	var lcErr *auction.LifecycleError
	if err := a.Complete(context.Background()); !errors.As(err, &lcErr) {
		t.Errorf("Complete() after completion error = %v, want LifecycleError", err)
	}
}

func TestAuction_BidAfterCompletion(t *testing.T) {
	lots := []auction.Lot{{PlayerID: "px", Name: "X", Role: auction.RoleBatter, BasePrice: dec(50)}}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	if err := a.Complete(ctx); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	err := a.PlaceBid(ctx, "team-a", dec(60))
	if !errors.Is(err, auction.ErrAuctionNotActive) {
		t.Fatalf("PlaceBid() after completion error = %v, want ErrAuctionNotActive", err)
	}
}

func TestAuction_HistoryGrouping(t *testing.T) {
	lots := []auction.Lot{
		{PlayerID: "p1", Name: "One", Role: auction.RoleBatter, BasePrice: dec(100)},
		{PlayerID: "p2", Name: "Two", Role: auction.RoleBatter, BasePrice: dec(80)},
	}
	a := newTestAuction(t, lots, twoTeams())
	ctx := context.Background()

	_ = a.PlaceBid(ctx, "team-a", dec(100))
	_ = a.PlaceBid(ctx, "team-b", dec(110))
	expire(t, a)
	_ = a.PlaceBid(ctx, "team-a", dec(80))
	expire(t, a)

	byTeam := a.HistoryByTeam()
	if len(byTeam["team-a"]) != 2 || len(byTeam["team-b"]) != 1 {
		t.Errorf("byTeam sizes = a:%d b:%d, want a:2 b:1", len(byTeam["team-a"]), len(byTeam["team-b"]))
	}
	byPlayer := a.HistoryByPlayer()
	if len(byPlayer["p1"]) != 2 || len(byPlayer["p2"]) != 1 {
		t.Errorf("byPlayer sizes = p1:%d p2:%d, want 2 and 1", len(byPlayer["p1"]), len(byPlayer["p2"]))
	}
	if len(a.History()) != 3 {
		t.Errorf("flat history = %d, want 3", len(a.History()))
	}
}

func TestReplay_ReconstructsMidAuctionState(t *testing.T) {
	setup := auction.Setup{
		TournamentID: "t-replay",
		Config:       testConfig(),
		Teams:        twoTeams(),
		Lots: []auction.Lot{
			{PlayerID: "p1", Name: "One", Role: auction.RoleBatter, BasePrice: dec(100)},
			{PlayerID: "p2", Name: "Two", Role: auction.RoleBatter, BasePrice: dec(80)},
			{PlayerID: "p3", Name: "Three", Role: auction.RoleBatter, BasePrice: dec(60)},
		},
	}
	clk := clockwork.NewFakeClockAt(testTime)
	live := auction.New(setup, clk)
	ctx := context.Background()

	var all []event.Event
	collect := func() { all = append(all, live.PendingEvents()...) }

	if err := live.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	collect()
	_ = live.PlaceBid(ctx, "team-a", dec(100))
	_ = live.PlaceBid(ctx, "team-b", dec(120))
	collect()
	expire(t, live) // p1 sold to team-b
	collect()
	_ = live.Skip(ctx) // p2 deferred
	collect()
	_ = live.PlaceBid(ctx, "team-a", dec(60))
	collect()

	replayed, err := auction.Replay(setup, all, clockwork.NewFakeClockAt(testTime))
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	liveJSON, err := live.Export().JSON()
	if err != nil {
		t.Fatalf("live export: %v", err)
	}
	replayJSON, err := replayed.Export().JSON()
	if err != nil {
		t.Fatalf("replayed export: %v", err)
	}
	if string(liveJSON) != string(replayJSON) {
		t.Errorf("replayed state differs from live state:\nlive:     %s\nreplayed: %s", liveJSON, replayJSON)
	}

	if replayed.State() != auction.StatusActive {
		t.Errorf("replayed State() = %q, want active", replayed.State())
	}
	if highest := replayed.HighestBid(); highest == nil || !highest.Amount.Equal(dec(60)) {
		t.Errorf("replayed highest = %+v, want 60 on p3", highest)
	}
}

func TestReplay_CompletedAuction(t *testing.T) {
	setup := auction.Setup{
		TournamentID: "t-replay-done",
		Config:       testConfig(),
		Teams:        twoTeams(),
		Lots:         []auction.Lot{{PlayerID: "p1", Name: "One", Role: auction.RoleBatter, BasePrice: dec(100)}},
	}
	live := auction.New(setup, clockwork.NewFakeClockAt(testTime))
	ctx := context.Background()

	_ = live.Start(ctx)
	_ = live.PlaceBid(ctx, "team-a", dec(100))
	expire(t, live)
	events := live.PendingEvents()

	replayed, err := auction.Replay(setup, events, clockwork.NewFakeClockAt(testTime))
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if replayed.State() != auction.StatusCompleted {
		t.Errorf("replayed State() = %q, want completed", replayed.State())
	}
	out := replayed.Export()
	if len(out.SoldPlayers) != 1 || !out.Teams[0].Budget.Equal(dec(900)) {
		t.Errorf("replayed sale not reflected: sold=%d budget=%s", len(out.SoldPlayers), out.Teams[0].Budget)
	}
}
