package auction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase records a player bought by a team.
type Purchase struct {
	PlayerID string
	Name     string
	Role     Role
	Price    decimal.Decimal
	Time     time.Time
}

// TeamState tracks one team's remaining budget and roster during an
// auction. Teams that run out of budget or slots stay in the ledger; the
// validator keeps them from bidding.
type TeamState struct {
	ID         string
	Name       string
	Budget     decimal.Decimal
	SlotsTotal int
	Roster     []Purchase
}

// SlotsOpen returns the number of unfilled roster slots.
func (t *TeamState) SlotsOpen() int {
	return t.SlotsTotal - len(t.Roster)
}

// Spent returns the total the team has paid so far.
func (t *TeamState) Spent() decimal.Decimal {
	total := decimal.Zero
	for _, p := range t.Roster {
		total = total.Add(p.Price)
	}
	return total
}

// CanAfford reports whether the remaining budget covers amount.
func (t *TeamState) CanAfford(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(t.Budget)
}

// HasSlot reports whether the team has an open roster slot.
func (t *TeamState) HasSlot() bool {
	return t.SlotsOpen() > 0
}

// Ledger holds the state of every team in an auction. All mutation goes
// through Settle, which re-checks the budget and slot invariants before
// committing. Not safe for concurrent use; the auction aggregate
// serializes access.
type Ledger struct {
	teams map[string]*TeamState
	order []string
}

// NewLedger builds a ledger from the given teams, preserving their order.
func NewLedger(teams []TeamState) *Ledger {
	l := &Ledger{teams: make(map[string]*TeamState, len(teams))}
	for i := range teams {
		t := teams[i]
		l.teams[t.ID] = &t
		l.order = append(l.order, t.ID)
	}
	return l
}

// Team returns the state for the given team id.
func (l *Ledger) Team(id string) (*TeamState, bool) {
	t, ok := l.teams[id]
	return t, ok
}

// Teams returns all team states in their original order.
func (l *Ledger) Teams() []*TeamState {
	out := make([]*TeamState, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.teams[id])
	}
	return out
}

// Settle commits a purchase: it deducts the price from the team budget and
// fills a roster slot. The budget and slot invariants are re-checked here
// even though the validator already enforced them at bid time. Settling the
// same player twice for the same team is a no-op, so replayed settlements
// never double-charge.
func (l *Ledger) Settle(teamID string, p Purchase) error {
	t, ok := l.teams[teamID]
	if !ok {
		return fmt.Errorf("settling purchase: %w: %s", ErrUnknownTeam, teamID)
	}
	for _, existing := range t.Roster {
		if existing.PlayerID == p.PlayerID {
			return nil
		}
	}
	if !t.CanAfford(p.Price) {
		return fmt.Errorf("settling %s for team %s: %w", p.PlayerID, teamID, ErrInsufficientBudget)
	}
	if !t.HasSlot() {
		return fmt.Errorf("settling %s for team %s: %w", p.PlayerID, teamID, ErrNoSlotAvailable)
	}
	t.Budget = t.Budget.Sub(p.Price)
	t.Roster = append(t.Roster, p)
	return nil
}
