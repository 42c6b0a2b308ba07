package auction

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Lot is a single player offered at auction.
type Lot struct {
	PlayerID  string
	Name      string
	Role      Role
	BasePrice decimal.Decimal
	// Passes counts timer expiries with no bids for this lot.
	Passes int
}

// Pool is the ordered queue of lots still to be offered. Ordering is
// deterministic: role priority, then base price descending, then name.
// Pool is not safe for concurrent use; the auction aggregate serializes
// access to it.
type Pool struct {
	lots []Lot
}

// NewPool builds a pool from the given lots and fixes the offer order.
func NewPool(lots []Lot) *Pool {
	ordered := make([]Lot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Role.Priority() != b.Role.Priority() {
			return a.Role.Priority() < b.Role.Priority()
		}
		if !a.BasePrice.Equal(b.BasePrice) {
			return a.BasePrice.GreaterThan(b.BasePrice)
		}
		return a.Name < b.Name
	})
	return &Pool{lots: ordered}
}

// Current returns the lot at the front of the queue without removing it.
func (p *Pool) Current() (Lot, bool) {
	if len(p.lots) == 0 {
		return Lot{}, false
	}
	return p.lots[0], true
}

// Advance removes and returns the front lot. The second return is false
// when the pool is already exhausted.
func (p *Pool) Advance() (Lot, bool) {
	if len(p.lots) == 0 {
		return Lot{}, false
	}
	lot := p.lots[0]
	p.lots = p.lots[1:]
	return lot, true
}

// ReinsertAtEnd moves the front lot to the back of the queue, applying any
// pass-count update. Returns false when the pool is empty.
func (p *Pool) ReinsertAtEnd(lot Lot) bool {
	if len(p.lots) == 0 {
		return false
	}
	p.lots = append(p.lots[1:], lot)
	return true
}

// Remaining returns the number of lots still queued.
func (p *Pool) Remaining() int {
	return len(p.lots)
}

// Lots returns a copy of the remaining queue in offer order.
func (p *Pool) Lots() []Lot {
	out := make([]Lot, len(p.lots))
	copy(out, p.lots)
	return out
}
