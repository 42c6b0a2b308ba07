package auction

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Errors returned by bid validation. These are expected outcomes of normal
// bidding, not failures; callers match them with errors.Is.
var (
	ErrAuctionNotActive   = errors.New("auction is not active")
	ErrBidTooLow          = errors.New("bid is below the minimum next bid")
	ErrInsufficientBudget = errors.New("team budget cannot cover the bid")
	ErrNoSlotAvailable    = errors.New("team has no open roster slot")
	ErrSelfOutbid         = errors.New("team already holds the highest bid")
	ErrUnknownTeam        = errors.New("unknown team")
)

// Rules holds the pure bidding rules for an auction.
type Rules struct {
	// IncrementRate is the minimum fractional raise over the standing bid.
	IncrementRate decimal.Decimal
}

// MinNextBid returns the lowest acceptable bid given the lot's base price
// and the standing highest bid (nil when the lot has no bids yet). With a
// standing bid b the minimum is ceil(b * (1 + rate)); the first bid only
// has to meet the base price.
func (r Rules) MinNextBid(basePrice decimal.Decimal, highest *Bid) decimal.Decimal {
	if highest == nil {
		return basePrice
	}
	one := decimal.NewFromInt(1)
	return highest.Amount.Mul(one.Add(r.IncrementRate)).Ceil()
}

// ValidateBid checks a candidate bid against the current auction state.
// It is pure: it inspects state and returns the first violated rule as a
// sentinel error, or nil when the bid is acceptable.
func (r Rules) ValidateBid(status Status, lot *Lot, highest *Bid, team *TeamState, amount decimal.Decimal) error {
	if status != StatusActive || lot == nil {
		return ErrAuctionNotActive
	}
	if team == nil {
		return ErrUnknownTeam
	}
	if highest != nil && highest.TeamID == team.ID {
		return ErrSelfOutbid
	}
	if amount.LessThan(r.MinNextBid(lot.BasePrice, highest)) {
		return ErrBidTooLow
	}
	if !team.CanAfford(amount) {
		return ErrInsufficientBudget
	}
	if !team.HasSlot() {
		return ErrNoSlotAvailable
	}
	return nil
}
