package event

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Type identifies an event kind.
type Type string

const (
	AuctionStarted   Type = "auction.started"
	LotOpened        Type = "auction.lot_opened"
	BidPlaced        Type = "auction.bid_placed"
	LotSold          Type = "auction.lot_sold"
	LotUnsold        Type = "auction.lot_unsold"
	LotSkipped       Type = "auction.lot_skipped"
	AuctionCompleted Type = "auction.completed"

	MatchStarted   Type = "match.started"
	MatchBall      Type = "match.ball"
	MatchCompleted Type = "match.completed"
)

// Event represents a single domain event.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// AuctionStartedData is the payload for AuctionStarted events.
type AuctionStartedData struct {
	TournamentID string `json:"tournament_id"`
	PoolSize     int    `json:"pool_size"`
	TeamCount    int    `json:"team_count"`
	TimerSeconds int    `json:"timer_seconds"`
}

// LotOpenedData is the payload for LotOpened events.
type LotOpenedData struct {
	PlayerID   string          `json:"player_id"`
	PlayerName string          `json:"player_name"`
	Role       string          `json:"role"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Pass       int             `json:"pass"`
}

// BidPlacedData is the payload for BidPlaced events.
type BidPlacedData struct {
	PlayerID string          `json:"player_id"`
	TeamID   string          `json:"team_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// LotSoldData is the payload for LotSold events.
type LotSoldData struct {
	PlayerID string          `json:"player_id"`
	TeamID   string          `json:"team_id"`
	Price    decimal.Decimal `json:"price"`
}

// LotUnsoldData is the payload for LotUnsold events.
type LotUnsoldData struct {
	PlayerID string `json:"player_id"`
	// Requeued is true when the lot goes back to the end of the pool for
	// another pass, false when it is permanently unsold.
	Requeued bool `json:"requeued"`
	Pass     int  `json:"pass"`
}

// LotSkippedData is the payload for LotSkipped events.
type LotSkippedData struct {
	PlayerID string `json:"player_id"`
}

// AuctionCompletedData is the payload for AuctionCompleted events.
type AuctionCompletedData struct {
	SoldCount   int `json:"sold_count"`
	UnsoldCount int `json:"unsold_count"`
}

// MatchStartedData is the payload for MatchStarted events.
type MatchStartedData struct {
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
	Overs      int    `json:"overs"`
}

// MatchBallData is the payload for MatchBall events.
type MatchBallData struct {
	Innings int    `json:"innings"`
	Over    int    `json:"over"`
	Ball    int    `json:"ball"`
	Runs    int    `json:"runs"`
	Wicket  bool   `json:"wicket"`
	Batter  string `json:"batter"`
	Bowler  string `json:"bowler"`
}

// MatchCompletedData is the payload for MatchCompleted events.
type MatchCompletedData struct {
	WinnerTeamID string `json:"winner_team_id"` // empty on a tie
	HomeRuns     int    `json:"home_runs"`
	AwayRuns     int    `json:"away_runs"`
}
