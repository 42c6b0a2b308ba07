package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Player is a pool player record.
type Player struct {
	ID           string          `db:"id"`
	TournamentID string          `db:"tournament_id"`
	Name         string          `db:"name"`
	Role         string          `db:"role"`
	Country      string          `db:"country"`
	BasePrice    decimal.Decimal `db:"base_price"`
	BattingSkill int             `db:"batting_skill"` // 1-100
	BowlingSkill int             `db:"bowling_skill"` // 1-100
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Team is a franchise record.
type Team struct {
	ID           string          `db:"id"`
	TournamentID string          `db:"tournament_id"`
	Name         string          `db:"name"`
	Budget       decimal.Decimal `db:"budget"`
	SlotsTotal   int             `db:"slots_total"`
	CreatedAt    time.Time       `db:"created_at"`
}

// MatchResult is a completed simulated fixture.
type MatchResult struct {
	ID           string    `db:"id"`
	TournamentID string    `db:"tournament_id"`
	HomeTeamID   string    `db:"home_team_id"`
	AwayTeamID   string    `db:"away_team_id"`
	HomeRuns     int       `db:"home_runs"`
	AwayRuns     int       `db:"away_runs"`
	HomeWickets  int       `db:"home_wickets"`
	AwayWickets  int       `db:"away_wickets"`
	HomeBalls    int       `db:"home_balls"` // legal deliveries faced
	AwayBalls    int       `db:"away_balls"`
	WinnerTeamID *string   `db:"winner_team_id"` // nil on a tie
	PlayedAt     time.Time `db:"played_at"`
}

// PlayerRepository defines player persistence operations.
type PlayerRepository interface {
	Create(ctx context.Context, p *Player) error
	GetByID(ctx context.Context, id string) (*Player, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Player, error)
}

// TeamRepository defines team persistence operations.
type TeamRepository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id string) (*Team, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Team, error)
}

// MatchRepository defines match result persistence operations.
type MatchRepository interface {
	Create(ctx context.Context, m *MatchResult) error
	ListByTournament(ctx context.Context, tournamentID string) ([]MatchResult, error)
}

// SnapshotRepository stores opaque auction setup blobs keyed by
// tournament id, for recovery by replay.
type SnapshotRepository interface {
	Save(ctx context.Context, id string, blob []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
}
