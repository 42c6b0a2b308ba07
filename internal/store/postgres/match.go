package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// MatchRepo implements store.MatchRepository with sqlx.
type MatchRepo struct {
	db *sqlx.DB
}

// NewMatchRepo returns a new MatchRepo.
func NewMatchRepo(db *sqlx.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

func (r *MatchRepo) Create(ctx context.Context, m *store.MatchResult) error {
	query := `INSERT INTO match_results (id, tournament_id, home_team_id, away_team_id,
	                                     home_runs, away_runs, home_wickets, away_wickets,
	                                     home_balls, away_balls, winner_team_id, played_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.TournamentID, m.HomeTeamID, m.AwayTeamID,
		m.HomeRuns, m.AwayRuns, m.HomeWickets, m.AwayWickets,
		m.HomeBalls, m.AwayBalls, m.WinnerTeamID, m.PlayedAt)
	if err != nil {
		return fmt.Errorf("inserting match result: %w", err)
	}
	return nil
}

func (r *MatchRepo) ListByTournament(ctx context.Context, tournamentID string) ([]store.MatchResult, error) {
	var results []store.MatchResult
	err := r.db.SelectContext(ctx, &results,
		`SELECT * FROM match_results WHERE tournament_id = $1 ORDER BY played_at ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing match results: %w", err)
	}
	return results, nil
}
