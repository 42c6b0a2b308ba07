package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// TeamRepo implements store.TeamRepository with sqlx.
type TeamRepo struct {
	db  *sqlx.DB
	clk clockwork.Clock
}

// NewTeamRepo returns a new TeamRepo.
func NewTeamRepo(db *sqlx.DB, clk clockwork.Clock) *TeamRepo {
	return &TeamRepo{db: db, clk: clk}
}

func (r *TeamRepo) Create(ctx context.Context, t *store.Team) error {
	query := `INSERT INTO teams (id, tournament_id, name, budget, slots_total, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6)`
	t.CreatedAt = r.clk.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.TournamentID, t.Name, t.Budget, t.SlotsTotal, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting team: %w", err)
	}
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (*store.Team, error) {
	var t store.Team
	err := r.db.GetContext(ctx, &t, `SELECT * FROM teams WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return &t, nil
}

func (r *TeamRepo) ListByTournament(ctx context.Context, tournamentID string) ([]store.Team, error) {
	var teams []store.Team
	err := r.db.SelectContext(ctx, &teams,
		`SELECT * FROM teams WHERE tournament_id = $1 ORDER BY name ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}
