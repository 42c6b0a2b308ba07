package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// PlayerRepo implements store.PlayerRepository with sqlx.
type PlayerRepo struct {
	db  *sqlx.DB
	clk clockwork.Clock
}

// NewPlayerRepo returns a new PlayerRepo.
func NewPlayerRepo(db *sqlx.DB, clk clockwork.Clock) *PlayerRepo {
	return &PlayerRepo{db: db, clk: clk}
}

func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	query := `INSERT INTO players (id, tournament_id, name, role, country, base_price,
	                               batting_skill, bowling_skill, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	now := r.clk.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.TournamentID, p.Name, p.Role, p.Country, p.BasePrice,
		p.BattingSkill, p.BowlingSkill, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting player: %w", err)
	}
	return nil
}

func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*store.Player, error) {
	var p store.Player
	err := r.db.GetContext(ctx, &p, `SELECT * FROM players WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepo) ListByTournament(ctx context.Context, tournamentID string) ([]store.Player, error) {
	var players []store.Player
	err := r.db.SelectContext(ctx, &players,
		`SELECT * FROM players WHERE tournament_id = $1 ORDER BY base_price DESC, name ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	return players, nil
}
