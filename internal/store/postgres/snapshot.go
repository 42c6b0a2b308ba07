package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

// SnapshotRepo implements store.SnapshotRepository with sqlx. Blobs are
// opaque to the database; the engine owns the encoding.
type SnapshotRepo struct {
	db  *sqlx.DB
	clk clockwork.Clock
}

// NewSnapshotRepo returns a new SnapshotRepo.
func NewSnapshotRepo(db *sqlx.DB, clk clockwork.Clock) *SnapshotRepo {
	return &SnapshotRepo{db: db, clk: clk}
}

func (r *SnapshotRepo) Save(ctx context.Context, id string, blob []byte) error {
	query := `INSERT INTO snapshots (id, blob, created_at)
	           VALUES ($1, $2, $3)
	           ON CONFLICT (id) DO UPDATE SET blob = EXCLUDED.blob`
	if _, err := r.db.ExecContext(ctx, query, id, blob, r.clk.Now().UTC()); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", id, err)
	}
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context, id string) ([]byte, error) {
	var blob []byte
	if err := r.db.GetContext(ctx, &blob, `SELECT blob FROM snapshots WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", id, err)
	}
	return blob, nil
}
