// Package memstore provides a store.Driver that keeps everything in
// process memory. It backs the single-host local mode, where a tournament
// lives and dies with the process and no database is available.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/config"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// closerFunc adapts a func() error into an io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func init() {
	store.Register("memory", openMemory)
}

// openMemory is the store.Driver for the "memory" backend.
func openMemory(_ context.Context, _ config.DatabaseConfig, clk clockwork.Clock) (*store.Repositories, error) {
	return &store.Repositories{
		Players:   NewPlayerRepo(clk),
		Teams:     NewTeamRepo(clk),
		Matches:   NewMatchRepo(),
		Events:    NewEventStore(),
		Snapshots: NewSnapshotRepo(),
		Closer:    closerFunc(func() error { return nil }),
		Ping:      func(context.Context) error { return nil },
	}, nil
}

// PlayerRepo implements store.PlayerRepository in memory.
type PlayerRepo struct {
	mu      sync.RWMutex
	players map[string]store.Player
	clk     clockwork.Clock
}

// NewPlayerRepo returns an empty in-memory player repository.
func NewPlayerRepo(clk clockwork.Clock) *PlayerRepo {
	return &PlayerRepo{players: make(map[string]store.Player), clk: clk}
}

func (r *PlayerRepo) Create(_ context.Context, p *store.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.players[p.ID]; exists {
		return fmt.Errorf("player %s already exists", p.ID)
	}
	now := r.clk.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.players[p.ID] = *p
	return nil
}

func (r *PlayerRepo) GetByID(_ context.Context, id string) (*store.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s not found", id)
	}
	return &p, nil
}

func (r *PlayerRepo) ListByTournament(_ context.Context, tournamentID string) ([]store.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []store.Player
	for _, p := range r.players {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BasePrice.Equal(out[j].BasePrice) {
			return out[i].BasePrice.GreaterThan(out[j].BasePrice)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// TeamRepo implements store.TeamRepository in memory.
type TeamRepo struct {
	mu    sync.RWMutex
	teams map[string]store.Team
	clk   clockwork.Clock
}

// NewTeamRepo returns an empty in-memory team repository.
func NewTeamRepo(clk clockwork.Clock) *TeamRepo {
	return &TeamRepo{teams: make(map[string]store.Team), clk: clk}
}

func (r *TeamRepo) Create(_ context.Context, t *store.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.teams[t.ID]; exists {
		return fmt.Errorf("team %s already exists", t.ID)
	}
	t.CreatedAt = r.clk.Now().UTC()
	r.teams[t.ID] = *t
	return nil
}

func (r *TeamRepo) GetByID(_ context.Context, id string) (*store.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s not found", id)
	}
	return &t, nil
}

func (r *TeamRepo) ListByTournament(_ context.Context, tournamentID string) ([]store.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []store.Team
	for _, t := range r.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MatchRepo implements store.MatchRepository in memory.
type MatchRepo struct {
	mu      sync.RWMutex
	results []store.MatchResult
}

// NewMatchRepo returns an empty in-memory match repository.
func NewMatchRepo() *MatchRepo {
	return &MatchRepo{}
}

func (r *MatchRepo) Create(_ context.Context, m *store.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, *m)
	return nil
}

func (r *MatchRepo) ListByTournament(_ context.Context, tournamentID string) ([]store.MatchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []store.MatchResult
	for _, m := range r.results {
		if m.TournamentID == tournamentID {
			out = append(out, m)
		}
	}
	return out, nil
}

// EventStore implements event.Store in memory. Appended events are kept in
// arrival order per aggregate.
type EventStore struct {
	mu     sync.RWMutex
	events []event.Event
}

// NewEventStore returns an empty in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) Append(_ context.Context, events ...event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		for _, existing := range s.events {
			if existing.AggregateID == e.AggregateID && existing.Version == e.Version {
				return fmt.Errorf("duplicate event version %d for aggregate %s", e.Version, e.AggregateID)
			}
		}
		s.events = append(s.events, e)
	}
	return nil
}

func (s *EventStore) Load(_ context.Context, aggregateID string) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []event.Event
	for _, e := range s.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *EventStore) LoadByType(_ context.Context, eventType event.Type) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []event.Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

// SnapshotRepo implements store.SnapshotRepository in memory.
type SnapshotRepo struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewSnapshotRepo returns an empty in-memory snapshot repository.
func NewSnapshotRepo() *SnapshotRepo {
	return &SnapshotRepo{blobs: make(map[string][]byte)}
}

func (r *SnapshotRepo) Save(_ context.Context, id string, blob []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	r.blobs[id] = cp
	return nil
}

func (r *SnapshotRepo) Load(_ context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	blob, ok := r.blobs[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}
