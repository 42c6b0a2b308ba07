// Package sim plays out a limited-overs match between two auction rosters,
// one delivery at a time. Outcomes are drawn from a weighted table biased
// by the batter/bowler skill gap, so results are deterministic for a given
// seed. Like the auction countdown, a match can be driven by a clockwork
// ticker for live broadcast or played to completion in one call.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

var tracer = otel.Tracer("github.com/saiganeshwaran/cricket-auctioneer/internal/sim")

// Status is the lifecycle state of a match.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// TeamSheet is one side's playing roster in batting order.
type TeamSheet struct {
	TeamID  string
	Name    string
	Players []store.Player
}

// Config holds match settings.
type Config struct {
	// Overs per innings.
	Overs int
	Seed  int64
}

// innings tracks one side's scorecard while it bats.
type innings struct {
	runs    int
	wickets int
	balls   int
	batter  int // index of the batter on strike
	nextIn  int // index of the next batter to come in
}

// Match is the aggregate for a single simulated fixture. All operations
// are serialized under one mutex, matching the auction aggregate.
type Match struct {
	mu sync.Mutex

	ID           string
	TournamentID string
	Status       Status
	Version      int

	home TeamSheet
	away TeamSheet
	cfg  Config
	rng  *rand.Rand

	batting int // 1 = home bats, 2 = away bats (chasing)
	first   innings
	second  innings

	events []event.Event
	clk    clockwork.Clock
}

// New creates a scheduled match. The home side bats first.
func New(matchID, tournamentID string, home, away TeamSheet, cfg Config, clk clockwork.Clock) (*Match, error) {
	if cfg.Overs < 1 {
		return nil, fmt.Errorf("overs must be at least 1, got %d", cfg.Overs)
	}
	if len(home.Players) < 2 || len(away.Players) < 2 {
		return nil, fmt.Errorf("each side needs at least 2 players, got %d and %d",
			len(home.Players), len(away.Players))
	}
	return &Match{
		ID:           matchID,
		TournamentID: tournamentID,
		Status:       StatusScheduled,
		home:         home,
		away:         away,
		cfg:          cfg,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		clk:          clk,
	}, nil
}

// Start begins the first innings.
func (m *Match) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Match.Start",
		trace.WithAttributes(attribute.String("match.id", m.ID)),
	)
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusScheduled {
		return fmt.Errorf("cannot start match in %s state", m.Status)
	}
	m.Status = StatusInProgress
	m.batting = 1
	m.first = innings{batter: 0, nextIn: 1}
	m.recordEvent(event.MatchStarted, event.MatchStartedData{
		HomeTeamID: m.home.TeamID,
		AwayTeamID: m.away.TeamID,
		Overs:      m.cfg.Overs,
	})

	slog.InfoContext(ctx, "match started",
		slog.String("match_id", m.ID),
		slog.String("home", m.home.Name),
		slog.String("away", m.away.Name),
	)
	return nil
}

// Ball bowls one delivery. It reports true once the match is complete.
func (m *Match) Ball(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusInProgress {
		return m.Status == StatusCompleted, fmt.Errorf("cannot bowl in %s state", m.Status)
	}

	bat, bowlSide := m.battingSide()
	score := m.currentInnings()

	batter := bat.Players[score.batter]
	bowler := m.bowlerFor(bowlSide, score.balls)

	runs, wicket := m.outcome(batter.BattingSkill, bowler.BowlingSkill)
	score.balls++
	if wicket {
		score.wickets++
		if score.nextIn < len(bat.Players) {
			score.batter = score.nextIn
			score.nextIn++
		}
	} else {
		score.runs += runs
	}

	m.recordEvent(event.MatchBall, event.MatchBallData{
		Innings: m.batting,
		Over:    (score.balls - 1) / 6,
		Ball:    (score.balls-1)%6 + 1,
		Runs:    runs,
		Wicket:  wicket,
		Batter:  batter.Name,
		Bowler:  bowler.Name,
	})

	if m.inningsOver(bat, score) {
		if m.batting == 1 {
			m.batting = 2
			m.second = innings{batter: 0, nextIn: 1}
		} else {
			m.completeLocked()
			return true, nil
		}
	}
	return false, nil
}

// Play starts the match if needed and bowls every remaining delivery.
func (m *Match) Play(ctx context.Context) (store.MatchResult, error) {
	ctx, span := tracer.Start(ctx, "Match.Play",
		trace.WithAttributes(attribute.String("match.id", m.ID)),
	)
	defer span.End()

	if m.State() == StatusScheduled {
		if err := m.Start(ctx); err != nil {
			return store.MatchResult{}, err
		}
	}
	for {
		done, err := m.Ball(ctx)
		if err != nil {
			return store.MatchResult{}, err
		}
		if done {
			return m.Result(), nil
		}
	}
}

// Run drives the match with one delivery per tick until it completes or
// the context is cancelled. Used for live broadcasts.
func (m *Match) Run(ctx context.Context, interval time.Duration) (store.MatchResult, error) {
	if m.State() == StatusScheduled {
		if err := m.Start(ctx); err != nil {
			return store.MatchResult{}, err
		}
	}

	ticker := m.clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return store.MatchResult{}, ctx.Err()
		case <-ticker.Chan():
			done, err := m.Ball(ctx)
			if err != nil {
				return store.MatchResult{}, err
			}
			if done {
				return m.Result(), nil
			}
		}
	}
}

// State returns the lifecycle status (thread-safe).
func (m *Match) State() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Status
}

// Result builds the persisted scorecard. Only meaningful once the match
// has completed.
func (m *Match) Result() store.MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := store.MatchResult{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		HomeTeamID:   m.home.TeamID,
		AwayTeamID:   m.away.TeamID,
		HomeRuns:     m.first.runs,
		AwayRuns:     m.second.runs,
		HomeWickets:  m.first.wickets,
		AwayWickets:  m.second.wickets,
		HomeBalls:    m.first.balls,
		AwayBalls:    m.second.balls,
		PlayedAt:     m.clk.Now().UTC(),
	}
	switch {
	case m.first.runs > m.second.runs:
		id := m.home.TeamID
		r.WinnerTeamID = &id
	case m.second.runs > m.first.runs:
		id := m.away.TeamID
		r.WinnerTeamID = &id
	}
	return r
}

// PendingEvents returns uncommitted events and clears the buffer.
func (m *Match) PendingEvents() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.events
	m.events = nil
	return events
}

func (m *Match) battingSide() (bat, bowl TeamSheet) {
	if m.batting == 1 {
		return m.home, m.away
	}
	return m.away, m.home
}

func (m *Match) currentInnings() *innings {
	if m.batting == 1 {
		return &m.first
	}
	return &m.second
}

// bowlerFor rotates the bowling attack one bowler per over, strongest
// bowlers first.
func (m *Match) bowlerFor(side TeamSheet, ballsBowled int) store.Player {
	attack := make([]store.Player, 0, len(side.Players))
	for _, p := range side.Players {
		if p.BowlingSkill >= 40 {
			attack = append(attack, p)
		}
	}
	if len(attack) == 0 {
		attack = side.Players
	}
	return attack[(ballsBowled/6)%len(attack)]
}

// inningsOver reports whether the side batting right now is done: all out,
// out of overs, or (for the chase) past the target.
func (m *Match) inningsOver(bat TeamSheet, score *innings) bool {
	if score.wickets >= len(bat.Players)-1 {
		return true
	}
	if score.balls >= m.cfg.Overs*6 {
		return true
	}
	if m.batting == 2 && score.runs > m.first.runs {
		return true
	}
	return false
}

// outcome draws one delivery's result. The batter/bowler skill gap shifts
// weight between boundaries and wickets.
func (m *Match) outcome(batting, bowling int) (runs int, wicket bool) {
	edge := (batting - bowling) / 10 // roughly -9..9

	weights := []struct {
		runs   int
		wicket bool
		weight int
	}{
		{runs: 0, weight: clamp(26-edge, 5, 40)},
		{runs: 1, weight: 30},
		{runs: 2, weight: 10},
		{runs: 3, weight: 3},
		{runs: 4, weight: clamp(12+edge, 2, 25)},
		{runs: 6, weight: clamp(7+edge, 1, 18)},
		{wicket: true, weight: clamp(6-edge/2, 1, 14)},
	}

	total := 0
	for _, w := range weights {
		total += w.weight
	}
	roll := m.rng.Intn(total)
	for _, w := range weights {
		roll -= w.weight
		if roll < 0 {
			return w.runs, w.wicket
		}
	}
	return 0, false
}

func (m *Match) completeLocked() {
	m.Status = StatusCompleted

	var winner string
	switch {
	case m.first.runs > m.second.runs:
		winner = m.home.TeamID
	case m.second.runs > m.first.runs:
		winner = m.away.TeamID
	}
	m.recordEvent(event.MatchCompleted, event.MatchCompletedData{
		WinnerTeamID: winner,
		HomeRuns:     m.first.runs,
		AwayRuns:     m.second.runs,
	})
}

func (m *Match) recordEvent(t event.Type, payload any) {
	m.Version++
	e, _ := event.New(m.ID, t, m.Version, m.clk.Now(), payload)
	m.events = append(m.events, e)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
