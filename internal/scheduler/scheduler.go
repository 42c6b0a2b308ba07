// Package scheduler runs time-triggered tournament work: auction starts
// scheduled for a future time, and fixture simulations played on a
// schedule with their results persisted and relayed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/auction"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/sim"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// Fixture is one scheduled match.
type Fixture struct {
	MatchID      string
	TournamentID string
	Home         sim.TeamSheet
	Away         sim.TeamSheet
	Overs        int
	Seed         int64
}

// Scheduler owns the gocron instance and the job callbacks.
type Scheduler struct {
	s         gocron.Scheduler
	manager   *auction.Manager
	matches   store.MatchRepository
	publisher auction.Publisher
	logger    *slog.Logger
	clk       clockwork.Clock
}

// New creates a stopped scheduler; call Start once jobs are registered.
func New(manager *auction.Manager, matches store.MatchRepository, pub auction.Publisher, logger *slog.Logger, clk clockwork.Clock) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(clk))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	return &Scheduler{
		s:         s,
		manager:   manager,
		matches:   matches,
		publisher: pub,
		logger:    logger,
		clk:       clk,
	}, nil
}

// ScheduleAuction starts the auction for the given setup at the given
// time.
func (s *Scheduler) ScheduleAuction(at time.Time, aucSetup auction.Setup) error {
	_, err := s.s.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(func() { s.runAuction(aucSetup) }),
	)
	if err != nil {
		return fmt.Errorf("scheduling auction %s: %w", aucSetup.TournamentID, err)
	}
	s.logger.Info("auction scheduled",
		slog.String("tournament_id", aucSetup.TournamentID),
		slog.Time("at", at),
	)
	return nil
}

// ScheduleFixture plays the fixture at the given time.
func (s *Scheduler) ScheduleFixture(at time.Time, f Fixture) error {
	_, err := s.s.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(func() { s.runFixture(f) }),
	)
	if err != nil {
		return fmt.Errorf("scheduling fixture %s: %w", f.MatchID, err)
	}
	s.logger.Info("fixture scheduled",
		slog.String("match_id", f.MatchID),
		slog.Time("at", at),
	)
	return nil
}

// Start begins executing due jobs.
func (s *Scheduler) Start() {
	s.s.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) runAuction(aucSetup auction.Setup) {
	ctx := context.Background()
	if _, err := s.manager.StartAuction(ctx, aucSetup); err != nil {
		s.logger.Error("scheduled auction failed to start",
			slog.String("tournament_id", aucSetup.TournamentID),
			slog.Any("error", err),
		)
	}
}

func (s *Scheduler) runFixture(f Fixture) {
	ctx := context.Background()

	match, err := sim.New(f.MatchID, f.TournamentID, f.Home, f.Away,
		sim.Config{Overs: f.Overs, Seed: f.Seed}, s.clk)
	if err != nil {
		s.logger.Error("invalid fixture",
			slog.String("match_id", f.MatchID),
			slog.Any("error", err),
		)
		return
	}

	result, err := match.Play(ctx)
	if err != nil {
		s.logger.Error("fixture simulation failed",
			slog.String("match_id", f.MatchID),
			slog.Any("error", err),
		)
		return
	}
	if err := s.matches.Create(ctx, &result); err != nil {
		s.logger.Error("failed to persist match result",
			slog.String("match_id", f.MatchID),
			slog.Any("error", err),
		)
		return
	}

	if s.publisher != nil {
		for _, e := range match.PendingEvents() {
			if err := s.publisher.Publish(ctx, e); err != nil {
				s.logger.Warn("failed to publish match event",
					slog.String("event_type", string(e.Type)),
					slog.Any("error", err),
				)
			}
		}
	}

	s.logger.Info("fixture simulated",
		slog.String("match_id", f.MatchID),
		slog.Int("home_runs", result.HomeRuns),
		slog.Int("away_runs", result.AwayRuns),
	)
}
