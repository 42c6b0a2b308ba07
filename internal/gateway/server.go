// Package gateway is the host-facing surface: an HTTP API for running
// auctions and tournaments, a websocket hub broadcasting live events, and
// the NATS relay connecting the two across replicas.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/auction"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/config"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/setup"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/standings"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

var tracer = otel.Tracer("github.com/saiganeshwaran/cricket-auctioneer/internal/gateway")

// Server exposes the auction engine over HTTP.
type Server struct {
	manager *auction.Manager
	repos   *store.Repositories
	hub     *Hub
	cfg     config.Config
	logger  *slog.Logger
	clk     clockwork.Clock
	mux     *http.ServeMux
}

// NewServer wires the API routes.
func NewServer(manager *auction.Manager, repos *store.Repositories, hub *Hub, cfg config.Config, logger *slog.Logger, clk clockwork.Clock) *Server {
	s := &Server{
		manager: manager,
		repos:   repos,
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
		clk:     clk,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/tournaments", s.handleCreateTournament)
	s.mux.HandleFunc("GET /api/tournaments/{id}/standings", s.handleStandings)
	s.mux.HandleFunc("GET /api/tournaments/{id}/players", s.handlePlayers)
	s.mux.HandleFunc("GET /api/tournaments/{id}/leaderboard", s.handleLeaderboard)

	s.mux.HandleFunc("POST /api/auctions/{id}/start", s.handleStartAuction)
	s.mux.HandleFunc("POST /api/auctions/{id}/bids", s.handlePlaceBid)
	s.mux.HandleFunc("POST /api/auctions/{id}/skip", s.handleSkip)
	s.mux.HandleFunc("POST /api/auctions/{id}/complete", s.handleComplete)
	s.mux.HandleFunc("GET /api/auctions/{id}", s.handleAuctionState)
	s.mux.HandleFunc("GET /api/auctions/{id}/export", s.handleExport)

	s.mux.HandleFunc("GET /ws/{id}", s.handleWebsocket)

	return s
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.mux)
}

// Mux exposes the raw mux so main can attach health endpoints.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

type createTournamentRequest struct {
	TeamNames    []string `json:"team_names"`
	Budget       string   `json:"budget"`
	SlotsPerTeam int      `json:"slots_per_team"`
	PoolSize     int      `json:"pool_size"`
	Seed         int64    `json:"seed"`
}

func (s *Server) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Server.CreateTournament")
	defer span.End()

	var req createTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	budget, err := decimal.NewFromString(req.Budget)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing budget: %w", err))
		return
	}

	tournament, err := setup.Generate(setup.Config{
		TeamNames:    req.TeamNames,
		Budget:       budget,
		SlotsPerTeam: req.SlotsPerTeam,
		PoolSize:     req.PoolSize,
		Seed:         req.Seed,
	}, s.clk)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := setup.Save(ctx, s.repos.Players, s.repos.Teams, tournament); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", tournament.ID),
		slog.Int("teams", len(tournament.Teams)),
		slog.Int("players", len(tournament.Players)),
	)
	writeJSON(w, http.StatusCreated, tournament)
}

func (s *Server) handleStartAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Server.StartAuction",
		trace.WithAttributes(attribute.String("tournament.id", r.PathValue("id"))),
	)
	defer span.End()

	tournamentID := r.PathValue("id")
	teams, err := s.repos.Teams.ListByTournament(ctx, tournamentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	players, err := s.repos.Players.ListByTournament(ctx, tournamentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(teams) == 0 || len(players) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("tournament %s has no teams or players", tournamentID))
		return
	}

	aucSetup, err := setup.AuctionSetup(tournamentID, teams, players, s.cfg.Auction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a, err := s.manager.StartAuction(ctx, aucSetup)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.Export())
}

type bidRequest struct {
	TeamID string `json:"team_id"`
	Amount string `json:"amount"`
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Server.PlaceBid",
		trace.WithAttributes(attribute.String("auction.id", r.PathValue("id"))),
	)
	defer span.End()

	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing amount: %w", err))
		return
	}

	err = s.manager.PlaceBid(ctx, r.PathValue("id"), req.TeamID, amount)
	if err != nil {
		writeError(w, bidStatus(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Server.Skip")
	defer span.End()

	if err := s.manager.Skip(ctx, r.PathValue("id")); err != nil {
		writeError(w, lifecycleStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Server.Complete")
	defer span.End()

	if err := s.manager.Complete(ctx, r.PathValue("id")); err != nil {
		writeError(w, lifecycleStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) handleAuctionState(w http.ResponseWriter, r *http.Request) {
	a, ok := s.manager.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("auction %s not found", r.PathValue("id")))
		return
	}

	export := a.Export()
	lot, remaining, open := a.CurrentLot()
	resp := struct {
		auction.Export
		CurrentLot       *auction.Lot `json:"current_lot,omitempty"`
		SecondsRemaining int          `json:"seconds_remaining"`
	}{Export: export}
	if open {
		resp.CurrentLot = &lot
		resp.SecondsRemaining = remaining
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	a, ok := s.manager.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("auction %s not found", r.PathValue("id")))
		return
	}
	data, err := a.Export().JSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "auction-"+r.PathValue("id")+".json"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tournamentID := r.PathValue("id")

	teams, err := s.repos.Teams.ListByTournament(ctx, tournamentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	results, err := s.repos.Matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, standings.Table(teams, results))
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	players, err := s.repos.Players.ListByTournament(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		players = standings.SearchPlayers(players, q)
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	players, err := s.repos.Players.ListByTournament(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", l))
			return
		}
		limit = n
	}

	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "batting":
		writeJSON(w, http.StatusOK, standings.BattingLeaderboard(players, limit))
	case "bowling":
		writeJSON(w, http.StatusOK, standings.BowlingLeaderboard(players, limit))
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown leaderboard kind %q", kind))
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if err := s.hub.Subscribe(w, r, r.PathValue("id")); err != nil {
		s.logger.Error("websocket upgrade failed", slog.Any("error", err))
	}
}

// bidStatus maps bid validation sentinels to HTTP codes.
func bidStatus(err error) int {
	switch {
	case errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrInsufficientBudget),
		errors.Is(err, auction.ErrNoSlotAvailable),
		errors.Is(err, auction.ErrSelfOutbid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auction.ErrUnknownTeam):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrAuctionNotActive):
		return http.StatusConflict
	default:
		return http.StatusNotFound
	}
}

func lifecycleStatus(err error) int {
	var lc *auction.LifecycleError
	if errors.As(err, &lc) {
		return http.StatusConflict
	}
	return http.StatusNotFound
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
