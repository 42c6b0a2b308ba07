package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/auction"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/config"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/event"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/gateway"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/health"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/leader"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/telemetry"

	// Register store drivers so they are available via store.Open.
	_ "github.com/saiganeshwaran/cricket-auctioneer/internal/store/memstore"
	_ "github.com/saiganeshwaran/cricket-auctioneer/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clockwork.NewRealClock()

	repos, err := store.Open(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	// The event relay is optional: without a NATS URL the gateway
	// broadcasts in-process only.
	var publisher auction.Publisher
	hub := gateway.NewHub(gateway.DefaultHubConfig(), logger)
	go hub.Run(ctx)

	if cfg.Events.URL != "" {
		nc, natsErr := gateway.ConnectNATS(cfg.Events, logger)
		if natsErr != nil {
			return fmt.Errorf("connecting event relay: %w", natsErr)
		}
		defer nc.Close()

		publisher = gateway.NewNATSPublisher(nc, cfg.Events.SubjectPrefix)
		consumer := gateway.NewConsumer(nc, hub, cfg.Events.SubjectPrefix, logger)
		if consumerErr := consumer.Start(); consumerErr != nil {
			return fmt.Errorf("starting event consumer: %w", consumerErr)
		}
		defer consumer.Stop()

		logger.InfoContext(ctx, "event relay connected", slog.String("url", cfg.Events.URL))
	} else {
		publisher = hubPublisher{hub}
	}

	manager := auction.NewManager(repos.Events, repos.Snapshots, publisher, logger, tp.TracerProvider, clk)
	defer manager.Close()

	healthHandler := health.NewHandler(clk,
		health.Checker{
			Name:  "database",
			Check: repos.Ping,
		},
	)

	srv := gateway.NewServer(manager, repos, hub, *cfg, logger, clk)
	srv.Mux().HandleFunc("/healthz", healthHandler.LivenessHandler())
	srv.Mux().HandleFunc("/readyz", healthHandler.ReadinessHandler())

	// The API and health endpoints run on every replica.
	serverErrCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting http server", slog.Int("port", cfg.Server.Port))
		serverErrCh <- srv.ListenAndServe(ctx)
	}()

	// runEngine is the work only the leader performs: recovering and
	// ticking live auctions.
	runEngine := func(ctx context.Context) {
		if n, recoverErr := manager.RecoverAuctions(ctx); recoverErr != nil {
			logger.ErrorContext(ctx, "auction recovery failed", slog.Any("error", recoverErr))
		} else if n > 0 {
			logger.InfoContext(ctx, "recovered active auctions", slog.Int("count", n))
		}

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctioneer is running", slog.String("version", version))

		<-ctx.Done()

		healthHandler.SetReady(false)
		manager.Close()
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, cfg.LeaderElection, logger, runEngine, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else {
		runEngine(ctx)
	}

	// ctx is cancelled by now; wait for the graceful shutdown to finish.
	if err := <-serverErrCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// hubPublisher feeds committed events straight to the in-process hub when
// no relay is configured.
type hubPublisher struct {
	hub *gateway.Hub
}

func (p hubPublisher) Publish(_ context.Context, e event.Event) error {
	p.hub.Broadcast(e)
	return nil
}
