package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"

	"dicehouse/config"
	"dicehouse/database"
	"dicehouse/domain/events"
	"dicehouse/domain/interfaces"
	"dicehouse/domain/services"
	"dicehouse/domain/testhelpers"
	"dicehouse/infrastructure"
	"dicehouse/repository"
)

// Run wires and starts the engine, then blocks until ctx is cancelled.
func Run(ctx context.Context) error {
	log.Info("Starting dicehouse engine...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	bus := events.NewBus()

	archiver := infrastructure.NewArchiver(
		repository.NewBetArchiveRepository(db),
		repository.NewEventArchiveRepository(db),
	)
	archiver.Subscribe(bus)

	if cfg.NATSServers != "" {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsPub, err := infrastructure.NewNATSEventPublisher(cfg.NATSServers)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPub.Close()
		bus.SubscribeAll(func(ctx context.Context, event events.Event) {
			if err := natsPub.Publish(ctx, event); err != nil {
				log.WithError(err).WithField("eventType", event.Type()).Error("Failed to forward event to NATS")
			}
		})
	}

	var chain interfaces.ChainSource
	if cfg.EthRPCURL != "" {
		log.WithField("rpc", cfg.EthRPCURL).Info("Connecting to chain RPC...")
		ethChain, err := infrastructure.NewEthChainSource(ctx, cfg.EthRPCURL, cfg.Lookback)
		if err != nil {
			return fmt.Errorf("failed to connect to chain: %w", err)
		}
		defer ethChain.Close()
		chain = ethChain
	} else {
		log.Warn("ETH_RPC_URL not set, using simulated chain")
		chain = testhelpers.NewSimChain(1, cfg.Lookback)
	}

	// The bankroll and stake custody collaborators are in-memory here; a
	// deployment binds them to the staking vault and token contracts.
	vault := testhelpers.NewMemoryVault(uint256.NewInt(0))
	custody := testhelpers.NewMemoryCustody()

	controller, err := services.NewLifecycleController(
		services.LifecycleParams{
			Owner:            cfg.Owner(),
			HouseEdge:        cfg.HouseEdge(),
			KellyFraction:    cfg.KellyFraction(),
			Lookback:         cfg.Lookback,
			ExpiryWindow:     cfg.ExpiryWindow,
			MaxSweepPerPlace: cfg.MaxSweepPerPlace,
		},
		chain, vault, custody, bus,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize lifecycle controller: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":       cfg.Owner().Hex(),
		"houseEdge":   cfg.HouseEdge().Dec(),
		"environment": cfg.Environment,
	}).Info("Engine is running")

	runSweeper(ctx, controller)

	log.Info("Shutting down engine...")
	return nil
}

// runSweeper periodically forfeits expired bets so the pending queue cannot
// grow without bound even when no placements arrive to amortize cleanup.
func runSweeper(ctx context.Context, controller *services.LifecycleController) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := controller.SweepExpired(ctx, sweepBatchSize)
			if err != nil {
				log.WithError(err).Warn("Background expiry sweep failed")
				continue
			}
			if swept > 0 {
				log.WithField("swept", swept).Info("Background expiry sweep completed")
			}
		}
	}
}

const (
	sweepInterval  = 30 * time.Second
	sweepBatchSize = 50
)
