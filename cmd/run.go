package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"regionbank/config"
	"regionbank/database"
	"regionbank/events"
	"regionbank/infrastructure"
	"regionbank/repository"
	"regionbank/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	cfg.ConfigureLogging()

	log.WithField("environment", cfg.Environment).Info("Starting regionbank...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize repositories
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus, cfg.BankDefaults)
	banks := repository.NewBankRepository(db, cfg.BankDefaults, eventBus)
	gateway := repository.NewGateway(db, uowFactory)
	economy := repository.NewEconomyRepository(db)
	sessions := repository.NewSessionRepository(db)

	// Connect to NATS
	log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer func() {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}()
	if err := natsClient.EnsureStreams(); err != nil {
		return fmt.Errorf("failed to ensure NATS streams: %w", err)
	}

	presence := infrastructure.NewPresenceTracker(sessions, eventBus)
	if err := presence.Start(natsClient); err != nil {
		return fmt.Errorf("failed to subscribe to presence: %w", err)
	}
	if err := infrastructure.NewBankConfigSubscriber(eventBus).Start(natsClient); err != nil {
		return fmt.Errorf("failed to subscribe to bank config changes: %w", err)
	}
	notifier := infrastructure.NewNATSNotifier(natsClient)

	// Initialize services
	dispatcher := service.NewDispatcher(cfg.DispatchWorkers, cfg.DispatchQueueSize)
	dispatcher.Start(context.Background())

	distributor := service.NewPaymentDistributor(economy, presence, notifier)
	orchestrator := service.NewPayoutOrchestrator(presence, gateway, distributor, dispatcher, service.NewRevenueEvaluator())
	scheduler := service.NewSchedulerService(banks, orchestrator, cfg.PayoutTimezone,
		service.WithEventPublisher(eventBus))
	catchUp := service.NewCatchUpNotifier(gateway, economy, notifier)

	eventBus.Subscribe(events.EventTypeBankConfigChanged, scheduler.HandleBankConfigChanged)
	eventBus.Subscribe(events.EventTypePlayerJoined, catchUp.HandlePlayerJoined)
	eventBus.Subscribe(events.EventTypePayoutCompleted, logPayoutCompleted)

	// Run the scheduler until shutdown
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	log.WithField("timezone", cfg.PayoutTimezone.String()).Info("regionbank is running")
	<-ctx.Done()

	log.Info("Shutting down...")

	// A firing in progress finishes before the dispatcher stops accepting jobs
	<-schedulerDone

	// Queued persistence and payment jobs finish before the pool closes
	dispatcher.Close()

	log.Info("Shutdown completed")
	return nil
}

func logPayoutCompleted(ctx context.Context, event events.Event) {
	completed, ok := event.(events.PayoutCompletedEvent)
	if !ok {
		return
	}
	log.WithFields(log.Fields{
		"payout_time": completed.PayoutTime.String(),
		"fired_at":    completed.FiredAt,
		"banks":       len(completed.BankIDs),
	}).Info("Payout cycle completed")
}
