package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/lookout/internal/access"
	"github.com/saturnino-fabrica-de-software/lookout/internal/annotator"
	"github.com/saturnino-fabrica-de-software/lookout/internal/api"
	"github.com/saturnino-fabrica-de-software/lookout/internal/audit"
	"github.com/saturnino-fabrica-de-software/lookout/internal/capture"
	"github.com/saturnino-fabrica-de-software/lookout/internal/config"
	"github.com/saturnino-fabrica-de-software/lookout/internal/database"
	"github.com/saturnino-fabrica-de-software/lookout/internal/emitter"
	"github.com/saturnino-fabrica-de-software/lookout/internal/face"
	"github.com/saturnino-fabrica-de-software/lookout/internal/repository"
	"github.com/saturnino-fabrica-de-software/lookout/internal/store"
	"github.com/saturnino-fabrica-de-software/lookout/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// records is the record store picked by STORE_DRIVER
type records struct {
	codes    access.CodeRepository
	sessions interface {
		access.SessionRepository
		access.SessionPruner
	}
	ping  func(ctx context.Context) error
	close func()
}

func (r *records) Ping(ctx context.Context) error {
	return r.ping(ctx)
}

func run() error {
	config.LoadDotEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting Lookout",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreDriver),
		slog.String("provider", cfg.ProviderType),
		slog.String("capture", cfg.CaptureSource),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record store
	rec, err := openRecords(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rec.close()

	// Access control
	markers, err := access.NewMarkerService(cfg.MarkerSecret, cfg.MarkerTTL)
	if err != nil {
		return fmt.Errorf("failed to create marker service: %w", err)
	}
	if cfg.MarkerSecret == "" {
		logger.Warn("MARKER_SECRET not set, markers will not survive a restart")
	}

	auditLogger := audit.NewSlogLogger(logger)
	controller := access.NewController(rec.codes, rec.sessions, markers, auditLogger, logger, access.Config{
		SessionMaxAge: cfg.SessionMaxAge,
	})

	if cfg.RetentionEnabled() {
		worker := access.NewRetentionWorker(rec.sessions, auditLogger, logger, cfg.SessionMaxAge, cfg.SessionPruneInterval)
		go worker.Run(ctx)
	}

	// Detection
	detector, err := face.NewDetector(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	emitters := annotator.Emitters{hub}

	var mqttEmitter *emitter.MQTTEmitter
	if cfg.MQTTEnabled() {
		mqttEmitter = emitter.NewMQTTEmitter(emitter.Config{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
		}, logger)
		if err := mqttEmitter.Connect(ctx); err != nil {
			// paho keeps retrying in the background
			logger.Warn("mqtt broker not reachable yet", slog.Any("error", err))
		}
		go mqttEmitter.Run(ctx)
		emitters = append(emitters, mqttEmitter)
	}

	ann := annotator.New(detector, annotator.NewSettings(), emitters, logger, annotator.Config{
		JPEGQuality:    cfg.JPEGQuality,
		FocalLength:    cfg.FocalLength,
		KnownFaceWidth: cfg.KnownFaceWidth,
	})

	// Capture
	source, err := capture.NewSource(cfg.CaptureSource, capture.Config{
		Device: cfg.CaptureDevice,
		Width:  cfg.CaptureWidth,
		Height: cfg.CaptureHeight,
		FPS:    cfg.CaptureFPS,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create capture source: %w", err)
	}
	if err := source.Start(ctx); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer func() {
		if err := source.Stop(); err != nil {
			logger.Error("capture stop error", slog.Any("error", err))
		}
	}()

	supplier := capture.NewSupplier()
	go capture.Pump(ctx, source, supplier, logger)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Access:    controller,
		Store:     rec,
		Source:    source,
		Supplier:  supplier,
		Annotator: ann,
		Hub:       hub,
		MQTT:      mqttEmitter,
		Config:    cfg,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// streams only end once the supplier stops
	supplier.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}

func openRecords(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*records, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if cfg.AutoMigrate {
			if err := database.MigrateUp(ctx, cfg.DatabaseURL, cfg.DatabaseName, logger); err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		codes := repository.NewReferenceCodeRepository(pool)
		sessions := repository.NewBrowserSessionRepository(pool)

		return &records{
			codes:    codes,
			sessions: sessions,
			ping: func(ctx context.Context) error {
				if err := database.HealthCheck(ctx, pool); err != nil {
					return err
				}
				if err := codes.Ping(ctx); err != nil {
					return err
				}
				return sessions.Ping(ctx)
			},
			close: pool.Close,
		}, nil

	default:
		st := store.New(cfg.DataDir)
		if err := st.Init(ctx, logger); err != nil {
			return nil, fmt.Errorf("failed to initialize record store: %w", err)
		}

		return &records{
			codes:    st.Codes,
			sessions: st.Sessions,
			ping:     st.Ping,
			close:    func() {},
		}, nil
	}
}
