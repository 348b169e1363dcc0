package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"honeytrap-lab/internal/agent"
	"honeytrap-lab/internal/api"
	"honeytrap-lab/internal/api/handlers"
	"honeytrap-lab/internal/callback"
	"honeytrap-lab/internal/config"
	"honeytrap-lab/internal/domain/services"
	grpcserver "honeytrap-lab/internal/grpc/honeypot"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/internal/streaming"
	"honeytrap-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Honeytrap Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize optional infrastructure
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Report archive rides on postgres when available
	var archive *database.ReportArchive
	if db != nil {
		archive, err = database.NewReportArchive(ctx, db, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize report archive, continuing without it")
			archive = nil
		} else {
			log.Info().Msg("report archive initialized")
		}
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event streaming")
		} else {
			defer natsPublisher.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	// Initialize detection pipeline
	scorer := services.NewScamScorer(cfg.Honeypot.ScamThreshold, cfg.Honeypot.HistoryWindow, log)
	extractor := services.NewIntelligenceExtractor(log)
	store := session.NewStore(session.NewMemoryRepository(), cfg.Honeypot.MinMessages, cfg.Honeypot.MaxMessages, log)

	// Initialize engagement agent
	llm := agent.NewLLMClient(agent.LLMConfig{
		APIKey:      cfg.Agent.APIKey,
		BaseURL:     cfg.Agent.BaseURL,
		Model:       cfg.Agent.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
		Timeout:     cfg.Agent.Timeout,
	}, log)
	if !llm.Available() {
		log.Warn().Msg("no agent API key configured, using fallback replies only")
	}
	ag := agent.New(llm, log)

	// Delivery observers: event stream and archive, when configured
	var observers []callback.Observer
	if natsPublisher != nil {
		observers = append(observers, streaming.NewDeliveryEvents(natsPublisher, log))
	}
	if archive != nil {
		observers = append(observers, archive)
	}

	dispatcher := callback.NewDispatcher(callback.Config{
		URL:            cfg.Callback.URL,
		MaxAttempts:    cfg.Callback.MaxAttempts,
		BaseDelay:      cfg.Callback.BaseDelay,
		AttemptTimeout: cfg.Callback.AttemptTimeout,
		Workers:        cfg.Callback.Workers,
		QueueSize:      cfg.Callback.QueueSize,
	}, log, observers...)

	var events services.EventPublisher
	if natsPublisher != nil {
		events = natsPublisher
	}
	engine := services.NewEngine(scorer, extractor, store, ag, dispatcher, events, log)

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Engine:  engine,
		Store:   store,
		Cache:   redisCache,
		DB:      db,
		Archive: archive,
		Logger:  log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server (health checks only)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	grpcserver.RegisterHealthServer(ctx, grpcServer, db, redisCache)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop gRPC server
	grpcServer.GracefulStop()

	// Stop HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop callback delivery workers
	dispatcher.Stop()

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects the optional database and cache backends.
// Both are best-effort; the honeypot runs fully in memory without them.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}

	return db, redisCache
}
