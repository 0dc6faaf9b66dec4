package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"changekit/internal/client"
	"changekit/internal/config"
	"changekit/internal/database"
	"changekit/internal/flow"
	"changekit/internal/game"
	"changekit/internal/handlers"
	"changekit/internal/repository"
	"changekit/internal/routes"
	"changekit/internal/security"
	"changekit/internal/service"
	"changekit/internal/theme"
)

func main() {
	// Load configuration
	cfg := config.Load()

	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepRules,
		handlers.StepHandoffs,
		handlers.StepServices,
		handlers.StepReady,
	)

	// Serve the startup status while initializing
	var app atomic.Value
	bootMux := http.NewServeMux()
	bootMux.HandleFunc("GET "+handlers.HealthPath, startup.ShowStatus)
	app.Store(handlers.Logging(startup.Gate(handlers.HealthPath, bootMux)))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			app.Load().(http.Handler).ServeHTTP(w, r)
		}),
		ReadTimeout: 15 * time.Second,
		// Generation requests wait on the backend
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.CompleteStep(handlers.StepDatabase)
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	startup.CompleteStep(handlers.StepMigrations)
	log.Println("Migrations completed successfully")

	// ADKAR stage rules
	startup.SetCurrentStep(handlers.StepRules)
	rules := flow.DefaultRules()
	if cfg.StageRulesPath != "" {
		loaded, err := flow.LoadRules(cfg.StageRulesPath)
		if err != nil {
			log.Fatalf("Failed to load stage rules: %v", err)
		}
		rules = loaded
		log.Printf("Loaded %d stage rule sets from %s", len(rules), cfg.StageRulesPath)
	}
	startup.CompleteStep(handlers.StepRules)

	// Handoff store: Redis when configured, process memory otherwise
	startup.SetCurrentStep(handlers.StepHandoffs)
	var handoffs flow.HandoffStore
	var memoryHandoffs *flow.MemoryHandoffStore
	if cfg.RedisAddr != "" {
		redisStore, err := flow.NewRedisHandoffStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.HandoffTTL)
		if err != nil {
			log.Fatalf("Failed to initialize handoff store: %v", err)
		}
		defer redisStore.Close()
		handoffs = redisStore
		log.Printf("Handoffs stored in Redis at %s", cfg.RedisAddr)
	} else {
		memoryHandoffs = flow.NewMemoryHandoffStore(cfg.HandoffTTL)
		handoffs = memoryHandoffs
	}
	startup.CompleteStep(handlers.StepHandoffs)

	// Initialize services
	startup.SetCurrentStep(handlers.StepServices)
	keys, err := security.DeriveKeys(cfg.AppSecret)
	if err != nil {
		log.Fatalf("Failed to derive keys: %v", err)
	}

	backend := client.NewBackendClient(client.Options{
		BaseURL:      cfg.BackendURL,
		Timeout:      cfg.BackendTimeout,
		ClientID:     cfg.BackendClientID,
		ClientSecret: cfg.BackendClientSecret,
		TokenURL:     cfg.BackendTokenURL,
	})
	if cfg.BackendAuthEnabled() {
		log.Println("Backend requests use client credentials")
	}

	mailService, err := service.NewMailService(context.Background(), cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, backend, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize mail service: %v", err)
	}

	registry := game.NewRegistry()
	gameService := service.NewGameService(backend, registry, service.GameServiceOptions{
		UserID: cfg.DemoUserID,
		Rules:  rules,
		Debug:  cfg.Debug,
	})
	flows := flow.NewStore(backend, mailService)
	themes := theme.NewService(repository.NewPreferenceRepository(db))
	table := routes.Default()

	limiter := security.NewRateLimiter(cfg.GenerateRateLimit, time.Minute)
	defer limiter.Stop()

	// Initialize handlers
	middleware := handlers.NewMiddleware(
		security.NewVisitorTokens(keys.Visitor, cfg.SessionDuration),
		security.NewCSRFGenerator(keys.CSRF),
		limiter,
		cfg.SessionDuration,
		cfg.Debug,
	)
	app.Store(handlers.NewRouter(handlers.RouterConfig{
		Middleware:      middleware,
		Pages:           handlers.NewPageHandler(table, themes, middleware),
		Flow:            handlers.NewFlowHandler(flows, handoffs, backend, table, rules, cfg.Debug),
		Assistant:       handlers.NewAssistantHandler(backend),
		Games:           handlers.NewGameHandler(gameService, handoffs, table, cfg.Debug),
		Startup:         startup,
		StaticFilesPath: cfg.StaticFilesPath,
	}))
	startup.CompleteStep(handlers.StepServices)

	// Start background cleanup of idle state
	stopCleanup := make(chan struct{})
	go cleanupIdleState(stopCleanup, registry, flows, memoryHandoffs, cfg.GameIdleTimeout)

	startup.CompleteStep(handlers.StepReady)
	startup.MarkReady()
	log.Println("Server ready")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("Server shutdown failed: %v", err)
	}
	registry.CloseAll()
}

// cleanupIdleState periodically ends idle game sessions, forgets idle draft
// flows and drops expired in-memory handoffs
func cleanupIdleState(stop <-chan struct{}, registry *game.Registry, flows *flow.Store, handoffs *flow.MemoryHandoffStore, maxIdle time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if n := registry.Sweep(maxIdle); n > 0 {
			log.Printf("Ended %d idle game sessions", n)
		}
		if n := flows.Sweep(maxIdle); n > 0 {
			log.Printf("Forgot %d idle draft flows", n)
		}
		if handoffs != nil {
			if n := handoffs.Sweep(); n > 0 {
				log.Printf("Dropped %d expired handoffs", n)
			}
		}
	}
}
