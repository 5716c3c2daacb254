package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/englishassessment/backend/docs"
	"github.com/englishassessment/backend/internal/config"
	"github.com/englishassessment/backend/internal/evaluation"
	"github.com/englishassessment/backend/internal/handlers"
	"github.com/englishassessment/backend/internal/identity"
	"github.com/englishassessment/backend/internal/logger"
	"github.com/englishassessment/backend/internal/metrics"
	"github.com/englishassessment/backend/internal/middleware"
	"github.com/englishassessment/backend/internal/repositories"
	"github.com/englishassessment/backend/internal/scoring"
	"github.com/englishassessment/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title English Assessment API
// @version 1.0
// @description API for placement tests in listening, reading, writing and speaking

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider access token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting English Assessment API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize scoring
	policy, err := scoring.NewPolicy(cfg.Scoring.Policy, cfg.Scoring.Weights)
	if err != nil {
		logger.Logger.Fatal("Invalid scoring policy", zap.Error(err))
	}
	scorer := scoring.NewProfileScorer(scoring.NewAggregator(policy), cfg.Attempts, time.Now)

	// Initialize evaluators
	speechClient := evaluation.NewSpeechClient(evaluation.SpeechConfig{
		URL:     cfg.Speech.URL,
		APIKey:  cfg.Speech.APIKey,
		Dialect: cfg.Speech.Dialect,
		Timeout: cfg.Speech.Timeout,
	}, nil, logger.Logger, m)
	textClient := evaluation.NewTextClient(evaluation.TextConfig{
		BaseURL: cfg.Text.BaseURL,
		APIKey:  cfg.Text.APIKey,
		Model:   cfg.Text.Model,
		Timeout: cfg.Text.Timeout,
	}, nil, logger.Logger, m)
	speakingEvaluator := evaluation.NewSpeakingTestEvaluator(speechClient, logger.Logger)
	if cfg.Speech.APIKey == "" {
		logger.Logger.Warn("SPEECHACE_KEY is not set, speaking submissions will fail")
	}
	if cfg.Text.APIKey == "" {
		logger.Logger.Warn("COHERE_API_KEY is not set, writing submissions will fail")
	}

	// Initialize identity verification
	verifier := identity.NewVerifier(identity.Config{
		Domain:        cfg.Auth.Domain,
		Audience:      cfg.Auth.Audience,
		MetadataClaim: cfg.Auth.MetadataClaim,
		Issuer:        cfg.Auth.Issuer,
		JWKSURL:       cfg.Auth.JWKSURL,
		UserinfoURL:   cfg.Auth.UserinfoURL,
	}, nil, logger.Logger)

	// Initialize repositories
	profileRepo := repositories.NewProfileRepository(db, logger.Logger)
	contentRepo := repositories.NewContentRepository(db, logger.Logger)

	// Initialize services
	profileService := services.NewProfileService(profileRepo, scorer, logger.Logger)
	catalogService := services.NewCatalogService(contentRepo, logger.Logger)
	submissionService := services.NewSubmissionService(contentRepo, profileService, speechClient, textClient, speakingEvaluator, cfg.Speech.SubmissionTimeout, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(profileService, logger.Logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger.Logger)
	sectionHandler := handlers.NewSectionHandler(catalogService, submissionService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.Auth(verifier, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger.Logger))
	r.Use(middleware.Recovery(logger.Logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(m.Middleware)
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimit(middleware.DefaultMaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Operational endpoints
	r.Handle("/metrics", metrics.Handler(registry))
	r.Get("/health", healthHandler(db))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Register auth routes
		authHandler.RegisterRoutes(r, authMiddleware)
		// Register profile routes
		profileHandler.RegisterRoutes(r, authMiddleware)
		// Register section test routes
		sectionHandler.RegisterRoutes(r, authMiddleware)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: max(cfg.Speech.Timeout, cfg.Speech.SubmissionTimeout) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "assessment_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Fall back to the parent directory when running from cmd
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// healthHandler reports whether the database is reachable
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(ctx); err != nil {
			logger.Logger.Warn("Health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
