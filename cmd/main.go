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

	_ "github.com/Sonukamble/TodoApp/docs"
	"github.com/Sonukamble/TodoApp/internal/auth"
	"github.com/Sonukamble/TodoApp/internal/config"
	"github.com/Sonukamble/TodoApp/internal/handlers"
	"github.com/Sonukamble/TodoApp/internal/logger"
	"github.com/Sonukamble/TodoApp/internal/middleware"
	"github.com/Sonukamble/TodoApp/internal/repositories"
	"github.com/Sonukamble/TodoApp/internal/services"
	"github.com/Sonukamble/TodoApp/internal/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// @title TodoApp API
// @version 1.0
// @description JSON endpoints of the TodoApp authentication flow. Todo pages are server rendered HTML.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting TodoApp")

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

	// Token revocation is only available with redis
	var (
		revocationChecker auth.RevocationChecker
		tokenRevoker      services.TokenRevoker
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := connectRedis(cfg.Redis)
		if err != nil {
			logger.Logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()

		denylist := repositories.NewTokenDenylist(redisClient, logger.Logger)
		revocationChecker = denylist
		tokenRevoker = denylist
		logger.Logger.Info("Token revocation enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	// Initialize token issuer and verifier
	tokenIssuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	tokenVerifier := auth.NewTokenVerifier(cfg.JWT.Secret, revocationChecker)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	todoRepo := repositories.NewTodoRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, auth.NewPasswordHasher(bcrypt.DefaultCost), tokenIssuer, tokenRevoker, logger.Logger)
	todoService := services.NewTodoService(todoRepo, logger.Logger)

	// Initialize views
	renderer, err := views.NewRenderer()
	if err != nil {
		logger.Logger.Fatal("Failed to parse templates", zap.Error(err))
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokenVerifier, renderer, cfg.Cookie.Secure, logger.Logger)
	todoHandler := handlers.NewTodoHandler(todoService, renderer, logger.Logger)

	// Initialize session gate
	sessionGate := middleware.NewSessionGate(tokenVerifier, "/auth", cfg.Cookie.Secure, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit.PerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit.PerMinute, time.Minute))
	}
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Stylesheets
	r.Handle("/static/*", views.StaticHandler())

	// Register auth routes
	authHandler.RegisterRoutes(r)
	// Register todo routes behind the session gate
	todoHandler.RegisterRoutes(r, sessionGate.Middleware)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
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

// connectRedis connects to the token denylist store
func connectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "todoapp_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Running from cmd
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
