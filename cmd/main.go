package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ordin20118/social-auth-service/internal/config"
	"github.com/ordin20118/social-auth-service/internal/handler"
	"github.com/ordin20118/social-auth-service/internal/handler/middleware"
	"github.com/ordin20118/social-auth-service/internal/repository/postgres"
	"github.com/ordin20118/social-auth-service/internal/service"
	"github.com/ordin20118/social-auth-service/pkg/applekeys"
	"github.com/ordin20118/social-auth-service/pkg/applesecret"
	"github.com/ordin20118/social-auth-service/pkg/jwt"
	"github.com/ordin20118/social-auth-service/pkg/kakao"
	"github.com/ordin20118/social-auth-service/pkg/revocation"
	"github.com/ordin20118/social-auth-service/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()
	log.Println("✓ Database connection established")

	// Initialize Redis client
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}()
	log.Println("✓ Redis connection established")

	// Initialize validator
	validate := validator.NewValidator()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	socialRepo := postgres.NewSocialAccountRepository(db)
	sessionTokenRepo := postgres.NewSessionTokenRepository(db)

	// Initialize internal token service
	tokenService, err := jwt.NewTokenService([]byte(cfg.Token.Secret), cfg.Token.Expiry, cfg.Token.Issuer)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	// Initialize provider clients
	providerHTTP := &http.Client{Timeout: 10 * time.Second}
	appleKeys := applekeys.NewCache(cfg.Apple.AuthKeysURL, providerHTTP)
	appleSecrets := applesecret.NewSigner(
		cfg.Apple.TeamID,
		cfg.Apple.KeyID,
		cfg.Apple.BundleID,
		cfg.Apple.PrivateKeyPath,
		time.Hour,
	)
	kakaoClient := kakao.NewClient(cfg.Kakao.APIURL, providerHTTP)

	// Initialize revocation cache
	revocationCache := revocation.NewCache(redisClient)
	log.Println("✓ Revocation cache initialized")

	// Initialize services
	appleVerifier := service.NewAppleVerifier(appleKeys, cfg.Apple.Issuer, cfg.Apple.BundleID, cfg.Apple.Freshness)
	kakaoVerifier := service.NewKakaoVerifier(kakaoClient)
	appleRevoke := service.NewAppleRevokeService(appleSecrets, cfg.Apple.BundleID, cfg.Apple.RevokeURL, providerHTTP)
	sessionTokens := service.NewSessionTokenService(sessionTokenRepo, tokenService, revocationCache)
	authService := service.NewAuthService(userRepo, socialRepo, sessionTokens, appleVerifier, kakaoVerifier)
	webhookService := service.NewWebhookService(userRepo, socialRepo, sessionTokens)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, sessionTokens, appleVerifier, appleRevoke, kakaoVerifier, validate)
	webhookHandler := handler.NewWebhookHandler(webhookService, validate)
	healthHandler := handler.NewHealthHandler()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Social Auth Service v1.0",
		ErrorHandler: customErrorHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CORSMiddleware())

	// Setup routes
	sessionAuth := middleware.SessionAuth(sessionTokens)
	handler.SetupRoutes(app, authHandler, webhookHandler, healthHandler, sessionAuth)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Periodic retention sweep for expired session tokens
	go purgeExpiredLoop(ctx, sessionTokens)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server stopped")
}

// purgeExpiredLoop deletes session token rows past expiry once an hour
func purgeExpiredLoop(ctx context.Context, sessionTokens *service.SessionTokenService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			count, err := sessionTokens.PurgeExpired(purgeCtx)
			cancel()
			if err != nil {
				log.Printf("Failed to purge expired session tokens: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("Purged %d expired session tokens", count)
			}
		}
	}
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Error closing database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing Redis after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// customErrorHandler handles Fiber errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("Error handling request [%s %s]: %v", c.Method(), c.Path(), err)

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
