package main

import (
	"context"   // Shutdown deadlines
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Exit codes
	"os/signal" // Signal handling
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"finance_tracker/internal/api"    // Custom package for API handlers
	"finance_tracker/internal/auth"   // Auth gateway
	"finance_tracker/internal/config" // Custom package for configuration
	"finance_tracker/internal/db"     // Database connection and migration
	"finance_tracker/internal/events" // Notification events
	"finance_tracker/internal/utils"  // Cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"golang.org/x/sync/errgroup"   // Server lifecycle
)

// Main function to set up and run the server
func main() {
	if err := run(); err != nil {
		logrus.WithField("error", err.Error()).Error("Server stopped")
		os.Exit(1)
	}
}

// setupLogger configures the global logger
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func run() error {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	// Setup Redis client; without an address the API runs uncached
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		defer redisClient.Close()
	} else {
		logrus.Warn("REDIS_ADDR not set, caching and login throttling disabled")
	}

	// Notification events
	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		publisher = p
	}
	defer publisher.Close()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	gateway := auth.NewGateway(db.NewUserStore(gdb), cfg.JWTSecret, cfg.TokenTTL,
		auth.WithGenericLoginErrors(cfg.GenericLoginErrors))
	router := api.NewRouter(api.Deps{
		DB:        gdb,
		Gateway:   gateway,
		Cache:     utils.NewCache(redisClient, cfg.CacheTTL),
		Publisher: publisher,
		Config:    cfg,
	})
	// Set trusted proxies for Gin
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"port":   cfg.AppPort,
			"driver": cfg.DBDriver,
		}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
