package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/leads/common/id"
	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/common/otel"
	"basegraph.app/leads/core/config"
	"basegraph.app/leads/core/db"
	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/http/middleware"
	httprouter "basegraph.app/leads/internal/http/router"
	"basegraph.app/leads/internal/service"
	"basegraph.app/leads/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		// Can't use slog yet: OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "leads starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	metrics := changefeed.NewMetrics()
	hub := changefeed.NewHub(cfg.ChangeFeed.SubscriberBuffer, metrics)

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()

	var publisher changefeed.Publisher = hub
	if cfg.ChangeFeed.RedisEnabled() {
		redisOpts, err := redis.ParseURL(cfg.ChangeFeed.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "redis connected", "channel", cfg.ChangeFeed.Channel)

		publisher = changefeed.NewRedisPublisher(redisClient, cfg.ChangeFeed.Channel)
		relay := changefeed.NewRedisRelay(redisClient, cfg.ChangeFeed.Channel, hub, metrics)
		go func() {
			if err := relay.Run(relayCtx); err != nil {
				slog.ErrorContext(relayCtx, "change feed relay stopped", "error", err)
				os.Exit(1)
			}
		}()
	} else {
		slog.InfoContext(ctx, "redis disabled, change feed is local to this instance")
	}

	stores := store.NewStores(database.Queries())
	services := service.NewServices(stores, publisher, service.LeadServiceConfig{
		MaxAttempts: cfg.Updates.MaxAttempts,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, database, hub, metrics)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: change streams stay open for the life of the client.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Closing the hub first ends open streams, which Shutdown would
	// otherwise wait on until the timeout.
	stopRelay()
	hub.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, database *db.DB, hub *changefeed.Hub, metrics *changefeed.Metrics) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.CORS())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		Hub:               hub,
		Metrics:           metrics,
		HeartbeatInterval: cfg.ChangeFeed.HeartbeatInterval,
		Ready: func(c *gin.Context) error {
			return database.Ping(c.Request.Context())
		},
	})

	return router
}

const banner = `
██╗     ███████╗ █████╗ ██████╗ ███████╗
██║     ██╔════╝██╔══██╗██╔══██╗██╔════╝
██║     █████╗  ███████║██║  ██║███████╗
██║     ██╔══╝  ██╔══██║██║  ██║╚════██║
███████╗███████╗██║  ██║██████╔╝███████║
╚══════╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚══════╝
`
