package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"techpulse/internal/admin"
	"techpulse/internal/api"
	"techpulse/internal/auth"
	"techpulse/internal/config"
	"techpulse/internal/content"
	"techpulse/internal/db"
	"techpulse/internal/feeds"
	"techpulse/internal/keymanager"
	"techpulse/internal/llm"
	"techpulse/internal/logger"
	"techpulse/internal/metrics"
	"techpulse/internal/model"
	"techpulse/internal/publisher"
	"techpulse/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// customRecovery is a middleware that recovers from panics and handles http.ErrAbortHandler gracefully.
func customRecovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					log.Warn("Client connection aborted", "path", c.Request.URL.Path)
					c.Abort()
					return
				}

				log.Error("Panic recovered",
					"error", recovered,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// requestMetrics records count and latency per matched route.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// corsOptions allows the configured origins. Credentials are refused with a wildcard origin.
func corsOptions(allowedOrigins []string) cors.Options {
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}
	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}

// application holds the wired components that outlive a single request.
type application struct {
	handler   http.Handler
	scheduler *scheduler.Scheduler
	collector *feeds.Collector
}

func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	dbService, err := db.NewService(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database initialized", "type", cfg.Database.Type)

	httpClient := &http.Client{Timeout: cfg.LLM.Timeout()}
	providers := llm.NewRegistry(
		llm.NewGeminiProvider(cfg.LLM.BaseURLs[model.ProviderGemini]),
		llm.NewOpenAIProvider(cfg.LLM.BaseURLs[model.ProviderOpenAI], httpClient),
		llm.NewAnthropicProvider(cfg.LLM.BaseURLs[model.ProviderAnthropic], httpClient),
	)
	keys := keymanager.NewKeyManager(dbService, providers, cfg.LLM, log)

	collector := feeds.NewCollector(dbService, feeds.NewFetcher(cfg.Feeds.Timeout(), cfg.Feeds.MaxEntries), log)
	generator := content.NewService(dbService, keys, log)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TTL())

	router := gin.New()
	router.Use(customRecovery(log))
	router.Use(requestMetrics())
	if cfg.Debug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.SetupRoutes(router,
		api.NewHandler(dbService, generator, publisher.NewDefaultRegistry(log), tokens, log),
		admin.NewHandler(dbService, keys, collector, log),
		tokens, dbService,
	)

	return &application{
		handler:   cors.Handler(corsOptions(cfg.CORSOrigins))(router),
		scheduler: scheduler.NewScheduler(keys, collector, cfg.Scheduler, log),
		collector: collector,
	}, nil
}

func main() {
	// Load configuration
	cfg, warning, err := config.LoadConfig("config.yaml")
	if err != nil {
		// Use a temporary logger for startup errors
		slog.Error("Error loading configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Debug)
	log.Info("Logger initialized", "debug_mode", cfg.Debug)
	if warning != "" {
		log.Warn(warning)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Error("Error initializing application", "error", err)
		os.Exit(1)
	}

	if err := app.scheduler.Start(); err != nil {
		log.Error("Error starting scheduler", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: app.handler,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	app.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	// Let an in-flight collection finish writing.
	app.collector.Wait()

	log.Info("Server exiting")
}
