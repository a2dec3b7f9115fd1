// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/otomarket/chat-platform/internal/assist"
	"github.com/otomarket/chat-platform/internal/config"
	"github.com/otomarket/chat-platform/internal/handler"
	"github.com/otomarket/chat-platform/internal/listing"
	"github.com/otomarket/chat-platform/internal/middleware"
	"github.com/otomarket/chat-platform/internal/realtime"
	"github.com/otomarket/chat-platform/internal/service"
	"github.com/otomarket/chat-platform/internal/store"
	"github.com/otomarket/chat-platform/internal/upload"
	"github.com/otomarket/chat-platform/pkg/logger"
	"github.com/otomarket/chat-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the message store
	db, err := store.OpenSQLite(cfg.SQLiteDSN)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to NATS
	natsClient, err := realtime.Connect(realtime.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	// Listing catalog client with a Redis cache in front
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	listings := listing.NewCachedResolver(listing.NewClient(cfg.ListingBaseURL), rdb, cfg.ListingCacheTTL, log)

	// Attachment storage
	blobs, err := upload.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		log.Error("failed to prepare upload directory", "error", err)
		os.Exit(1)
	}

	// Reply-suggestion provider, if a key is configured
	var suggester assist.Provider
	switch {
	case cfg.SuggestProvider == string(assist.ProviderOpenAI) && cfg.OpenAIAPIKey != "":
		suggester, err = assist.NewOpenAIProvider(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		suggester, err = assist.NewAnthropicProvider(cfg.AnthropicAPIKey)
	}
	if err != nil {
		log.Warn("failed to create suggestion provider, feature disabled", "error", err)
		suggester = nil
	}

	// Initialize services
	roomSvc := service.NewRoomService(db, log)
	messageSvc := service.NewMessageService(db, natsClient, listings, blobs, log)
	escalationSvc := service.NewEscalationService(db, natsClient, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient, db)
	roomHandler := handler.NewRoomHandler(roomSvc, escalationSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	streamHandler := handler.NewStreamHandler(messageSvc, log)
	uploadHandler := handler.NewUploadHandler(messageSvc, cfg.UploadMaxSize, log)
	assistHandler := handler.NewAssistHandler(messageSvc, listings, suggester, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Uploaded files
	r.Handle(cfg.UploadBaseURL+"/*", http.StripPrefix(cfg.UploadBaseURL+"/",
		http.FileServer(http.Dir(blobs.Root()))))

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Rooms
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", roomHandler.Create)
			r.Get("/", roomHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", roomHandler.Get)

				// Messages
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
				r.Delete("/messages/{messageID}", messageHandler.Delete)
				r.Post("/read", messageHandler.MarkRead)

				// Files
				r.Post("/files", uploadHandler.Send)

				// Streaming
				r.Get("/stream", streamHandler.Stream)

				// Staff operations
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff())
					r.Post("/escalate", roomHandler.Escalate)
					r.Post("/resolve", roomHandler.Resolve)
					r.Post("/suggest", assistHandler.Suggest)
				})
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
