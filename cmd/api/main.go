package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/api/handlers"
	"github.com/contractintel/backend/internal/audit"
	"github.com/contractintel/backend/internal/extraction"
	"github.com/contractintel/backend/internal/llm"
	"github.com/contractintel/backend/internal/metrics"
	"github.com/contractintel/backend/internal/pdf"
	"github.com/contractintel/backend/internal/rag"
	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/internal/webhook"
	"github.com/contractintel/backend/pkg/config"
	appLogger "github.com/contractintel/backend/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Contract Intelligence API Server")

	metrics.Init()

	store := memory.NewStore()
	extractor := pdf.NewExtractor(cfg.Upload.Dir)

	provider, err := newProvider(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create LLM provider", zap.Error(err))
	}

	extractionService := extraction.NewService(provider)
	auditService := audit.NewService(store, provider)
	ragService := rag.NewService(store, provider)

	dispatcher := webhook.NewDispatcher(cfg.Webhook.URL, time.Duration(cfg.Webhook.TimeoutSec)*time.Second)
	if !dispatcher.Configured() {
		appLogger.Warn("Webhook URL not configured; event delivery disabled")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	documentHandler := handlers.NewDocumentHandler(store, extractor)
	extractionHandler := handlers.NewExtractionHandler(store, extractionService)
	askHandler := handlers.NewAskHandler(store, ragService)
	auditHandler := handlers.NewAuditHandler(store, auditService)
	webhookHandler := handlers.NewWebhookHandler(dispatcher)
	adminHandler := handlers.NewAdminHandler(store)

	app.Post("/ingest", documentHandler.Ingest)
	app.Get("/documents", documentHandler.ListDocuments)

	app.Post("/extract", extractionHandler.ExtractFields)

	app.Post("/ask", askHandler.Ask)
	app.Get("/ask/stream", askHandler.AskStream)

	app.Post("/audit", auditHandler.Audit)
	app.Post("/audit/batch", auditHandler.BatchAudit)

	app.Post("/webhook/events", webhookHandler.TriggerEvent)

	app.Get("/healthz", adminHandler.Health)
	app.Get("/metrics", adminHandler.Metrics)
	app.Get("/metrics/prometheus", metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// newProvider selects the configured text-completion backend. A missing
// credential for the selected provider is fatal at startup.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "groq":
		return llm.NewGroqProvider(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel)
	case "gemini":
		return llm.NewGeminiProvider(context.Background(), cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.LLM.Provider)
	}
}
