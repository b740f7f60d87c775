package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"parley/conversation-api/internal/config"
	agentdomain "parley/conversation-api/internal/domain/agent"
	conversationdomain "parley/conversation-api/internal/domain/conversation"
	documentdomain "parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/domain/llm"
	"parley/conversation-api/internal/domain/repair"
	"parley/conversation-api/internal/domain/retry"
	"parley/conversation-api/internal/domain/tool"
	"parley/conversation-api/internal/infrastructure/audit"
	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/infrastructure/billing"
	"parley/conversation-api/internal/infrastructure/database"
	"parley/conversation-api/internal/infrastructure/llmprovider"
	"parley/conversation-api/internal/infrastructure/logger"
	"parley/conversation-api/internal/infrastructure/observability"
	agentrepo "parley/conversation-api/internal/infrastructure/repository/agent"
	conversationrepo "parley/conversation-api/internal/infrastructure/repository/conversation"
	documentrepo "parley/conversation-api/internal/infrastructure/repository/document"
	generationrepo "parley/conversation-api/internal/infrastructure/repository/generation"
	"parley/conversation-api/internal/infrastructure/web"
	"parley/conversation-api/internal/interfaces/httpserver"
	"parley/conversation-api/internal/interfaces/httpserver/handlers"
	"parley/conversation-api/internal/interfaces/realtime"
	"parley/conversation-api/internal/worker"
)

// @title Conversation API
// @version 1.0
// @description Real-time multi-agent conversation service with streaming generations, shared documents, and tool calling.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background provider calls (catalog refresh, generation streams)
	// authenticate with the service credential.
	if cfg.ProviderAPIKey != "" {
		ctx = llm.WithAuthToken(ctx, "Bearer "+cfg.ProviderAPIKey)
	}

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	// Repositories
	conversationRepository := conversationrepo.NewGormConversationRepository(db)
	messageRepository := conversationrepo.NewGormMessageRepository(db)
	documentRepository := documentrepo.NewGormDocumentRepository(db)
	agentRepository := agentrepo.NewGormAgentRepository(db)
	memoryRepository := agentrepo.NewGormMemoryRepository(db)
	generationRepository := generationrepo.NewGormGenerationRepository(db)

	// Realtime hub; it doubles as the event publisher for domain services.
	authorizer := realtime.NewAuthorizer(conversationRepository, messageRepository, documentRepository, agentRepository)
	hub := realtime.NewHub(authorizer)
	go hub.Run(ctx)

	// Provider clients and model routing
	aggregatorClient := llmprovider.NewClient(cfg.AggregatorAPIURL, cfg.ProviderConnectTimeout, cfg.ProviderReadTimeout)
	var directClient *llmprovider.Client
	if cfg.DirectAPIURL != "" {
		directClient = llmprovider.NewClient(cfg.DirectAPIURL, cfg.ProviderConnectTimeout, cfg.ProviderReadTimeout)
	}
	selector := llmprovider.NewSelector(aggregatorClient, directClient)
	catalog := llm.NewCatalog(aggregatorClient, nil)
	if err := catalog.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial model catalog refresh failed, continuing with empty catalog")
	}
	router := llm.NewRouter(catalog, directClient != nil)

	// Domain tools and dispatcher
	webClient := web.NewClient(cfg.SearchAPIURL, cfg.WebToolTimeout)
	dispatcher, err := tool.NewDispatcher(cfg.ToolTimeout,
		tool.NewAgentTool(agentRepository, catalog),
		tool.NewWebTool(webClient),
		tool.NewDocumentTool(documentRepository, conversationRepository, hub),
		tool.NewMemoryTool(memoryRepository),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build tool dispatcher")
	}

	repairer := repair.NewRepairer(dispatcher, messageRepository, hub)

	var biller generation.Biller = billing.UnlimitedBiller{}
	if cfg.BillingAPIURL != "" {
		biller = billing.NewClient(cfg.BillingAPIURL)
	}
	var auditor generation.Auditor = audit.NopAuditor{}
	if cfg.AuditAPIURL != "" {
		auditor = audit.NewClient(cfg.AuditAPIURL)
	}

	orchestrator := generation.NewOrchestrator(generation.OrchestratorParams{
		Router:        router,
		Catalog:       catalog,
		Providers:     selector,
		Dispatcher:    dispatcher,
		Repairer:      repairer,
		Conversations: conversationRepository,
		Messages:      messageRepository,
		Agents:        agentRepository,
		Generations:   generationRepository,
		Billing:       biller,
		Audit:         auditor,
		Events:        hub,
		FlushInterval: cfg.StreamFlushInterval,
		MaxToolDepth:  cfg.MaxToolDepth,
		RetryPolicy:   retry.DefaultPolicy(),
	})

	// Domain services
	conversationService := conversationdomain.NewService(conversationRepository, messageRepository, hub, log)
	generationService := generation.NewService(generationRepository, conversationRepository, messageRepository, agentRepository, orchestrator)
	documentService := documentdomain.NewService(documentRepository, conversationRepository, hub)
	agentService := agentdomain.NewService(agentRepository, memoryRepository)

	// Background generation workers
	workerPool := worker.NewPool(
		generationRepository,
		generationService,
		worker.Config{
			WorkerCount: cfg.GenerationWorkerCount,
			TaskTimeout: cfg.GenerationTaskTimeout,
		},
		log,
	)
	if err := workerPool.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start worker pool")
	}
	defer func() {
		log.Info().Msg("stopping worker pool")
		workerPool.Stop()
	}()

	handlerProvider := handlers.NewProvider(conversationService, generationService, documentService, agentService, hub, log)
	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
