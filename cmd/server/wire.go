//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parley/conversation-api/internal/config"
	agentdomain "parley/conversation-api/internal/domain/agent"
	conversationdomain "parley/conversation-api/internal/domain/conversation"
	documentdomain "parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/domain/event"
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
	agentrepo "parley/conversation-api/internal/infrastructure/repository/agent"
	conversationrepo "parley/conversation-api/internal/infrastructure/repository/conversation"
	documentrepo "parley/conversation-api/internal/infrastructure/repository/document"
	generationrepo "parley/conversation-api/internal/infrastructure/repository/generation"
	"parley/conversation-api/internal/infrastructure/web"
	"parley/conversation-api/internal/interfaces/httpserver"
	"parley/conversation-api/internal/interfaces/httpserver/handlers"
	"parley/conversation-api/internal/interfaces/realtime"
)

var repositorySet = wire.NewSet(
	conversationrepo.NewGormConversationRepository,
	wire.Bind(new(conversationdomain.Repository), new(*conversationrepo.GormConversationRepository)),
	conversationrepo.NewGormMessageRepository,
	wire.Bind(new(conversationdomain.MessageRepository), new(*conversationrepo.GormMessageRepository)),
	documentrepo.NewGormDocumentRepository,
	wire.Bind(new(documentdomain.Repository), new(*documentrepo.GormDocumentRepository)),
	agentrepo.NewGormAgentRepository,
	wire.Bind(new(agentdomain.Repository), new(*agentrepo.GormAgentRepository)),
	agentrepo.NewGormMemoryRepository,
	wire.Bind(new(agentdomain.MemoryRepository), new(*agentrepo.GormMemoryRepository)),
	generationrepo.NewGormGenerationRepository,
	wire.Bind(new(generation.Repository), new(*generationrepo.GormGenerationRepository)),
)

var domainSet = wire.NewSet(
	newCatalog,
	newRouter,
	newDispatcher,
	repair.NewRepairer,
	newOrchestrator,
	conversationdomain.NewService,
	wire.Bind(new(conversationdomain.Service), new(*conversationdomain.ServiceImpl)),
	generation.NewService,
	wire.Bind(new(generation.Service), new(*generation.ServiceImpl)),
	documentdomain.NewService,
	wire.Bind(new(documentdomain.Service), new(*documentdomain.ServiceImpl)),
	agentdomain.NewService,
	wire.Bind(new(agentdomain.Service), new(*agentdomain.ServiceImpl)),
)

// BuildApplication demonstrates how to assemble the conversation service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		repositorySet,
		domainSet,
		realtime.NewAuthorizer,
		realtime.NewHub,
		wire.Bind(new(event.Publisher), new(*realtime.Hub)),
		handlers.NewProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newCatalog(cfg *config.Config) *llm.Catalog {
	client := llmprovider.NewClient(cfg.AggregatorAPIURL, cfg.ProviderConnectTimeout, cfg.ProviderReadTimeout)
	return llm.NewCatalog(client, nil)
}

func newRouter(cfg *config.Config, catalog *llm.Catalog) *llm.Router {
	return llm.NewRouter(catalog, cfg.DirectAPIURL != "")
}

func newDispatcher(
	cfg *config.Config,
	catalog *llm.Catalog,
	agents agentdomain.Repository,
	memories agentdomain.MemoryRepository,
	documents documentdomain.Repository,
	conversations conversationdomain.Repository,
	hub *realtime.Hub,
) (*tool.Dispatcher, error) {
	return tool.NewDispatcher(cfg.ToolTimeout,
		tool.NewAgentTool(agents, catalog),
		tool.NewWebTool(web.NewClient(cfg.SearchAPIURL, cfg.WebToolTimeout)),
		tool.NewDocumentTool(documents, conversations, hub),
		tool.NewMemoryTool(memories),
	)
}

func newOrchestrator(
	cfg *config.Config,
	router *llm.Router,
	catalog *llm.Catalog,
	dispatcher *tool.Dispatcher,
	repairer *repair.Repairer,
	conversations conversationdomain.Repository,
	messages conversationdomain.MessageRepository,
	agents agentdomain.Repository,
	generations generation.Repository,
	hub *realtime.Hub,
) *generation.Orchestrator {
	aggregator := llmprovider.NewClient(cfg.AggregatorAPIURL, cfg.ProviderConnectTimeout, cfg.ProviderReadTimeout)
	var direct *llmprovider.Client
	if cfg.DirectAPIURL != "" {
		direct = llmprovider.NewClient(cfg.DirectAPIURL, cfg.ProviderConnectTimeout, cfg.ProviderReadTimeout)
	}
	return generation.NewOrchestrator(generation.OrchestratorParams{
		Router:        router,
		Catalog:       catalog,
		Providers:     llmprovider.NewSelector(aggregator, direct),
		Dispatcher:    dispatcher,
		Repairer:      repairer,
		Conversations: conversations,
		Messages:      messages,
		Agents:        agents,
		Generations:   generations,
		Billing:       billing.UnlimitedBiller{},
		Audit:         audit.NopAuditor{},
		Events:        hub,
		FlushInterval: cfg.StreamFlushInterval,
		MaxToolDepth:  cfg.MaxToolDepth,
		RetryPolicy:   retry.DefaultPolicy(),
	})
}
