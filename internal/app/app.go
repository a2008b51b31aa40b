package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/handlers"
	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/pipeline"
	"github.com/calibrae/mercator/internal/services/charts"
	"github.com/calibrae/mercator/internal/services/chat"
	"github.com/calibrae/mercator/internal/services/gateway"
	"github.com/calibrae/mercator/internal/services/llm"
	"github.com/calibrae/mercator/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Gateway      *gateway.Gateway
	LLMFactory   *llm.Factory
	ChatService  *chat.Service
	Orchestrator *pipeline.Orchestrator

	AnalyzeHandler  *handlers.AnalyzeHandler
	ChatHandler     *handlers.ChatHandler
	StateHandler    *handlers.StateHandler
	DownloadHandler *handlers.DownloadHandler
	KeyHandler      *handlers.KeyHandler
	APIHandler      *handlers.APIHandler

	cron *cron.Cron
}

// New wires the full application from configuration.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	resolver := common.NewKeyResolver(storageManager.KeyValueStorage(), config)
	dataGateway := gateway.NewGateway(&config.Gateway, resolver, logger)
	llmFactory := llm.NewFactory(config, resolver, logger)
	chatService := chat.NewService(storageManager.ChatStorage(), llmFactory, logger)

	converter := pipeline.NewReportConverter(logger)
	renderer := charts.NewRenderer(logger)
	orchestrator := pipeline.NewOrchestrator(config, llmFactory, dataGateway, storageManager, converter, renderer, logger)

	a := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		Gateway:        dataGateway,
		LLMFactory:     llmFactory,
		ChatService:    chatService,
		Orchestrator:   orchestrator,

		AnalyzeHandler:  handlers.NewAnalyzeHandler(orchestrator, logger),
		ChatHandler:     handlers.NewChatHandler(chatService, logger),
		StateHandler:    handlers.NewStateHandler(storageManager.StateStorage(), storageManager.SegmentStorage(), logger),
		DownloadHandler: handlers.NewDownloadHandler(storageManager.StateStorage(), config.Reports.Dir, logger),
		KeyHandler:      handlers.NewKeyHandler(storageManager.KeyValueStorage(), logger),
		APIHandler:      handlers.NewAPIHandler(),

		cron: cron.New(),
	}

	if err := a.scheduleMaintenance(); err != nil {
		storageManager.Close()
		return nil, err
	}

	return a, nil
}

// scheduleMaintenance registers the periodic gateway cache sweep.
func (a *App) scheduleMaintenance() error {
	expr := a.Config.Gateway.CacheSweep
	if expr == "" {
		expr = "*/10 * * * *"
	}

	_, err := a.cron.AddFunc(expr, func() {
		removed := a.Gateway.Cache().Sweep()
		if removed > 0 {
			a.Logger.Debug().Int("removed", removed).Msg("Gateway cache swept")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cache sweep schedule %q: %w", expr, err)
	}

	a.cron.Start()
	return nil
}

// Close stops background jobs and releases storage.
func (a *App) Close() error {
	if a.cron != nil {
		a.cron.Stop()
	}
	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Storage close failed")
		return err
	}
	return nil
}

// RunOnce executes a single analysis without starting the HTTP server.
func (a *App) RunOnce(ctx context.Context, query, marketDomain, question string) error {
	result := a.Orchestrator.Run(ctx, query, marketDomain, question, "")
	if !result.Success {
		return fmt.Errorf("analysis failed: %s", result.Error)
	}

	a.Logger.Info().
		Str("state_id", result.StateID).
		Str("report", result.ReportDir).
		Msg("Analysis complete")
	return nil
}
