package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/app"
	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/server"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")

	// One-shot mode: run a single analysis and exit instead of serving
	runDomain   = flag.String("domain", "", "Run one analysis for this market domain and exit")
	runQuery    = flag.String("query", "", "Query for one-shot analysis")
	runQuestion = flag.String("question", "", "Optional question for one-shot analysis")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Mercator version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	paths := []string{}
	if *configFile != "" {
		paths = append(paths, *configFile)
	} else if _, err := os.Stat("mercator.toml"); err == nil {
		paths = append(paths, "mercator.toml")
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	if *serverPort != 0 {
		config.Server.Port = *serverPort
	}
	if *serverHost != "" {
		config.Server.Host = *serverHost
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", paths).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if *runDomain != "" {
		runOnce(application, logger)
		return
	}

	srv := server.New(application)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
			os.Exit(1)
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}

func runOnce(application *app.App, logger arbor.ILogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := application.RunOnce(ctx, *runQuery, *runDomain, *runQuestion); err != nil {
		logger.Fatal().Err(err).Msg("Analysis failed")
		os.Exit(1)
	}
}
