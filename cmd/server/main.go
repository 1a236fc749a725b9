// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noldarim/tsbridge/internal/chat"
	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/activities"
	"github.com/noldarim/tsbridge/internal/protocol"
	"github.com/noldarim/tsbridge/internal/server"
	"github.com/noldarim/tsbridge/internal/tracing"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (searches ./config.yaml, ./config/, /etc/tsbridge/ when empty)")
	migrate := flag.Bool("migrate", false, "Run audit table migrations on startup")
	runWorker := flag.Bool("worker", false, "Also run the demo workflows in this process")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseGlobal()

	mainLog := logger.GetLogger("main")
	mainLog.Info().Msg("Starting tsbridge API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, &cfg.Tracing)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error setting up tracing")
		os.Exit(1)
	}

	var poster activities.PromptPoster
	if *runWorker && cfg.Slack.BotToken != "" {
		p, err := chat.NewPoster(&cfg.Slack)
		if err != nil {
			mainLog.Error().Err(err).Msg("Error creating Slack poster")
			os.Exit(1)
		}
		poster = p
	}

	eventChan := make(chan protocol.Event, 100)

	orch, err := orchestrator.New(ctx, eventChan, cfg, orchestrator.Options{
		Migrate:   *migrate,
		RunWorker: *runWorker,
		Poster:    poster,
	})
	if err != nil {
		mainLog.Error().Err(err).Msg("Error creating orchestrator")
		fmt.Fprintf(os.Stderr, "Error creating orchestrator: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(&cfg.Server, eventChan, orch.InteractionService())

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Run(ctx)
	}()

	// Wait for signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info().Msgf("Received signal %v, shutting down...", sig)
	case err := <-serverErrChan:
		if err != nil {
			mainLog.Error().Err(err).Msg("Server error")
		}
	}

	// Graceful shutdown: fresh context with timeout, independent of ctx.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down server")
	}
	// Now stop the orchestrator
	cancel()
	if err := orch.Close(); err != nil {
		mainLog.Error().Err(err).Msg("Error closing orchestrator")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error flushing traces")
	}

	mainLog.Info().Msg("API server shut down")
}
