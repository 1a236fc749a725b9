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

	"github.com/noldarim/tsbridge/internal/chat"
	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/activities"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/workers"
	"github.com/noldarim/tsbridge/internal/tracing"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
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
	mainLog.Info().Str("task_queue", cfg.Temporal.TaskQueue).Msg("Starting tsbridge demo worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, &cfg.Tracing)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error setting up tracing")
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	temporalClient, err := temporal.NewClient(&cfg.Temporal)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error connecting to Temporal")
		os.Exit(1)
	}
	defer temporalClient.Close()

	// Without a bot token the approval workflow fails at its post step;
	// the greeting workflow still runs.
	var poster activities.PromptPoster
	if cfg.Slack.BotToken != "" {
		p, err := chat.NewPoster(&cfg.Slack)
		if err != nil {
			mainLog.Error().Err(err).Msg("Error creating Slack poster")
			os.Exit(1)
		}
		poster = p
	} else {
		mainLog.Warn().Msg("slack.bot_token is empty, approval prompts are disabled")
	}

	w := workers.NewWorker(temporalClient.GetTemporalClient(), cfg, poster)
	if err := w.Start(ctx); err != nil {
		mainLog.Error().Err(err).Msg("Error starting worker")
		os.Exit(1)
	}

	<-ctx.Done()
	mainLog.Info().Msg("Shutting down worker...")
	if err := w.Stop(); err != nil {
		mainLog.Error().Err(err).Msg("Error stopping worker")
	}
}
