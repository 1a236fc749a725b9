// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator assembles the long-lived parts of a tsbridge process:
// the Temporal connection, the dispatcher, the audit log, the interaction
// service and, optionally, the in-process demo worker.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/dispatch"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/services"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/activities"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/workers"
	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/rs/zerolog"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetLogger("orchestrator")
		log = &l
	})
	return log
}

// Options tune what New starts besides the dispatcher.
type Options struct {
	// Migrate runs the audit table migrations when the database is enabled.
	Migrate bool
	// RunWorker hosts the demo workflows in this process.
	RunWorker bool
	// Poster backs the approval workflow's prompt activity. May be nil.
	Poster activities.PromptPoster
}

// Orchestrator owns the components behind the API server.
type Orchestrator struct {
	eventChan      chan<- protocol.Event
	temporalClient *temporal.Client
	temporalWorker *workers.Worker
	dataService    *services.DataService
	interactions   *services.InteractionService
	config         *config.AppConfig
}

// New dials Temporal and builds the rest of the stack on top of it.
func New(ctx context.Context, eventChan chan<- protocol.Event, cfg *config.AppConfig, opts Options) (*Orchestrator, error) {
	temporalClient, err := temporal.NewClient(&cfg.Temporal)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}

	dispatcher := dispatch.NewDispatcher(temporalClient.WorkflowService(), dispatch.OptionsFromConfig(&cfg.Temporal))
	o, err := NewWithDispatcher(eventChan, cfg, dispatcher, opts.Migrate)
	if err != nil {
		temporalClient.Close()
		return nil, err
	}
	o.temporalClient = temporalClient

	if opts.RunWorker {
		o.temporalWorker = workers.NewWorker(temporalClient.GetTemporalClient(), cfg, opts.Poster)
		if err := o.temporalWorker.Start(ctx); err != nil {
			o.Close()
			return nil, fmt.Errorf("failed to start temporal worker: %w", err)
		}
	}

	return o, nil
}

// NewWithDispatcher builds the orchestrator around an existing dispatcher.
// It opens the audit database when cfg enables it.
func NewWithDispatcher(eventChan chan<- protocol.Event, cfg *config.AppConfig, dispatcher services.Dispatcher, migrate bool) (*Orchestrator, error) {
	o := &Orchestrator{eventChan: eventChan, config: cfg}

	// A nil interface, not a nil *DataService, disables auditing.
	var store services.AuditStore
	if cfg.Database.Enabled {
		dataService, err := services.NewDataService(cfg, migrate)
		if err != nil {
			return nil, err
		}
		o.dataService = dataService
		store = dataService
	} else {
		getLog().Info().Msg("Database disabled, interactions will not be audited")
	}

	o.interactions = services.NewInteractionService(dispatcher, store, eventChan)
	return o, nil
}

// InteractionService returns the service the API server dispatches through.
func (o *Orchestrator) InteractionService() *services.InteractionService {
	return o.interactions
}

// DataService returns the audit store, or nil when the database is disabled.
func (o *Orchestrator) DataService() *services.DataService {
	return o.dataService
}

// Worker returns the in-process worker, or nil when none was started.
func (o *Orchestrator) Worker() *workers.Worker {
	return o.temporalWorker
}

// --- Lifecycle ---

// Close stops the worker and releases every connection.
func (o *Orchestrator) Close() error {
	getLog().Info().Msg("Shutting down orchestrator...")
	var errs []error

	if o.temporalWorker != nil {
		if closeErr := o.temporalWorker.Stop(); closeErr != nil {
			getLog().Error().Err(closeErr).Msg("Error stopping temporal worker")
			errs = append(errs, closeErr)
		}
	}

	if o.temporalClient != nil {
		if closeErr := o.temporalClient.Close(); closeErr != nil {
			getLog().Error().Err(closeErr).Msg("Error closing temporal client")
			errs = append(errs, closeErr)
		}
	}

	if o.dataService != nil {
		if closeErr := o.dataService.Close(); closeErr != nil {
			getLog().Error().Err(closeErr).Msg("Error closing data service")
			errs = append(errs, closeErr)
		}
	}

	getLog().Info().Msg("Orchestrator shutdown complete")
	return errors.Join(errs...)
}
