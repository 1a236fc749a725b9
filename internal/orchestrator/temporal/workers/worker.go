// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/activities"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/utils"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/workflows"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetTemporalLogger().With().Str("component", "worker").Logger()
		log = &l
	})
	return log
}

// Registry is the registration surface shared by worker.Worker and the SDK
// test environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Worker represents a Temporal worker hosting the workflows that interaction
// tokens target.
type Worker struct {
	temporalClient     client.Client
	taskQueue          string
	worker             worker.Worker
	workflows          *workflows.Workflows
	greetingActivities *activities.GreetingActivities
	slackActivities    *activities.SlackActivities
	config             *config.AppConfig
	mu                 sync.Mutex
	stopped            bool
}

// NewWorker creates a new Temporal worker. poster may be nil when Slack is not
// configured.
func NewWorker(temporalClient client.Client, cfg *config.AppConfig, poster activities.PromptPoster) *Worker {
	return &Worker{
		temporalClient:     temporalClient,
		taskQueue:          cfg.Temporal.TaskQueue,
		workflows:          workflows.New(utils.GetActivityOptions(&cfg.Temporal)),
		greetingActivities: activities.NewGreetingActivities(),
		slackActivities:    activities.NewSlackActivities(poster),
		config:             cfg,
	}
}

// Start starts the worker
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	getLog().Info().Str("task_queue", w.taskQueue).Msg("Starting Temporal worker")

	if w.stopped {
		return fmt.Errorf("cannot restart a stopped worker - create a new worker instance")
	}

	if w.worker != nil {
		getLog().Info().Msg("Worker already started")
		return nil
	}

	// Worker inherits logger from the client
	workerOptions := worker.Options{
		MaxConcurrentActivityExecutionSize:      w.config.Temporal.Worker.MaxConcurrentActivityExecutions,
		MaxConcurrentWorkflowTaskExecutionSize:  w.config.Temporal.Worker.MaxConcurrentWorkflows,
		MaxConcurrentLocalActivityExecutionSize: w.config.Temporal.Worker.MaxConcurrentActivityExecutions,
		WorkerActivitiesPerSecond:               w.config.Temporal.Worker.ActivitiesPerSecond,
		WorkerLocalActivitiesPerSecond:          w.config.Temporal.Worker.ActivitiesPerSecond,
		TaskQueueActivitiesPerSecond:            w.config.Temporal.Worker.ActivitiesPerSecond,
		BackgroundActivityContext:               ctx,
	}

	w.worker = worker.New(w.temporalClient, w.taskQueue, workerOptions)
	w.Register(w.worker)

	// Capture worker reference to avoid race condition
	workerInstance := w.worker

	go func() {
		if err := workerInstance.Run(worker.InterruptCh()); err != nil {
			getLog().Error().Err(err).Msg("Worker stopped with error")
		}
	}()

	getLog().Info().Msg("Temporal worker started successfully")
	return nil
}

// Register registers every workflow and activity under its well-known name.
func (w *Worker) Register(r Registry) {
	r.RegisterWorkflowWithOptions(w.workflows.GreetingWorkflow, workflow.RegisterOptions{Name: workflows.GreetingWorkflowName})
	r.RegisterWorkflowWithOptions(w.workflows.ApprovalWorkflow, workflow.RegisterOptions{Name: workflows.ApprovalWorkflowName})

	r.RegisterActivityWithOptions(w.greetingActivities.GreetActivity, activity.RegisterOptions{Name: workflows.GreetActivityName})
	r.RegisterActivityWithOptions(w.greetingActivities.EchoActivity, activity.RegisterOptions{Name: workflows.EchoActivityName})
	r.RegisterActivityWithOptions(w.slackActivities.PostApprovalRequestActivity, activity.RegisterOptions{Name: workflows.PostApprovalRequestActivityName})

	getLog().Debug().
		Strs("workflows", w.GetRegisteredWorkflows()).
		Strs("activities", w.GetRegisteredActivities()).
		Msg("Registered workflows and activities")
}

// Stop stops the worker gracefully
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worker != nil {
		getLog().Info().Msg("Stopping Temporal worker gracefully...")

		w.worker.Stop()
		w.stopped = true
		w.worker = nil

		// Let in-flight activity completions reach the server
		time.Sleep(200 * time.Millisecond)

		getLog().Info().Msg("Temporal worker stopped")
	}
	return nil
}

// GetRegisteredActivities returns a list of registered activity names (for testing)
func (w *Worker) GetRegisteredActivities() []string {
	return []string{
		workflows.GreetActivityName,
		workflows.EchoActivityName,
		workflows.PostApprovalRequestActivityName,
	}
}

// GetRegisteredWorkflows returns a list of registered workflow names (for testing)
func (w *Worker) GetRegisteredWorkflows() []string {
	return []string{
		workflows.GreetingWorkflowName,
		workflows.ApprovalWorkflowName,
	}
}
