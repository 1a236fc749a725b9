// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package utils

import (
	"time"

	"github.com/noldarim/tsbridge/internal/config"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// GetActivityOptions returns workflow.ActivityOptions from config
func GetActivityOptions(cfg *config.TemporalConfig) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout:    cfg.Activity.StartToCloseTimeout,
		ScheduleToCloseTimeout: cfg.Activity.ScheduleToCloseTimeout,
		HeartbeatTimeout:       cfg.Activity.HeartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    cfg.Activity.RetryPolicy.InitialInterval,
			BackoffCoefficient: cfg.Activity.RetryPolicy.BackoffCoefficient,
			MaximumInterval:    cfg.Activity.RetryPolicy.MaximumInterval,
			MaximumAttempts:    cfg.Activity.RetryPolicy.MaximumAttempts,
		},
	}
}

// DefaultActivityOptions is used by workflows started without explicit options,
// e.g. from a token that only names the workflow type.
func DefaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout:    30 * time.Second,
		ScheduleToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
}
