// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workflows holds the demo workflows that interaction tokens start,
// signal and query.
package workflows

import (
	"go.temporal.io/sdk/workflow"
)

// Registered workflow names; these are the values that travel under the Y key.
const (
	GreetingWorkflowName = "GreetingWorkflow"
	ApprovalWorkflowName = "ApprovalWorkflow"
)

// Activity names, registered by the worker.
const (
	GreetActivityName               = "GreetActivity"
	EchoActivityName                = "EchoActivity"
	PostApprovalRequestActivityName = "PostApprovalRequestActivity"
)

// Workflows carries the settings shared by every workflow run on a worker.
type Workflows struct {
	activityOptions workflow.ActivityOptions
}

// New creates the workflow set with the given activity options.
func New(activityOptions workflow.ActivityOptions) *Workflows {
	return &Workflows{activityOptions: activityOptions}
}

func (w *Workflows) withActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, w.activityOptions)
}
