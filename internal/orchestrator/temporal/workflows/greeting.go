// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"fmt"

	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/types"
	"go.temporal.io/sdk/workflow"
)

// GreetingWorkflow greets input.Name on behalf of input.Team.
func (w *Workflows) GreetingWorkflow(ctx workflow.Context, input types.GreetingInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting Greeting workflow", "name", input.Name)

	var greeting string
	if err := workflow.ExecuteActivity(w.withActivityOptions(ctx), GreetActivityName, input).Get(ctx, &greeting); err != nil {
		return "", fmt.Errorf("greet activity failed: %w", err)
	}

	logger.Info("Greeting workflow completed", "greeting", greeting)
	return greeting, nil
}
