// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/types"
	"go.temporal.io/sdk/activity"
)

// GreetingActivities are the side-effect free demo activities.
type GreetingActivities struct{}

// NewGreetingActivities creates a new instance
func NewGreetingActivities() *GreetingActivities {
	return &GreetingActivities{}
}

// GreetActivity builds the greeting for input.
func (a *GreetingActivities) GreetActivity(ctx context.Context, input types.GreetingInput) (string, error) {
	if input.Name == "" {
		return "", errors.New("name is required")
	}
	activity.GetLogger(ctx).Info("Greeting", "name", input.Name, "team", input.Team)
	return fmt.Sprintf("Hello %s, from team %s", input.Name, strings.ToUpper(input.Team)), nil
}

// EchoActivity returns its input unchanged. Useful for checking that a worker
// is polling a task queue.
func (a *GreetingActivities) EchoActivity(_ context.Context, input string) (string, error) {
	return input, nil
}
