// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/types"
	"go.temporal.io/sdk/workflow"
)

// ApprovalWorkflow posts approve/reject/status buttons to Slack and waits for
// the approval signal. The current state is served by the approval-status
// query throughout the run.
func (w *Workflows) ApprovalWorkflow(ctx workflow.Context, input types.ApprovalInput) (*types.ApprovalState, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting Approval workflow", "channel", input.ChannelID)

	state := &types.ApprovalState{Status: types.ApprovalPending}

	err := workflow.SetQueryHandler(ctx, types.ApprovalStatusQuery, func() (types.ApprovalState, error) {
		return *state, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register query handler: %w", err)
	}

	var posted types.PostApprovalRequestOutput
	err = workflow.ExecuteActivity(w.withActivityOptions(ctx), PostApprovalRequestActivityName, types.PostApprovalRequestInput{
		ChannelID: input.ChannelID,
		Prompt:    input.Prompt,
	}).Get(ctx, &posted)
	if err != nil {
		state.Status = types.ApprovalFailed
		return state, fmt.Errorf("failed to post approval request: %w", err)
	}
	state.MessageTS = posted.Timestamp

	var (
		decided  bool
		timedOut bool
	)
	selector := workflow.NewSelector(ctx)
	selector.AddReceive(workflow.GetSignalChannel(ctx, types.ApprovalSignalName), func(c workflow.ReceiveChannel, _ bool) {
		var raw json.RawMessage
		c.Receive(ctx, &raw)

		decision, err := parseDecision(raw)
		if err != nil {
			logger.Warn("Ignoring approval signal", "error", err)
			return
		}
		state.Status = types.ApprovalDecided
		state.Decision = decision.Decision
		state.DecidedBy = decision.DecidedBy
		decided = true
	})

	if input.Timeout > 0 {
		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		defer cancelTimer()
		selector.AddFuture(workflow.NewTimer(timerCtx, input.Timeout), func(workflow.Future) {
			timedOut = true
		})
	}

	for !decided && !timedOut {
		selector.Select(ctx)
	}

	if timedOut && !decided {
		state.Status = types.ApprovalExpired
		logger.Info("Approval expired", "timeout", input.Timeout)
		return state, nil
	}

	logger.Info("Approval decided", "decision", state.Decision, "decidedBy", state.DecidedBy)
	return state, nil
}

// parseDecision accepts either a bare JSON string ("approve") or an
// ApprovalDecision object.
func parseDecision(raw json.RawMessage) (types.ApprovalDecision, error) {
	var decision types.ApprovalDecision

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		decision.Decision = text
	} else if err := json.Unmarshal(raw, &decision); err != nil {
		return decision, fmt.Errorf("unrecognised payload %s", string(raw))
	}

	decision.Decision = strings.ToLower(strings.TrimSpace(decision.Decision))
	switch decision.Decision {
	case types.DecisionApprove, types.DecisionReject:
		return decision, nil
	default:
		return decision, fmt.Errorf("unknown decision %q", decision.Decision)
	}
}
