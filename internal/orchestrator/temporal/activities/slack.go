// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package activities

import (
	"context"
	"errors"
	"fmt"

	"github.com/noldarim/tsbridge/internal/chat"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/types"
	"github.com/slack-go/slack"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// PromptPoster posts a prompt with token buttons. *chat.Poster implements it.
type PromptPoster interface {
	PostPrompt(ctx context.Context, channel, text string, buttons ...chat.Button) (chat.Posted, error)
}

// SlackActivities post interaction buttons that point back at the calling workflow.
type SlackActivities struct {
	poster PromptPoster
}

// NewSlackActivities creates a new instance. poster may be nil when Slack is
// not configured; the activity then fails without retrying.
func NewSlackActivities(poster PromptPoster) *SlackActivities {
	return &SlackActivities{poster: poster}
}

// ApprovalButtons returns the approve, reject and status buttons for the
// workflow execution described by info.
func ApprovalButtons(info activity.Info) []chat.Button {
	signal := interaction.Signal{
		Namespace:  info.WorkflowNamespace,
		TaskQueue:  info.TaskQueue,
		WorkflowID: info.WorkflowExecution.ID,
		RunID:      info.WorkflowExecution.RunID,
		SignalName: types.ApprovalSignalName,
	}
	status := interaction.Query{
		Namespace:  info.WorkflowNamespace,
		TaskQueue:  info.TaskQueue,
		WorkflowID: info.WorkflowExecution.ID,
		RunID:      info.WorkflowExecution.RunID,
		QueryType:  types.ApprovalStatusQuery,
	}

	return []chat.Button{
		{Label: "Approve", Value: types.DecisionApprove, Style: slack.StylePrimary, Descriptor: signal},
		{Label: "Reject", Value: types.DecisionReject, Style: slack.StyleDanger, Descriptor: signal},
		{Label: "Status", Descriptor: status},
	}
}

// PostApprovalRequestActivity posts the approval prompt for the calling workflow.
func (a *SlackActivities) PostApprovalRequestActivity(ctx context.Context, input types.PostApprovalRequestInput) (*types.PostApprovalRequestOutput, error) {
	if a.poster == nil {
		return nil, temporal.NewNonRetryableApplicationError("slack is not configured", "SlackNotConfigured", nil)
	}

	buttons := ApprovalButtons(activity.GetInfo(ctx))
	tokens := make([]string, 0, len(buttons))
	for _, b := range buttons {
		tokens = append(tokens, interaction.Encode(b.Descriptor))
	}

	posted, err := a.poster.PostPrompt(ctx, input.ChannelID, input.Prompt, buttons...)
	if err != nil {
		if errors.Is(err, chat.ErrTokenTooLong) || errors.Is(err, chat.ErrNoChannel) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidPrompt", err)
		}
		return nil, fmt.Errorf("failed to post approval request: %w", err)
	}

	activity.GetLogger(ctx).Info("Posted approval request", "channel", posted.ChannelID, "ts", posted.Timestamp)
	return &types.PostApprovalRequestOutput{
		ChannelID: posted.ChannelID,
		Timestamp: posted.Timestamp,
		Tokens:    tokens,
	}, nil
}
