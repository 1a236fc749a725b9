// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package types

import (
	"time"
)

// GreetingInput is the argument of GreetingWorkflow and GreetActivity.
type GreetingInput struct {
	Name string `json:"name"`
	Team string `json:"team"`
}

// ApprovalStatus is the lifecycle of an approval request
type ApprovalStatus string

const (
	ApprovalPending ApprovalStatus = "pending"
	ApprovalDecided ApprovalStatus = "decided"
	ApprovalExpired ApprovalStatus = "expired"
	ApprovalFailed  ApprovalStatus = "failed"
)

// Approval handler names, shared by the workflow and the buttons that target it
const (
	ApprovalSignalName  = "approval-signal"
	ApprovalStatusQuery = "approval-status"
)

// Accepted decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ApprovalInput represents the input for ApprovalWorkflow
type ApprovalInput struct {
	ChannelID string `json:"channel_id"` // Empty = slack.default_channel
	Prompt    string `json:"prompt"`
	// Timeout bounds the wait for a decision; zero waits forever.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// ApprovalState is returned by the approval-status query and as the workflow result
type ApprovalState struct {
	Status    ApprovalStatus `json:"status"`
	Decision  string         `json:"decision,omitempty"`
	DecidedBy string         `json:"decided_by,omitempty"`
	MessageTS string         `json:"message_ts,omitempty"`
}

// ApprovalDecision is the object form of the approval signal payload. A bare
// JSON string is accepted as well and is taken as the decision.
type ApprovalDecision struct {
	Decision  string `json:"decision"`
	DecidedBy string `json:"decided_by,omitempty"`
}

// PostApprovalRequestInput represents input for PostApprovalRequestActivity
type PostApprovalRequestInput struct {
	ChannelID string
	Prompt    string
}

// PostApprovalRequestOutput identifies the posted Slack message
type PostApprovalRequestOutput struct {
	ChannelID string
	Timestamp string
	// Tokens carried by the posted buttons, in button order
	Tokens []string
}
