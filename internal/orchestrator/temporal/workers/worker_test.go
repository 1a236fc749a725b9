// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package workers

import (
	"context"
	"testing"
	"time"

	"github.com/noldarim/tsbridge/internal/chat"
	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/types"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/workflows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

type mockPromptPoster struct {
	mock.Mock
}

func (m *mockPromptPoster) PostPrompt(ctx context.Context, channel, text string, buttons ...chat.Button) (chat.Posted, error) {
	args := m.Called(ctx, channel, text, buttons)
	return args.Get(0).(chat.Posted), args.Error(1)
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Temporal: config.TemporalConfig{
			TaskQueue: "tsbridge-test",
			Activity: config.ActivityOptions{
				StartToCloseTimeout: 10 * time.Second,
				RetryPolicy:         config.RetryPolicy{MaximumAttempts: 1},
			},
		},
	}
}

func TestWorker_RegisteredNames(t *testing.T) {
	w := NewWorker(nil, testConfig(), nil)

	assert.ElementsMatch(t, []string{workflows.GreetingWorkflowName, workflows.ApprovalWorkflowName}, w.GetRegisteredWorkflows())
	assert.Contains(t, w.GetRegisteredActivities(), workflows.PostApprovalRequestActivityName)
	assert.Len(t, w.GetRegisteredActivities(), 3)
}

func TestWorker_StopWithoutStart(t *testing.T) {
	w := NewWorker(nil, testConfig(), nil)
	assert.NoError(t, w.Stop())
}

func TestWorker_RegisterRunsGreeting(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	NewWorker(nil, testConfig(), nil).Register(env)

	env.ExecuteWorkflow(workflows.GreetingWorkflowName, types.GreetingInput{Name: "saxon", Team: "seceng"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var greeting string
	require.NoError(t, env.GetWorkflowResult(&greeting))
	assert.Equal(t, "Hello saxon, from team SECENG", greeting)
}

func TestWorker_RegisterRunsApproval(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	poster := new(mockPromptPoster)
	var posted []chat.Button
	poster.On("PostPrompt", mock.Anything, "C1", "Ship it?", mock.Anything).
		Run(func(args mock.Arguments) { posted = args.Get(3).([]chat.Button) }).
		Return(chat.Posted{ChannelID: "C1", Timestamp: "99.1"}, nil).Once()

	NewWorker(nil, testConfig(), poster).Register(env)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(types.ApprovalSignalName, types.DecisionApprove)
	}, time.Minute)

	env.ExecuteWorkflow(workflows.ApprovalWorkflowName, types.ApprovalInput{ChannelID: "C1", Prompt: "Ship it?"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var state types.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, types.ApprovalDecided, state.Status)
	assert.Equal(t, "99.1", state.MessageTS)

	require.Len(t, posted, 3)
	signal, ok := posted[0].Descriptor.(interaction.Signal)
	require.True(t, ok)
	assert.NotEmpty(t, signal.WorkflowID)
	assert.Equal(t, types.ApprovalSignalName, signal.SignalName)
	poster.AssertExpectations(t)
}

func TestWorker_ApprovalFailsWithoutSlack(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	NewWorker(nil, testConfig(), nil).Register(env)

	env.ExecuteWorkflow(workflows.ApprovalWorkflowName, types.ApprovalInput{ChannelID: "C1", Prompt: "Ship it?"})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Contains(t, env.GetWorkflowError().Error(), "slack is not configured")
}
