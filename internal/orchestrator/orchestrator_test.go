// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/dispatch"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"
	"github.com/noldarim/tsbridge/internal/orchestrator/services"
	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatcher struct {
	outcome dispatch.Outcome
}

func (s stubDispatcher) Execute(context.Context, interaction.Descriptor) (dispatch.Outcome, error) {
	return s.outcome, nil
}

func TestOrchestrator_DispatchIsAuditedAndPublished(t *testing.T) {
	fixture := WithOrchestrator(t, stubDispatcher{outcome: dispatch.Queried{Result: []json.RawMessage{json.RawMessage(`"pending"`)}}})
	ctx := context.Background()

	result, err := fixture.Orchestrator.InteractionService().Handle(ctx, services.Request{
		Token:  "E:Query,W:wf-1,N:default,T:tq1,R:,Q:status,U:",
		Source: models.SourceAPI,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RecordID)

	record, err := fixture.Orchestrator.DataService().GetInteraction(ctx, result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeQueried, record.Outcome)

	event, ok := (<-fixture.EventChan).(protocol.InteractionDispatchedEvent)
	require.True(t, ok)
	assert.Equal(t, "wf-1", event.WorkflowID)
}

func TestOrchestrator_DatabaseDisabled(t *testing.T) {
	orch, err := NewWithDispatcher(nil, &config.AppConfig{}, stubDispatcher{outcome: dispatch.Signaled{}}, false)
	require.NoError(t, err)
	defer orch.Close()

	assert.Nil(t, orch.DataService())
	assert.Nil(t, orch.Worker())

	_, err = orch.InteractionService().History(context.Background(), models.InteractionFilter{})
	assert.ErrorIs(t, err, services.ErrAuditDisabled)

	result, err := orch.InteractionService().Handle(context.Background(), services.Request{
		Token: "E:Signal,W:wf-123,N:default,T:tq1,R:run-9,S:approve-signal",
	})
	require.NoError(t, err)
	assert.Empty(t, result.RecordID)
}

func TestOrchestrator_UnmigratedDatabaseFails(t *testing.T) {
	cfg := &config.AppConfig{
		Database: config.DatabaseConfig{
			Enabled:  true,
			Driver:   "sqlite",
			Database: filepath.Join(t.TempDir(), "empty.db"),
		},
	}

	_, err := NewWithDispatcher(nil, cfg, stubDispatcher{}, false)
	assert.ErrorContains(t, err, "schema validation failed")
}

func TestOrchestrator_CloseIsSafeWithoutTemporal(t *testing.T) {
	fixture := WithOrchestrator(t, stubDispatcher{outcome: dispatch.Signaled{}})
	assert.NoError(t, fixture.Orchestrator.Close())
}
