// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/noldarim/tsbridge/internal/dispatch"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"
	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const signalToken = "E:Signal,W:wf-123,N:default,T:tq1,R:run-9,S:approve-signal"

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Execute(ctx context.Context, d interaction.Descriptor) (dispatch.Outcome, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dispatch.Outcome), args.Error(1)
}

type failingStore struct{}

func (failingStore) SaveInteraction(context.Context, *models.InteractionRecord) error {
	return errors.New("disk full")
}

func (failingStore) ListInteractions(context.Context, models.InteractionFilter) ([]*models.InteractionRecord, error) {
	return nil, errors.New("disk full")
}

func newTestService(t *testing.T) (*InteractionService, *mockDispatcher, *DataService, chan protocol.Event) {
	t.Helper()
	d := new(mockDispatcher)
	ds := WithDataService(t).Service
	events := make(chan protocol.Event, 8)
	return NewInteractionService(d, ds, events), d, ds, events
}

func TestInteractionService_HandleSignal(t *testing.T) {
	ctx := context.Background()
	svc, d, ds, events := newTestService(t)

	args := []json.RawMessage{json.RawMessage(`"approve"`)}
	d.On("Execute", mock.Anything, mock.MatchedBy(func(desc interaction.Descriptor) bool {
		s, ok := desc.(interaction.Signal)
		return ok && s.WorkflowID == "wf-123" && s.SignalName == "approve-signal" &&
			len(s.Input) == 1 && string(s.Input[0]) == `"approve"`
	})).Return(dispatch.Signaled{}, nil).Once()

	result, err := svc.Handle(ctx, Request{
		Token:     signalToken,
		Args:      args,
		Source:    models.SourceSlack,
		UserID:    "U1",
		RequestID: "req-1",
	})
	require.NoError(t, err)
	assert.Equal(t, dispatch.Signaled{}, result.Outcome)
	require.NotEmpty(t, result.RecordID)

	record, err := ds.GetInteraction(ctx, result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSignaled, record.Outcome)
	assert.Equal(t, "Signal", record.Variant)
	assert.Equal(t, "default", record.Namespace)
	assert.Equal(t, "wf-123", record.WorkflowID)
	assert.Equal(t, "run-9", record.RunID)
	assert.Equal(t, "U1", record.UserID)
	require.Len(t, record.Args, 1)

	require.Len(t, events, 1)
	event, ok := (<-events).(protocol.InteractionDispatchedEvent)
	require.True(t, ok)
	assert.Equal(t, "signaled", event.Outcome)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, result.RecordID, event.IdempotencyKey)
	d.AssertExpectations(t)
}

func TestInteractionService_HandleSignalIdentity(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		identity string
	}{
		{"from user", "U1", "U1"},
		{"no user", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d, _, _ := newTestService(t)

			d.On("Execute", mock.Anything, mock.MatchedBy(func(desc interaction.Descriptor) bool {
				s, ok := desc.(interaction.Signal)
				return ok && s.Identity == tt.identity
			})).Return(dispatch.Signaled{}, nil).Once()

			_, err := svc.Handle(context.Background(), Request{
				Token:  signalToken,
				Source: models.SourceSlack,
				UserID: tt.userID,
			})
			require.NoError(t, err)
			d.AssertExpectations(t)
		})
	}
}

func TestInteractionService_HandleWithoutArgsKeepsDescriptor(t *testing.T) {
	svc, d, _, _ := newTestService(t)

	token := "E:Query,W:wf-1,N:ns,T:tq,Q:state,U:"
	d.On("Execute", mock.Anything, mock.MatchedBy(func(desc interaction.Descriptor) bool {
		q, ok := desc.(interaction.Query)
		return ok && q.QueryType == "state" && len(q.QueryArgs) == 0
	})).Return(dispatch.Queried{Result: []json.RawMessage{json.RawMessage(`"running"`)}}, nil).Once()

	result, err := svc.Handle(context.Background(), Request{Token: token, Source: models.SourceAPI})
	require.NoError(t, err)
	assert.Equal(t, interaction.VariantQuery, result.Descriptor.Variant())

	history, err := svc.History(context.Background(), models.InteractionFilter{WorkflowID: "wf-1"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OutcomeQueried, history[0].Outcome)
	require.Len(t, history[0].Result, 1)
	assert.JSONEq(t, `"running"`, string(history[0].Result[0]))
}

func TestInteractionService_HandleStartRecordsRunID(t *testing.T) {
	svc, d, ds, _ := newTestService(t)

	d.On("Execute", mock.Anything, mock.Anything).Return(dispatch.Started{RunID: "run-new"}, nil).Once()

	result, err := svc.Handle(context.Background(), Request{Token: "E:Execute,W:wf1,N:ns,T:tq,Y:Greet"})
	require.NoError(t, err)

	record, err := ds.GetInteraction(context.Background(), result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeStarted, record.Outcome)
	assert.Equal(t, "run-new", record.RunID)
}

func TestInteractionService_HandleDecodeError(t *testing.T) {
	svc, d, ds, events := newTestService(t)

	_, err := svc.Handle(context.Background(), Request{Token: "E:Signal,N:default,T:tq1"})
	require.Error(t, err)

	var decodeErr *interaction.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, interaction.KeyMissing, decodeErr.Kind)
	d.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)

	history, err := ds.ListInteractions(context.Background(), models.InteractionFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OutcomeRejected, history[0].Outcome)
	assert.NotEmpty(t, history[0].Error)

	failed, ok := (<-events).(protocol.InteractionFailedEvent)
	require.True(t, ok)
	assert.Equal(t, protocol.StageDecode, failed.Stage)
}

func TestInteractionService_HandleDispatchError(t *testing.T) {
	svc, d, ds, events := newTestService(t)

	external := &dispatch.ExternalError{Op: "SignalWorkflowExecution", Err: errors.New("unavailable")}
	d.On("Execute", mock.Anything, mock.Anything).Return(nil, external).Once()

	_, err := svc.Handle(context.Background(), Request{Token: signalToken})
	require.Error(t, err)
	assert.True(t, dispatch.IsExternal(err))

	history, err := ds.ListInteractions(context.Background(), models.InteractionFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OutcomeFailed, history[0].Outcome)
	assert.Equal(t, "wf-123", history[0].WorkflowID)

	failed, ok := (<-events).(protocol.InteractionFailedEvent)
	require.True(t, ok)
	assert.Equal(t, protocol.StageDispatch, failed.Stage)
	assert.Equal(t, "wf-123", failed.WorkflowID)
}

func TestInteractionService_AuditFailureDoesNotFailDispatch(t *testing.T) {
	d := new(mockDispatcher)
	svc := NewInteractionService(d, failingStore{}, nil)

	d.On("Execute", mock.Anything, mock.Anything).Return(dispatch.Signaled{}, nil).Once()

	result, err := svc.Handle(context.Background(), Request{Token: signalToken})
	require.NoError(t, err)
	assert.Empty(t, result.RecordID)
}

func TestInteractionService_PublishDoesNotBlock(t *testing.T) {
	d := new(mockDispatcher)
	events := make(chan protocol.Event) // unbuffered, nobody reading
	svc := NewInteractionService(d, nil, events)

	d.On("Execute", mock.Anything, mock.Anything).Return(dispatch.Signaled{}, nil).Once()

	_, err := svc.Handle(context.Background(), Request{Token: signalToken})
	require.NoError(t, err)
}

func TestInteractionService_HistoryDisabled(t *testing.T) {
	svc := NewInteractionService(new(mockDispatcher), nil, nil)

	_, err := svc.History(context.Background(), models.InteractionFilter{})
	assert.ErrorIs(t, err, ErrAuditDisabled)
}

func TestInteractionService_EncodeDecode(t *testing.T) {
	svc := NewInteractionService(new(mockDispatcher), nil, nil)

	token, err := svc.Encode(interaction.Execute{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf1", WorkflowType: "Greet"})
	require.NoError(t, err)
	assert.Equal(t, "E:Execute,W:wf1,N:ns,T:tq,Y:Greet", token)

	desc, err := svc.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "wf1", desc.GetWorkflowID())

	_, err = svc.Encode(interaction.Signal{Namespace: "ns", TaskQueue: "tq"})
	var verrs interaction.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.NotEmpty(t, verrs)

	_, err = svc.Encode(nil)
	assert.ErrorIs(t, err, dispatch.ErrNilDescriptor)
}
