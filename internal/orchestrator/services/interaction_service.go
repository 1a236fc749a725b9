// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/noldarim/tsbridge/internal/common"
	"github.com/noldarim/tsbridge/internal/dispatch"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"
	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/rs/zerolog"
)

var (
	interactionLog     *zerolog.Logger
	interactionLogOnce sync.Once
)

func getInteractionLog() *zerolog.Logger {
	interactionLogOnce.Do(func() {
		l := logger.GetInteractionLogger().With().Str("component", "service").Logger()
		interactionLog = &l
	})
	return interactionLog
}

// ErrAuditDisabled is returned by History when no audit store is configured.
var ErrAuditDisabled = errors.New("interaction audit log is disabled")

// Request is one inbound token plus the live arguments that came with it.
type Request struct {
	Token     string
	Args      []json.RawMessage
	Source    models.InteractionSource
	UserID    string
	RequestID string
}

// Result describes a dispatch Temporal accepted.
type Result struct {
	Descriptor interaction.Descriptor
	Outcome    dispatch.Outcome
	RecordID   string // empty when the audit log is disabled
}

// InteractionService ties the codec, the dispatcher, the audit log and the
// event channel together.
type InteractionService struct {
	dispatcher Dispatcher
	store      AuditStore
	eventChan  chan<- protocol.Event
}

// NewInteractionService creates the service. store and eventChan may be nil.
func NewInteractionService(dispatcher Dispatcher, store AuditStore, eventChan chan<- protocol.Event) *InteractionService {
	return &InteractionService{
		dispatcher: dispatcher,
		store:      store,
		eventChan:  eventChan,
	}
}

// Encode validates d and renders its token.
func (s *InteractionService) Encode(d interaction.Descriptor) (string, error) {
	if d == nil {
		return "", dispatch.ErrNilDescriptor
	}
	if err := interaction.Validate(d); err != nil {
		return "", err
	}
	return interaction.Encode(d), nil
}

// DecodeToken parses a token without dispatching it.
func (s *InteractionService) DecodeToken(token string) (interaction.Descriptor, error) {
	return interaction.Decode(token)
}

// Handle decodes req.Token, attaches req.Args (when any) and performs the
// Temporal call. A Signal with no identity is sent as req.UserID. Every
// attempt is audited and published, including tokens that fail to decode. A
// failed audit write is logged and does not fail the call.
func (s *InteractionService) Handle(ctx context.Context, req Request) (*Result, error) {
	log := logger.WithSpan(ctx, getInteractionLog().With().
		Str("source", string(req.Source)).
		Str("request_id", req.RequestID).
		Logger())

	record := &models.InteractionRecord{
		Token:  req.Token,
		Args:   models.JSONArgs(req.Args),
		Source: req.Source,
		UserID: req.UserID,
	}

	desc, err := interaction.Decode(req.Token)
	if err != nil {
		log.Warn().Err(err).Str("token", req.Token).Msg("Rejected interaction token")
		record.Outcome = models.OutcomeRejected
		record.Error = err.Error()
		s.audit(ctx, record)
		s.publish(protocol.InteractionFailedEvent{
			Metadata: common.NewMetadata(req.RequestID, record.ID),
			Token:    req.Token,
			Stage:    protocol.StageDecode,
			Error:    err.Error(),
			Source:   string(req.Source),
			UserID:   req.UserID,
		})
		return nil, err
	}

	if len(req.Args) > 0 {
		desc = interaction.WithArgs(desc, req.Args)
	}
	if sig, ok := desc.(interaction.Signal); ok && sig.Identity == "" && req.UserID != "" {
		sig.Identity = req.UserID
		desc = sig
	}

	record.Variant = string(desc.Variant())
	record.Namespace = desc.GetNamespace()
	record.WorkflowID = desc.GetWorkflowID()
	record.RunID = targetRunID(desc)

	outcome, err := s.dispatcher.Execute(ctx, desc)
	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Error = err.Error()
		s.audit(ctx, record)
		s.publish(protocol.InteractionFailedEvent{
			Metadata:   common.NewMetadata(req.RequestID, record.ID),
			Token:      req.Token,
			Stage:      protocol.StageDispatch,
			Namespace:  record.Namespace,
			WorkflowID: record.WorkflowID,
			Error:      err.Error(),
			Source:     string(req.Source),
			UserID:     req.UserID,
		})
		return nil, fmt.Errorf("failed to dispatch %s: %w", desc.Variant(), err)
	}

	view := dispatch.ViewOutcome(outcome)
	record.Outcome = models.InteractionOutcome(view.Kind)
	record.Result = models.JSONArgs(view.Result)
	if view.RunID != "" {
		record.RunID = view.RunID
	}
	s.audit(ctx, record)
	s.publish(protocol.InteractionDispatchedEvent{
		Metadata:   common.NewMetadata(req.RequestID, record.ID),
		Token:      req.Token,
		Variant:    record.Variant,
		Namespace:  record.Namespace,
		WorkflowID: record.WorkflowID,
		Outcome:    string(view.Kind),
		RunID:      record.RunID,
		Result:     view.Result,
		Source:     string(req.Source),
		UserID:     req.UserID,
	})

	log.Info().
		Str("variant", record.Variant).
		Str("workflow_id", record.WorkflowID).
		Str("outcome", string(view.Kind)).
		Msg("Interaction dispatched")

	return &Result{Descriptor: desc, Outcome: outcome, RecordID: record.ID}, nil
}

// History lists audited attempts, newest first.
func (s *InteractionService) History(ctx context.Context, filter models.InteractionFilter) ([]*models.InteractionRecord, error) {
	if s.store == nil {
		return nil, ErrAuditDisabled
	}
	return s.store.ListInteractions(ctx, filter)
}

func (s *InteractionService) audit(ctx context.Context, record *models.InteractionRecord) {
	if s.store == nil {
		return
	}
	// The Temporal call already happened; record it even if the caller is gone.
	if err := s.store.SaveInteraction(context.WithoutCancel(ctx), record); err != nil {
		getInteractionLog().Error().Err(err).Str("token", record.Token).Msg("Failed to save interaction record")
		record.ID = ""
	}
}

// publish never blocks; events are dropped when nobody drains the channel.
func (s *InteractionService) publish(event protocol.Event) {
	if s.eventChan == nil {
		return
	}
	select {
	case s.eventChan <- event:
	default:
		getInteractionLog().Warn().Str("type", protocol.EventType(event)).Msg("Event channel full, dropping event")
	}
}

func targetRunID(d interaction.Descriptor) string {
	switch v := d.(type) {
	case interaction.Signal:
		return v.RunID
	case interaction.Query:
		return v.RunID
	}
	return ""
}
