// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/noldarim/tsbridge/internal/chat"
	"github.com/noldarim/tsbridge/internal/dispatch"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"
	"github.com/noldarim/tsbridge/internal/orchestrator/services"
)

// InteractionService is what the handlers need from
// *services.InteractionService.
type InteractionService interface {
	Handle(ctx context.Context, req services.Request) (*services.Result, error)
	Encode(d interaction.Descriptor) (string, error)
	DecodeToken(token string) (interaction.Descriptor, error)
	History(ctx context.Context, filter models.InteractionFilter) ([]*models.InteractionRecord, error)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	interactions    InteractionService
	dispatchTimeout time.Duration
}

// NewHandlers creates the handler set. A zero dispatchTimeout leaves the
// request context as is.
func NewHandlers(interactions InteractionService, dispatchTimeout time.Duration) *Handlers {
	return &Handlers{interactions: interactions, dispatchTimeout: dispatchTimeout}
}

// --- request / response bodies ---

// TokenRequest is the body of decode and dispatch calls.
type TokenRequest struct {
	Token string            `json:"token"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

// EncodeResponse is returned by the encode endpoint.
type EncodeResponse struct {
	Token string `json:"token"`
	// FitsActionID is false when the token is too long for a Slack action_id.
	FitsActionID bool `json:"fits_action_id"`
}

// DispatchResponse is returned by the dispatch endpoint.
type DispatchResponse struct {
	Descriptor interaction.DescriptorView `json:"descriptor"`
	Outcome    dispatch.OutcomeView       `json:"outcome"`
	RecordID   string                     `json:"record_id,omitempty"`
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["context"] = err.Error()
	}
	writeJSON(w, status, body)
}

// statusForError maps service errors onto HTTP status codes: descriptor
// problems are the caller's fault, engine problems are upstream failures.
func statusForError(err error) int {
	var (
		decodeErr   *interaction.DecodeError
		validation  interaction.ValidationErrors
		rejected    *dispatch.QueryRejectedError
		maxBytesErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &decodeErr), errors.As(err, &validation), errors.Is(err, dispatch.ErrNilDescriptor):
		return http.StatusBadRequest
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &rejected):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case dispatch.IsExternal(err):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrAuditDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handlers) dispatchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.dispatchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.dispatchTimeout)
}

// --- interaction API ---

// EncodeInteraction handles POST /api/v1/interactions/encode
func (h *Handlers) EncodeInteraction(w http.ResponseWriter, r *http.Request) {
	var view interaction.DescriptorView
	if err := decodeBody(r, &view); err != nil {
		writeError(w, statusForBodyError(err), "Invalid request body", err)
		return
	}

	desc, err := view.Descriptor()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid descriptor", err)
		return
	}

	token, err := h.interactions.Encode(desc)
	if err != nil {
		writeError(w, statusForError(err), "Descriptor failed validation", err)
		return
	}

	writeJSON(w, http.StatusOK, EncodeResponse{
		Token:        token,
		FitsActionID: chat.CheckToken(token) == nil,
	})
}

// DecodeInteraction handles POST /api/v1/interactions/decode
func (h *Handlers) DecodeInteraction(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, statusForBodyError(err), "Invalid request body", err)
		return
	}

	desc, err := h.interactions.DecodeToken(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to decode token", err)
		return
	}
	writeJSON(w, http.StatusOK, interaction.View(desc))
}

// DispatchInteraction handles POST /api/v1/interactions/dispatch
func (h *Handlers) DispatchInteraction(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, statusForBodyError(err), "Invalid request body", err)
		return
	}

	ctx, cancel := h.dispatchContext(r.Context())
	defer cancel()

	result, err := h.interactions.Handle(ctx, services.Request{
		Token:     req.Token,
		Args:      req.Args,
		Source:    models.SourceAPI,
		RequestID: GetRequestID(r.Context()),
	})
	if err != nil {
		writeError(w, statusForError(err), "Failed to dispatch interaction", err)
		return
	}

	writeJSON(w, http.StatusOK, DispatchResponse{
		Descriptor: interaction.View(result.Descriptor),
		Outcome:    dispatch.ViewOutcome(result.Outcome),
		RecordID:   result.RecordID,
	})
}

// ListInteractions handles GET /api/v1/interactions
func (h *Handlers) ListInteractions(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 500
	q := r.URL.Query()
	filter := models.InteractionFilter{
		Namespace:  q.Get("namespace"),
		WorkflowID: q.Get("workflow_id"),
	}
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			filter.Limit = min(parsed, maxLimit)
		}
	}

	records, err := h.interactions.History(r.Context(), filter)
	if err != nil {
		writeError(w, statusForError(err), "Failed to load interactions", err)
		return
	}
	if records == nil {
		records = []*models.InteractionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// --- Slack ---

// SlackInteractions handles POST /slack/interactions. Slack expects a 200
// within three seconds, so dispatch failures are logged rather than returned;
// only malformed payloads get a 400.
func (h *Handlers) SlackInteractions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, statusForBodyError(err), "Invalid form body", err)
		return
	}

	inbound, err := chat.ParseInteraction(r.PostForm.Get("payload"))
	if errors.Is(err, chat.ErrUnsupportedInteraction) {
		getLog().Debug().Err(err).Msg("Ignoring Slack interaction")
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interaction payload", err)
		return
	}

	ctx, cancel := h.dispatchContext(r.Context())
	defer cancel()

	for _, in := range inbound {
		_, err := h.interactions.Handle(ctx, services.Request{
			Token:     in.Token,
			Args:      in.Args,
			Source:    models.SourceSlack,
			UserID:    in.UserID,
			RequestID: GetRequestID(r.Context()),
		})
		if err != nil {
			getLog().Warn().Err(err).
				Str("user", in.UserID).
				Str("channel", in.ChannelID).
				Msg("Slack interaction failed")
		}
	}
	w.WriteHeader(http.StatusOK)
}

func statusForBodyError(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
