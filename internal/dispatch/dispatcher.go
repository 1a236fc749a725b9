// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch turns an interaction descriptor into exactly one call
// against the Temporal workflow service.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/api/enums/v1"
	querypb "go.temporal.io/api/query/v1"
	taskqueuepb "go.temporal.io/api/taskqueue/v1"
	"go.temporal.io/api/workflowservice/v1"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/durationpb"
)

const tracerName = "github.com/noldarim/tsbridge/internal/dispatch"

var (
	dispatchLog     *zerolog.Logger
	dispatchLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	dispatchLogOnce.Do(func() {
		l := logger.GetInteractionLogger().With().Str("component", "dispatcher").Logger()
		dispatchLog = &l
	})
	return dispatchLog
}

// WorkflowService is the subset of the Temporal workflow service the
// dispatcher calls. workflowservice.WorkflowServiceClient satisfies it.
type WorkflowService interface {
	StartWorkflowExecution(ctx context.Context, in *workflowservice.StartWorkflowExecutionRequest, opts ...grpc.CallOption) (*workflowservice.StartWorkflowExecutionResponse, error)
	SignalWorkflowExecution(ctx context.Context, in *workflowservice.SignalWorkflowExecutionRequest, opts ...grpc.CallOption) (*workflowservice.SignalWorkflowExecutionResponse, error)
	QueryWorkflow(ctx context.Context, in *workflowservice.QueryWorkflowRequest, opts ...grpc.CallOption) (*workflowservice.QueryWorkflowResponse, error)
}

// Options tunes requests built by the Dispatcher.
type Options struct {
	// Identity is sent when the descriptor does not carry its own.
	Identity string
	// Workflow timeouts attached to started workflows; zero leaves the server default.
	ExecutionTimeout time.Duration
	RunTimeout       time.Duration
	TaskTimeout      time.Duration
}

// OptionsFromConfig builds Options from the temporal config section.
func OptionsFromConfig(cfg *config.TemporalConfig) Options {
	return Options{
		Identity:         cfg.Identity,
		ExecutionTimeout: cfg.Workflow.WorkflowExecutionTimeout,
		RunTimeout:       cfg.Workflow.WorkflowRunTimeout,
		TaskTimeout:      cfg.Workflow.WorkflowTaskTimeout,
	}
}

// Dispatcher executes descriptors. It holds no per-call state and is safe for
// concurrent use. It never retries, batches or deduplicates; the caller's
// context bounds every call.
type Dispatcher struct {
	svc    WorkflowService
	opts   Options
	tracer trace.Tracer
	newID  func() string
}

// NewDispatcher creates a Dispatcher over svc.
func NewDispatcher(svc WorkflowService, opts Options) *Dispatcher {
	return &Dispatcher{
		svc:    svc,
		opts:   opts,
		tracer: otel.Tracer(tracerName),
		newID:  uuid.NewString,
	}
}

// Execute performs the engine call d describes, addressed to d's own namespace.
func (d *Dispatcher) Execute(ctx context.Context, desc interaction.Descriptor) (Outcome, error) {
	if desc == nil {
		return nil, ErrNilDescriptor
	}

	ctx, span := d.tracer.Start(
		ctx,
		"tsbridge.dispatch."+strings.ToLower(string(desc.Variant())),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("temporal.namespace", desc.GetNamespace()),
			attribute.String("temporal.workflow_id", desc.GetWorkflowID()),
			attribute.String("tsbridge.variant", string(desc.Variant())),
		),
	)
	defer span.End()

	var (
		out Outcome
		err error
	)
	switch v := desc.(type) {
	case interaction.Execute:
		out, err = d.start(ctx, v)
	case interaction.Signal:
		out, err = d.signal(ctx, v)
	case interaction.Query:
		out, err = d.query(ctx, v)
	default:
		err = fmt.Errorf("unsupported descriptor %T", desc)
	}

	log := logger.WithSpan(ctx, *getLog())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		log.Warn().Err(err).
			Str("variant", string(desc.Variant())).
			Str("namespace", desc.GetNamespace()).
			Str("workflow_id", desc.GetWorkflowID()).
			Msg("Dispatch failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("tsbridge.outcome", string(out.Kind())))
	log.Info().
		Str("variant", string(desc.Variant())).
		Str("namespace", desc.GetNamespace()).
		Str("workflow_id", desc.GetWorkflowID()).
		Str("outcome", string(out.Kind())).
		Msg("Dispatched interaction")
	return out, nil
}

func (d *Dispatcher) start(ctx context.Context, e interaction.Execute) (Outcome, error) {
	input, err := toPayloads(e.Args)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow arguments: %w", err)
	}

	req := &workflowservice.StartWorkflowExecutionRequest{
		Namespace:    e.Namespace,
		WorkflowId:   e.WorkflowID,
		WorkflowType: &commonpb.WorkflowType{Name: e.WorkflowType},
		TaskQueue: &taskqueuepb.TaskQueue{
			Name: e.TaskQueue,
			Kind: enums.TASK_QUEUE_KIND_NORMAL,
		},
		Input:                    input,
		Identity:                 d.opts.Identity,
		RequestId:                d.newID(),
		WorkflowExecutionTimeout: optionalDuration(d.opts.ExecutionTimeout),
		WorkflowRunTimeout:       optionalDuration(d.opts.RunTimeout),
		WorkflowTaskTimeout:      optionalDuration(d.opts.TaskTimeout),
	}

	resp, err := d.svc.StartWorkflowExecution(ctx, req)
	if err != nil {
		return nil, &ExternalError{Op: "StartWorkflowExecution", Err: err}
	}
	return Started{RunID: resp.GetRunId()}, nil
}

func (d *Dispatcher) signal(ctx context.Context, s interaction.Signal) (Outcome, error) {
	input, err := toPayloads(s.Input)
	if err != nil {
		return nil, fmt.Errorf("invalid signal input: %w", err)
	}

	identity := s.Identity
	if identity == "" {
		identity = d.opts.Identity
	}
	requestID := s.RequestID
	if requestID == "" {
		requestID = d.newID()
	}

	req := &workflowservice.SignalWorkflowExecutionRequest{
		Namespace: s.Namespace,
		WorkflowExecution: &commonpb.WorkflowExecution{
			WorkflowId: s.WorkflowID,
			RunId:      s.RunID,
		},
		SignalName: s.SignalName,
		Input:      input,
		Identity:   identity,
		RequestId:  requestID,
		Control:    s.Control,
	}

	if _, err := d.svc.SignalWorkflowExecution(ctx, req); err != nil {
		return nil, &ExternalError{Op: "SignalWorkflowExecution", Err: err}
	}
	return Signaled{}, nil
}

func (d *Dispatcher) query(ctx context.Context, q interaction.Query) (Outcome, error) {
	args, err := toPayloads(q.QueryArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid query arguments: %w", err)
	}

	req := &workflowservice.QueryWorkflowRequest{
		Namespace: q.Namespace,
		Execution: &commonpb.WorkflowExecution{
			WorkflowId: q.WorkflowID,
			RunId:      q.RunID,
		},
		Query: &querypb.WorkflowQuery{
			QueryType: q.QueryType,
			QueryArgs: args,
		},
		QueryRejectCondition: enums.QUERY_REJECT_CONDITION_NONE,
	}

	resp, err := d.svc.QueryWorkflow(ctx, req)
	if err != nil {
		return nil, &ExternalError{Op: "QueryWorkflow", Err: err}
	}
	if rejected := resp.GetQueryRejected(); rejected != nil {
		return nil, &QueryRejectedError{
			WorkflowID: q.WorkflowID,
			RunID:      q.RunID,
			Status:     temporal.MapWorkflowExecutionStatus(rejected.GetStatus()),
		}
	}

	result, err := fromPayloads(resp.GetQueryResult())
	if err != nil {
		return nil, &ExternalError{Op: "QueryWorkflow", Err: err}
	}
	return Queried{Result: result}, nil
}

func optionalDuration(d time.Duration) *durationpb.Duration {
	if d <= 0 {
		return nil
	}
	return durationpb.New(d)
}
