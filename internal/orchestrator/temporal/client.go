// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package temporal

import (
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/rs/zerolog"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

// WorkflowStatus represents the current status of a workflow
type WorkflowStatus int

const (
	WorkflowStatusUnknown WorkflowStatus = iota
	WorkflowStatusRunning
	WorkflowStatusCompleted
	WorkflowStatusFailed
	WorkflowStatusCanceled
	WorkflowStatusTerminated
	WorkflowStatusContinuedAsNew
	WorkflowStatusTimedOut
)

// String returns the string representation of WorkflowStatus
func (s WorkflowStatus) String() string {
	switch s {
	case WorkflowStatusRunning:
		return "running"
	case WorkflowStatusCompleted:
		return "completed"
	case WorkflowStatusFailed:
		return "failed"
	case WorkflowStatusCanceled:
		return "canceled"
	case WorkflowStatusTerminated:
		return "terminated"
	case WorkflowStatusContinuedAsNew:
		return "continued_as_new"
	case WorkflowStatusTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// MapWorkflowExecutionStatus maps Temporal's WorkflowExecutionStatus to our WorkflowStatus type.
func MapWorkflowExecutionStatus(status enums.WorkflowExecutionStatus) WorkflowStatus {
	switch status {
	case enums.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return WorkflowStatusRunning
	case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return WorkflowStatusCompleted
	case enums.WORKFLOW_EXECUTION_STATUS_FAILED:
		return WorkflowStatusFailed
	case enums.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return WorkflowStatusCanceled
	case enums.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return WorkflowStatusTerminated
	case enums.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return WorkflowStatusContinuedAsNew
	case enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return WorkflowStatusTimedOut
	default:
		return WorkflowStatusUnknown
	}
}

var (
	temporalLog     *zerolog.Logger
	temporalLogOnce sync.Once
)

func getTemporalLog() *zerolog.Logger {
	temporalLogOnce.Do(func() {
		l := logger.GetTemporalLogger().With().Str("component", "client").Logger()
		temporalLog = &l
	})
	return temporalLog
}

// Client wraps the Temporal SDK client. Dispatch goes through WorkflowService so
// every request can name its own namespace; workers use the SDK client.
type Client struct {
	temporalClient client.Client
}

// ResolveHostPort returns the frontend address for role. When both
// <ROLE>_SERVICE_HOST and <ROLE>_SERVICE_PORT are set (role upper-cased, '-'
// replaced by '_') they win over fallback.
func ResolveHostPort(role, fallback string) string {
	return resolveHostPort(role, fallback, os.LookupEnv)
}

func resolveHostPort(role, fallback string, lookup func(string) (string, bool)) string {
	if role == "" {
		return fallback
	}
	prefix := strings.ToUpper(strings.ReplaceAll(role, "-", "_"))
	host, okHost := lookup(prefix + "_SERVICE_HOST")
	port, okPort := lookup(prefix + "_SERVICE_PORT")
	if !okHost || !okPort || host == "" || port == "" {
		return fallback
	}
	return net.JoinHostPort(host, port)
}

// NewClient dials Temporal using cfg.
func NewClient(cfg *config.TemporalConfig) (*Client, error) {
	hostPort := ResolveHostPort(cfg.ServiceRole, cfg.HostPort)

	options := client.Options{
		HostPort:  hostPort,
		Namespace: cfg.Namespace,
		Identity:  cfg.Identity,
		Logger:    logger.GetTemporalLogAdapter("temporal"),
	}

	temporalClient, err := client.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	getTemporalLog().Info().Msgf("Connected to Temporal at %s, namespace: %s", hostPort, cfg.Namespace)

	return &Client{temporalClient: temporalClient}, nil
}

// GetTemporalClient returns the underlying Temporal client
func (c *Client) GetTemporalClient() client.Client {
	return c.temporalClient
}

// WorkflowService exposes the raw gRPC workflow service.
func (c *Client) WorkflowService() workflowservice.WorkflowServiceClient {
	return c.temporalClient.WorkflowService()
}

// Close closes the Temporal client connection
func (c *Client) Close() error {
	if c.temporalClient != nil {
		c.temporalClient.Close()
		getTemporalLog().Info().Msg("Temporal client closed")
	}
	return nil
}
