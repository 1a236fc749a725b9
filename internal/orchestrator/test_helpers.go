// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"path/filepath"
	"testing"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/orchestrator/services"
	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/stretchr/testify/require"
)

// OrchestratorFixture represents an orchestrator setup with its event channel
type OrchestratorFixture struct {
	Orchestrator *Orchestrator
	EventChan    chan protocol.Event
	Config       *config.AppConfig
}

// WithOrchestrator builds an orchestrator around dispatcher, backed by a fresh
// sqlite audit database. Close runs on test cleanup.
func WithOrchestrator(t *testing.T, dispatcher services.Dispatcher) *OrchestratorFixture {
	t.Helper()
	cfg := &config.AppConfig{
		Database: config.DatabaseConfig{
			Enabled:  true,
			Driver:   "sqlite",
			Database: filepath.Join(t.TempDir(), "orchestrator-test.db"),
		},
	}
	eventChan := make(chan protocol.Event, 10)

	orch, err := NewWithDispatcher(eventChan, cfg, dispatcher, true)
	require.NoError(t, err, "Failed to create orchestrator")
	t.Cleanup(func() { orch.Close() })

	return &OrchestratorFixture{
		Orchestrator: orch,
		EventChan:    eventChan,
		Config:       cfg,
	}
}
