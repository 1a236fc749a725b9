// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"

	"github.com/noldarim/tsbridge/internal/dispatch"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"
)

// Dispatcher performs the Temporal call a descriptor asks for.
// *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Execute(ctx context.Context, d interaction.Descriptor) (dispatch.Outcome, error)
}

// AuditStore persists dispatch attempts. *DataService satisfies it.
type AuditStore interface {
	SaveInteraction(ctx context.Context, record *models.InteractionRecord) error
	ListInteractions(ctx context.Context, filter models.InteractionFilter) ([]*models.InteractionRecord, error)
}
