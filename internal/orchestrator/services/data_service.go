// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/database"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"

	"github.com/rs/zerolog"
)

var (
	dataLog     *zerolog.Logger
	dataLogOnce sync.Once
)

func getDataLog() *zerolog.Logger {
	dataLogOnce.Do(func() {
		l := logger.GetDatabaseLogger().With().Str("component", "service").Logger()
		dataLog = &l
	})
	return dataLog
}

// DataService owns the interaction audit log.
type DataService struct {
	db *database.GormDB
}

// NewDataService opens the configured database and checks its schema.
// Migrations are run separately (tsbridgectl migrate) unless migrate is set.
func NewDataService(cfg *config.AppConfig, migrate bool) (*DataService, error) {
	getDataLog().Debug().Msg("Initializing data service")

	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		getDataLog().Error().Err(err).Msg("Failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if migrate {
		if err := db.AutoMigrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if err := db.ValidateSchema(); err != nil {
		getDataLog().Error().Err(err).Msg("Database schema validation failed")
		db.Close()
		return nil, fmt.Errorf("database schema validation failed: %w", err)
	}

	getDataLog().Info().Msg("Data service initialized successfully")
	return &DataService{db: db}, nil
}

// NewDataServiceWithDB wraps an already opened database.
func NewDataServiceWithDB(db *database.GormDB) *DataService {
	return &DataService{db: db}
}

// SaveInteraction stores one dispatch attempt.
func (ds *DataService) SaveInteraction(ctx context.Context, record *models.InteractionRecord) error {
	return ds.db.SaveInteraction(ctx, record)
}

// ListInteractions returns recent dispatch attempts, newest first.
func (ds *DataService) ListInteractions(ctx context.Context, filter models.InteractionFilter) ([]*models.InteractionRecord, error) {
	return ds.db.ListInteractions(ctx, filter)
}

// GetInteraction loads a single dispatch attempt.
func (ds *DataService) GetInteraction(ctx context.Context, id string) (*models.InteractionRecord, error) {
	return ds.db.GetInteraction(ctx, id)
}

// Close closes the underlying database.
func (ds *DataService) Close() error {
	return ds.db.Close()
}
