// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultListLimit caps ListInteractions when the filter sets no limit.
const DefaultListLimit = 50

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetDatabaseLogger()
		log = &l
	})
	return log
}

// ErrRecordNotFound is returned when a lookup matches no row.
var ErrRecordNotFound = errors.New("interaction record not found")

// GormDB wraps the GORM database connection
type GormDB struct {
	db *gorm.DB
}

// NewGormDB creates a new GORM database connection
func NewGormDB(cfg *config.DatabaseConfig) (*GormDB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent), // Reduce GORM log noise
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	getLog().Debug().Str("driver", cfg.Driver).Msg("Connected to database")
	return &GormDB{db: db}, nil
}

// AutoMigrate runs database migrations
func (db *GormDB) AutoMigrate() error {
	if err := db.db.AutoMigrate(&models.InteractionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate interaction records: %w", err)
	}
	return nil
}

// ValidateSchema checks if GORM models match the database schema
func (db *GormDB) ValidateSchema() error {
	if !db.db.Migrator().HasTable(&models.InteractionRecord{}) {
		return fmt.Errorf("missing tables: [interaction_records]\n\n💡 Run 'tsbridgectl migrate' to create the required tables")
	}

	var missingColumns []string
	columns := []string{"id", "token", "variant", "namespace", "workflow_id", "run_id", "args", "outcome", "result", "error", "source", "user_id", "created_at"}
	for _, col := range columns {
		if !db.db.Migrator().HasColumn(&models.InteractionRecord{}, col) {
			missingColumns = append(missingColumns, fmt.Sprintf("interaction_records.%s", col))
		}
	}

	if len(missingColumns) > 0 {
		return fmt.Errorf("missing columns: %v", missingColumns)
	}
	return nil
}

// Close closes the database connection
func (db *GormDB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveInteraction inserts a record, assigning an ID when none is set.
func (db *GormDB) SaveInteraction(ctx context.Context, record *models.InteractionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := db.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save interaction %s: %w", record.ID, err)
	}
	return nil
}

// GetInteraction retrieves a single record by ID.
func (db *GormDB) GetInteraction(ctx context.Context, id string) (*models.InteractionRecord, error) {
	var record models.InteractionRecord
	err := db.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListInteractions returns the newest records first.
func (db *GormDB) ListInteractions(ctx context.Context, filter models.InteractionFilter) ([]*models.InteractionRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := db.db.WithContext(ctx).Model(&models.InteractionRecord{})
	if filter.Namespace != "" {
		query = query.Where("namespace = ?", filter.Namespace)
	}
	if filter.WorkflowID != "" {
		query = query.Where("workflow_id = ?", filter.WorkflowID)
	}

	var records []*models.InteractionRecord
	if err := query.Order("created_at DESC").Order("id").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return records, nil
}
