package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetupExecutionLogRepository is the GORM implementation of the execution log repository
type SetupExecutionLogRepository struct {
	db *gorm.DB
}

// NewSetupExecutionLogRepository creates a new execution log repository using GORM
func NewSetupExecutionLogRepository(db *gorm.DB) repository.SetupExecutionLogRepository {
	return &SetupExecutionLogRepository{
		db: db,
	}
}

// Create implements repository.SetupExecutionLogRepository
func (r *SetupExecutionLogRepository) Create(ctx context.Context, log *entity.SetupExecutionLog) (*entity.SetupExecutionLog, error) {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	err := r.db.WithContext(ctx).Create(log).Error
	if err != nil {
		return nil, errors.NewDatabaseError("Failed to create execution log").WithError(err)
	}

	return log, nil
}

// Save implements repository.SetupExecutionLogRepository. Retried steps
// overwrite their row in place, so writes are upserts keyed by ID.
func (r *SetupExecutionLogRepository) Save(ctx context.Context, log *entity.SetupExecutionLog) (*entity.SetupExecutionLog, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(log).Error
	if err != nil {
		return nil, errors.NewDatabaseError("Failed to save execution log").WithError(err)
	}

	return log, nil
}

// ListByLabID implements repository.SetupExecutionLogRepository
func (r *SetupExecutionLogRepository) ListByLabID(ctx context.Context, labID string) ([]*entity.SetupExecutionLog, error) {
	var logs []*entity.SetupExecutionLog
	err := r.db.WithContext(ctx).
		Where("lab_instance_id = ?", labID).
		Order("step_order ASC").
		Find(&logs).Error

	if err != nil {
		return nil, errors.NewDatabaseError("Failed to list execution logs").WithError(err)
	}

	return logs, nil
}

// CountSuccessByLabID implements repository.SetupExecutionLogRepository
func (r *SetupExecutionLogRepository) CountSuccessByLabID(ctx context.Context, labID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.SetupExecutionLog{}).
		Where("lab_instance_id = ? AND status = ?", labID, entity.ExecutionStatusSuccess).
		Count(&count).Error

	if err != nil {
		return 0, errors.NewDatabaseError("Failed to count successful executions").WithError(err)
	}

	return count, nil
}

// DeleteByLabID implements repository.SetupExecutionLogRepository
func (r *SetupExecutionLogRepository) DeleteByLabID(ctx context.Context, labID string) error {
	err := r.db.WithContext(ctx).
		Where("lab_instance_id = ?", labID).
		Delete(&entity.SetupExecutionLog{}).Error

	if err != nil {
		return errors.NewDatabaseError("Failed to delete execution logs").WithError(err)
	}

	return nil
}
