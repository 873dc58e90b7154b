package db

import (
	"context"
	"time"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/pkg/errors"
	"gorm.io/gorm"
)

// LabRepository is the GORM implementation of the lab repository
type LabRepository struct {
	db *gorm.DB
}

// NewLabRepository creates a new lab repository using GORM
func NewLabRepository(db *gorm.DB) repository.LabRepository {
	return &LabRepository{
		db: db,
	}
}

// GetByID implements repository.LabRepository
func (r *LabRepository) GetByID(ctx context.Context, id string) (*entity.Lab, error) {
	var lab entity.Lab
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lab).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFound("Lab")
		}
		return nil, errors.NewDatabaseError("Failed to get lab by ID").WithError(err)
	}
	return &lab, nil
}

// GetByOwnerID implements repository.LabRepository
func (r *LabRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*entity.Lab, error) {
	var labs []*entity.Lab
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&labs).Error

	if err != nil {
		return nil, errors.NewDatabaseError("Failed to get labs by owner ID").WithError(err)
	}

	return labs, nil
}

// GetByPodName implements repository.LabRepository
func (r *LabRepository) GetByPodName(ctx context.Context, podName string) (*entity.Lab, error) {
	var lab entity.Lab
	err := r.db.WithContext(ctx).Where("pod_name = ?", podName).First(&lab).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFound("Lab")
		}
		return nil, errors.NewDatabaseError("Failed to get lab by pod name").WithError(err)
	}
	return &lab, nil
}

// FindExpired implements repository.LabRepository
func (r *LabRepository) FindExpired(ctx context.Context) ([]*entity.Lab, error) {
	var labs []*entity.Lab
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", entity.LabStatusRunning, time.Now()).
		Find(&labs).Error

	if err != nil {
		return nil, errors.NewDatabaseError("Failed to find expired labs").WithError(err)
	}

	return labs, nil
}

// Create implements repository.LabRepository
func (r *LabRepository) Create(ctx context.Context, lab *entity.Lab) (*entity.Lab, error) {
	err := r.db.WithContext(ctx).Create(lab).Error
	if err != nil {
		return nil, errors.NewDatabaseError("Failed to create lab").WithError(err)
	}

	return lab, nil
}

// Save implements repository.LabRepository. The write targets the existing
// row only: a pipeline or sweeper finishing against an already-deleted lab
// must not resurrect it, so a missing row makes the write a no-op.
func (r *LabRepository) Save(ctx context.Context, lab *entity.Lab) (*entity.Lab, error) {
	err := r.db.WithContext(ctx).
		Model(&entity.Lab{}).
		Where("id = ?", lab.ID).
		Select("*").
		Updates(lab).Error
	if err != nil {
		return nil, errors.NewDatabaseError("Failed to save lab").WithError(err)
	}

	return lab, nil
}

// Delete implements repository.LabRepository. Execution logs are removed in
// the same transaction so a lab never leaves orphaned log rows behind.
func (r *LabRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lab_instance_id = ?", id).Delete(&entity.SetupExecutionLog{}).Error; err != nil {
			return errors.NewDatabaseError("Failed to delete lab execution logs").WithError(err)
		}

		result := tx.Delete(&entity.Lab{}, "id = ?", id)
		if result.Error != nil {
			return errors.NewDatabaseError("Failed to delete lab").WithError(result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.NewNotFound("Lab")
		}
		return nil
	})
}

// Count implements repository.LabRepository
func (r *LabRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Lab{}).Count(&count).Error
	if err != nil {
		return 0, errors.NewDatabaseError("Failed to count labs").WithError(err)
	}

	return count, nil
}
