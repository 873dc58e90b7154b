package repository

import (
	"context"

	"github.com/zerozero/labforge/internal/domain/entity"
)

// LabRepository defines the interface for lab instance data access
type LabRepository interface {
	// GetByID retrieves a lab by its ID
	GetByID(ctx context.Context, id string) (*entity.Lab, error)

	// GetByOwnerID retrieves all labs for an owner, newest first
	GetByOwnerID(ctx context.Context, ownerID string) ([]*entity.Lab, error)

	// GetByPodName retrieves the lab backed by the named pod
	GetByPodName(ctx context.Context, podName string) (*entity.Lab, error)

	// FindExpired retrieves running labs whose expiry time has passed
	FindExpired(ctx context.Context) ([]*entity.Lab, error)

	// Create persists a new lab
	Create(ctx context.Context, lab *entity.Lab) (*entity.Lab, error)

	// Save upserts a lab keyed by ID
	Save(ctx context.Context, lab *entity.Lab) (*entity.Lab, error)

	// Delete removes a lab and its execution logs
	Delete(ctx context.Context, id string) error

	// Count counts total labs
	Count(ctx context.Context) (int64, error)
}
