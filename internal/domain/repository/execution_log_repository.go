package repository

import (
	"context"

	"github.com/zerozero/labforge/internal/domain/entity"
)

// SetupExecutionLogRepository defines the interface for execution log data access
type SetupExecutionLogRepository interface {
	// Create persists a new execution log row
	Create(ctx context.Context, log *entity.SetupExecutionLog) (*entity.SetupExecutionLog, error)

	// Save upserts an execution log row keyed by ID
	Save(ctx context.Context, log *entity.SetupExecutionLog) (*entity.SetupExecutionLog, error)

	// ListByLabID retrieves a lab's execution logs in ascending step order
	ListByLabID(ctx context.Context, labID string) ([]*entity.SetupExecutionLog, error)

	// CountSuccessByLabID counts a lab's successful step executions
	CountSuccessByLabID(ctx context.Context, labID string) (int64, error)

	// DeleteByLabID removes all execution logs for a lab
	DeleteByLabID(ctx context.Context, labID string) error
}
