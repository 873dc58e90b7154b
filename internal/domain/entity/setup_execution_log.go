package entity

import (
	"time"
)

// ExecutionStatus represents the state of one step execution record
type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "PENDING"
	ExecutionStatusRunning ExecutionStatus = "RUNNING"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
	ExecutionStatusTimeout ExecutionStatus = "TIMEOUT"
	ExecutionStatusSkipped ExecutionStatus = "SKIPPED"
)

// SetupExecutionLog records the outcome of one setup step for one lab.
// The row is updated in place across retries; AttemptNumber tracks the
// attempt that produced the recorded state.
type SetupExecutionLog struct {
	ID              string          `gorm:"primaryKey" json:"id"`
	LabID           string          `gorm:"column:lab_instance_id;not null;index" json:"lab_id"`
	SetupStepID     string          `gorm:"column:setup_step_id;not null" json:"setup_step_id"`
	StepOrder       int             `gorm:"column:step_order;not null" json:"step_order"`
	StepTitle       string          `gorm:"column:step_title" json:"step_title"`
	Command         string          `gorm:"type:text" json:"command"`
	Status          ExecutionStatus `gorm:"type:varchar(20)" json:"status"`
	Output          string          `gorm:"type:text" json:"output"`
	ErrorMessage    string          `gorm:"column:error_message;type:text" json:"error_message"`
	ExitCode        *int            `gorm:"column:exit_code" json:"exit_code,omitempty"`
	ExecutionTimeMs int64           `gorm:"column:execution_time_ms" json:"execution_time_ms"`
	AttemptNumber   int             `gorm:"column:attempt_number;default:1" json:"attempt_number"`
	StartedAt       time.Time       `gorm:"column:started_at" json:"started_at"`
	CompletedAt     *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (SetupExecutionLog) TableName() string {
	return "setup_execution_logs"
}

// String implements the Stringer interface for ExecutionStatus
func (s ExecutionStatus) String() string {
	return string(s)
}
