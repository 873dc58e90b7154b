package entity

import (
	"fmt"
	"time"
)

// LabStatus represents the current status of a lab instance
type LabStatus string

const (
	LabStatusCreating LabStatus = "CREATING"
	LabStatusReady    LabStatus = "READY"
	LabStatusRunning  LabStatus = "RUNNING"
	LabStatusStopped  LabStatus = "STOPPED"
	LabStatusError    LabStatus = "ERROR"
	LabStatusExpired  LabStatus = "EXPIRED"
)

// SetupStatus represents the progress of a templated lab's setup pipeline
type SetupStatus string

const (
	SetupStatusInitializing SetupStatus = "INITIALIZING"
	SetupStatusSettingUp    SetupStatus = "SETTING_UP"
	SetupStatusReady        SetupStatus = "READY"
	SetupStatusFailed       SetupStatus = "FAILED"
)

// Lab represents one provisioned sandbox instance backed by a pod
type Lab struct {
	ID               string      `gorm:"primaryKey" json:"id"`
	OwnerID          string      `gorm:"column:owner_id;not null;index" json:"owner_id"`
	TemplateID       string      `gorm:"column:template_id;index" json:"template_id,omitempty"`
	LabType          string      `gorm:"column:lab_type" json:"lab_type"`
	Status           LabStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	SetupStatus      SetupStatus `gorm:"column:setup_status;type:varchar(20)" json:"setup_status"`
	CreatedAt        time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	SetupStartedAt   *time.Time  `gorm:"column:setup_started_at" json:"setup_started_at,omitempty"`
	SetupCompletedAt *time.Time  `gorm:"column:setup_completed_at" json:"setup_completed_at,omitempty"`
	ExpiresAt        time.Time   `gorm:"column:expires_at;index" json:"expires_at"`
	AccessURL        string      `gorm:"column:access_url" json:"access_url"`
	PodName          string      `gorm:"column:pod_name;index" json:"pod_name"`
	DurationSeconds  int         `gorm:"column:duration_seconds" json:"duration_seconds"`
}

// TableName specifies the table name for GORM
func (Lab) TableName() string {
	return "lab_instances"
}

// IsExpired checks if the lab has passed its expiry time
func (l *Lab) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// HasTemplate reports whether the lab was created from a template
func (l *Lab) HasTemplate() bool {
	return l.TemplateID != ""
}

// NewLabID derives a time-based unique lab ID from the owner
func NewLabID(ownerID string) string {
	return fmt.Sprintf("lab-%s-%d", ownerID, time.Now().UnixMilli())
}

// String implements the Stringer interface for LabStatus
func (s LabStatus) String() string {
	return string(s)
}

// String implements the Stringer interface for SetupStatus
func (s SetupStatus) String() string {
	return string(s)
}
