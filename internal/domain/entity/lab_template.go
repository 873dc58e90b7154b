package entity

import (
	"time"
)

// Difficulty represents the advertised difficulty level of a template
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

// LabTemplate is a reusable blueprint describing a base image and an
// ordered setup procedure
type LabTemplate struct {
	ID                    string     `gorm:"primaryKey" json:"id"`
	Name                  string     `gorm:"not null" json:"name"`
	Description           string     `gorm:"type:text" json:"description"`
	LabType               string     `gorm:"column:lab_type;not null" json:"lab_type"`
	BaseImage             string     `gorm:"column:base_image;not null" json:"base_image"`
	DurationMinutes       int        `gorm:"column:duration_minutes" json:"duration_minutes"`
	Difficulty            Difficulty `gorm:"type:varchar(20)" json:"difficulty"`
	TotalSetupTimeSeconds int        `gorm:"column:total_setup_time" json:"total_setup_time_seconds"`
	SuccessCriteria       string     `gorm:"column:success_criteria;type:text" json:"success_criteria"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CreatedBy             string     `gorm:"column:created_by" json:"created_by"`
	IsActive              bool       `gorm:"column:is_active;default:true" json:"is_active"`

	SetupSteps []SetupStep `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"setup_steps,omitempty"`
}

// TableName specifies the table name for GORM
func (LabTemplate) TableName() string {
	return "lab_templates"
}

// String implements the Stringer interface for Difficulty
func (d Difficulty) String() string {
	return string(d)
}
