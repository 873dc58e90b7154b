package entity

// SetupStep is one declarative unit of a template's setup procedure.
// Execution order within a template is ascending StepOrder, which is
// unique per template but not necessarily contiguous.
type SetupStep struct {
	ID                string `gorm:"primaryKey" json:"id"`
	TemplateID        string `gorm:"column:template_id;not null;uniqueIndex:idx_template_step_order" json:"template_id"`
	StepOrder         int    `gorm:"column:step_order;not null;uniqueIndex:idx_template_step_order" json:"step_order"`
	Title             string `gorm:"not null" json:"title"`
	Description       string `gorm:"type:text" json:"description"`
	SetupCommand      string `gorm:"column:setup_command;type:text;not null" json:"setup_command"`
	ExpectedExitCode  int    `gorm:"column:expected_exit_code;default:0" json:"expected_exit_code"`
	TimeoutSeconds    int    `gorm:"column:timeout_seconds;default:300" json:"timeout_seconds"`
	RetryCount        int    `gorm:"column:retry_count;default:1" json:"retry_count"`
	ContinueOnFailure bool   `gorm:"column:continue_on_failure;default:false" json:"continue_on_failure"`
	WorkingDirectory  string `gorm:"column:working_directory;default:'/'" json:"working_directory"`
}

// TableName specifies the table name for GORM
func (SetupStep) TableName() string {
	return "setup_steps"
}

// Attempts returns the number of execution attempts this step allows,
// treating anything below one as a single attempt.
func (s *SetupStep) Attempts() int {
	if s.RetryCount < 1 {
		return 1
	}
	return s.RetryCount
}
