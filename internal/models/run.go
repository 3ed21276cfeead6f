package models

import "time"

// AnonymizationRun records a single invocation of the batch anonymizer
type AnonymizationRun struct {
	RunID             string    `json:"run_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	InputFile         string    `json:"input_file"`
	OutputFile        string    `json:"output_file,omitempty"` // Empty when written to stdout
	CacheFile         string    `json:"cache_file"`
	Status            RunStatus `json:"status"`
	MessagesProcessed int       `json:"messages_processed"`
	BytesRead         int64     `json:"bytes_read"`
	ErrorMessage      string    `json:"error_message,omitempty"` // Last error if failed
}

// RunStatus defines the execution state of a run
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// IsValidRunStatus checks if the run status is recognized
func IsValidRunStatus(s RunStatus) bool {
	switch s {
	case RunStatusPending, RunStatusInProgress, RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if state transition is valid
// Valid transitions:
//
//	pending -> in_progress | failed
//	in_progress -> completed | failed
//
// Completed and failed runs are terminal; a failed input is fixed and re-run as a new run.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	switch s {
	case RunStatusPending:
		return next == RunStatusInProgress || next == RunStatusFailed
	case RunStatusInProgress:
		return next == RunStatusCompleted || next == RunStatusFailed
	default:
		return false
	}
}
