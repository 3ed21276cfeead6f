package models

import "time"

// UpdateRunStatus creates a new AnonymizationRun with updated status
// Pure function - returns new instance, does not mutate original
func UpdateRunStatus(run AnonymizationRun, status RunStatus) AnonymizationRun {
	run.Status = status
	run.UpdatedAt = time.Now()
	return run
}

// AddError creates a new AnonymizationRun with error message
// Pure function - returns new instance
func AddError(run AnonymizationRun, errorMsg string) AnonymizationRun {
	run.ErrorMessage = errorMsg
	run.Status = RunStatusFailed
	run.UpdatedAt = time.Now()
	return run
}

// UpdateRunMetrics creates a new AnonymizationRun with updated message/byte counts
// Pure function - returns new instance
func UpdateRunMetrics(run AnonymizationRun, messages int, bytesRead int64) AnonymizationRun {
	run.MessagesProcessed = messages
	run.BytesRead = bytesRead
	run.UpdatedAt = time.Now()
	return run
}
