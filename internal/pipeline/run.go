package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/trobanga/hl7anon/internal/anonymize"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/models"
	"github.com/trobanga/hl7anon/internal/services"
)

// CreateRun initializes and records a new pending run
func CreateRun(config *models.ProjectConfig, inputFile, outputFile string) (*models.AnonymizationRun, error) {
	now := time.Now()
	run := &models.AnonymizationRun{
		RunID:      uuid.New().String(),
		CreatedAt:  now,
		UpdatedAt:  now,
		InputFile:  inputFile,
		OutputFile: outputFile,
		CacheFile:  config.CacheFile,
		Status:     models.RunStatusPending,
	}

	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create valid run: %w", err)
	}

	if err := models.ValidateRunsDir(config.RunsDir); err != nil {
		return nil, lib.WrapError(lib.CategoryFileSystem, "Runs directory is not usable", err,
			"Check runs_dir in the configuration")
	}

	if err := services.SaveRunState(config.RunsDir, run); err != nil {
		return nil, fmt.Errorf("failed to save initial run state: %w", err)
	}

	return run, nil
}

// LoadRun loads an existing run from disk
func LoadRun(runsDir string, runID string) (*models.AnonymizationRun, error) {
	return services.LoadRunState(runsDir, runID)
}

// UpdateRun writes run state to disk
func UpdateRun(runsDir string, run *models.AnonymizationRun) error {
	run.UpdatedAt = time.Now()
	return services.SaveRunState(runsDir, run)
}

// StartRun transitions a pending run to in_progress
func StartRun(run *models.AnonymizationRun) (*models.AnonymizationRun, error) {
	return transition(run, models.RunStatusInProgress)
}

// CompleteRun records the final counts and marks the run completed
func CompleteRun(run *models.AnonymizationRun, result FileResult) (*models.AnonymizationRun, error) {
	counted := models.UpdateRunMetrics(*run, result.Messages, result.BytesRead)
	return transition(&counted, models.RunStatusCompleted)
}

// FailRun marks run as failed with error message, keeping the partial counts
func FailRun(run *models.AnonymizationRun, result FileResult, errorMsg string) (*models.AnonymizationRun, error) {
	if !run.Status.CanTransitionTo(models.RunStatusFailed) {
		return nil, invalidTransition(run, models.RunStatusFailed)
	}
	counted := models.UpdateRunMetrics(*run, result.Messages, result.BytesRead)
	failed := models.AddError(counted, errorMsg)
	return &failed, nil
}

func transition(run *models.AnonymizationRun, next models.RunStatus) (*models.AnonymizationRun, error) {
	if !run.Status.CanTransitionTo(next) {
		return nil, invalidTransition(run, next)
	}
	updated := models.UpdateRunStatus(*run, next)
	return &updated, nil
}

func invalidTransition(run *models.AnonymizationRun, next models.RunStatus) error {
	return lib.WrapError(lib.CategoryState,
		fmt.Sprintf("Run %s cannot move from %s to %s", run.RunID, run.Status, next), nil)
}

// GetRunSummary returns a human-readable summary of the run
func GetRunSummary(run *models.AnonymizationRun) string {
	duration := run.UpdatedAt.Sub(run.CreatedAt)

	output := run.OutputFile
	if output == "" {
		output = "<stdout>"
	}

	summary := fmt.Sprintf("Run %s\n", run.RunID)
	summary += fmt.Sprintf("Status: %s\n", run.Status)
	summary += fmt.Sprintf("Input: %s\n", run.InputFile)
	summary += fmt.Sprintf("Output: %s\n", output)
	summary += fmt.Sprintf("Messages: %d\n", run.MessagesProcessed)
	summary += fmt.Sprintf("Duration: %v\n", duration.Round(time.Millisecond))

	if run.ErrorMessage != "" {
		summary += fmt.Sprintf("Error: %s\n", run.ErrorMessage)
	}

	return summary
}

// Runner executes anonymization runs against one open term store
type Runner struct {
	config      *models.ProjectConfig
	transformer *anonymize.Transformer
	logger      *lib.Logger
}

// NewRunner builds the MBDS transformer over store
// Generator configuration problems are reported here, before any input is read
func NewRunner(config *models.ProjectConfig, store anonymize.Store, logger *lib.Logger) (*Runner, error) {
	resolver := anonymize.NewResolver(store, logger)
	fields, err := anonymize.NewMBDSFieldMap(resolver, config)
	if err != nil {
		return nil, err
	}
	return &Runner{
		config:      config,
		transformer: anonymize.NewTransformer(fields, resolver, logger),
		logger:      logger,
	}, nil
}

// Run anonymizes inputFile into outputFile (stdout when empty) as a recorded run
// The returned run reflects the final state, also when err is set.
func (r *Runner) Run(inputFile, outputFile string, stdout io.Writer, progress ProgressFunc) (*models.AnonymizationRun, error) {
	run, err := CreateRun(r.config, inputFile, outputFile)
	if err != nil {
		return nil, err
	}

	if run, err = StartRun(run); err != nil {
		return nil, err
	}
	if err := UpdateRun(r.config.RunsDir, run); err != nil {
		return run, err
	}
	lib.LogRunStarted(r.logger, run.RunID, inputFile)

	start := time.Now()
	result, runErr := AnonymizeFile(inputFile, outputFile, r.transformer, stdout, progress)
	if runErr != nil {
		lib.LogRunFailed(r.logger, run.RunID, result.Messages, runErr)
		failed, err := FailRun(run, result, runErr.Error())
		if err != nil {
			return run, err
		}
		if err := UpdateRun(r.config.RunsDir, failed); err != nil {
			r.logger.Warn("Failed to record run failure", "run_id", run.RunID, "error", err)
		}
		return failed, runErr
	}

	completed, err := CompleteRun(run, result)
	if err != nil {
		return run, err
	}
	if err := UpdateRun(r.config.RunsDir, completed); err != nil {
		return completed, err
	}
	lib.LogRunCompleted(r.logger, completed.RunID, result.Messages, result.BytesRead, time.Since(start))

	return completed, nil
}
