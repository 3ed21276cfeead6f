package lib

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AnonError represents a user-friendly error with context and guidance
type AnonError struct {
	Category ErrorCategory
	Message  string   // Short description of what went wrong
	Cause    error    // Underlying error
	Guidance []string // What the user can do to fix it
}

// ErrorCategory classifies errors for better UX
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryValidation    ErrorCategory = "validation"
	CategoryCache         ErrorCategory = "cache"
	CategoryFileSystem    ErrorCategory = "filesystem"
	CategoryState         ErrorCategory = "state"
)

// Error implements the error interface
func (e *AnonError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] ", strings.ToUpper(string(e.Category))))
	sb.WriteString(e.Message)

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	return sb.String()
}

// UserMessage returns a formatted message suitable for displaying to end users
func (e *AnonError) UserMessage() string {
	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if len(e.Guidance) > 0 {
		sb.WriteString("\nHow to fix:\n")
		for i, guide := range e.Guidance {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, guide))
		}
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", e.Cause))
	}

	return sb.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility
func (e *AnonError) Unwrap() error {
	return e.Cause
}

// IsCategory reports whether err (or anything it wraps) is an AnonError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var anonErr *AnonError
	if errors.As(err, &anonErr) {
		return anonErr.Category == category
	}
	return false
}

// Configuration Errors

// ErrInvalidCoordinate creates an error for a malformed field coordinate such as "PID3.1"
func ErrInvalidCoordinate(key string) *AnonError {
	return &AnonError{
		Category: CategoryConfiguration,
		Message:  fmt.Sprintf("Invalid field coordinate %q", key),
		Guidance: []string{
			"Coordinates use the SEG-E.C form, for example MSH-3.1",
			"Elements and components count from 1; MSH-1 is the field separator and cannot be mapped",
			"Segment tags are three characters: two capital letters then a letter or digit",
		},
	}
}

// ErrInvalidGenerator creates an error for generator parameters that cannot produce valid output
func ErrInvalidGenerator(generator string, reason string) *AnonError {
	return &AnonError{
		Category: CategoryConfiguration,
		Message:  fmt.Sprintf("Invalid %s generator: %s", generator, reason),
		Guidance: []string{
			"Check the generator parameters in the field map",
		},
	}
}

// ErrInsignificantBallpark creates an error for a date shift too small to be unpredictable
func ErrInsignificantBallpark(days float64) *AnonError {
	return &AnonError{
		Category: CategoryConfiguration,
		Message:  fmt.Sprintf("Date shift ballpark of %.0f days is insignificant", days),
		Guidance: []string{
			"Use a day_shift of at least 1825 days (five years) in either direction",
			"Smaller shifts are guessable and therefore reversible",
		},
	}
}

// ErrInvalidConfig creates an error for configuration validation failures
func ErrInvalidConfig(field string, reason string) *AnonError {
	return &AnonError{
		Category: CategoryConfiguration,
		Message:  fmt.Sprintf("Invalid configuration: %s", reason),
		Guidance: []string{
			fmt.Sprintf("Check the '%s' field in your config file", field),
			"Compare with hl7anon.example.yaml for correct format",
		},
	}
}

// Validation Errors

// ErrUnparsableValue creates an error for a field value a generator cannot interpret
func ErrUnparsableValue(generator string, cause error) *AnonError {
	return &AnonError{
		Category: CategoryValidation,
		Message:  fmt.Sprintf("Field value not accepted by %s generator", generator),
		Cause:    cause,
		Guidance: []string{
			"Check the input for malformed timestamps in mapped fields",
			"Fix the input file and re-run; no partial output is kept",
		},
	}
}

// ErrInvalidMessage creates an error for raw text that is not an HL7 message
func ErrInvalidMessage(reason string) *AnonError {
	return &AnonError{
		Category: CategoryValidation,
		Message:  fmt.Sprintf("Invalid HL7 message: %s", reason),
		Guidance: []string{
			"Every message must start with an MSH, BHS or FHS segment",
			"Check that the input file is an HL7 v2 batch file",
		},
	}
}

// ErrInvalidStaticData creates an error for reference data that cannot be anonymized
func ErrInvalidStaticData(reason string) *AnonError {
	return &AnonError{
		Category: CategoryValidation,
		Message:  fmt.Sprintf("Invalid static data: %s", reason),
		Guidance: []string{
			"The file must hold a YAML sequence of records",
			"Every record must be a mapping with a 'type' key",
		},
	}
}

// Cache Errors

// ErrTermExists creates an error when a cached term would be overwritten without permission
func ErrTermExists(key string) *AnonError {
	return &AnonError{
		Category: CategoryCache,
		Message:  fmt.Sprintf("Term '%s' already assigned", key),
		Guidance: []string{
			"Pass --overwrite to replace the cached value",
			"Overwriting breaks consistency with previously anonymized output",
		},
	}
}

// ErrTermNotFound creates an error for a term missing from the cache
func ErrTermNotFound(key string) *AnonError {
	return &AnonError{
		Category: CategoryCache,
		Message:  fmt.Sprintf("Not Found: '%s'", key),
		Guidance: []string{
			"Check the term spelling; lookups are exact",
			"Use 'hl7anon term list' to see cached terms",
		},
	}
}

// ErrCacheLocked creates an error when another process holds the term cache
func ErrCacheLocked(path string) *AnonError {
	return &AnonError{
		Category: CategoryCache,
		Message:  fmt.Sprintf("Term cache %s is in use by another process", path),
		Guidance: []string{
			"Wait for the other anonymization run to finish",
			"Only one process may write a campaign cache at a time",
			fmt.Sprintf("If stuck, remove the lock file: %s.lock", path),
		},
	}
}

// ErrCacheCorrupted creates an error for an unreadable cache entry
func ErrCacheCorrupted(key string, cause error) *AnonError {
	return &AnonError{
		Category: CategoryCache,
		Message:  fmt.Sprintf("Cached value for '%s' cannot be decoded", key),
		Cause:    cause,
		Guidance: []string{
			"The cache may have been edited with an incompatible tool",
			"Delete the term with 'hl7anon term delete' and re-run",
		},
	}
}

// Filesystem Errors

// ErrFileNotFound creates an error for missing files or directories
func ErrFileNotFound(path string) *AnonError {
	return &AnonError{
		Category: CategoryFileSystem,
		Message:  fmt.Sprintf("File or directory not found: %s", path),
		Guidance: []string{
			"Check that the path is correct",
			"Ensure the file/directory exists",
			"Verify you have permission to access it",
		},
	}
}

// ErrFilePermissionDenied creates an error for permission issues
func ErrFilePermissionDenied(path string, cause error) *AnonError {
	return &AnonError{
		Category: CategoryFileSystem,
		Message:  fmt.Sprintf("Permission denied accessing: %s", path),
		Cause:    cause,
		Guidance: []string{
			"Check file/directory permissions",
			"Ensure your user has read/write access",
		},
	}
}

// State Errors

// ErrRunNotFound creates an error for missing run state
func ErrRunNotFound(runID string) *AnonError {
	return &AnonError{
		Category: CategoryState,
		Message:  fmt.Sprintf("Run '%s' not found", runID),
		Guidance: []string{
			"Check the run ID is correct",
			"Use 'hl7anon run list' to see recorded runs",
		},
	}
}

// ErrCorruptedRunState creates an error for invalid run state files
func ErrCorruptedRunState(runID string, cause error) *AnonError {
	return &AnonError{
		Category: CategoryState,
		Message:  fmt.Sprintf("Run state file for '%s' is corrupted", runID),
		Cause:    cause,
		Guidance: []string{
			"Check <runs_dir>/<run-id>/run.json for syntax errors",
			"The run record is informational; it can be deleted safely",
		},
	}
}

// Helper Functions

// WrapError wraps a standard error with AnonError context
func WrapError(category ErrorCategory, message string, cause error, guidance ...string) *AnonError {
	return &AnonError{
		Category: category,
		Message:  message,
		Cause:    cause,
		Guidance: guidance,
	}
}

// WrapFileError maps an os error on path to a filesystem AnonError
func WrapFileError(path string, err error) *AnonError {
	switch {
	case errors.Is(err, os.ErrNotExist):
		notFound := ErrFileNotFound(path)
		notFound.Cause = err
		return notFound
	case errors.Is(err, os.ErrPermission):
		return ErrFilePermissionDenied(path, err)
	default:
		return WrapError(CategoryFileSystem, fmt.Sprintf("Cannot access %s", path), err)
	}
}

// ClassifyError examines an error and returns appropriate user guidance
func ClassifyError(err error) *AnonError {
	if err == nil {
		return nil
	}

	var anonErr *AnonError
	if errors.As(err, &anonErr) {
		return anonErr
	}

	errMsg := err.Error()

	if containsIgnoreCase(errMsg, "no space left") || containsIgnoreCase(errMsg, "disk full") {
		return &AnonError{
			Category: CategoryFileSystem,
			Message:  "Insufficient disk space",
			Cause:    err,
			Guidance: []string{"Free up disk space", "Write output to a different location"},
		}
	}

	if containsIgnoreCase(errMsg, "permission denied") || containsIgnoreCase(errMsg, "access denied") {
		return &AnonError{
			Category: CategoryFileSystem,
			Message:  "Permission denied",
			Cause:    err,
			Guidance: []string{"Check file/directory permissions", "Ensure proper access rights"},
		}
	}

	return &AnonError{
		Category: CategoryValidation,
		Message:  "An error occurred",
		Cause:    err,
		Guidance: []string{"Check the technical details below", "See logs for more information"},
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
