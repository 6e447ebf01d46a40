// Package errors provides structured error handling for amansearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (registration, options, config files)
//   - 2XX: Storage errors (index locations, stored data)
//   - 4XX: Validation errors (queries, criteria)
//   - 5XX: Internal and engine errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates index storage errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal or engine errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the index or schema is in a state the caller must act on.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeUnknownName      = "ERR_103_UNKNOWN_NAME"
	ErrCodeDuplicateName    = "ERR_104_DUPLICATE_NAME"
	ErrCodeUnknownAnalyzer  = "ERR_105_UNKNOWN_ANALYZER"
	ErrCodeUnknownValueType = "ERR_106_UNKNOWN_VALUE_TYPE"

	// Storage errors (200-299)
	ErrCodeIndexNotFound = "ERR_207_INDEX_NOT_FOUND"
	ErrCodeResultCorrupt = "ERR_208_RESULT_CORRUPT"
	ErrCodeDirectorySync = "ERR_209_DIRECTORY_SYNC"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidQuery    = "ERR_403_INVALID_QUERY"
	ErrCodeInvalidCriteria = "ERR_407_INVALID_CRITERIA"
	ErrCodeCriteriaFrozen  = "ERR_408_CRITERIA_FROZEN"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "ERR_207_..." -> '2'
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeResultCorrupt:
		return SeverityFatal
	case ErrCodeDirectorySync:
		return SeverityWarning
	default:
		return SeverityError
	}
}
