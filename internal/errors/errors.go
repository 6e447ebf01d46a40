package errors

import (
	stderrors "errors"
	"fmt"
)

// AmanError is the structured error type for amansearch.
// It provides rich context for error handling, logging, and user presentation.
type AmanError struct {
	// Code is the unique error code (e.g., "ERR_207_INDEX_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is matching. Matching is by code, so any AmanError
// carrying the same code satisfies errors.Is against these values.
var (
	ErrConfiguration   = &AmanError{Code: ErrCodeConfigInvalid}
	ErrUnknownName     = &AmanError{Code: ErrCodeUnknownName}
	ErrDuplicateName   = &AmanError{Code: ErrCodeDuplicateName}
	ErrUnknownAnalyzer = &AmanError{Code: ErrCodeUnknownAnalyzer}
	ErrIndexNotFound   = &AmanError{Code: ErrCodeIndexNotFound}
	ErrResultCorrupt   = &AmanError{Code: ErrCodeResultCorrupt}
	ErrInvalidCriteria = &AmanError{Code: ErrCodeInvalidCriteria}
)

// Error implements the error interface.
func (e *AmanError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AmanError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *AmanError) Is(target error) bool {
	if t, ok := target.(*AmanError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *AmanError) WithDetail(key, value string) *AmanError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *AmanError) WithSuggestion(suggestion string) *AmanError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AmanError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *AmanError {
	return &AmanError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an AmanError from an existing error.
// The error's message becomes the AmanError message.
func Wrap(code string, err error) *AmanError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error raised at registration or load time.
func ConfigError(message string, cause error) *AmanError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// DuplicateNameError reports a second registration under an existing name.
func DuplicateNameError(kind, name string) *AmanError {
	return New(ErrCodeDuplicateName, fmt.Sprintf("%s %q is already registered", kind, name), nil).
		WithDetail("kind", kind).
		WithDetail("name", name)
}

// UnknownNameError reports a lookup of a name that was never registered.
func UnknownNameError(kind, name string) *AmanError {
	return New(ErrCodeUnknownName, fmt.Sprintf("no %s registered as %q", kind, name), nil).
		WithDetail("kind", kind).
		WithDetail("name", name)
}

// IndexNotFoundError reports a missing storage location at search time.
func IndexNotFoundError(name, location string) *AmanError {
	return New(ErrCodeIndexNotFound,
		fmt.Sprintf("no index found at the configured location for %q; an index must be built first", name), nil).
		WithDetail("index", name).
		WithDetail("location", location).
		WithSuggestion("Write documents to the index before searching it")
}

// ResultCorruptError reports a matched document missing required stored data.
func ResultCorruptError(docID, message string, cause error) *AmanError {
	return New(ErrCodeResultCorrupt, message, cause).
		WithDetail("doc_id", docID).
		WithSuggestion("The index schema has drifted; rebuild the index")
}

// InvalidCriteriaError reports criteria that did not come from the searcher's builder.
func InvalidCriteriaError(searcher string) *AmanError {
	return New(ErrCodeInvalidCriteria,
		fmt.Sprintf("criteria was not created by searcher %q", searcher), nil).
		WithDetail("searcher", searcher)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AmanError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AmanError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first AmanError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from the first AmanError in the chain.
func GetCategory(err error) Category {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae.Category
	}
	return ""
}
