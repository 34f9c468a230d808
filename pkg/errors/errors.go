package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategorySchedule      ErrorCategory = "schedule"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeDirectoryError ErrorCode = "directory_error"
	CodeWriteFailed    ErrorCode = "write_failed"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeEncodingError ErrorCode = "encoding_error"

	// Validation errors
	CodeInvalidAmount   ErrorCode = "invalid_amount"
	CodeInvalidDate     ErrorCode = "invalid_date"
	CodeInvalidPostcode ErrorCode = "invalid_postcode"
	CodeInvalidFlag     ErrorCode = "invalid_flag"
	CodeMissingField    ErrorCode = "missing_field"
	CodeFieldTooLong    ErrorCode = "field_too_long"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Schedule errors
	CodeTemplateMismatch ErrorCode = "template_mismatch"
	CodeProcessingError  ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// BuilderError is the base error type for all application errors
type BuilderError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *BuilderError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *BuilderError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *BuilderError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategorySchedule, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *BuilderError) WithContext(key string, value interface{}) *BuilderError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *BuilderError) WithSuggestion(suggestion string) *BuilderError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BuilderError
func New(category ErrorCategory, code ErrorCode, message string) *BuilderError {
	return &BuilderError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with BuilderError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *BuilderError {
	if err == nil {
		return nil
	}

	return &BuilderError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *BuilderError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write file: %s", path)
		suggestion = "check available disk space and write permissions"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *BuilderError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, row int, column string, value string, err error) *BuilderError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at row %d, column '%s': '%s'", file, row, column, value)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error in file %s at row %d", file, row)
		suggestion = "ensure the file is saved in UTF-8 encoding"
	default:
		message = fmt.Sprintf("parse error in file %s at row %d", file, row)
		suggestion = "check the file format and data integrity"
	}

	var result *BuilderError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("row", row).
		WithContext("column", column).
		WithContext("value", value)
}

// RowValidationError creates a row-scoped validation error carrying the row
// number, column name and offending value so a user can fix the source table
// without reading code.
func RowValidationError(code ErrorCode, file string, row int, column, value, expected string) *BuilderError {
	message := fmt.Sprintf("row %d, column '%s' of %s: invalid value '%s'", row, column, file, value)

	return New(CategoryValidation, code, message).
		WithSuggestion(expected).
		WithContext("file", file).
		WithContext("row", row).
		WithContext("column", column).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *BuilderError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *BuilderError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ScheduleError creates a schedule-building error
func ScheduleError(code ErrorCode, operation string, err error) *BuilderError {
	var message string
	var suggestion string

	switch code {
	case CodeTemplateMismatch:
		message = fmt.Sprintf("schedule template mismatch during %s", operation)
		suggestion = "the schedule layout does not match the expected HMRC template"
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "review the input data and try again"
	default:
		message = fmt.Sprintf("schedule error during %s", operation)
		suggestion = "review the data and configuration"
	}

	var result *BuilderError
	if err != nil {
		result = Wrap(err, CategorySchedule, code, message)
	} else {
		result = New(CategorySchedule, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *BuilderError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *BuilderError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary aggregates multiple errors, used to report every invalid row
// of an input table in one pass instead of stopping at the first.
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*BuilderError       `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errors []*BuilderError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errors),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errors,
	}

	for _, err := range errors {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasErrors reports whether the summary carries any errors
func (es *ErrorSummary) HasErrors() bool {
	return es.Total > 0
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// Detail returns the full list of error messages, one per line, numbered so
// a user can work through them in order.
func (es *ErrorSummary) Detail() string {
	if es.Total == 0 {
		return ""
	}

	var lines []string
	for i, err := range es.Errors {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}
	return strings.Join(lines, "\n")
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// IsBuilderError checks if an error is a BuilderError
func IsBuilderError(err error) bool {
	_, ok := err.(*BuilderError)
	return ok
}

// AsBuilderError extracts a BuilderError from an error chain
func AsBuilderError(err error) (*BuilderError, bool) {
	var builderErr *BuilderError
	if errors.As(err, &builderErr) {
		return builderErr, true
	}
	return nil, false
}

// AsErrorSummary extracts an ErrorSummary from an error chain
func AsErrorSummary(err error) (*ErrorSummary, bool) {
	var summary *ErrorSummary
	if errors.As(err, &summary) {
		return summary, true
	}
	return nil, false
}
