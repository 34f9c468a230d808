package cmd

import (
	"fmt"
	"os"
	"strings"

	"giftaid-schedule-builder/pkg/errors"
	"giftaid-schedule-builder/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError renders an error for the user and returns the process exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	// A validation summary lists every bad row, so the user can fix the
	// whole file in one pass
	if summary, ok := errors.AsErrorSummary(err); ok {
		return h.handleErrorSummary(summary)
	}

	if builderErr, ok := errors.AsBuilderError(err); ok {
		return h.handleBuilderError(builderErr)
	}

	return h.handleGenericError(err)
}

// handleErrorSummary prints every accumulated problem, not just the first.
func (h *CLIErrorHandler) handleErrorSummary(summary *errors.ErrorSummary) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n\n", summary.Error())
	fmt.Fprintln(os.Stderr, summary.Detail())
	fmt.Fprintln(os.Stderr, "Fix the rows listed above and rerun; nothing has been written.")
	return summary.GetExitCode()
}

// handleBuilderError handles a single categorized error with its context.
func (h *CLIErrorHandler) handleBuilderError(err *errors.BuilderError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles error types from outside this codebase.
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory") {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if os.IsPermission(err) || strings.Contains(err.Error(), "permission denied") {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, run with --verbose\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case errors.CategoryParse:
		return `Parse error help:
• Verify the CSV file structure against the expected headers
• Ensure the file uses UTF-8 encoding
• Check that every row has the same number of columns as the header
• Use 'giftaid build --help' for the expected file formats`

	case errors.CategoryValidation:
		return `Validation error help:
• Dates must be UK format (DD/MM/YYYY or DD/MM/YY)
• Amounts must be positive numbers; currency symbols are fine
• Postcodes need their space (SW1A 1AA), or use NON-UK for overseas donors
• Validity columns must be 0 or 1`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'giftaid build --help' to see all available options`

	case errors.CategorySchedule:
		return `Schedule error help:
• Check there is disk space and write permission for the outputs directory
• Remove any partly-written run directory from a previous failed run`

	default:
		return `For more help:
• Use 'giftaid --help' for general help
• Use 'giftaid build --help' for command-specific help`
	}
}
