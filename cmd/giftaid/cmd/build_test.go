package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"giftaid-schedule-builder/pkg/errors"

	"github.com/spf13/viper"
)

func setBuildFlags(t *testing.T, transactions, declarations, format string, pages int) {
	t.Helper()
	viper.Set("transactions", transactions)
	viper.Set("declarations", declarations)
	viper.Set("outputs-dir", "outputs")
	viper.Set("output", format)
	viper.Set("max-pages", pages)
	viper.Set("progress", false)
	t.Cleanup(viper.Reset)
}

func writeInputFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("header\n"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestValidateBuildFlags(t *testing.T) {
	transactions := writeInputFile(t, "transactions.csv")
	declarations := writeInputFile(t, "declarations.csv")

	tests := []struct {
		name         string
		transactions string
		declarations string
		format       string
		pages        int
		wantCode     errors.ErrorCode
	}{
		{"valid xlsx", transactions, declarations, "xlsx", 1, ""},
		{"valid csv uppercase", transactions, declarations, "CSV", 1, ""},
		{"unknown format", transactions, declarations, "pdf", 1, errors.CodeInvalidConfig},
		{"zero pages", transactions, declarations, "xlsx", 0, errors.CodeInvalidConfig},
		{"missing transactions file", filepath.Join(t.TempDir(), "nope.csv"), declarations, "xlsx", 1, errors.CodeFileNotFound},
		{"missing declarations file", transactions, filepath.Join(t.TempDir(), "nope.csv"), "xlsx", 1, errors.CodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuildFlags(t, tt.transactions, tt.declarations, tt.format, tt.pages)

			err := validateBuildFlags(buildCmd, nil)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			builderErr, ok := errors.AsBuilderError(err)
			if !ok {
				t.Fatalf("expected *errors.BuilderError, got %T", err)
			}
			if builderErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, builderErr.Code)
			}
		})
	}
}

func TestValidateBuildFlagsNormalizesFormat(t *testing.T) {
	transactions := writeInputFile(t, "transactions.csv")
	declarations := writeInputFile(t, "declarations.csv")
	setBuildFlags(t, transactions, declarations, "XLSX", 1)

	if err := validateBuildFlags(buildCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputFormat != "xlsx" {
		t.Errorf("expected format normalized to xlsx, got %q", outputFormat)
	}
}

func TestHandleErrorExitCodes(t *testing.T) {
	handler := NewCLIErrorHandler()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"file error", errors.FileError(errors.CodeFileNotFound, "x.csv", os.ErrNotExist), 2},
		{"validation summary", errors.NewErrorSummary([]*errors.BuilderError{
			errors.RowValidationError(errors.CodeInvalidDate, "x.csv", 2, "Date", "bad", "a UK date"),
		}), 3},
		{"configuration error", errors.ConfigurationError(errors.CodeInvalidConfig, "output", "pdf", nil), 4},
		{"schedule error", errors.ScheduleError(errors.CodeTemplateMismatch, "rename_sheet", nil), 5},
		{"generic error", os.ErrClosed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.HandleError(tt.err); got != tt.expected {
				t.Errorf("expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}
