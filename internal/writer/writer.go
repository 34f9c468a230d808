// Package writer produces the output directory of a schedule run: the HMRC
// schedule itself (xlsx or csv), the audit log, the manual-handling list,
// and verbatim copies of both input files for later review.
//
// Artifacts are written to a uniquely-named temp file in the output
// directory and renamed into place, so a crashed run never leaves a
// half-written file that looks like a finished schedule.
package writer

import (
	"fmt"
	"path/filepath"
	"time"

	"giftaid-schedule-builder/internal/scheduler"
	"giftaid-schedule-builder/pkg/errors"
	"giftaid-schedule-builder/pkg/logger"
)

// Format selects the schedule rendition.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Config controls where and how artifacts are written.
type Config struct {
	// OutputsDir is the parent directory run directories are created in.
	OutputsDir string

	// Format is the schedule rendition to write.
	Format Format
}

// DefaultConfig returns the standard output configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputsDir: "outputs",
		Format:     FormatXLSX,
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.OutputsDir == "" {
		return fmt.Errorf("outputs directory cannot be empty")
	}
	switch c.Format {
	case FormatXLSX, FormatCSV:
		return nil
	default:
		return fmt.Errorf("unknown schedule format %q, expected %q or %q", c.Format, FormatXLSX, FormatCSV)
	}
}

// Writer writes the artifacts of one schedule run.
type Writer struct {
	config *Config
	logger logger.Logger

	// now is replaceable in tests; the run directory is date-stamped.
	now func() time.Time
}

// New creates a Writer with the given configuration.
func New(config *Config) (*Writer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"writer_config",
			config,
			err,
		).WithSuggestion("Use --output=xlsx or --output=csv")
	}

	return &Writer{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("writer"),
		now:    time.Now,
	}, nil
}

// WriteRun writes every artifact of a completed run into a fresh run
// directory and returns that directory's path.
func (w *Writer) WriteRun(result *scheduler.Result, runID, transactionsPath, declarationsPath string) (string, error) {
	runDir, err := w.createRunDirectory()
	if err != nil {
		return "", err
	}

	w.logger.WithFields(logger.Fields{
		"run_dir": runDir,
		"run_id":  runID,
		"format":  string(w.config.Format),
		"pages":   len(result.Pages),
	}).Info("Writing run artifacts")

	for _, page := range result.Pages {
		name := scheduleFileName(page.Number, w.config.Format)
		var writeErr error
		switch w.config.Format {
		case FormatCSV:
			writeErr = w.writeCSVSchedule(runDir, name, page)
		default:
			writeErr = w.writeXLSXSchedule(runDir, name, page)
		}
		if writeErr != nil {
			return runDir, writeErr
		}
	}

	if err := w.writeAuditLog(runDir, result); err != nil {
		return runDir, err
	}
	if err := w.writeManualHandling(runDir, result, filepath.Base(transactionsPath)); err != nil {
		return runDir, err
	}

	for _, src := range []string{transactionsPath, declarationsPath} {
		if err := w.copyInputFile(runDir, src); err != nil {
			return runDir, err
		}
	}

	w.logger.WithField("run_dir", runDir).Info("Run artifacts written")
	return runDir, nil
}

// scheduleFileName names the schedule artifact for a page. The first page
// keeps the plain name so the single-page case stays tidy.
func scheduleFileName(pageNumber int, format Format) string {
	if pageNumber == 1 {
		return fmt.Sprintf("gift_aid_schedule.%s", format)
	}
	return fmt.Sprintf("gift_aid_schedule_page_%d.%s", pageNumber, format)
}

// copyInputFile copies an input CSV into the run directory under its base
// name, for auditability of exactly what the run saw.
func (w *Writer) copyInputFile(runDir, src string) error {
	dest := filepath.Base(src)
	return w.atomicWrite(runDir, dest, func(path string) error {
		return copyFile(src, path)
	})
}
