// Package parsers reads the two CSV inputs of a schedule run: the bank
// transaction export and the donor declaration list.
//
// Both files must carry an exact, known header row - these files come out of
// a bank export and a maintained spreadsheet respectively, so a header
// mismatch almost always means the wrong file was supplied. Row validation
// is accumulating: every bad row in a file is reported in one pass, rather
// than failing on the first, so the user can fix the whole file at once.
//
// Parser types:
//   - TransactionsParser: bank statement export (Date, Reference, Amount)
//   - DeclarationsParser: donor gift aid declarations
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"giftaid-schedule-builder/pkg/errors"
	"giftaid-schedule-builder/pkg/logger"
)

// ParseConfig holds configuration shared by both CSV parsers.
type ParseConfig struct {
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	MaxFieldSize     int
	ValidateEncoding bool
}

// DefaultParseConfig returns a configuration with sensible defaults.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		MaxFieldSize:     10000,
		ValidateEncoding: true,
	}
}

// BaseParser provides the CSV plumbing common to both input files: opening
// and encoding-checking the file, verifying the header row, and reading
// records with row-number tracking.
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration.
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("base_parser")
	log.WithFields(logger.Fields{
		"delimiter":         string(config.Delimiter),
		"validate_encoding": config.ValidateEncoding,
	}).Debug("Created base parser")

	return &BaseParser{
		config: config,
		logger: log,
	}
}

// ParseContext holds state during a single file's parse.
type ParseContext struct {
	// RowNumber is 1-based and counts the header, so the first data row
	// is row 2. Error messages use this numbering because it is what the
	// user sees in their spreadsheet program.
	RowNumber int

	RecordCount int
	ctx         context.Context
}

// NewParseContext creates a new parsing context.
func NewParseContext(ctx context.Context) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{ctx: ctx}
}

// IsCancelled checks if the parsing context has been cancelled.
func (pc *ParseContext) IsCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// OpenFile opens a CSV file and returns a configured csv.Reader.
func (bp *BaseParser) OpenFile(filePath string) (*os.File, *csv.Reader, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening CSV file")

	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")

		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeDirectoryError, filePath, err)
	}

	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(file, filePath); err != nil {
			file.Close()
			return nil, nil, err
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, nil, errors.FileError(errors.CodeDirectoryError, filePath, err)
		}
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1 // length mismatches reported per row instead

	return file, reader, nil
}

// validateEncoding checks that the file is valid UTF-8 text.
func (bp *BaseParser) validateEncoding(file *os.File, filePath string) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.ParseError(
				errors.CodeEncodingError,
				filePath,
				lineNum,
				"encoding",
				"",
				fmt.Errorf("invalid UTF-8 encoding detected"),
			).WithSuggestion("Save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeDirectoryError, filePath, err)
	}

	return nil
}

// VerifyHeaders reads the header row and checks it matches the expected
// headers exactly, in order. Header names are compared after trimming
// whitespace but otherwise verbatim: a renamed or reordered column means the
// wrong file, not a recoverable variation.
func (bp *BaseParser) VerifyHeaders(reader *csv.Reader, parseCtx *ParseContext, filePath string, expected []string) error {
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ParseError(
				errors.CodeInvalidFormat,
				filePath,
				1,
				"headers",
				"",
				fmt.Errorf("file is empty"),
			).WithSuggestion("Ensure the file contains a header row and data rows")
		}
		return errors.ParseError(errors.CodeInvalidFormat, filePath, 1, "headers", "", err).
			WithSuggestion("Check the file is a valid CSV")
	}
	parseCtx.RowNumber++

	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.TrimSpace(h)
	}

	if len(cleaned) != len(expected) {
		bp.logger.WithFields(logger.Fields{
			"file_path":        filePath,
			"expected_headers": expected,
			"actual_headers":   cleaned,
		}).Error("Header count mismatch")

		return errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			1,
			"headers",
			strings.Join(cleaned, ", "),
			fmt.Errorf("expected %d columns, got %d", len(expected), len(cleaned)),
		).WithSuggestion(fmt.Sprintf("Expected headers: %s", strings.Join(expected, ", ")))
	}

	for i, want := range expected {
		if cleaned[i] != want {
			bp.logger.WithFields(logger.Fields{
				"file_path": filePath,
				"column":    i + 1,
				"expected":  want,
				"actual":    cleaned[i],
			}).Error("Header mismatch")

			return errors.ParseError(
				errors.CodeMissingColumn,
				filePath,
				1,
				want,
				cleaned[i],
				fmt.Errorf("header %d is %q, expected %q", i+1, cleaned[i], want),
			).WithSuggestion(fmt.Sprintf("Expected headers, in order: %s", strings.Join(expected, ", ")))
		}
	}

	return nil
}

// ReadRecord reads the next CSV record, skipping empty rows and tracking the
// spreadsheet row number. Returns io.EOF at end of file.
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		if parseCtx.IsCancelled() {
			return nil, errors.InternalError(
				errors.CodeUnexpectedError,
				"csv_parsing",
				fmt.Errorf("parsing cancelled"),
			)
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, err
		}

		parseCtx.RowNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			bp.logger.WithField("row", parseCtx.RowNumber).Debug("Skipping empty row")
			continue
		}

		if bp.config.MaxFieldSize > 0 {
			for i, field := range record {
				if len(field) > bp.config.MaxFieldSize {
					return nil, errors.ParseError(
						errors.CodeInvalidFormat,
						"",
						parseCtx.RowNumber,
						fmt.Sprintf("column %d", i+1),
						field[:50]+"...",
						fmt.Errorf("field exceeds maximum size of %d bytes", bp.config.MaxFieldSize),
					)
				}
			}
		}

		return record, nil
	}
}

// isEmptyRecord checks if all fields in a record are empty or whitespace.
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
