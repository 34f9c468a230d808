package parsers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"giftaid-schedule-builder/internal/models"
	"giftaid-schedule-builder/pkg/errors"
	"giftaid-schedule-builder/pkg/logger"
)

// DeclarationsParser handles parsing of the donor declaration register.
type DeclarationsParser struct {
	*BaseParser
	config *DeclarationsParserConfig
	logger logger.Logger
}

// NewDeclarationsParser creates a new DeclarationsParser with the given
// configuration.
func NewDeclarationsParser(config *DeclarationsParserConfig) (*DeclarationsParser, error) {
	if config == nil {
		config = DefaultDeclarationsParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"declarations_parser_config",
			config,
			err,
		).WithSuggestion("Check the declarations parser configuration values")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.Delimiter = config.Delimiter

	log := logger.GetGlobalLogger().WithComponent("declarations_parser")

	return &DeclarationsParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     log,
	}, nil
}

// ParseDeclarations parses the declaration register. Every invalid row in
// the file is collected; if any row fails, the returned error is an
// *errors.ErrorSummary covering them all and no declarations are returned.
// The schedule must never be built from a register that is known to be
// partly bad.
func (dp *DeclarationsParser) ParseDeclarations(filePath string) ([]*models.Declaration, error) {
	return dp.ParseDeclarationsWithContext(context.Background(), filePath)
}

// ParseDeclarationsWithContext parses declarations with cancellation support.
func (dp *DeclarationsParser) ParseDeclarationsWithContext(ctx context.Context, filePath string) ([]*models.Declaration, error) {
	dp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_declarations",
	}).Info("Starting declaration parsing")

	file, reader, err := dp.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	if err := dp.VerifyHeaders(reader, parseCtx, filePath, DeclarationHeaders); err != nil {
		return nil, err
	}

	var declarations []*models.Declaration
	var rowErrors []*errors.BuilderError

	for {
		record, err := dp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if builderErr, ok := errors.AsBuilderError(err); ok {
				rowErrors = append(rowErrors, builderErr)
				continue
			}
			rowErrors = append(rowErrors, errors.ParseError(
				errors.CodeInvalidFormat, filePath, parseCtx.RowNumber, "record", "", err))
			continue
		}

		parseCtx.RecordCount++

		declaration, recordErrors := dp.parseRecord(record, parseCtx.RowNumber, filePath)
		if len(recordErrors) > 0 {
			rowErrors = append(rowErrors, recordErrors...)
			continue
		}

		declarations = append(declarations, declaration)
	}

	dp.logger.WithFields(logger.Fields{
		"file_path":    filePath,
		"rows":         parseCtx.RowNumber,
		"declarations": len(declarations),
		"errors":       len(rowErrors),
	}).Info("Declaration parsing completed")

	if len(rowErrors) > 0 {
		return nil, errors.NewErrorSummary(rowErrors)
	}

	return declarations, nil
}

// parseRecord builds a Declaration from one CSV record, returning every
// field error found rather than stopping at the first.
func (dp *DeclarationsParser) parseRecord(record []string, rowNumber int, filePath string) (*models.Declaration, []*errors.BuilderError) {
	var errs []*errors.BuilderError

	if len(record) != len(DeclarationHeaders) {
		errs = append(errs, errors.RowValidationError(
			errors.CodeInvalidFormat,
			filePath,
			rowNumber,
			"row",
			strings.Join(record, ","),
			fmt.Sprintf("%d columns (%s)", len(DeclarationHeaders), strings.Join(DeclarationHeaders, ", ")),
		))
		return nil, errs
	}

	declaration := &models.Declaration{
		Title:             strings.TrimSpace(record[declColTitle]),
		FirstName:         strings.TrimSpace(record[declColFirstName]),
		LastName:          strings.TrimSpace(record[declColLastName]),
		HouseNameOrNumber: strings.TrimSpace(record[declColHouse]),
		Postcode:          models.NormalizePostcode(record[declColPostcode]),
		Identifier:        strings.TrimSpace(record[declColIdentifier]),
		RowNumber:         rowNumber,
	}

	if len(declaration.Title) > models.TitleMaxLength {
		errs = append(errs, errors.RowValidationError(
			errors.CodeFieldTooLong,
			filePath,
			rowNumber,
			"Title",
			declaration.Title,
			fmt.Sprintf("at most %d characters", models.TitleMaxLength),
		))
	}

	if declaration.FirstName == "" {
		errs = append(errs, dp.missingField(filePath, rowNumber, "First Name"))
	}
	if declaration.LastName == "" {
		errs = append(errs, dp.missingField(filePath, rowNumber, "Last Name"))
	}
	if declaration.HouseNameOrNumber == "" {
		errs = append(errs, dp.missingField(filePath, rowNumber, "House Number or Name"))
	}
	if declaration.Identifier == "" {
		errs = append(errs, dp.missingField(filePath, rowNumber, "Identifier"))
	}

	if declaration.Postcode != models.NonUKPostcode && !models.ValidUKPostcode(declaration.Postcode) {
		errs = append(errs, errors.RowValidationError(
			errors.CodeInvalidPostcode,
			filePath,
			rowNumber,
			"Postcode",
			record[declColPostcode],
			fmt.Sprintf("a UK postcode with a space, such as SW1A 1AA, or %s", models.NonUKPostcode),
		))
	}

	date, err := models.ParseUKDate(record[declColDate])
	if err != nil {
		errs = append(errs, errors.RowValidationError(
			errors.CodeInvalidDate,
			filePath,
			rowNumber,
			"Date",
			record[declColDate],
			"a UK date such as 31/01/2024",
		))
	}
	declaration.DeclarationDate = date

	flagColumns := []struct {
		column string
		index  int
		target *bool
	}{
		{"Valid Four Years Before Day of Declaration", declColValidBefore, &declaration.ValidFourYearsBefore},
		{"Valid Day of Declaration", declColValidDayOf, &declaration.ValidDayOf},
		{"Valid After Day of Declaration", declColValidAfter, &declaration.ValidAfter},
	}
	for _, fc := range flagColumns {
		flag, err := models.ParseValidityFlag(record[fc.index])
		if err != nil {
			errs = append(errs, errors.RowValidationError(
				errors.CodeInvalidFlag,
				filePath,
				rowNumber,
				fc.column,
				record[fc.index],
				"0 or 1",
			))
			continue
		}
		*fc.target = flag
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return declaration, nil
}

func (dp *DeclarationsParser) missingField(filePath string, rowNumber int, column string) *errors.BuilderError {
	return errors.RowValidationError(
		errors.CodeMissingField,
		filePath,
		rowNumber,
		column,
		"",
		"a non-empty value",
	)
}
