package parsers

import (
	"context"
	"io"
	"strings"

	"giftaid-schedule-builder/internal/models"
	"giftaid-schedule-builder/pkg/errors"
	"giftaid-schedule-builder/pkg/logger"
)

// TransactionsParser handles parsing of the bank statement export.
type TransactionsParser struct {
	*BaseParser
	config *TransactionsParserConfig
	logger logger.Logger
}

// NewTransactionsParser creates a new TransactionsParser with the given
// configuration.
func NewTransactionsParser(config *TransactionsParserConfig) (*TransactionsParser, error) {
	if config == nil {
		config = DefaultTransactionsParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"transactions_parser_config",
			config,
			err,
		).WithSuggestion("Check the transactions parser configuration values")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.Delimiter = config.Delimiter

	log := logger.GetGlobalLogger().WithComponent("transactions_parser")

	return &TransactionsParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     log,
	}, nil
}

// ParseTransactions parses the bank statement export. Every invalid row in
// the file is collected; if any row fails, the returned error is an
// *errors.ErrorSummary covering them all and no transactions are returned.
func (tp *TransactionsParser) ParseTransactions(filePath string) ([]*models.Transaction, error) {
	return tp.ParseTransactionsWithContext(context.Background(), filePath)
}

// ParseTransactionsWithContext parses transactions with cancellation support.
func (tp *TransactionsParser) ParseTransactionsWithContext(ctx context.Context, filePath string) ([]*models.Transaction, error) {
	tp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_transactions",
	}).Info("Starting transaction parsing")

	file, reader, err := tp.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	if err := tp.VerifyHeaders(reader, parseCtx, filePath, TransactionHeaders); err != nil {
		return nil, err
	}

	var transactions []*models.Transaction
	var rowErrors []*errors.BuilderError

	for {
		record, err := tp.ReadRecord(reader, parseCtx)
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

		transaction, recordErrors := tp.parseRecord(record, parseCtx.RowNumber, filePath)
		if len(recordErrors) > 0 {
			rowErrors = append(rowErrors, recordErrors...)
			continue
		}

		transactions = append(transactions, transaction)
	}

	tp.logger.WithFields(logger.Fields{
		"file_path":    filePath,
		"rows":         parseCtx.RowNumber,
		"transactions": len(transactions),
		"errors":       len(rowErrors),
	}).Info("Transaction parsing completed")

	if len(rowErrors) > 0 {
		return nil, errors.NewErrorSummary(rowErrors)
	}

	return transactions, nil
}

// parseRecord builds a Transaction from one CSV record, returning every
// field error found rather than stopping at the first.
func (tp *TransactionsParser) parseRecord(record []string, rowNumber int, filePath string) (*models.Transaction, []*errors.BuilderError) {
	var errs []*errors.BuilderError

	if len(record) != len(TransactionHeaders) {
		errs = append(errs, errors.RowValidationError(
			errors.CodeInvalidFormat,
			filePath,
			rowNumber,
			"row",
			strings.Join(record, ","),
			"3 columns (Date, Reference, Amount)",
		))
		return nil, errs
	}

	tx := &models.Transaction{
		Reference: strings.TrimSpace(record[txColReference]),
		RowNumber: rowNumber,
	}

	date, err := models.ParseUKDate(record[txColDate])
	if err != nil {
		errs = append(errs, errors.RowValidationError(
			errors.CodeInvalidDate,
			filePath,
			rowNumber,
			"Date",
			record[txColDate],
			"a UK date such as 31/01/2024",
		))
	}
	tx.Date = date

	amount, err := models.ParseAmount(record[txColAmount])
	if err != nil {
		errs = append(errs, errors.RowValidationError(
			errors.CodeInvalidAmount,
			filePath,
			rowNumber,
			"Amount",
			record[txColAmount],
			"a positive amount such as 25.00",
		))
	}
	tx.Amount = amount

	if len(errs) > 0 {
		return nil, errs
	}

	if err := tx.Validate(); err != nil {
		errs = append(errs, errors.RowValidationError(
			errors.CodeInvalidAmount,
			filePath,
			rowNumber,
			"Amount",
			record[txColAmount],
			err.Error(),
		))
		return nil, errs
	}

	return tx, nil
}
