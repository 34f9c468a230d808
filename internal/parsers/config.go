package parsers

import (
	"fmt"
)

// Expected header rows, in order. These are fixed by the upstream producers:
// the transactions file is a bank statement export, the declarations file is
// the charity's maintained declaration register.
var (
	TransactionHeaders = []string{
		"Date",
		"Reference",
		"Amount",
	}

	DeclarationHeaders = []string{
		"Title",
		"First Name",
		"Last Name",
		"House Number or Name",
		"Postcode",
		"Date",
		"Valid Four Years Before Day of Declaration",
		"Valid Day of Declaration",
		"Valid After Day of Declaration",
		"Identifier",
	}
)

// Column positions within the declaration file.
const (
	declColTitle = iota
	declColFirstName
	declColLastName
	declColHouse
	declColPostcode
	declColDate
	declColValidBefore
	declColValidDayOf
	declColValidAfter
	declColIdentifier
)

// Column positions within the transactions file.
const (
	txColDate = iota
	txColReference
	txColAmount
)

// TransactionsParserConfig configures parsing of the bank statement export.
type TransactionsParserConfig struct {
	Delimiter rune
}

// DefaultTransactionsParserConfig returns the standard configuration.
func DefaultTransactionsParserConfig() *TransactionsParserConfig {
	return &TransactionsParserConfig{Delimiter: ','}
}

// Validate checks the configuration values.
func (c *TransactionsParserConfig) Validate() error {
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// DeclarationsParserConfig configures parsing of the declaration register.
type DeclarationsParserConfig struct {
	Delimiter rune
}

// DefaultDeclarationsParserConfig returns the standard configuration.
func DefaultDeclarationsParserConfig() *DeclarationsParserConfig {
	return &DeclarationsParserConfig{Delimiter: ','}
}

// Validate checks the configuration values.
func (c *DeclarationsParserConfig) Validate() error {
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}
