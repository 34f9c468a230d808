package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TitleMaxLength is the longest donor title HMRC accepts on a schedule row.
const TitleMaxLength = 4

// NonUKPostcode is the sentinel accepted in place of a UK postcode for
// donors with an overseas address.
const NonUKPostcode = "NON-UK"

// Declaration represents a donor's gift aid declaration: their identity,
// address, the date the declaration was signed, which periods around that
// date the declaration covers, and the identifier used to recognize their
// transactions in bank statement references.
type Declaration struct {
	Title             string    `json:"title" csv:"Title"`
	FirstName         string    `json:"firstName" csv:"First Name"`
	LastName          string    `json:"lastName" csv:"Last Name"`
	HouseNameOrNumber string    `json:"houseNameOrNumber" csv:"House Number or Name"`
	Postcode          string    `json:"postcode" csv:"Postcode"`
	DeclarationDate   time.Time `json:"declarationDate" csv:"Date"`

	// The three validity windows are independent; a declaration with all
	// three unset is accepted at load but never yields an eligible match.
	ValidFourYearsBefore bool `json:"validFourYearsBefore" csv:"Valid Four Years Before Day of Declaration"`
	ValidDayOf           bool `json:"validDayOf" csv:"Valid Day of Declaration"`
	ValidAfter           bool `json:"validAfter" csv:"Valid After Day of Declaration"`

	Identifier string `json:"identifier" csv:"Identifier"`

	// RowNumber is the 1-based source row in declarations.csv (the header
	// is row 1), kept for diagnostics.
	RowNumber int `json:"rowNumber"`
}

// DonorName returns the donor's display name, skipping empty parts.
func (d *Declaration) DonorName() string {
	var parts []string
	for _, p := range []string{d.Title, d.FirstName, d.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Validate performs basic structural validation on the Declaration
func (d *Declaration) Validate() error {
	if len(d.Title) > TitleMaxLength {
		return fmt.Errorf("title %q exceeds %d characters", d.Title, TitleMaxLength)
	}

	if strings.TrimSpace(d.FirstName) == "" {
		return fmt.Errorf("first name cannot be empty")
	}

	if strings.TrimSpace(d.LastName) == "" {
		return fmt.Errorf("last name cannot be empty")
	}

	if strings.TrimSpace(d.HouseNameOrNumber) == "" {
		return fmt.Errorf("house number or name cannot be empty")
	}

	if d.Postcode != NonUKPostcode && !ValidUKPostcode(d.Postcode) {
		return fmt.Errorf("invalid postcode: %s", d.Postcode)
	}

	if d.DeclarationDate.IsZero() {
		return fmt.Errorf("declaration date cannot be zero")
	}

	if strings.TrimSpace(d.Identifier) == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	return nil
}

// String returns a string representation of the Declaration
func (d *Declaration) String() string {
	return fmt.Sprintf("Declaration{Donor: %s, Date: %s, Identifier: %q}",
		d.DonorName(), d.DeclarationDate.Format("02/01/2006"), d.Identifier)
}

// Transaction represents one bank transaction row: a date, the free-text
// statement reference used for matching, and a positive donation amount.
type Transaction struct {
	Date      time.Time       `json:"date" csv:"Date"`
	Reference string          `json:"reference" csv:"Reference"`
	Amount    decimal.Decimal `json:"amount" csv:"Amount"`

	// RowNumber is the 1-based source row in transactions.csv, preserved
	// through the schedule, audit log and manual-review artifacts.
	RowNumber int `json:"rowNumber"`
}

// Validate performs basic structural validation on the Transaction
func (t *Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive, got %s", t.Amount.String())
	}

	return nil
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{Row: %d, Date: %s, Reference: %q, Amount: %s}",
		t.RowNumber, t.Date.Format("02/01/2006"), t.Reference, t.Amount.String())
}

// Equals compares two Transaction instances for equality
func (t *Transaction) Equals(other *Transaction) bool {
	if other == nil {
		return false
	}

	return t.RowNumber == other.RowNumber &&
		t.Reference == other.Reference &&
		t.Amount.Equal(other.Amount) &&
		t.Date.Equal(other.Date)
}

// Parsing helpers shared by the loaders

// ukDateFormats are tried in order; statements and declaration exports use
// both two and four digit years.
var ukDateFormats = []string{
	"02/01/2006",
	"02/01/06",
}

// ParseUKDate parses a dd/mm/yyyy or dd/mm/yy date string.
func ParseUKDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, format := range ukDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date %q, expected dd/mm/yyyy or dd/mm/yy: %w", s, lastErr)
}

var invalidAmountCharacters = regexp.MustCompile(`[^\d\-.]`)

// ParseAmount parses a currency-formatted amount string into a decimal.
// Currency symbols, thousand separators and typographic minus signs are
// tolerated; the result must still parse as a decimal number.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// some statement exports use a "true minus" for negative amounts
	cleaned := strings.ReplaceAll(s, "−", "-")
	cleaned = invalidAmountCharacters.ReplaceAllString(cleaned, "")

	if !strings.ContainsAny(cleaned, "0123456789") {
		return decimal.Zero, fmt.Errorf("amount %q contains no digits", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format %q: %w", s, err)
	}

	return d, nil
}

// ParseValidityFlag parses a declaration validity-window flag, which must be
// exactly "0" or "1".
func ParseValidityFlag(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("expected a validity flag of \"0\" or \"1\", got %q", s)
	}
}

// Postcode handling

var (
	postcodeSpaces = regexp.MustCompile(`\s+`)

	// ukPostcodeRegexp covers the standard UK postcode grammar, including
	// the required single space before the inward code. Girobank's GIR 0AA
	// special case is not handled.
	ukPostcodeRegexp = regexp.MustCompile(`^[A-Z]{1,2}\d{1,2}[A-Z]? \d[A-Z]{2}$`)
)

// NormalizePostcode normalizes a raw postcode string: uppercase, trimmed,
// internal whitespace collapsed to a single space. A postcode that is
// missing the space entirely is left as-is and will fail validation; the
// user has to fix the source table rather than have the tool guess where
// the inward code starts.
func NormalizePostcode(postcode string) string {
	postcode = strings.ToUpper(strings.TrimSpace(postcode))
	return postcodeSpaces.ReplaceAllString(postcode, " ")
}

// ValidUKPostcode reports whether a cleaned postcode matches the UK postcode
// grammar.
func ValidUKPostcode(cleaned string) bool {
	return ukPostcodeRegexp.MatchString(cleaned)
}
