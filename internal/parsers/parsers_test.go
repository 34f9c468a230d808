package parsers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"giftaid-schedule-builder/pkg/errors"

	"github.com/shopspring/decimal"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp CSV: %v", err)
	}
	return path
}

func TestParseTransactions(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Date,Reference,Amount",
		"15/01/2024,FP John Smith Giving,25.00",
		"",
		`16/01/2024,Jane Doe,"£1,000.50"`,
	}, "\n"))

	parser, err := NewTransactionsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	transactions, err := parser.ParseTransactions(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(transactions))
	}

	first := transactions[0]
	if !first.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date: %v", first.Date)
	}
	if first.Reference != "FP John Smith Giving" {
		t.Errorf("unexpected reference: %q", first.Reference)
	}
	if !first.Amount.Equal(decimal.NewFromFloat(25.00)) {
		t.Errorf("unexpected amount: %s", first.Amount)
	}

	second := transactions[1]
	if !second.Amount.Equal(decimal.NewFromFloat(1000.50)) {
		t.Errorf("expected currency symbol and thousands separator stripped, got %s", second.Amount)
	}

	// the blank row is skipped but still counted, so the second
	// transaction sits on spreadsheet row 4
	if second.RowNumber != 4 {
		t.Errorf("expected row number 4, got %d", second.RowNumber)
	}
}

func TestParseTransactionsAccumulatesAllErrors(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Date,Reference,Amount",
		"not-a-date,FP John Smith Giving,25.00",
		"16/01/2024,Jane Doe,free",
		"17/01/2024,Sam Jones,-5.00",
		"18/01/2024,Valid Row,10.00",
	}, "\n"))

	parser, err := NewTransactionsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	transactions, err := parser.ParseTransactions(path)
	if err == nil {
		t.Fatal("expected an error summary, got nil")
	}
	if transactions != nil {
		t.Error("expected no transactions when any row is invalid")
	}

	summary, ok := errors.AsErrorSummary(err)
	if !ok {
		t.Fatalf("expected *errors.ErrorSummary, got %T", err)
	}
	if summary.Total != 3 {
		t.Fatalf("expected 3 errors, got %d: %s", summary.Total, summary.Detail())
	}

	detail := summary.Detail()
	for _, want := range []string{"row 2", "row 3", "row 4", "not-a-date", "free", "-5.00"} {
		if !strings.Contains(detail, want) {
			t.Errorf("expected detail to mention %q:\n%s", want, detail)
		}
	}
	if summary.GetExitCode() != 3 {
		t.Errorf("expected exit code 3, got %d", summary.GetExitCode())
	}
}

func TestParseTransactionsHeaderMismatch(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"renamed column", "Date,Ref,Amount"},
		{"reordered columns", "Reference,Date,Amount"},
		{"missing column", "Date,Reference"},
		{"extra column", "Date,Reference,Amount,Balance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, tt.header+"\n15/01/2024,FP John Smith,25.00\n")

			parser, err := NewTransactionsParser(nil)
			if err != nil {
				t.Fatalf("failed to create parser: %v", err)
			}

			_, err = parser.ParseTransactions(path)
			if err == nil {
				t.Fatal("expected a header error, got nil")
			}

			builderErr, ok := errors.AsBuilderError(err)
			if !ok {
				t.Fatalf("expected *errors.BuilderError, got %T", err)
			}
			if builderErr.Code != errors.CodeMissingColumn {
				t.Errorf("expected code %s, got %s", errors.CodeMissingColumn, builderErr.Code)
			}
		})
	}
}

func TestParseTransactionsEmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")

	parser, err := NewTransactionsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	_, err = parser.ParseTransactions(path)
	if err == nil {
		t.Fatal("expected an error for an empty file, got nil")
	}
}

func TestParseTransactionsFileNotFound(t *testing.T) {
	parser, err := NewTransactionsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	_, err = parser.ParseTransactions(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected an error for a missing file, got nil")
	}

	builderErr, ok := errors.AsBuilderError(err)
	if !ok {
		t.Fatalf("expected *errors.BuilderError, got %T", err)
	}
	if builderErr.Code != errors.CodeFileNotFound {
		t.Errorf("expected code %s, got %s", errors.CodeFileNotFound, builderErr.Code)
	}
	if builderErr.GetExitCode() != 2 {
		t.Errorf("expected exit code 2, got %d", builderErr.GetExitCode())
	}
}

const declarationHeaderRow = "Title,First Name,Last Name,House Number or Name,Postcode,Date," +
	"Valid Four Years Before Day of Declaration,Valid Day of Declaration," +
	"Valid After Day of Declaration,Identifier"

func TestParseDeclarations(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		declarationHeaderRow,
		"Mr,John,Smith,12,SW1A 1AA,15/06/2020,1,1,1,FP John Smith Giving",
		",Jane,Doe,Rose Cottage,NON-UK,01/03/19,0,0,1,Jane Doe",
	}, "\n"))

	parser, err := NewDeclarationsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	declarations, err := parser.ParseDeclarations(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(declarations))
	}

	first := declarations[0]
	if first.Title != "Mr" || first.FirstName != "John" || first.LastName != "Smith" {
		t.Errorf("unexpected donor fields: %s", first)
	}
	if first.Postcode != "SW1A 1AA" {
		t.Errorf("unexpected postcode: %q", first.Postcode)
	}
	if !first.ValidFourYearsBefore || !first.ValidDayOf || !first.ValidAfter {
		t.Error("expected all validity windows set")
	}
	if first.RowNumber != 2 {
		t.Errorf("expected row number 2, got %d", first.RowNumber)
	}

	second := declarations[1]
	if second.Title != "" {
		t.Errorf("expected empty title, got %q", second.Title)
	}
	if second.Postcode != "NON-UK" {
		t.Errorf("expected NON-UK sentinel preserved, got %q", second.Postcode)
	}
	// two-digit year form is accepted
	if !second.DeclarationDate.Equal(time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected declaration date: %v", second.DeclarationDate)
	}
	if second.ValidFourYearsBefore || second.ValidDayOf || !second.ValidAfter {
		t.Error("unexpected validity windows")
	}
}

func TestParseDeclarationsAccumulatesAllErrors(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		declarationHeaderRow,
		"Miss,Hannah,Jane,3,SW1A1AA,15/06/2020,1,1,1,FP Hannah Jane", // postcode missing space
		"Madam,Jane,Doe,4,SW1A 1AA,15/06/2020,1,1,1,Jane Doe",        // title too long
		"Mr,John,Smith,5,SW1A 1AA,31/02/2020,1,1,1,John Smith",      // impossible date
		"Mr,Sam,Jones,6,SW1A 1AA,15/06/2020,1,2,1,Sam Jones",        // flag not 0/1
		"Mr,,Empty,7,SW1A 1AA,15/06/2020,1,1,1,Empty",               // missing first name
	}, "\n"))

	parser, err := NewDeclarationsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	declarations, err := parser.ParseDeclarations(path)
	if err == nil {
		t.Fatal("expected an error summary, got nil")
	}
	if declarations != nil {
		t.Error("expected no declarations when any row is invalid")
	}

	summary, ok := errors.AsErrorSummary(err)
	if !ok {
		t.Fatalf("expected *errors.ErrorSummary, got %T", err)
	}
	if summary.Total != 5 {
		t.Fatalf("expected 5 errors, got %d: %s", summary.Total, summary.Detail())
	}

	expectedCodes := map[errors.ErrorCode]int{
		errors.CodeInvalidPostcode: 1,
		errors.CodeFieldTooLong:    1,
		errors.CodeInvalidDate:     1,
		errors.CodeInvalidFlag:     1,
		errors.CodeMissingField:    1,
	}
	for code, count := range expectedCodes {
		if summary.ByCode[code] != count {
			t.Errorf("expected %d %s error(s), got %d", count, code, summary.ByCode[code])
		}
	}
}

func TestParseDeclarationsReportsMultipleErrorsPerRow(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		declarationHeaderRow,
		"Mr,John,Smith,12,SW1A1AA,bad-date,1,maybe,1,John Smith",
	}, "\n"))

	parser, err := NewDeclarationsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	_, err = parser.ParseDeclarations(path)
	summary, ok := errors.AsErrorSummary(err)
	if !ok {
		t.Fatalf("expected *errors.ErrorSummary, got %T", err)
	}

	// postcode, date and flag problems on the one row are all reported
	if summary.Total != 3 {
		t.Fatalf("expected 3 errors, got %d: %s", summary.Total, summary.Detail())
	}
}

func TestParseDeclarationsHeaderMismatch(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Title,First Name,Surname,House Number or Name,Postcode,Date," +
			"Valid Four Years Before Day of Declaration,Valid Day of Declaration," +
			"Valid After Day of Declaration,Identifier",
		"Mr,John,Smith,12,SW1A 1AA,15/06/2020,1,1,1,John Smith",
	}, "\n"))

	parser, err := NewDeclarationsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	_, err = parser.ParseDeclarations(path)
	if err == nil {
		t.Fatal("expected a header error, got nil")
	}

	builderErr, ok := errors.AsBuilderError(err)
	if !ok {
		t.Fatalf("expected *errors.BuilderError, got %T", err)
	}
	if builderErr.Code != errors.CodeMissingColumn {
		t.Errorf("expected code %s, got %s", errors.CodeMissingColumn, builderErr.Code)
	}
	if !strings.Contains(builderErr.Error(), "Last Name") {
		t.Errorf("expected error to name the expected header, got: %s", builderErr.Error())
	}
}

func TestParseDeclarationsInvalidEncoding(t *testing.T) {
	path := writeTempCSV(t, declarationHeaderRow+"\nMr,J\xff\xfehn,Smith,12,SW1A 1AA,15/06/2020,1,1,1,John Smith\n")

	parser, err := NewDeclarationsParser(nil)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	_, err = parser.ParseDeclarations(path)
	if err == nil {
		t.Fatal("expected an encoding error, got nil")
	}

	builderErr, ok := errors.AsBuilderError(err)
	if !ok {
		t.Fatalf("expected *errors.BuilderError, got %T", err)
	}
	if builderErr.Code != errors.CodeEncodingError {
		t.Errorf("expected code %s, got %s", errors.CodeEncodingError, builderErr.Code)
	}
}
