package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testDeclaration() *Declaration {
	return &Declaration{
		Title:                "Mr",
		FirstName:            "John",
		LastName:             "Smith",
		HouseNameOrNumber:    "12",
		Postcode:             "SW1A 1AA",
		DeclarationDate:      time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		ValidFourYearsBefore: true,
		ValidDayOf:           true,
		ValidAfter:           true,
		Identifier:           "FP John Smith Giving",
		RowNumber:            2,
	}
}

func TestDeclarationDonorName(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		first    string
		last     string
		expected string
	}{
		{"full name", "Mr", "John", "Smith", "Mr John Smith"},
		{"no title", "", "John", "Smith", "John Smith"},
		{"title only skipped parts", "Dr", "", "Jones", "Dr Jones"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Declaration{Title: tt.title, FirstName: tt.first, LastName: tt.last}
			if got := d.DonorName(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDeclarationValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Declaration)
		wantErr bool
	}{
		{"valid declaration", func(d *Declaration) {}, false},
		{"empty title allowed", func(d *Declaration) { d.Title = "" }, false},
		{"title too long", func(d *Declaration) { d.Title = "Professor" }, true},
		{"missing first name", func(d *Declaration) { d.FirstName = "" }, true},
		{"missing last name", func(d *Declaration) { d.LastName = "" }, true},
		{"missing house", func(d *Declaration) { d.HouseNameOrNumber = "" }, true},
		{"postcode missing space", func(d *Declaration) { d.Postcode = "SW1A1AA" }, true},
		{"non-uk sentinel", func(d *Declaration) { d.Postcode = NonUKPostcode }, false},
		{"zero date", func(d *Declaration) { d.DeclarationDate = time.Time{} }, true},
		{"missing identifier", func(d *Declaration) { d.Identifier = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDeclaration()
			tt.modify(d)

			err := d.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{
			name: "valid transaction",
			tx: Transaction{
				Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Reference: "FP John Smith Giving Jan 2024",
				Amount:    decimal.NewFromFloat(123.00),
				RowNumber: 2,
			},
			wantErr: false,
		},
		{
			name: "zero amount",
			tx: Transaction{
				Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Reference: "ref",
				Amount:    decimal.Zero,
			},
			wantErr: true,
		},
		{
			name: "negative amount",
			tx: Transaction{
				Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Reference: "ref",
				Amount:    decimal.NewFromFloat(-5.00),
			},
			wantErr: true,
		},
		{
			name: "zero date",
			tx: Transaction{
				Reference: "ref",
				Amount:    decimal.NewFromFloat(5.00),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestParseUKDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"four digit year", "15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"two digit year", "15/01/24", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"surrounding whitespace", " 01/03/2020 ", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"us format rejected", "2024-01-15", time.Time{}, true},
		{"month out of range", "31/13/24", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUKDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"plain", "123.00", "123", false},
		{"pound symbol", "£123.45", "123.45", false},
		{"thousand separator", "1,234.56", "1234.56", false},
		{"true minus", "−5.00", "-5", false},
		{"no digits", "--", "", true},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(expected) {
				t.Errorf("expected %s, got %s", expected, got)
			}
		})
	}
}

func TestParseValidityFlag(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"0", false, false},
		{"1", true, false},
		{" 1 ", true, false},
		{"true", false, true},
		{"yes", false, true},
		{"", false, true},
		{"2", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseValidityFlag(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v for %q, got %v", tt.expected, tt.input, got)
			}
		})
	}
}

func TestNormalizePostcode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already clean", "SW1A 1AA", "SW1A 1AA"},
		{"lowercase", "sw1a 1aa", "SW1A 1AA"},
		{"extra spaces", "  EC1A   1BB ", "EC1A 1BB"},
		{"missing space left alone", "SW1A1AA", "SW1A1AA"},
		{"sentinel", "non-uk", "NON-UK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePostcode(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestValidUKPostcode(t *testing.T) {
	valid := []string{"SW1A 1AA", "EC1A 1BB", "M1 1AE", "B33 8TH", "CR2 6XH", "DN55 1PT", "W1A 0AX"}
	invalid := []string{"SW1A1AA", "sw1a 1aa", "12345", "SW1A  1AA", "", "SW1A 1A"}

	for _, pc := range valid {
		if !ValidUKPostcode(pc) {
			t.Errorf("expected %q to be valid", pc)
		}
	}
	for _, pc := range invalid {
		if ValidUKPostcode(pc) {
			t.Errorf("expected %q to be invalid", pc)
		}
	}
}
