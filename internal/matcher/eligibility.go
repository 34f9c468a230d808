package matcher

import (
	"fmt"
	"time"

	"giftaid-schedule-builder/internal/models"
)

// Ineligibility states why a transaction that matched exactly one
// declaration still cannot be claimed against it. Gift aid declarations can
// cover up to four years of donations before the day they were signed, the
// day itself, and any donation after it - each window independently.
type Ineligibility int

const (
	// Eligible means the transaction date is covered by the declaration.
	Eligible Ineligibility = iota

	// TooOld means the transaction occurred more than four years before
	// the declaration date; no declaration can cover it.
	TooOld

	// OutsideFourYearWindow means the transaction falls in the four years
	// before the declaration date but the declaration does not cover that
	// window.
	OutsideFourYearWindow

	// OutsideDayOfWindow means the transaction occurred on the declaration
	// date but the declaration does not cover the day it was signed.
	OutsideDayOfWindow

	// OutsideAfterWindow means the transaction occurred after the
	// declaration date but the declaration does not cover later donations.
	OutsideAfterWindow
)

// CheckEligibility decides whether a declaration's validity windows cover a
// transaction date. Dates are compared at day granularity; both sides are
// parsed date-only.
func CheckEligibility(txDate time.Time, declaration *models.Declaration) Ineligibility {
	declarationDate := declaration.DeclarationDate
	fourYearsBefore := declarationDate.AddDate(-4, 0, 0)

	switch {
	case txDate.Before(fourYearsBefore):
		return TooOld
	case txDate.Before(declarationDate):
		if !declaration.ValidFourYearsBefore {
			return OutsideFourYearWindow
		}
	case txDate.Equal(declarationDate):
		if !declaration.ValidDayOf {
			return OutsideDayOfWindow
		}
	default:
		if !declaration.ValidAfter {
			return OutsideAfterWindow
		}
	}

	return Eligible
}

// Reason renders an audit-log explanation for the ineligibility, naming the
// relevant dates so the user can verify against the declaration.
func (i Ineligibility) Reason(declaration *models.Declaration, txDate time.Time) string {
	const dateFormat = "02/01/2006"
	declarationDate := declaration.DeclarationDate.Format(dateFormat)

	switch i {
	case TooOld:
		return fmt.Sprintf("transaction occurred more than four years before declaration date of %s", declarationDate)
	case OutsideFourYearWindow:
		return fmt.Sprintf("transaction occurred less than four years before declaration date, "+
			"but declaration wasn't stated to cover donations made in the four years before it was signed "+
			"(declaration date: %s, transaction date: %s)", declarationDate, txDate.Format(dateFormat))
	case OutsideDayOfWindow:
		return fmt.Sprintf("transaction occurred on declaration date, but declaration wasn't stated "+
			"to cover donations made on the day it was signed (declaration/transaction date: %s)", declarationDate)
	case OutsideAfterWindow:
		return fmt.Sprintf("transaction occurred after declaration date, but declaration wasn't stated "+
			"to cover donations made after the day it was signed (declaration date: %s, transaction date: %s)",
			declarationDate, txDate.Format(dateFormat))
	default:
		return "transaction date is covered by the declaration"
	}
}
