// Package scheduler turns matching outcomes into the gift aid schedule
// itself: pages of claimable rows sized to what an HMRC schedule sheet
// accepts, an audit trail explaining what happened to every transaction, and
// the list of ambiguous transactions that need a human decision.
package scheduler

import (
	"fmt"
	"strings"
	"time"

	"giftaid-schedule-builder/internal/matcher"
	"giftaid-schedule-builder/internal/models"
	"giftaid-schedule-builder/pkg/logger"

	"github.com/shopspring/decimal"
)

// MaxScheduleRows is the row capacity of one HMRC schedule sheet.
const MaxScheduleRows = 1000

// FirstSheetRow is the spreadsheet row the first donation lands on in the
// HMRC template; rows 23-24 are the header block.
const FirstSheetRow = 25

// Config controls schedule capacity.
type Config struct {
	// MaxRowsPerPage caps the rows on one schedule page. It exists for
	// tests; real runs use MaxScheduleRows.
	MaxRowsPerPage int

	// MaxPages caps how many schedule pages one run may produce. HMRC
	// accepts one sheet per claim, so the default is 1; donations beyond
	// the budget are deferred to the next run rather than dropped.
	MaxPages int
}

// DefaultConfig returns the capacity of a single HMRC claim.
func DefaultConfig() *Config {
	return &Config{
		MaxRowsPerPage: MaxScheduleRows,
		MaxPages:       1,
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.MaxRowsPerPage < 1 {
		return fmt.Errorf("max rows per page must be at least 1, got %d", c.MaxRowsPerPage)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1, got %d", c.MaxPages)
	}
	return nil
}

// Row is one schedule line: a gift-aidable transaction, paired with the
// declaration that covers it. Declaration is nil for ambiguous transactions,
// whose donor columns are left blank on the sheet until a human fills them
// in.
type Row struct {
	Declaration *models.Declaration
	Transaction *models.Transaction

	// SheetRow is the spreadsheet row this donation occupies on its page.
	SheetRow int
}

// Page is one HMRC schedule sheet's worth of rows.
type Page struct {
	Number           int
	Rows             []Row
	EarliestDonation time.Time
	TotalAmount      decimal.Decimal
}

// ManualReviewEntry records a transaction whose reference matched more than
// one declaration. The transaction holds a schedule row with blank donor
// columns; the entry tells the reviewer where that row is and who the
// candidates are. The schedule never guesses between candidates.
type ManualReviewEntry struct {
	Transaction *models.Transaction
	Candidates  []*models.Declaration
	Page        int
	SheetRow    int
}

// Result is everything one schedule run produces.
type Result struct {
	Pages        []*Page
	ManualReview []ManualReviewEntry
	Deferred     []*models.Transaction

	// AuditLog has one line per transaction, in input order, saying what
	// happened to it and why.
	AuditLog []string

	Matched    int
	Unmatched  int
	Ineligible int
	Ambiguous  int
}

// Builder assembles a Result from transactions and a matching engine.
type Builder struct {
	config *Config
	engine *matcher.Engine
	logger logger.Logger
}

// NewBuilder creates a schedule builder over the given matching engine.
func NewBuilder(engine *matcher.Engine, config *Config) (*Builder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Builder{
		config: config,
		engine: engine,
		logger: logger.GetGlobalLogger().WithComponent("scheduler"),
	}, nil
}

// Build matches every transaction in input order and routes it to a schedule
// page, the manual review list, the deferred list, or nowhere, with an audit
// line either way. Output is deterministic: same inputs, same Result.
func (b *Builder) Build(transactions []*models.Transaction) *Result {
	result := &Result{}

	b.logger.WithFields(logger.Fields{
		"transactions": len(transactions),
		"declarations": len(b.engine.Declarations()),
		"max_pages":    b.config.MaxPages,
	}).Info("Building schedule")

	for _, tx := range transactions {
		outcome := b.engine.Match(tx)

		switch outcome.Kind {
		case matcher.OutcomeUnmatched:
			result.Unmatched++
			result.audit(tx, "no matching declaration; not gift-aidable")

		case matcher.OutcomeIneligible:
			result.Ineligible++
			result.audit(tx, "matched declaration for %s but %s; not claimable",
				outcome.Declaration.DonorName(),
				outcome.Ineligibility.Reason(outcome.Declaration, tx.Date))

		case matcher.OutcomeAmbiguous:
			result.Ambiguous++
			row, placed := b.appendRow(result, nil, tx)
			if !placed {
				b.deferToNextRun(result, tx)
				continue
			}
			result.ManualReview = append(result.ManualReview, ManualReviewEntry{
				Transaction: tx,
				Candidates:  outcome.Candidates,
				Page:        len(result.Pages),
				SheetRow:    row.SheetRow,
			})
			result.audit(tx, "matches %d declarations (%s); placed on schedule page %d, sheet row %d with donor details left blank; needs manual handling",
				len(outcome.Candidates), donorNames(outcome.Candidates), len(result.Pages), row.SheetRow)

		case matcher.OutcomeResolved:
			row, placed := b.appendRow(result, outcome.Declaration, tx)
			if !placed {
				b.deferToNextRun(result, tx)
				continue
			}
			result.Matched++
			result.audit(tx, "matched declaration for %s (declaration row %d); schedule page %d, sheet row %d",
				outcome.Declaration.DonorName(), outcome.Declaration.RowNumber, len(result.Pages), row.SheetRow)
		}
	}

	b.logger.WithFields(logger.Fields{
		"matched":    result.Matched,
		"unmatched":  result.Unmatched,
		"ineligible": result.Ineligible,
		"ambiguous":  result.Ambiguous,
		"deferred":   len(result.Deferred),
		"pages":      len(result.Pages),
	}).Info("Schedule built")

	return result
}

// appendRow places a transaction on the current page, opening a new page if
// the current one is full and the page budget allows. Returns false when the
// budget is exhausted.
func (b *Builder) appendRow(result *Result, declaration *models.Declaration, tx *models.Transaction) (Row, bool) {
	var page *Page
	if len(result.Pages) > 0 {
		page = result.Pages[len(result.Pages)-1]
	}

	if page == nil || len(page.Rows) == b.config.MaxRowsPerPage {
		if len(result.Pages) == b.config.MaxPages {
			return Row{}, false
		}
		page = &Page{
			Number:      len(result.Pages) + 1,
			TotalAmount: decimal.Zero,
		}
		result.Pages = append(result.Pages, page)
	}

	row := Row{
		Declaration: declaration,
		Transaction: tx,
		SheetRow:    FirstSheetRow + len(page.Rows),
	}
	page.Rows = append(page.Rows, row)
	page.TotalAmount = page.TotalAmount.Add(tx.Amount)
	if page.EarliestDonation.IsZero() || tx.Date.Before(page.EarliestDonation) {
		page.EarliestDonation = tx.Date
	}

	return row, true
}

// deferToNextRun records a gift-aidable transaction that did not fit in this
// run's page budget.
func (b *Builder) deferToNextRun(result *Result, tx *models.Transaction) {
	result.Deferred = append(result.Deferred, tx)
	result.audit(tx, "gift-aidable, but the schedule is full (%d page(s) of %d rows); deferred to the next run",
		b.config.MaxPages, b.config.MaxRowsPerPage)
}

// audit appends one formatted line for a transaction to the audit log.
func (r *Result) audit(tx *models.Transaction, format string, args ...interface{}) {
	prefix := fmt.Sprintf("Row %d, reference %q: ", tx.RowNumber, tx.Reference)
	r.AuditLog = append(r.AuditLog, prefix+fmt.Sprintf(format, args...))
}

// NeedsManualReview reports whether any transaction was ambiguous.
func (r *Result) NeedsManualReview() bool {
	return len(r.ManualReview) > 0
}

// ScheduledRows returns the total row count across all pages.
func (r *Result) ScheduledRows() int {
	total := 0
	for _, page := range r.Pages {
		total += len(page.Rows)
	}
	return total
}

// donorNames renders a candidate list for audit and review text.
func donorNames(declarations []*models.Declaration) string {
	names := make([]string, len(declarations))
	for i, d := range declarations {
		names[i] = d.DonorName()
	}
	return strings.Join(names, ", ")
}
