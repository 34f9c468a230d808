package writer

import (
	"fmt"

	"giftaid-schedule-builder/internal/scheduler"
)

const (
	auditLogFileName       = "transactions_log.txt"
	manualHandlingFileName = "transactions_that_need_manual_handling.txt"
)

// writeAuditLog writes the line-per-transaction audit trail, headed by a
// summary of the run. The content carries nothing run-specific beyond the
// inputs, so identical inputs produce a byte-identical log.
func (w *Writer) writeAuditLog(runDir string, result *scheduler.Result) error {
	lines := []string{
		fmt.Sprintf("Scheduled %d donation(s) across %d page(s); %d not gift-aidable, %d not claimable, %d needing manual handling, %d deferred",
			result.ScheduledRows(), len(result.Pages), result.Unmatched, result.Ineligible, len(result.ManualReview), len(result.Deferred)),
		"",
	}
	lines = append(lines, result.AuditLog...)

	return w.writeTextFile(runDir, auditLogFileName, lines)
}

// writeManualHandling writes the list of transactions whose donor must be
// chosen by hand. The file is always written, even when empty, so its
// absence is never mistaken for "nothing to review".
func (w *Writer) writeManualHandling(runDir string, result *scheduler.Result, transactionsName string) error {
	var lines []string
	for _, entry := range result.ManualReview {
		lines = append(lines, fmt.Sprintf(
			"Transaction on sheet row %d of schedule page %d, from row %d of %s, possible donors were %s",
			entry.SheetRow,
			entry.Page,
			entry.Transaction.RowNumber,
			transactionsName,
			candidateSummary(entry),
		))
	}

	return w.writeTextFile(runDir, manualHandlingFileName, lines)
}

func candidateSummary(entry scheduler.ManualReviewEntry) string {
	summary := ""
	for i, candidate := range entry.Candidates {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%s (declaration row %d)", candidate.DonorName(), candidate.RowNumber)
	}
	return summary
}
