package writer

import (
	"fmt"

	"giftaid-schedule-builder/internal/scheduler"
	"giftaid-schedule-builder/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// The HMRC gift aid schedule template layout. The sheet name is what HMRC's
// claim upload recognises, so it is not negotiable.
const (
	scheduleSheetName = "R68GAD_V1_00_0_EN"

	earliestDateDescriptionCell = "D12"
	earliestDateCell            = "D13"
	earliestDateDescription     = "Earliest donation date in the period of claim. (DD/MM/YY)"

	headerRow = 23
)

// scheduleHeaders are the table headers at B23:K23 in the HMRC template.
var scheduleHeaders = []interface{}{
	"Item",
	"Title",
	"First name",
	"Last name",
	"House name or number",
	"Postcode",
	"Aggregated donations",
	"Sponsored event",
	"Donation date",
	"Amount",
}

const (
	dateNumberFormat   = "dd/mm/yy"
	amountNumberFormat = "#,##0.00"
)

// writeXLSXSchedule renders one schedule page as an xlsx workbook in the
// HMRC layout.
func (w *Writer) writeXLSXSchedule(runDir, name string, page *scheduler.Page) error {
	return w.atomicWrite(runDir, name, func(path string) error {
		f := excelize.NewFile()
		defer f.Close()

		if err := f.SetSheetName("Sheet1", scheduleSheetName); err != nil {
			return errors.ScheduleError(errors.CodeTemplateMismatch, "rename_sheet", err)
		}

		dateFormat := dateNumberFormat
		dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
		if err != nil {
			return errors.ScheduleError(errors.CodeTemplateMismatch, "date_style", err)
		}
		amountFormat := amountNumberFormat
		amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
		if err != nil {
			return errors.ScheduleError(errors.CodeTemplateMismatch, "amount_style", err)
		}

		if err := f.SetCellValue(scheduleSheetName, earliestDateDescriptionCell, earliestDateDescription); err != nil {
			return errors.ScheduleError(errors.CodeWriteFailed, "earliest_date_description", err)
		}
		if err := f.SetCellStyle(scheduleSheetName, earliestDateCell, earliestDateCell, dateStyle); err != nil {
			return errors.ScheduleError(errors.CodeWriteFailed, "earliest_date_style", err)
		}
		if err := f.SetCellValue(scheduleSheetName, earliestDateCell, page.EarliestDonation); err != nil {
			return errors.ScheduleError(errors.CodeWriteFailed, "earliest_date", err)
		}

		headerCell := fmt.Sprintf("B%d", headerRow)
		if err := f.SetSheetRow(scheduleSheetName, headerCell, &scheduleHeaders); err != nil {
			return errors.ScheduleError(errors.CodeWriteFailed, "table_headers", err)
		}

		for _, row := range page.Rows {
			if declaration := row.Declaration; declaration != nil {
				cells := map[string]string{
					"C": declaration.Title,
					"D": declaration.FirstName,
					"E": declaration.LastName,
					"F": declaration.HouseNameOrNumber,
					"G": declaration.Postcode,
				}
				for column, value := range cells {
					cell := fmt.Sprintf("%s%d", column, row.SheetRow)
					if err := f.SetCellValue(scheduleSheetName, cell, value); err != nil {
						return errors.ScheduleError(errors.CodeWriteFailed, "donor_details", err)
					}
				}
			}

			dateCell := fmt.Sprintf("J%d", row.SheetRow)
			if err := f.SetCellStyle(scheduleSheetName, dateCell, dateCell, dateStyle); err != nil {
				return errors.ScheduleError(errors.CodeWriteFailed, "donation_date_style", err)
			}
			if err := f.SetCellValue(scheduleSheetName, dateCell, row.Transaction.Date); err != nil {
				return errors.ScheduleError(errors.CodeWriteFailed, "donation_date", err)
			}

			amountCell := fmt.Sprintf("K%d", row.SheetRow)
			if err := f.SetCellStyle(scheduleSheetName, amountCell, amountCell, amountStyle); err != nil {
				return errors.ScheduleError(errors.CodeWriteFailed, "amount_style", err)
			}
			amount, _ := row.Transaction.Amount.Float64()
			if err := f.SetCellValue(scheduleSheetName, amountCell, amount); err != nil {
				return errors.ScheduleError(errors.CodeWriteFailed, "amount", err)
			}
		}

		return f.SaveAs(path)
	})
}
