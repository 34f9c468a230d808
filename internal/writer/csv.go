package writer

import (
	"encoding/csv"
	"os"

	"giftaid-schedule-builder/internal/scheduler"
)

// csvScheduleHeaders mirrors the xlsx table headers so a csv schedule can be
// pasted straight into the HMRC template.
var csvScheduleHeaders = []string{
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

// writeCSVSchedule renders one schedule page as a csv file in the same
// column order as the xlsx rendition. Donor columns are blank for rows
// awaiting manual resolution, exactly as on the sheet.
func (w *Writer) writeCSVSchedule(runDir, name string, page *scheduler.Page) error {
	return w.atomicWrite(runDir, name, func(path string) error {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()

		cw := csv.NewWriter(file)
		if err := cw.Write(csvScheduleHeaders); err != nil {
			return err
		}

		for _, row := range page.Rows {
			record := make([]string, len(csvScheduleHeaders))
			if declaration := row.Declaration; declaration != nil {
				record[1] = declaration.Title
				record[2] = declaration.FirstName
				record[3] = declaration.LastName
				record[4] = declaration.HouseNameOrNumber
				record[5] = declaration.Postcode
			}
			record[8] = row.Transaction.Date.Format("02/01/06")
			record[9] = row.Transaction.Amount.StringFixed(2)

			if err := cw.Write(record); err != nil {
				return err
			}
		}

		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		return file.Close()
	})
}
