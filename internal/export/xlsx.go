// Package export renders ticket lists as spreadsheets.
package export

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"

	"ticketflow/internal/models"
	"ticketflow/internal/service"
)

const sheet = "Tickets"

var headers = []string{"Created", "Title", "Status", "Priority", "Category", "Assignee", "Income"}

// sheetWriter keeps the first excelize error; later calls are no-ops.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) do(fn func() error) {
	if w.err == nil {
		w.err = fn()
	}
}

func (w *sheetWriter) set(col, row int, v any) {
	w.do(func() error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return w.f.SetCellValue(sheet, cell, v)
	})
}

// TicketsXLSX writes one row per ticket, in the given order, followed by the
// earned and estimated totals. Dates are shown in loc.
func TicketsXLSX(tickets []models.Ticket, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f}
	for i, h := range headers {
		w.set(i+1, 1, h)
	}

	row := 2
	for _, t := range tickets {
		assignee := "Unassigned"
		if t.Assignee != nil {
			assignee = t.Assignee.DisplayName()
		}
		w.set(1, row, t.CreatedAt.In(loc).Format("2006-01-02 15:04"))
		w.set(2, row, t.Title)
		w.set(3, row, t.Status.Label())
		w.set(4, row, t.Priority.Label())
		w.set(5, row, t.Category.Label())
		w.set(6, row, assignee)
		w.set(7, row, t.Income)
		row++
	}

	stats := service.Aggregate(tickets)
	row++
	w.set(6, row, "Earned")
	w.set(7, row, stats.Earned)
	row++
	w.set(6, row, "Estimated")
	w.set(7, row, stats.Estimated)

	w.do(func() error {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(7, row)
		if err != nil {
			return err
		}
		return f.SetCellStyle(sheet, "G2", last, style)
	})
	for _, cw := range []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 18},
		{"B", "B", 40},
		{"C", "E", 14},
		{"F", "F", 28},
		{"G", "G", 14},
	} {
		w.do(func() error { return f.SetColWidth(sheet, cw.from, cw.to, cw.width) })
	}
	if w.err != nil {
		return nil, fmt.Errorf("xlsx build: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName names an export after its owner and day.
func FileName(owner models.Profile, now time.Time) string {
	return slug.Make(fmt.Sprintf("tickets %s %s", owner.DisplayName(), now.Format("2006-01-02"))) + ".xlsx"
}
