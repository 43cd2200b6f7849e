package export_test

import (
	"bytes"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/xuri/excelize/v2"

	"ticketflow/internal/export"
	"ticketflow/internal/models"
)

func TestTicketsXLSX(t *testing.T) {
	c := qt.New(t)
	dev := models.Profile{ID: "d", Email: "dev@x.io"}
	created := time.Date(2024, 1, 11, 23, 59, 0, 0, time.UTC)
	tickets := []models.Ticket{
		{Title: "Invoice bug", Status: models.StatusCompleted, Priority: models.PriorityUrgent, Category: models.CategoryClient, Income: 200, CreatedAt: created, Assignee: &dev},
		{Title: "Login issue", Status: models.StatusOpen, Priority: models.PriorityLow, Category: models.CategoryDevelopment, Income: 150, CreatedAt: created},
	}

	b, err := export.TicketsXLSX(tickets, time.UTC)
	c.Assert(err, qt.IsNil)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	defer f.Close()

	rows, err := f.GetRows("Tickets")
	c.Assert(err, qt.IsNil)
	c.Assert(rows[0], qt.DeepEquals, []string{"Created", "Title", "Status", "Priority", "Category", "Assignee", "Income"})
	c.Assert(rows[1][:6], qt.DeepEquals, []string{"2024-01-11 23:59", "Invoice bug", "Completed", "Urgent", "Client", "dev@x.io"})
	c.Assert(rows[2][5], qt.Equals, "Unassigned")

	earned, err := f.GetCellValue("Tickets", "F5")
	c.Assert(err, qt.IsNil)
	c.Assert(earned, qt.Equals, "Earned")
	v, err := f.GetCellValue("Tickets", "G5", excelize.Options{RawCellValue: true})
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, "200")
	v, err = f.GetCellValue("Tickets", "G6", excelize.Options{RawCellValue: true})
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, "150")
}

func TestTicketsXLSXEmpty(t *testing.T) {
	c := qt.New(t)
	b, err := export.TicketsXLSX(nil, nil)
	c.Assert(err, qt.IsNil)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	defer f.Close()
	rows, err := f.GetRows("Tickets")
	c.Assert(err, qt.IsNil)
	c.Assert(rows[0][0], qt.Equals, "Created")
}

func TestFileName(t *testing.T) {
	c := qt.New(t)
	name := "Dana Smith"
	p := models.Profile{Email: "dana@x.io", FullName: &name}
	got := export.FileName(p, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	c.Assert(got, qt.Equals, "tickets-dana-smith-2024-03-05.xlsx")
}
