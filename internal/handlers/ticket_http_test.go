package handlers

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"ticketflow/internal/service"
)

func TestTicketDTOInput(t *testing.T) {
	desc, to := "details", "unassigned"
	tests := []struct {
		name string
		dto  ticketDTO
		want service.TicketInput
	}{
		{"number income", ticketDTO{Title: "a", Income: 12.5}, service.TicketInput{Title: "a", Income: "12.5"}},
		{"whole number income", ticketDTO{Title: "a", Income: 200.0}, service.TicketInput{Title: "a", Income: "200"}},
		{"string income", ticketDTO{Title: "a", Income: "7.25"}, service.TicketInput{Title: "a", Income: "7.25"}},
		{"null fields", ticketDTO{Title: "a"}, service.TicketInput{Title: "a"}},
		{"pointers", ticketDTO{Title: "a", Description: &desc, AssignedTo: &to}, service.TicketInput{Title: "a", Description: "details", AssignedTo: "unassigned"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.New(t).Assert(tt.dto.input(), qt.DeepEquals, tt.want)
		})
	}
}

func TestTicketPatchDTO(t *testing.T) {
	c := qt.New(t)
	title, empty := "renamed", ""

	p := ticketPatchDTO{Title: &title}.patch()
	c.Assert(p.Title, qt.Equals, &title)
	c.Assert(p.Income, qt.IsNil)
	c.Assert(p.AssignedTo, qt.IsNil)
	c.Assert(p.Description, qt.IsNil)

	p = ticketPatchDTO{Income: 0.0, AssignedTo: &empty}.patch()
	c.Assert(*p.Income, qt.Equals, "0")
	c.Assert(*p.AssignedTo, qt.Equals, "")

	p = ticketPatchDTO{Income: "12.50"}.patch()
	c.Assert(*p.Income, qt.Equals, "12.50")
}
