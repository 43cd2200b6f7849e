package models_test

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"

	"ticketflow/internal/models"
)

func TestParseRole(t *testing.T) {
	c := qt.New(t)
	r, err := models.ParseRole(" Social_Media_Manager ")
	c.Assert(err, qt.IsNil)
	c.Assert(r, qt.Equals, models.RoleSocialMediaManager)
	c.Assert(r.Label(), qt.Equals, "Social Media Manager")

	_, err = models.ParseRole("owner")
	c.Assert(err, qt.ErrorMatches, `unknown role "owner"`)
}

func TestEnumsHaveLabels(t *testing.T) {
	c := qt.New(t)
	for _, s := range models.Statuses {
		c.Assert(s.Valid(), qt.IsTrue)
		c.Assert(s.Label(), qt.Not(qt.Equals), string(s))
	}
	for _, p := range models.Priorities {
		c.Assert(p.Label(), qt.Not(qt.Equals), string(p))
	}
	for _, cat := range models.Categories {
		c.Assert(cat.Label(), qt.Not(qt.Equals), string(cat))
	}
	c.Assert(models.Status("archived").Label(), qt.Equals, "archived")
}

func TestClampIncome(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{12.344, 12.34},
		{12.346, 12.35},
		{-5, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	c := qt.New(t)
	for _, tt := range tests {
		c.Check(models.ClampIncome(tt.in), qt.Equals, tt.want)
	}
}

func TestDisplayName(t *testing.T) {
	c := qt.New(t)
	name, blank := "Dana Smith", "  "
	c.Assert(models.Profile{Email: "d@example.com", FullName: &name}.DisplayName(), qt.Equals, "Dana Smith")
	c.Assert(models.Profile{Email: "d@example.com", FullName: &blank}.DisplayName(), qt.Equals, "d@example.com")
	c.Assert(models.Profile{Email: "d@example.com"}.DisplayName(), qt.Equals, "d@example.com")
}

func TestIsAssignedTo(t *testing.T) {
	c := qt.New(t)
	id := "p1"
	c.Assert(models.Ticket{AssignedTo: &id}.IsAssignedTo("p1"), qt.IsTrue)
	c.Assert(models.Ticket{AssignedTo: &id}.IsAssignedTo("p2"), qt.IsFalse)
	c.Assert(models.Ticket{}.IsAssignedTo("p1"), qt.IsFalse)
}
