package service

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ticketflow/internal/models"
)

// DashboardStats is derived from the loaded tickets on every request.
type DashboardStats struct {
	Total           int     `json:"total"`
	OpenCount       int     `json:"openCount"`
	InProgressCount int     `json:"inProgressCount"`
	CompletedCount  int     `json:"completedCount"`
	ClosedCount     int     `json:"closedCount"`
	UrgentCount     int     `json:"urgentCount"`
	Earned          float64 `json:"earned"`
	Estimated       float64 `json:"estimated"`
	EarnedLabel     string  `json:"earnedLabel"`
	EstimatedLabel  string  `json:"estimatedLabel"`
}

// Aggregate counts tickets per status and sums income. Earned is the income of
// completed tickets, estimated the income of open and in-progress ones.
func Aggregate(tickets []models.Ticket) DashboardStats {
	var s DashboardStats
	s.Total = len(tickets)
	for _, t := range tickets {
		switch t.Status {
		case models.StatusOpen:
			s.OpenCount++
			s.Estimated += t.Income
		case models.StatusInProgress:
			s.InProgressCount++
			s.Estimated += t.Income
		case models.StatusCompleted:
			s.CompletedCount++
			s.Earned += t.Income
		case models.StatusClosed:
			s.ClosedCount++
		}
		if t.Priority == models.PriorityUrgent {
			s.UrgentCount++
		}
	}
	s.Earned = models.ClampIncome(s.Earned)
	s.Estimated = models.ClampIncome(s.Estimated)
	s.EarnedLabel = FormatMoney(s.Earned)
	s.EstimatedLabel = FormatMoney(s.Estimated)
	return s
}

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an income amount the way the dashboard shows it.
func FormatMoney(v float64) string {
	return moneyPrinter.Sprintf("$%.2f", v)
}
