package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusClosed     Status = "closed"
)

var Statuses = []Status{StatusOpen, StatusInProgress, StatusCompleted, StatusClosed}

var statusLabels = map[Status]string{
	StatusOpen:       "Open",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusClosed:     "Closed",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var priorityLabels = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
	PriorityUrgent: "Urgent",
}

func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryDevelopment Category = "development"
	CategorySocialMedia Category = "social_media"
	CategoryClient      Category = "client"
)

var Categories = []Category{CategoryGeneral, CategoryDevelopment, CategorySocialMedia, CategoryClient}

var categoryLabels = map[Category]string{
	CategoryGeneral:     "General",
	CategoryDevelopment: "Development",
	CategorySocialMedia: "Social Media",
	CategoryClient:      "Client",
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

type Ticket struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Category    Category  `json:"category"`
	AssignedTo  *string   `json:"assignedTo"`
	CreatedBy   string    `json:"createdBy"`
	Income      float64   `json:"income"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// joined on read
	Assignee *Profile `json:"assignee,omitempty"`
	Creator  *Profile `json:"creator,omitempty"`
}

// IsAssignedTo reports whether profileID is the ticket's assignee.
func (t Ticket) IsAssignedTo(profileID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == profileID
}

// ClampIncome rounds to cents and never goes below zero.
func ClampIncome(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Round(v*100) / 100
}

type Comment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	User *Profile `json:"user,omitempty"`
}
