package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ticketflow/internal/models"
	"ticketflow/internal/service"
	"ticketflow/internal/utils"
	"ticketflow/internal/validation"
)

// TicketHTTP wires the ticket mutation endpoints to the ticket service.
type TicketHTTP struct {
	svc *service.TicketService
	log zerolog.Logger
}

func NewTicketHTTP(svc *service.TicketService, log zerolog.Logger) *TicketHTTP {
	return &TicketHTTP{svc: svc, log: log}
}

func actor(r *http.Request) models.Profile {
	p, _ := utils.ProfileFrom(r.Context())
	return *p
}

// fail answers a mutation error: validation and well-known errors get their
// own message, anything else is logged and reported as generic.
func fail(w http.ResponseWriter, log zerolog.Logger, err error, generic string) {
	status := utils.StatusFromError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg(generic)
	}
	utils.Fail(w, status, utils.PublicMessage(err, generic))
}

type ticketDTO struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	AssignedTo  *string `json:"assignedTo"`
	Income      any     `json:"income"`
}

func (d ticketDTO) input() service.TicketInput {
	in := service.TicketInput{
		Title:    d.Title,
		Status:   d.Status,
		Priority: d.Priority,
		Category: d.Category,
	}
	if d.Description != nil {
		in.Description = *d.Description
	}
	if d.AssignedTo != nil {
		in.AssignedTo = *d.AssignedTo
	}
	if v, ok := income(d.Income); ok {
		in.Income = v
	}
	return in
}

// income renders a JSON number or string amount; null and absent report false.
func income(v any) (string, bool) {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case string:
		return v, true
	}
	return "", false
}

// ticketPatchDTO leaves absent (or null) fields nil so they keep their value.
type ticketPatchDTO struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	AssignedTo  *string `json:"assignedTo"`
	Income      any     `json:"income"`
}

func (d ticketPatchDTO) patch() service.TicketPatch {
	p := service.TicketPatch{
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		Category:    d.Category,
		AssignedTo:  d.AssignedTo,
	}
	if v, ok := income(d.Income); ok {
		p.Income = &v
	}
	return p
}

// -----------------------------------------------------------------------------
// POST /api/tickets
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ticketDTO
		if err := validation.Decode(r.Body, validation.Ticket, &in); err != nil {
			fail(w, h.log, err, "Failed to create ticket")
			return
		}
		t, err := h.svc.Create(r.Context(), actor(r), in.input())
		if err != nil {
			fail(w, h.log, err, "Failed to create ticket")
			return
		}
		utils.Succeed(w, http.StatusCreated, t)
	}
}

// -----------------------------------------------------------------------------
// PATCH /api/tickets/{id}
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ticketPatchDTO
		if err := validation.Decode(r.Body, validation.TicketPatch, &in); err != nil {
			fail(w, h.log, err, "Failed to update ticket")
			return
		}
		t, err := h.svc.Update(r.Context(), actor(r), chi.URLParam(r, "id"), in.patch())
		if err != nil {
			fail(w, h.log, err, "Failed to update ticket")
			return
		}
		utils.Succeed(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// DELETE /api/tickets/{id}
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
			fail(w, h.log, err, "Failed to delete ticket")
			return
		}
		utils.Succeed(w, http.StatusOK, map[string]string{"next": "/dashboard/tickets"})
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets/{id}/status
// -----------------------------------------------------------------------------
func (h *TicketHTTP) ChangeStatus() http.HandlerFunc {
	type inDTO struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := validation.Decode(r.Body, validation.Status, &in); err != nil {
			fail(w, h.log, err, "Failed to update ticket")
			return
		}
		t, err := h.svc.ChangeStatus(r.Context(), actor(r), chi.URLParam(r, "id"), in.Status)
		if err != nil {
			fail(w, h.log, err, "Failed to update ticket")
			return
		}
		utils.Succeed(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// PATCH /api/tickets/{id}/assignee
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Reassign() http.HandlerFunc {
	type inDTO struct {
		AssignedTo *string `json:"assignedTo"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := validation.Decode(r.Body, validation.Assignee, &in); err != nil {
			fail(w, h.log, err, "Failed to update ticket")
			return
		}
		to := service.Unassigned
		if in.AssignedTo != nil {
			to = *in.AssignedTo
		}
		t, err := h.svc.Reassign(r.Context(), actor(r), chi.URLParam(r, "id"), to)
		if err != nil {
			fail(w, h.log, err, "Failed to update ticket")
			return
		}
		utils.Succeed(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets/{id}/comments
// -----------------------------------------------------------------------------
func (h *TicketHTTP) AddComment() http.HandlerFunc {
	type inDTO struct {
		Content string `json:"content"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := validation.Decode(r.Body, validation.Comment, &in); err != nil {
			fail(w, h.log, err, "Failed to post comment")
			return
		}
		c, err := h.svc.AddComment(r.Context(), actor(r), chi.URLParam(r, "id"), in.Content)
		if err != nil {
			fail(w, h.log, err, "Failed to post comment")
			return
		}
		utils.Succeed(w, http.StatusCreated, c)
	}
}
