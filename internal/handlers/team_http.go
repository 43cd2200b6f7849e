package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ticketflow/internal/service"
	"ticketflow/internal/utils"
	"ticketflow/internal/validation"
)

type TeamHTTP struct {
	svc *service.TeamService
	log zerolog.Logger
}

func NewTeamHTTP(svc *service.TeamService, log zerolog.Logger) *TeamHTTP {
	return &TeamHTTP{svc: svc, log: log}
}

// PATCH /api/team/{id}/role
func (h *TeamHTTP) ChangeRole() http.HandlerFunc {
	type inDTO struct {
		Role string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := validation.Decode(r.Body, validation.Role, &in); err != nil {
			fail(w, h.log, err, "Failed to update role")
			return
		}
		p, err := h.svc.ChangeRole(r.Context(), actor(r), chi.URLParam(r, "id"), in.Role)
		if err != nil {
			if utils.StatusFromError(err) == http.StatusNotFound {
				utils.Fail(w, http.StatusNotFound, "Team member not found")
				return
			}
			fail(w, h.log, err, "Failed to update role")
			return
		}
		utils.Succeed(w, http.StatusOK, p)
	}
}
