package handlers

import (
	"net/http"
	"strconv"
	"time"

	"ticketflow/internal/export"
	"ticketflow/internal/utils"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /dashboard/tickets/export.xlsx?q=&status=&priority=&from=&to=
// Same criteria as the ticket list; the sheet ends with the income totals.
func (h *PagesHTTP) Export() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tickets, _, err := h.filtered(r)
		if err != nil {
			h.page(w, err, "export")
			return
		}
		b, err := export.TicketsXLSX(tickets, h.loc)
		if err != nil {
			h.log.Error().Err(err).Msg("render xlsx")
			utils.Error(w, http.StatusInternalServerError, "Failed to export tickets")
			return
		}
		name := export.FileName(actor(r), time.Now().In(h.loc))
		w.Header().Set("Content-Type", xlsxType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(b)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
