package handler

import (
	"encoding/csv"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mcosta87/eventos/internal/model"
)

// csvHeader matches the columns the organizers' spreadsheets expect.
var csvHeader = []string{"Evento", "Data/Hora", "Participante", "Email", "Telefone", "Observações", "Data inscrição"}

const csvTimeLayout = "02/01/2006 15:04"

// ExportEventRoll handles GET /events/{id}/registrations/export
// Streams one event's roll as CSV, oldest registration first.
func (h *EventHandler) ExportEventRoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rows, err := h.rolls.EventRoll(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "falha ao exportar inscrições")
		return
	}

	h.writeRollCSV(w, "inscritos.csv", rows)
}

// ExportRoll handles GET /registrations/export?evento=&q=
// Streams the filtered global roll as CSV, newest registration first.
// Exports carry every matching row; the interactive pagination
// parameters do not apply here.
func (h *EventHandler) ExportRoll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.rolls.Export(r.Context(), model.RollFilter{
		EventID: q.Get("evento"),
		Query:   q.Get("q"),
	})
	if err != nil {
		writeDomainError(w, err, "falha ao exportar inscrições")
		return
	}

	h.writeRollCSV(w, "inscricoes.csv", rows)
}

func (h *EventHandler) writeRollCSV(w http.ResponseWriter, filename string, rows []model.RollRow) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		h.log.Error("csv write failed", zap.Error(err))
		return
	}
	for _, row := range rows {
		record := []string{
			row.EventTitle,
			row.EventStartsAt.Format(csvTimeLayout),
			row.AttendeeName,
			row.AttendeeEmail,
			row.AttendeePhone,
			row.AssistanceDetails,
			row.RegisteredAt.Format(csvTimeLayout),
		}
		if err := cw.Write(record); err != nil {
			h.log.Error("csv write failed", zap.Error(err))
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.Error("csv flush failed", zap.Error(err))
	}
}
