package http

import (
	"bytes"
	"net/http"

	"conti/internal/core"
	"conti/internal/export"
	"conti/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		FromError(r, err, "Failed to fetch expenses").Write(w)
		return
	}

	items, err := s.expenses.List(r.Context(), filter)
	if err != nil {
		FromError(r, err, "Failed to fetch expenses").Write(w)
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	in, err := ParseNewExpense(p)
	if err != nil {
		FromError(r, err, "Failed to add expense").Write(w)
		return
	}

	e, err := s.expenses.Add(r.Context(), in)
	if err != nil {
		FromError(r, err, "Failed to add expense").Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		FromError(r, err, "Failed to delete expense").Write(w)
		return
	}

	if _, err := s.expenses.Delete(r.Context(), id); err != nil {
		FromError(r, err, "Failed to delete expense").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]bool{"success": true}).Write(w)
}

// handleExportExpenses streams the filtered list as a workbook. A month
// filter also adds the month summary sheet.
func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		FromError(r, err, "Failed to export expenses").Write(w)
		return
	}

	items, err := s.expenses.List(r.Context(), filter)
	if err != nil {
		FromError(r, err, "Failed to export expenses").Write(w)
		return
	}

	var summary *export.Summary
	if !filter.Month.IsEmpty() {
		st, err := s.stats.Compute(r.Context(), filter.Month)
		if err != nil {
			FromError(r, err, "Failed to export expenses").Write(w)
			return
		}
		summary = &export.Summary{Stats: st, Balance: core.ComputeBalance(st.Total, st.ByPerson)}
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, items, summary); err != nil {
		FromError(r, err, "Failed to export expenses").Write(w)
		return
	}

	name := export.Filename(filter.Month, s.clock.Today())
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
		"rows", len(items),
		log.FieldMonth, filter.Month.String(),
		"file", name)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
