package http

import (
	"net/http"

	"conti/internal/core"
	"conti/internal/export"
)

// statsResponse is the stats view plus the derived balance.
type statsResponse struct {
	core.Stats
	Balance balanceView `json:"balance"`
}

type balanceView struct {
	core.Balance
	Text string `json:"text"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonth(r.URL.Query())
	if err != nil {
		FromError(r, err, "Failed to fetch stats").Write(w)
		return
	}

	st, err := s.stats.Compute(r.Context(), month)
	if err != nil {
		FromError(r, err, "Failed to fetch stats").Write(w)
		return
	}

	b := core.ComputeBalance(st.Total, st.ByPerson)
	NewJSONResponse().Body(statsResponse{
		Stats:   st,
		Balance: balanceView{Balance: b, Text: export.BalanceText(b)},
	}).Write(w)
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(core.Categories()).Write(w)
}

type personView struct {
	ID    core.Person `json:"id"`
	Label string      `json:"label"`
}

func handlePersons(w http.ResponseWriter, r *http.Request) {
	persons := core.Persons()
	out := make([]personView, 0, len(persons))
	for _, p := range persons {
		out = append(out, personView{ID: p, Label: p.Label()})
	}
	NewJSONResponse().Body(out).Write(w)
}
