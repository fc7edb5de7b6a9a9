// internal/server/history.go
package server

import (
	"fmt"
	"net/http"

	queryhistory "disaster-eye-workers/internal/workers/analysis/query-history"
)

type historyResponse struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	queryhistory.Output
}

// handleHistory serves archived assessments near a coordinate. The optional
// q parameter adds a text search over the archive index.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := requireCoordinates(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.history == nil {
		respondError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}

	out, err := s.history.Execute(r.Context(), &queryhistory.Input{
		Lat:   lat,
		Lon:   lng,
		Limit: limit,
		Query: r.URL.Query().Get("q"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("History query failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, historyResponse{
		Timestamp: now(),
		Status:    "completed",
		Output:    *out,
	})
}
