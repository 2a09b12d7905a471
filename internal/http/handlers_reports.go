package httpx

import (
	"encoding/json"
	"net/http"
)

// handleWeeklyReport emails the weekly collection summary to the requested
// address.
func (r *Router) handleWeeklyReport(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	var payload struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := r.reports.SendWeeklySummary(req.Context(), info.User, payload.To); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
