package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/announcement"
)

func (r *Router) handleAnnouncements(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		announcements, err := r.announcements.List(req.Context(), info.User)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, announcements)
	case http.MethodPost:
		var input announcement.Input
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.announcements.Create(req.Context(), info.User, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		r.methodNotAllowed(w)
	}
}

// handleActiveAnnouncements serves the public banner feed. No auth: the
// frontend shows these before login.
func (r *Router) handleActiveAnnouncements(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	active, err := r.announcements.ListActive(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, active)
}

func (r *Router) handleAnnouncementByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/announcements/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		found, err := r.announcements.Get(req.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPatch, http.MethodPut:
		var input announcement.Input
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.announcements.Update(req.Context(), info.User, id, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := r.announcements.Delete(req.Context(), info.User, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}
