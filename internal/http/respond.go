package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/announcement"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/chat"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/collection"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/meeting"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/project"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/report"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service and repository errors onto HTTP statuses.
// Anything unrecognized is treated as a bad request rather than leaking a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, collection.ErrHostExists),
		errors.Is(err, meeting.ErrAlreadyReviewed),
		errors.Is(err, meeting.ErrInvalidTransition),
		errors.Is(err, project.ErrNotClaimable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrForbidden),
		errors.Is(err, chat.ErrNotMember),
		errors.Is(err, project.ErrForbidden),
		errors.Is(err, meeting.ErrForbidden),
		errors.Is(err, announcement.ErrForbidden),
		errors.Is(err, collection.ErrForbidden),
		errors.Is(err, report.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
