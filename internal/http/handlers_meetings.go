package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/meeting"
)

func (r *Router) handleMeetings(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		meetings, err := r.meetings.List(req.Context(), req.URL.Query().Get("status"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meetings)
	case http.MethodPost:
		var input meeting.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.meetings.Create(req.Context(), info.User, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleMeetingSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/meetings/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 1 || parts[0] == "" {
		r.notFound(w)
		return
	}
	meetingID := parts[0]
	switch {
	case len(parts) == 1:
		r.handleMeetingByID(w, req, meetingID)
	case len(parts) == 2 && parts[1] == "agenda":
		r.handleMeetingAgenda(w, req, meetingID)
	case len(parts) == 2 && parts[1] == "final-agenda":
		r.handleMeetingFinalAgenda(w, req, meetingID)
	case len(parts) == 2 && parts[1] == "complete":
		r.handleMeetingComplete(w, req, meetingID)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleMeetingByID(w http.ResponseWriter, req *http.Request, meetingID string) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		found, err := r.meetings.Get(req.Context(), meetingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPatch:
		var input meeting.UpdateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.meetings.Update(req.Context(), info.User, meetingID, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := r.meetings.Delete(req.Context(), info.User, meetingID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleMeetingAgenda(w http.ResponseWriter, req *http.Request, meetingID string) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		items, err := r.meetings.ListAgendaItems(req.Context(), meetingID, req.URL.Query().Get("status"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var payload struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		item, err := r.meetings.SubmitAgendaItem(req.Context(), info.User, meetingID, payload.Title, payload.Description)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		r.methodNotAllowed(w)
	}
}

// handleMeetingFinalAgenda accepts the final agenda text plus an optional
// document upload as multipart form data.
func (r *Router) handleMeetingFinalAgenda(w http.ResponseWriter, req *http.Request, meetingID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}

	var finalAgenda, documentPath string
	contentType := req.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		finalAgenda = req.FormValue("final_agenda")
		file, header, err := req.FormFile("document")
		if err == nil {
			defer file.Close()
			documentPath, err = r.storeUpload(meetingID, header.Filename, file)
			if err != nil {
				r.logger.Error("agenda document store failed", "meeting_id", meetingID, "error", err)
				writeError(w, http.StatusInternalServerError, "could not store document")
				return
			}
		}
	} else {
		var payload struct {
			FinalAgenda string `json:"final_agenda"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		finalAgenda = payload.FinalAgenda
	}

	updated, err := r.meetings.SetFinalAgenda(req.Context(), info.User, meetingID, finalAgenda, documentPath)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleMeetingComplete(w http.ResponseWriter, req *http.Request, meetingID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	completed, err := r.meetings.Complete(req.Context(), info.User, meetingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completed)
}

func (r *Router) handleAgendaItemSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/agenda-items/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "review" {
		r.notFound(w)
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	var payload struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, err := r.meetings.ReviewAgendaItem(req.Context(), info.User, parts[0], payload.Approve)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (r *Router) storeUpload(scope, filename string, src io.Reader) (string, error) {
	dir := r.uploadsDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%d-%s", scope, time.Now().UnixNano(), filepath.Base(filename))
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(src, maxUploadBytes)); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
