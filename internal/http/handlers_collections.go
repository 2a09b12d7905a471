package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/collection"
)

func (r *Router) handleHosts(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		hosts, err := r.collections.ListHosts(req.Context(), req.URL.Query().Get("status"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hosts)
	case http.MethodPost:
		var input collection.HostInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.collections.CreateHost(req.Context(), info.User, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleHostByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/hosts/")
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
		found, err := r.collections.GetHost(req.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPatch, http.MethodPut:
		var input collection.HostInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.collections.UpdateHost(req.Context(), info.User, id, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := r.collections.DeleteHost(req.Context(), info.User, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleRecipients(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		recipients, err := r.collections.ListRecipients(req.Context(), req.URL.Query().Get("status"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipients)
	case http.MethodPost:
		var input collection.RecipientInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.collections.CreateRecipient(req.Context(), info.User, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleRecipientByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/recipients/")
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
		found, err := r.collections.GetRecipient(req.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPatch, http.MethodPut:
		var input collection.RecipientInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.collections.UpdateRecipient(req.Context(), info.User, id, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := r.collections.DeleteRecipient(req.Context(), info.User, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCollections(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		filter := repository.CollectionFilter{
			HostName: req.URL.Query().Get("host"),
		}
		if raw := req.URL.Query().Get("from"); raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				filter.From = t
			}
		}
		if raw := req.URL.Query().Get("to"); raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				filter.To = t
			}
		}
		filter.Limit, _ = strconv.Atoi(req.URL.Query().Get("limit"))
		if filter.Limit <= 0 {
			filter.Limit = 100
		}
		filter.Offset, _ = strconv.Atoi(req.URL.Query().Get("offset"))
		if filter.Offset < 0 {
			filter.Offset = 0
		}
		entries, err := r.collections.ListEntries(req.Context(), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case http.MethodPost:
		var input collection.EntryInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		entry, err := r.collections.LogEntry(req.Context(), info.User, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	case http.MethodDelete:
		hostName := strings.TrimSpace(req.URL.Query().Get("host"))
		if hostName == "" {
			writeError(w, http.StatusBadRequest, "host query parameter required")
			return
		}
		removed, err := r.collections.PurgeHostEntries(req.Context(), info.User, hostName)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCollectionByID(w http.ResponseWriter, req *http.Request) {
	raw := strings.TrimPrefix(req.URL.Path, "/collections/")
	if raw == "" || strings.Contains(raw, "/") {
		r.notFound(w)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.notFound(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		entry, err := r.collections.GetEntry(req.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case http.MethodPatch, http.MethodPut:
		var input collection.EntryInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		entry, err := r.collections.UpdateEntry(req.Context(), info.User, id, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case http.MethodDelete:
		if err := r.collections.DeleteEntry(req.Context(), info.User, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCollectionTotals(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	totals, err := r.collections.Totals(req.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (r *Router) handleHostTotals(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	totals, err := r.collections.HostTotals(req.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (r *Router) handleWeeklyTotals(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	weeks, _ := strconv.Atoi(req.URL.Query().Get("weeks"))
	totals, err := r.collections.WeeklyTotals(req.Context(), weeks)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// handleCollectionImport accepts a CSV upload. The preview and overwrite
// query flags mirror the command line importer.
func (r *Router) handleCollectionImport(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, _, err := req.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	opts := collection.ImportOptions{
		Preview:     req.URL.Query().Get("preview") == "true",
		Overwrite:   req.URL.Query().Get("overwrite") == "true",
		SubmittedBy: info.User.ID,
	}
	result, err := r.collections.ImportCSV(req.Context(), info.User, file, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
