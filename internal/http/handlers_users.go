package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/access"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/user"
)

func (r *Router) handleUsers(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	if !access.Can(info.User, access.ManageUsers) {
		writeError(w, http.StatusForbidden, "user management not permitted")
		return
	}
	switch req.Method {
	case http.MethodGet:
		users, err := r.users.List(req.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		payload := make([]map[string]any, 0, len(users))
		for i := range users {
			payload = append(payload, userPayload(&users[i]))
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodPost:
		var input user.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.users.Create(req.Context(), input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, userPayload(created))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUserByID(w http.ResponseWriter, req *http.Request) {
	userID := strings.TrimPrefix(req.URL.Path, "/users/")
	if userID == "" || strings.Contains(userID, "/") {
		r.notFound(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	// Anyone may read their own profile; everything else is admin territory.
	if userID != info.User.ID && !access.Can(info.User, access.ManageUsers) {
		writeError(w, http.StatusForbidden, "user management not permitted")
		return
	}
	switch req.Method {
	case http.MethodGet:
		found, err := r.users.Get(req.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userPayload(found))
	case http.MethodPatch:
		var input user.UpdateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !access.Can(info.User, access.ManageUsers) {
			// Self-service edits cover the profile only.
			input.Role = nil
			input.Permissions = nil
			input.Active = nil
		}
		updated, err := r.users.Update(req.Context(), userID, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userPayload(updated))
	case http.MethodDelete:
		if !access.Can(info.User, access.ManageUsers) {
			writeError(w, http.StatusForbidden, "user management not permitted")
			return
		}
		if err := r.users.Deactivate(req.Context(), userID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
	default:
		r.methodNotAllowed(w)
	}
}
