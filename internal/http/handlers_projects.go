package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/project"
)

func (r *Router) handleProjects(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		projects, err := r.projects.List(req.Context(), req.URL.Query().Get("status"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, projects)
	case http.MethodPost:
		var input project.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.projects.Create(req.Context(), info.User, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProjectSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/projects/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 1 || parts[0] == "" {
		r.notFound(w)
		return
	}
	projectID := parts[0]
	switch {
	case len(parts) == 1:
		r.handleProjectByID(w, req, projectID)
	case len(parts) == 2 && parts[1] == "claim":
		r.handleProjectClaim(w, req, projectID)
	case len(parts) == 2 && parts[1] == "tasks":
		r.handleProjectTasks(w, req, projectID)
	case len(parts) == 3 && parts[1] == "tasks" && parts[2] != "":
		r.handleProjectTaskByID(w, req, projectID, parts[2])
	default:
		r.notFound(w)
	}
}

func (r *Router) handleProjectByID(w http.ResponseWriter, req *http.Request, projectID string) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		found, err := r.projects.Get(req.Context(), projectID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPatch:
		var input project.UpdateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.projects.Update(req.Context(), info.User, projectID, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := r.projects.Delete(req.Context(), info.User, projectID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProjectClaim(w http.ResponseWriter, req *http.Request, projectID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	claimed, err := r.projects.Claim(req.Context(), info.User, projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimed)
}

func (r *Router) handleProjectTasks(w http.ResponseWriter, req *http.Request, projectID string) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		tasks, err := r.projects.ListTasks(req.Context(), projectID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	case http.MethodPost:
		var payload struct {
			Title      string `json:"title"`
			AssigneeID string `json:"assignee_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err := r.projects.CreateTask(req.Context(), info.User, projectID, payload.Title, payload.AssigneeID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProjectTaskByID(w http.ResponseWriter, req *http.Request, projectID, taskID string) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodPatch:
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err := r.projects.UpdateTaskStatus(req.Context(), info.User, projectID, taskID, payload.Status)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		if err := r.projects.DeleteTask(req.Context(), info.User, projectID, taskID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}
