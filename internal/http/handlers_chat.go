package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/ws"
)

func (r *Router) handleConversations(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		conversations, err := r.chat.ListConversations(req.Context(), info.User.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conversations)
	case http.MethodPost:
		var payload struct {
			Type      string   `json:"type"`
			Name      string   `json:"name"`
			MemberIDs []string `json:"member_ids"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		conversation, err := r.chat.CreateConversation(req.Context(), info.User, payload.Type, payload.Name, payload.MemberIDs)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, conversation)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleDirectConversation(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	conversation, err := r.chat.EnsureDirectConversation(req.Context(), info.User, payload.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (r *Router) handleConversationSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/conversations/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" {
		r.notFound(w)
		return
	}
	conversationID := parts[0]
	switch parts[1] {
	case "messages":
		r.handleConversationMessages(w, req, conversationID)
	case "members":
		r.handleConversationMembers(w, req, conversationID)
	case "read":
		r.handleConversationRead(w, req, conversationID)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleConversationMessages(w http.ResponseWriter, req *http.Request, conversationID string) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50
		}
		offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
		if offset < 0 {
			offset = 0
		}
		parentID := req.URL.Query().Get("parent_id")
		messages, err := r.chat.ListMessages(req.Context(), info.User, conversationID, parentID, limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messages)
	case http.MethodPost:
		var payload struct {
			Content  string `json:"content"`
			ParentID string `json:"parent_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		message, err := r.chat.SendMessage(req.Context(), info.User, conversationID, payload.Content, payload.ParentID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, message)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleConversationMembers(w http.ResponseWriter, req *http.Request, conversationID string) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodPost:
		var payload struct {
			UserIDs []string `json:"user_ids"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := r.chat.AddMembers(req.Context(), info.User, conversationID, payload.UserIDs); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
	case http.MethodDelete:
		userID := req.URL.Query().Get("user_id")
		if userID == "" {
			userID = info.User.ID
		}
		if err := r.chat.RemoveMember(req.Context(), info.User, conversationID, userID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleConversationRead(w http.ResponseWriter, req *http.Request, conversationID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	if err := r.chat.MarkRead(req.Context(), info.User, conversationID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (r *Router) handleMessageByID(w http.ResponseWriter, req *http.Request) {
	messageID := strings.TrimPrefix(req.URL.Path, "/messages/")
	if messageID == "" || strings.Contains(messageID, "/") {
		r.notFound(w)
		return
	}
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodPatch:
		var payload struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		message, err := r.chat.EditMessage(req.Context(), info.User, messageID, payload.Content)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, message)
	case http.MethodDelete:
		if err := r.chat.DeleteMessage(req.Context(), info.User, messageID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleChatWS(w http.ResponseWriter, req *http.Request) {
	info, ok := r.requireActor(w, req)
	if !ok {
		return
	}
	conversationID := req.URL.Query().Get("conversation_id")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id query parameter required")
		return
	}
	if err := r.chat.Membership(req.Context(), info.User, conversationID); err != nil {
		writeServiceError(w, err)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.chat.Hub().Register(conversationID, client)
	go func() {
		defer func() {
			r.chat.Hub().Unregister(conversationID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
