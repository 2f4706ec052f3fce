package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/apperr"
)

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 50
	}

	list, err := s.messaging.ListConversations(uid, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	before, _ := strconv.ParseInt(r.URL.Query().Get("before"), 10, 64)
	if limit <= 0 {
		limit = 50
	}

	list, err := s.messaging.GetMessages(uid, id, limit, before)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type sendMessageRequest struct {
	UID     string `json:"uid"`
	Content string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in sendMessageRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" || in.Content == "" {
		writeError(w, apperr.Validationf("uid and content are required"))
		return
	}

	msg, err := s.messaging.SendMessage(r.Context(), id, uid, in.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	if err := s.messaging.MarkRead(uid, id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "marked read")
}
