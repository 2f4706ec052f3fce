package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/moderation"
)

type blockCreateRequest struct {
	UID        string `json:"uid"`
	BlockedUID string `json:"blocked_uid"`
	Reason     string `json:"reason"`
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	var in blockCreateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" || in.BlockedUID == "" {
		writeError(w, apperr.Validationf("uid and blocked_uid are required"))
		return
	}

	b, err := s.moderation.Block(uid, in.BlockedUID, in.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	blocked := mux.Vars(r)["blocked_uid"]
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	if err := s.moderation.Unblock(uid, blocked); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "unblocked")
}

type reportCreateRequest struct {
	UID            string `json:"uid"`
	ReportedUID    string `json:"reported_uid"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Reason         string `json:"reason"`
	Details        string `json:"details"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var in reportCreateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" || in.ReportedUID == "" {
		writeError(w, apperr.Validationf("uid and reported_uid are required"))
		return
	}

	rep, err := s.moderation.Report(moderation.ReportInput{
		ReporterUID:    uid,
		ReportedUID:    in.ReportedUID,
		ConversationID: in.ConversationID,
		MessageID:      in.MessageID,
		Reason:         model.ReportReason(in.Reason),
		Details:        in.Details,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
