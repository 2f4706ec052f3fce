package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/completion"
	"github.com/otitou/wap-backend-go/internal/model"
)

type markCompleteRequest struct {
	UID          string  `json:"uid"`
	HoursClaimed float64 `json:"hours_exchanged"`
	SkillLevel   string  `json:"skill_level"`
	Notes        string  `json:"notes"`
}

func (s *Server) handleMarkComplete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in markCompleteRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}

	req, err := s.completion.MarkComplete(r.Context(), id, uid, completion.MarkCompleteInput{
		HoursClaimed: in.HoursClaimed,
		SkillLevel:   model.SkillLevel(in.SkillLevel),
		Notes:        in.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type verifyRequest struct {
	UID           string `json:"uid"`
	Action        string `json:"action"`
	DisputeReason string `json:"dispute_reason"`
}

func (s *Server) handleVerifySwap(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in verifyRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}

	var (
		req *model.SwapRequest
		err error
	)
	switch completion.VerifyAction(in.Action) {
	case completion.ActionVerify:
		req, err = s.completion.Verify(r.Context(), id, uid)
	case completion.ActionDispute:
		req, err = s.completion.Dispute(r.Context(), id, uid, in.DisputeReason)
	default:
		writeError(w, apperr.Validationf("action must be verify or dispute"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleCompletionStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	req, err := s.swapRequest.Get(uid, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req.Completion)
}
