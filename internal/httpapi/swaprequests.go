package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/swaprequest"
)

type swapRequestCreateRequest struct {
	RequesterUID   string `json:"requester_uid"`
	RecipientUID   string `json:"recipient_uid"`
	SwapType       string `json:"swap_type"`
	RequesterOffer string `json:"requester_offer"`
	RequesterNeed  string `json:"requester_need"`
	PointsOffered  int    `json:"points_offered"`
	Message        string `json:"message"`
}

func (s *Server) handleCreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	var in swapRequestCreateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.RequesterUID == "" || in.RecipientUID == "" {
		writeError(w, apperr.Validationf("requester_uid and recipient_uid are required"))
		return
	}
	swapType := model.SwapType(in.SwapType)
	if swapType == "" {
		swapType = model.SwapTypeDirect
	}

	req, err := s.swapRequest.Create(r.Context(), swaprequest.CreateInput{
		RequesterUID:   in.RequesterUID,
		RecipientUID:   in.RecipientUID,
		SwapType:       swapType,
		RequesterOffer: in.RequesterOffer,
		RequesterNeed:  in.RequesterNeed,
		PointsOffered:  in.PointsOffered,
		Message:        in.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleListIncoming(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	status := model.SwapStatus(r.URL.Query().Get("status"))
	list, err := s.swapRequest.ListIncoming(uid, status, 0, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListOutgoing(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	status := model.SwapStatus(r.URL.Query().Get("status"))
	list, err := s.swapRequest.ListOutgoing(uid, status, 0, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type respondRequest struct {
	UID    string `json:"uid"`
	Action string `json:"action"`
}

func (s *Server) handleRespondSwapRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in respondRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}

	req, err := s.swapRequest.Respond(r.Context(), id, uid, swaprequest.Action(in.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleCancelSwapRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}
	if err := s.swapRequest.Cancel(r.Context(), id, uid); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "swap request cancelled")
}
