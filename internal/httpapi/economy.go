package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

const recentTransactionsLimit = 20

type balanceInfo struct {
	SwapPoints  int                        `json:"swap_points"`
	SwapCredits int                        `json:"swap_credits"`
	Recent      []*model.PointsTransaction `json:"recent_transactions"`
}

func (s *Server) handlePointsBalance(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	p, err := s.store.GetProfile(uid)
	if err != nil {
		writeError(w, err)
		return
	}
	tx, err := s.store.ListPointsTransactions(uid, recentTransactionsLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceInfo{
		SwapPoints:  p.SwapPoints,
		SwapCredits: p.SwapCredits,
		Recent:      tx,
	})
}

type pointsSpendRequest struct {
	UID           string  `json:"uid"`
	Reason        string  `json:"reason"`
	DurationHours float64 `json:"duration_hours"`
}

type spendResult struct {
	CostPaid        int `json:"cost_paid"`
	RemainingPoints int `json:"remaining_points"`
}

func (s *Server) handlePointsSpend(w http.ResponseWriter, r *http.Request) {
	var in pointsSpendRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" {
		writeError(w, apperr.Validationf("uid is required"))
		return
	}

	unlock := s.store.Lock(uid)
	defer unlock()

	p, err := s.store.GetProfile(uid)
	if err != nil {
		writeError(w, err)
		return
	}

	reason := model.TxReason(in.Reason)
	cost, err := s.economy.Spend(p, reason, in.DurationHours)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutProfile(p); err != nil {
		writeError(w, err)
		return
	}
	if reason == model.ReasonPriorityBoost {
		if err := s.economy.CreateBoost(uid, in.DurationHours, cost, time.Now()); err != nil {
			s.log.Warn("failed to create priority boost", "uid", uid, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, spendResult{CostPaid: cost, RemainingPoints: p.SwapPoints})
}
