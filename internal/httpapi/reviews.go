package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/reviews"
)

type reviewCreateRequest struct {
	UID           string `json:"uid"`
	SwapRequestID string `json:"swap_request_id"`
	Rating        int    `json:"rating"`
	ReviewText    string `json:"review_text"`
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var in reviewCreateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.UID)
	if uid == "" || in.SwapRequestID == "" {
		writeError(w, apperr.Validationf("uid and swap_request_id are required"))
		return
	}

	rev, err := s.reviews.Submit(reviews.SubmitInput{
		SwapRequestID: in.SwapRequestID,
		ReviewerUID:   uid,
		Rating:        in.Rating,
		ReviewText:    in.ReviewText,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

type reviewListResponse struct {
	Reviews       []*model.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	list, avg, err := s.reviews.ForUser(uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewListResponse{Reviews: list, AverageRating: avg})
}
