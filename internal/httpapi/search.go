package httpapi

import (
	"context"
	"net/http"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/matching"
	"github.com/otitou/wap-backend-go/internal/search"
)

type searchRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
	Mode      string  `json:"mode"`
}

// defaultSearchLimit and defaultSearchThreshold mirror the original's Pydantic
// field defaults (routers/search.py): limit=20, threshold=0.3.
const (
	defaultSearchLimit     = 20
	defaultSearchThreshold = 0.3
)

// normalize fills in the defaults a caller may omit.
func (in *searchRequest) normalize() {
	if in.Limit <= 0 {
		in.Limit = defaultSearchLimit
	}
	if in.Threshold <= 0 {
		in.Threshold = defaultSearchThreshold
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var in searchRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Query == "" {
		writeError(w, apperr.Validationf("query is required"))
		return
	}
	in.normalize()
	mode := search.Mode(in.Mode)
	if mode == "" {
		mode = search.ModeOffers
	}

	results, err := s.search.Search(r.Context(), in.Query, in.Limit, in.Threshold, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type recommendSkillsRequest struct {
	CurrentSkills string `json:"current_skills"`
	Limit         int    `json:"limit"`
}

func (s *Server) handleRecommendSkills(w http.ResponseWriter, r *http.Request) {
	var in recommendSkillsRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.CurrentSkills == "" {
		writeError(w, apperr.Validationf("current_skills is required"))
		return
	}
	if in.Limit <= 0 {
		in.Limit = 10
	}

	recs, err := s.search.RecommendSkills(r.Context(), in.CurrentSkills, in.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type reciprocalMatchRequest struct {
	MyUID          string `json:"my_uid"`
	MyOfferText    string `json:"my_offer_text"`
	MyNeedText     string `json:"my_need_text"`
	Limit          int    `json:"limit"`
	NotifyMatches  bool   `json:"notify_matches"`
}

func (s *Server) handleReciprocalMatch(w http.ResponseWriter, r *http.Request) {
	var in reciprocalMatchRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	uid := actingUID(r, in.MyUID)
	if uid == "" || in.MyOfferText == "" || in.MyNeedText == "" {
		writeError(w, apperr.Validationf("my_uid, my_offer_text and my_need_text are required"))
		return
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}

	matches, err := s.matcher.FindReciprocalMatches(r.Context(), uid, in.MyOfferText, in.MyNeedText, in.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	if in.NotifyMatches {
		s.notifyMatches(r.Context(), uid, matches)
	}
	writeJSON(w, http.StatusOK, matches)
}

const matchNotifyScoreThreshold = 0.70

func (s *Server) notifyMatches(ctx context.Context, uid string, matches []matching.Match) {
	requester, err := s.store.GetProfile(uid)
	if err != nil {
		return
	}
	for _, m := range matches {
		if m.ReciprocalScore < matchNotifyScoreThreshold {
			continue
		}
		if !s.matcher.ShouldNotify(ctx, uid, m.UID) {
			continue
		}
		candidate, err := s.store.GetProfile(m.UID)
		if err != nil || !candidate.EmailUpdates {
			continue
		}
		s.email.SendMatchNotification(ctx, candidate.Email, candidate.DisplayName, email.MatchInfo{
			UID:            uid,
			DisplayName:    requester.DisplayName,
			SkillsToOffer:  requester.SkillsToOffer,
			ServicesNeeded: requester.ServicesNeeded,
			Score:          m.ReciprocalScore,
		})
	}
}
