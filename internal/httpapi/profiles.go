package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

// profileCreateRequest is the POST /profiles/upsert body.
type profileCreateRequest struct {
	UID            string `json:"uid"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	PhotoURL       string `json:"photo_url"`
	Bio            string `json:"bio"`
	City           string `json:"city"`
	Timezone       string `json:"timezone"`
	SkillsToOffer  string `json:"skills_to_offer"`
	ServicesNeeded string `json:"services_needed"`
	DMOpen         bool   `json:"dm_open"`
	EmailUpdates   bool   `json:"email_updates"`
	ShowCity       bool   `json:"show_city"`
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var in profileCreateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.UID == "" || in.Email == "" {
		writeError(w, apperr.Validationf("uid and email are required"))
		return
	}

	existing, err := s.store.GetProfile(in.UID)
	now := time.Now()
	p := &model.Profile{
		UID:            in.UID,
		Email:          in.Email,
		DisplayName:    in.DisplayName,
		PhotoURL:       in.PhotoURL,
		Bio:            in.Bio,
		City:           in.City,
		Timezone:       in.Timezone,
		SkillsToOffer:  in.SkillsToOffer,
		ServicesNeeded: in.ServicesNeeded,
		DMOpen:         in.DMOpen,
		EmailUpdates:   in.EmailUpdates,
		ShowCity:       in.ShowCity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	isNew := err != nil
	if err == nil {
		// Preserve economy/trust state across a re-upsert.
		p.SwapPoints = existing.SwapPoints
		p.LifetimePointsEarned = existing.LifetimePointsEarned
		p.SwapCredits = existing.SwapCredits
		p.CompletedSwapCount = existing.CompletedSwapCount
		p.TotalHoursTraded = existing.TotalHoursTraded
		p.AverageRating = existing.AverageRating
		p.ReviewCount = existing.ReviewCount
		p.ResponseRate = existing.ResponseRate
		p.CreatedAt = existing.CreatedAt
	}

	if err := s.store.PutProfile(p); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	if p.HasIndexableSkills() {
		if err := s.matcher.ReindexProfile(ctx, p); err != nil {
			s.log.Warn("profile reindex failed", "uid", p.UID, "err", err)
		}
	} else if err := s.index.Delete(ctx, p.UID); err != nil {
		s.log.Warn("vector delete failed", "uid", p.UID, "err", err)
	}
	if isNew && s.email != nil {
		s.email.SendWelcome(ctx, p.Email, p.DisplayName, p.SkillsToOffer, p.ServicesNeeded)
	}
	s.invalidateSearchCache(ctx)

	writeJSON(w, http.StatusOK, p)
}

// invalidateSearchCache clears cached search/recommendation results
// after a profile change so stale matches never outlive the write
// that produced them (spec §4.3/§5).
func (s *Server) invalidateSearchCache(ctx context.Context) {
	s.cache.DeletePrefix(ctx, "search")
	s.cache.DeletePrefix(ctx, "skill_recommend")
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	p, err := s.store.GetProfile(uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProfileByEmail(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	p, err := s.store.GetProfileByEmail(email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// profileUpdateRequest carries only the fields a PATCH may change;
// nil means "leave unchanged".
type profileUpdateRequest struct {
	DisplayName    *string `json:"display_name"`
	PhotoURL       *string `json:"photo_url"`
	Bio            *string `json:"bio"`
	City           *string `json:"city"`
	Timezone       *string `json:"timezone"`
	SkillsToOffer  *string `json:"skills_to_offer"`
	ServicesNeeded *string `json:"services_needed"`
	DMOpen         *bool   `json:"dm_open"`
	EmailUpdates   *bool   `json:"email_updates"`
	ShowCity       *bool   `json:"show_city"`
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	var in profileUpdateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	unlock := s.store.Lock(uid)
	defer unlock()

	p, err := s.store.GetProfile(uid)
	if err != nil {
		writeError(w, err)
		return
	}

	skillsChanged := false
	if in.DisplayName != nil {
		p.DisplayName = *in.DisplayName
	}
	if in.PhotoURL != nil {
		p.PhotoURL = *in.PhotoURL
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if in.City != nil {
		p.City = *in.City
	}
	if in.Timezone != nil {
		p.Timezone = *in.Timezone
	}
	if in.SkillsToOffer != nil && *in.SkillsToOffer != p.SkillsToOffer {
		p.SkillsToOffer = *in.SkillsToOffer
		skillsChanged = true
	}
	if in.ServicesNeeded != nil && *in.ServicesNeeded != p.ServicesNeeded {
		p.ServicesNeeded = *in.ServicesNeeded
		skillsChanged = true
	}
	if in.DMOpen != nil {
		p.DMOpen = *in.DMOpen
	}
	if in.EmailUpdates != nil {
		p.EmailUpdates = *in.EmailUpdates
	}
	if in.ShowCity != nil {
		p.ShowCity = *in.ShowCity
	}
	p.UpdatedAt = time.Now()

	if err := s.store.PutProfile(p); err != nil {
		writeError(w, err)
		return
	}

	if skillsChanged {
		ctx := r.Context()
		if p.HasIndexableSkills() {
			if err := s.matcher.ReindexProfile(ctx, p); err != nil {
				s.log.Warn("profile reindex failed", "uid", p.UID, "err", err)
			}
		} else if err := s.index.Delete(ctx, p.UID); err != nil {
			s.log.Warn("vector delete failed", "uid", p.UID, "err", err)
		}
	}
	s.invalidateSearchCache(r.Context())

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	if err := s.store.DeleteProfile(uid); err != nil {
		writeError(w, err)
		return
	}
	if err := s.index.Delete(r.Context(), uid); err != nil {
		s.log.Warn("vector delete failed", "uid", uid, "err", err)
	}
	s.invalidateSearchCache(r.Context())
	writeMessage(w, http.StatusOK, "profile deleted")
}
