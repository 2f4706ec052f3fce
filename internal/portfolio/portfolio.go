// Package portfolio aggregates a user's exchange history — verified
// skills taught and learned, recent completed swaps, and recent
// reviews received — into the read model behind GET
// /portfolio/user/{uid} (spec.md §6, original's routers/portfolio.py).
package portfolio

import (
	"sort"
	"time"

	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// VerifiedSkill summarizes how often a skill was exchanged and how it was rated.
type VerifiedSkill struct {
	Skill          string  `json:"skill"`
	TimesExchanged int     `json:"times_exchanged"`
	TotalHours     float64 `json:"total_hours"`
	AverageRating  float64 `json:"average_rating"`
}

// CompletedSwapSummary is one row of a user's recent exchange history.
type CompletedSwapSummary struct {
	SwapRequestID   string    `json:"swap_request_id"`
	PartnerUID      string    `json:"partner_uid"`
	PartnerName     string    `json:"partner_name,omitempty"`
	PartnerPhotoURL string    `json:"partner_photo_url,omitempty"`
	SkillTaught     string    `json:"skill_taught,omitempty"`
	SkillLearned    string    `json:"skill_learned,omitempty"`
	HoursExchanged  float64   `json:"hours_exchanged"`
	RatingGiven     *int      `json:"rating_given,omitempty"`
	RatingReceived  *int      `json:"rating_received,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ReviewSummary enriches a Review with the reviewer's public identity.
type ReviewSummary struct {
	*model.Review
	ReviewerName     string `json:"reviewer_name,omitempty"`
	ReviewerPhotoURL string `json:"reviewer_photo_url,omitempty"`
}

// Portfolio is the full aggregate response.
type Portfolio struct {
	UID                   string          `json:"uid"`
	DisplayName           string          `json:"display_name"`
	PhotoURL              string          `json:"photo_url,omitempty"`
	SwapCredits           int             `json:"swap_credits"`
	SwapPoints            int             `json:"swap_points"`
	TotalSwapsCompleted   int             `json:"total_swaps_completed"`
	TotalHoursTraded      float64         `json:"total_hours_traded"`
	AverageRating         float64         `json:"average_rating"`
	ReviewCount           int             `json:"review_count"`
	VerifiedSkillsTaught  []VerifiedSkill         `json:"verified_skills_taught"`
	VerifiedSkillsLearned []VerifiedSkill         `json:"verified_skills_learned"`
	RecentSwaps           []CompletedSwapSummary  `json:"recent_swaps,omitempty"`
	RecentReviews         []ReviewSummary         `json:"recent_reviews,omitempty"`
}

// Options controls which sections of the portfolio are populated.
type Options struct {
	IncludeSwaps   bool
	IncludeReviews bool
	SwapLimit      int
	ReviewLimit    int
}

// Service computes portfolios from completed swap and review history.
type Service struct {
	store *store.Store
	log   *logging.Logger
}

// New builds a Service.
func New(st *store.Store) *Service {
	return &Service{store: st, log: logging.GetDefault().Component("portfolio")}
}

type skillAgg struct {
	times      int
	totalHours float64
	ratings    []int
}

// Get builds the portfolio for uid, recalculating skill-exchange
// history from the actual swap/review records rather than trusting
// only the profile's denormalized counters.
func (s *Service) Get(uid string, opt Options) (*Portfolio, error) {
	if opt.SwapLimit <= 0 {
		opt.SwapLimit = 10
	}
	if opt.ReviewLimit <= 0 {
		opt.ReviewLimit = 5
	}

	p, err := s.store.GetProfile(uid)
	if err != nil {
		return nil, err
	}

	const candidateCap = 500
	asRequester, err := s.store.ListOutgoing(uid, model.SwapStatusCompleted, candidateCap, 0)
	if err != nil {
		return nil, err
	}
	asRecipient, err := s.store.ListIncoming(uid, model.SwapStatusCompleted, candidateCap, 0)
	if err != nil {
		return nil, err
	}
	all := append(append([]*model.SwapRequest{}, asRequester...), asRecipient...)

	taught := map[string]*skillAgg{}
	learned := map[string]*skillAgg{}
	var swaps []CompletedSwapSummary

	for _, req := range all {
		isRequester := req.RequesterUID == uid
		partnerUID := req.RecipientUID
		skillTaught, skillLearned := req.RequesterOffer, req.RequesterNeed
		if !isRequester {
			partnerUID = req.RequesterUID
			skillTaught, skillLearned = req.RequesterNeed, req.RequesterOffer
		}

		hours := req.Completion.FinalHours
		ratingGiven, ratingReceived := ratingsFor(s.store, req.ID, uid)

		if skillTaught != "" {
			a := taught[skillTaught]
			if a == nil {
				a = &skillAgg{}
				taught[skillTaught] = a
			}
			a.times++
			a.totalHours += hours
			if ratingReceived != nil {
				a.ratings = append(a.ratings, *ratingReceived)
			}
		}
		if skillLearned != "" {
			a := learned[skillLearned]
			if a == nil {
				a = &skillAgg{}
				learned[skillLearned] = a
			}
			a.times++
			a.totalHours += hours
			if ratingGiven != nil {
				a.ratings = append(a.ratings, *ratingGiven)
			}
		}

		if opt.IncludeSwaps {
			summary := CompletedSwapSummary{
				SwapRequestID:  req.ID,
				PartnerUID:     partnerUID,
				SkillTaught:    skillTaught,
				SkillLearned:   skillLearned,
				HoursExchanged: hours,
				RatingGiven:    ratingGiven,
				RatingReceived: ratingReceived,
				UpdatedAt:      req.UpdatedAt,
			}
			if partner, err := s.store.GetProfile(partnerUID); err == nil {
				summary.PartnerName = partner.DisplayName
				summary.PartnerPhotoURL = partner.PhotoURL
			}
			swaps = append(swaps, summary)
		}
	}

	sort.Slice(swaps, func(i, j int) bool {
		return swaps[i].UpdatedAt.After(swaps[j].UpdatedAt)
	})
	if len(swaps) > opt.SwapLimit {
		swaps = swaps[:opt.SwapLimit]
	}

	var reviews []ReviewSummary
	if opt.IncludeReviews {
		received, err := s.store.ListReviewsReceived(uid)
		if err != nil {
			return nil, err
		}
		if len(received) > opt.ReviewLimit {
			received = received[:opt.ReviewLimit]
		}
		for _, r := range received {
			rs := ReviewSummary{Review: r}
			if reviewer, err := s.store.GetProfile(r.ReviewerUID); err == nil {
				rs.ReviewerName = reviewer.DisplayName
				rs.ReviewerPhotoURL = reviewer.PhotoURL
			}
			reviews = append(reviews, rs)
		}
	}

	return &Portfolio{
		UID:                   uid,
		DisplayName:           p.DisplayName,
		PhotoURL:              p.PhotoURL,
		SwapCredits:           p.SwapCredits,
		SwapPoints:            p.SwapPoints,
		TotalSwapsCompleted:   len(all),
		TotalHoursTraded:      p.TotalHoursTraded,
		AverageRating:         p.AverageRating,
		ReviewCount:           p.ReviewCount,
		VerifiedSkillsTaught:  toVerifiedSkills(taught),
		VerifiedSkillsLearned: toVerifiedSkills(learned),
		RecentSwaps:           swaps,
		RecentReviews:         reviews,
	}, nil
}

func ratingsFor(st *store.Store, swapRequestID, uid string) (given, received *int) {
	revs, err := st.ListReviewsBySwap(swapRequestID)
	if err != nil {
		return nil, nil
	}
	for _, r := range revs {
		rating := r.Rating
		if r.ReviewerUID == uid {
			given = &rating
		} else {
			received = &rating
		}
	}
	return given, received
}

func toVerifiedSkills(m map[string]*skillAgg) []VerifiedSkill {
	out := make([]VerifiedSkill, 0, len(m))
	for skill, a := range m {
		var avg float64
		if len(a.ratings) > 0 {
			sum := 0
			for _, r := range a.ratings {
				sum += r
			}
			avg = float64(sum) / float64(len(a.ratings))
		}
		out = append(out, VerifiedSkill{
			Skill:          skill,
			TimesExchanged: a.times,
			TotalHours:     a.totalHours,
			AverageRating:  avg,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimesExchanged > out[j].TimesExchanged })
	return out
}
