// Package reviews implements post-completion rating submission: one
// review per (swap, reviewer) pair, feeding the reviewed party's
// average_rating/review_count (and so their trust score) and a small
// credit bonus (spec §3, supplemented feature).
package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/economy"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// SubmitInput is the payload for POST /reviews.
type SubmitInput struct {
	SwapRequestID string
	ReviewerUID   string
	Rating        int
	ReviewText    string
}

// Service implements review submission and retrieval.
type Service struct {
	store   *store.Store
	economy *economy.Engine
	log     *logging.Logger
}

// New builds a Service.
func New(st *store.Store, econ *economy.Engine) *Service {
	return &Service{store: st, economy: econ, log: logging.GetDefault().Component("reviews")}
}

// Submit validates the swap is completed, the reviewer is a
// participant, and the uniqueness invariant, then records the review
// and updates the reviewed party's denormalized stats and trust
// inputs under their per-uid lock.
func (s *Service) Submit(in SubmitInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validationf("rating must be in [1, 5]")
	}
	if len(in.ReviewText) > 1000 {
		return nil, apperr.Validationf("review_text must be at most 1000 characters")
	}

	req, err := s.store.GetSwapRequest(in.SwapRequestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterUID != in.ReviewerUID && req.RecipientUID != in.ReviewerUID {
		return nil, apperr.Forbiddenf("you can only review swaps you participated in")
	}
	if req.Status != model.SwapStatusCompleted {
		return nil, apperr.Conflictf("can only review completed swaps")
	}

	already, err := s.store.HasReviewed(in.SwapRequestID, in.ReviewerUID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperr.Conflictf("you have already reviewed this swap")
	}

	isRequester := in.ReviewerUID == req.RequesterUID
	reviewedUID := req.RecipientUID
	skillExchanged := req.RequesterNeed
	reviewedLevel := req.Completion.Recipient.SkillLevel
	if !isRequester {
		reviewedUID = req.RequesterUID
		skillExchanged = req.RequesterOffer
		reviewedLevel = req.Completion.Requester.SkillLevel
	}

	r := &model.Review{
		ID:             uuid.NewString(),
		SwapRequestID:  in.SwapRequestID,
		ReviewerUID:    in.ReviewerUID,
		ReviewedUID:    reviewedUID,
		Rating:         in.Rating,
		ReviewText:     in.ReviewText,
		SkillExchanged: skillExchanged,
		HoursExchanged: req.Completion.FinalHours,
		CreatedAt:      time.Now(),
	}
	if err := s.store.PutReview(r); err != nil {
		return nil, err
	}

	if err := s.applyReviewStats(reviewedUID, in.Rating, req.Completion.FinalHours, reviewedLevel, r.ID); err != nil {
		s.log.Warn("failed to apply review stats", "review_id", r.ID, "err", err)
	}
	s.acknowledgeInConversation(req)

	return r, nil
}

// applyReviewStats incrementally updates the reviewed user's
// average_rating/review_count and awards a small credit bonus, all
// under the reviewed user's per-uid lock (spec §3 supplemented).
func (s *Service) applyReviewStats(uid string, rating int, hours float64, level model.SkillLevel, reviewID string) error {
	unlock := s.store.Lock(uid)
	defer unlock()

	p, err := s.store.GetProfile(uid)
	if err != nil {
		return err
	}

	oldCount := p.ReviewCount
	p.AverageRating = (p.AverageRating*float64(oldCount) + float64(rating)) / float64(oldCount+1)
	p.ReviewCount = oldCount + 1
	p.UpdatedAt = time.Now()

	if hours > 0 {
		credits := economy.ReviewCredits(hours, level, rating)
		if err := s.economy.AwardReviewCredits(p, credits, reviewID); err != nil {
			return err
		}
	}
	return s.store.PutProfile(p)
}

func (s *Service) acknowledgeInConversation(req *model.SwapRequest) {
	if req.ConversationID == "" {
		return
	}
	conv, err := s.store.GetConversation(req.ConversationID)
	if err != nil {
		return
	}
	msg := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderUID:      model.SystemSender,
		Content:        "A review was submitted for this swap.",
		SentAt:         time.Now(),
		ReadBy:         []string{model.SystemSender},
		Type:           model.MessageTypeSystem,
	}
	if err := s.store.PutMessage(msg); err != nil {
		s.log.Warn("failed to post review acknowledgement", "conversation_id", conv.ID, "err", err)
	}
}

// ForUser returns reviews received by uid, newest first, with the
// current average rating over the full set.
func (s *Service) ForUser(uid string) ([]*model.Review, float64, error) {
	revs, err := s.store.ListReviewsReceived(uid)
	if err != nil {
		return nil, 0, err
	}
	if len(revs) == 0 {
		return revs, 0, nil
	}
	var sum int
	for _, r := range revs {
		sum += r.Rating
	}
	return revs, float64(sum) / float64(len(revs)), nil
}
