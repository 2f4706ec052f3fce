package economy

import (
	"time"

	"github.com/otitou/wap-backend-go/internal/model"
)

// Settle runs the points/credits settlement for a swap request that
// has just transitioned to completed, under the caller's per-swap-id
// lock (spec §4.6). Direct swaps award both parties independently;
// indirect swaps consume the requester's reservation and award the
// provider in full.
func (e *Engine) Settle(req *model.SwapRequest) error {
	requester, err := e.lockAndLoad(req.RequesterUID)
	if err != nil {
		return err
	}
	defer requester.unlock()

	recipient, err := e.lockAndLoad(req.RecipientUID)
	if err != nil {
		return err
	}
	defer recipient.unlock()

	finalHours := req.Completion.FinalHours
	requesterLevel := req.Completion.Requester.SkillLevel
	recipientLevel := req.Completion.Recipient.SkillLevel
	skill := req.RequesterNeed

	switch req.SwapType {
	case model.SwapTypeIndirect:
		// Provider (recipient) earns full points + credits; requester
		// earns reduced credits only and the reservation is consumed,
		// not refunded.
		recipientTrust := TrustScore(recipient.profile)
		recipientPoints := PointsForSwap(finalHours, recipientLevel, skill, recipientTrust)
		recipientCredits := CreditsForSwap(finalHours, recipientLevel)
		if err := e.AwardPoints(recipient.profile, recipientPoints, req.ID, skill); err != nil {
			return err
		}
		if err := e.AwardCredits(recipient.profile, recipientCredits, req.ID); err != nil {
			return err
		}

		requesterCredits := IndirectRequesterCredits(finalHours, requesterLevel)
		if err := e.AwardCredits(requester.profile, requesterCredits, req.ID); err != nil {
			return err
		}
		if err := e.MarkIndirectPaymentConsumed(requester.profile, req.ID); err != nil {
			return err
		}

		req.Completion.RecipientPointsEarned = recipientPoints
		req.Completion.RecipientCreditsEarned = recipientCredits
		req.Completion.RequesterCreditsEarned = requesterCredits

	default: // direct
		requesterTrust := TrustScore(requester.profile)
		recipientTrust := TrustScore(recipient.profile)

		requesterPoints := PointsForSwap(finalHours, requesterLevel, skill, requesterTrust)
		requesterCredits := CreditsForSwap(finalHours, requesterLevel)
		recipientPoints := PointsForSwap(finalHours, recipientLevel, skill, recipientTrust)
		recipientCredits := CreditsForSwap(finalHours, recipientLevel)

		if err := e.AwardPoints(requester.profile, requesterPoints, req.ID, skill); err != nil {
			return err
		}
		if err := e.AwardCredits(requester.profile, requesterCredits, req.ID); err != nil {
			return err
		}
		if err := e.AwardPoints(recipient.profile, recipientPoints, req.ID, skill); err != nil {
			return err
		}
		if err := e.AwardCredits(recipient.profile, recipientCredits, req.ID); err != nil {
			return err
		}

		req.Completion.RequesterPointsEarned = requesterPoints
		req.Completion.RequesterCreditsEarned = requesterCredits
		req.Completion.RecipientPointsEarned = recipientPoints
		req.Completion.RecipientCreditsEarned = recipientCredits
	}

	now := time.Now()
	requester.profile.CompletedSwapCount++
	requester.profile.TotalHoursTraded += finalHours
	requester.profile.UpdatedAt = now
	recipient.profile.CompletedSwapCount++
	recipient.profile.TotalHoursTraded += finalHours
	recipient.profile.UpdatedAt = now

	if err := e.store.PutProfile(requester.profile); err != nil {
		return err
	}
	return e.store.PutProfile(recipient.profile)
}

type lockedProfile struct {
	profile *model.Profile
	unlock  func()
}

func (e *Engine) lockAndLoad(uid string) (*lockedProfile, error) {
	unlock := e.store.Lock(uid)
	p, err := e.store.GetProfile(uid)
	if err != nil {
		unlock()
		return nil, err
	}
	return &lockedProfile{profile: p, unlock: unlock}, nil
}
