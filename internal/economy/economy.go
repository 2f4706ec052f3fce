// Package economy implements the points/credits math: trust scoring,
// per-swap award calculation, atomic reservation/refund/settlement,
// and discretionary spend (spec §4.6). Every balance mutation is
// paired with an append-only transaction record under the caller's
// per-uid lock (spec §5).
package economy

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
)

// DemandMultiplier returns a skill's demand weight. Non-goals exclude
// skill-demand-index recomputation (spec §1); this always returns the
// documented default.
func DemandMultiplier(skill string) float64 { return 1.0 }

// TrustScore computes T(uid) ∈ [0, 0.5] from a profile's completed
// swap count and average rating.
func TrustScore(p *model.Profile) float64 {
	swapTrust := swapTrustComponent(p.CompletedSwapCount)
	ratingBonus := (p.AverageRating - 1) / 4 * 0.15
	if ratingBonus < 0 {
		ratingBonus = 0
	}
	if ratingBonus > 0.15 {
		ratingBonus = 0.15
	}
	t := swapTrust + ratingBonus
	if t > 0.5 {
		t = 0.5
	}
	return t
}

func swapTrustComponent(completed int) float64 {
	switch {
	case completed <= 0:
		return 0
	case completed <= 5:
		return lerp(0.10, 0.25, float64(completed-1)/4)
	case completed <= 20:
		return lerp(0.25, 0.35, float64(completed-6)/14)
	default:
		return 0.35
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func levelPointsWeight(level model.SkillLevel) float64 {
	switch level {
	case model.SkillBeginner:
		return 0.5
	case model.SkillAdvanced:
		return 1.5
	default:
		return 1.0
	}
}

func levelCreditsWeight(level model.SkillLevel) float64 {
	switch level {
	case model.SkillBeginner:
		return 0.75
	case model.SkillAdvanced:
		return 1.25
	default:
		return 1.0
	}
}

// PointsForSwap computes the points award for one party's side of a
// completed swap.
func PointsForSwap(hours float64, level model.SkillLevel, skill string, trust float64) int {
	base := hours * 10
	pts := base * (0.50 + 0.25*levelPointsWeight(level) + 0.15*(0.5+trust) + 0.10*DemandMultiplier(skill))
	return floorAtLeastOne(pts)
}

// CreditsForSwap computes the full credits award for one party's side.
func CreditsForSwap(hours float64, level model.SkillLevel) int {
	base := hours * 10
	return floorAtLeastOne(base * levelCreditsWeight(level))
}

// IndirectRequesterCredits computes the reduced credits an indirect
// swap's paying requester earns (half of the full award).
func IndirectRequesterCredits(hours float64, level model.SkillLevel) int {
	base := hours * 10
	return floorAtLeastOne(0.5 * base * levelCreditsWeight(level))
}

func floorAtLeastOne(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}

// Spend reasons and their costs (spec §4.6).
const (
	ReasonPriorityBoostCostPerHour      = 5
	ReasonRequestWithoutReciprocityCost = 50
)

// Engine mutates points/credits balances, always under the caller's
// per-uid store lock.
type Engine struct {
	store *store.Store
}

// New builds an Engine.
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// ReservePoints deducts points_offered from the requester for an
// indirect swap, writing the matching ledger entry. Caller holds
// Lock(requesterUID).
func (e *Engine) ReservePoints(p *model.Profile, amount int, swapID string) error {
	if p.SwapPoints < amount {
		return apperr.InsufficientFundsErr(amount, p.SwapPoints)
	}
	p.SwapPoints -= amount
	return e.writePointsTx(p, model.TxSpent, amount, model.ReasonIndirectSwapReserved, swapID, "")
}

// RefundPoints restores a previously reserved amount (decline/cancel path).
func (e *Engine) RefundPoints(p *model.Profile, amount int, swapID string) error {
	p.SwapPoints += amount
	return e.writePointsTx(p, model.TxEarned, amount, model.ReasonIndirectSwapRefund, swapID, "")
}

// MarkIndirectPaymentConsumed writes the zero-amount audit marker for
// a completed indirect swap whose reservation is not refunded.
func (e *Engine) MarkIndirectPaymentConsumed(p *model.Profile, swapID string) error {
	return e.writePointsTx(p, model.TxSpent, 0, model.ReasonIndirectSwapPayment, swapID, "")
}

// AwardPoints credits a party's points balance for a completed swap leg.
func (e *Engine) AwardPoints(p *model.Profile, amount int, swapID, skill string) error {
	p.SwapPoints += amount
	p.LifetimePointsEarned += amount
	return e.writePointsTx(p, model.TxEarned, amount, model.ReasonSwapCompleted, swapID, skill)
}

// AwardCredits credits a party's credits balance for a completed swap leg.
func (e *Engine) AwardCredits(p *model.Profile, amount int, swapID string) error {
	p.SwapCredits += amount
	return e.writeCreditsTx(p, model.TxEarned, amount, model.ReasonSwapCompleted, swapID)
}

// AwardReviewCredits credits a small bonus to a user for a review they
// received, per the original's rating-scaled award (spec §3 supplemented).
func (e *Engine) AwardReviewCredits(p *model.Profile, amount int, reviewID string) error {
	p.SwapCredits += amount
	return e.writeCreditsTx(p, model.TxEarned, amount, model.ReasonBonus, reviewID)
}

// ReviewCredits computes the small credit bonus awarded for a review:
// hours * skill_mult(level) * (rating/3), floored at 1.
func ReviewCredits(hours float64, level model.SkillLevel, rating int) int {
	return floorAtLeastOne(hours * levelCreditsWeight(level) * (float64(rating) / 3.0))
}

// Spend deducts points for a discretionary spend, returning the cost charged.
func (e *Engine) Spend(p *model.Profile, reason model.TxReason, durationHours float64) (int, error) {
	var cost int
	switch reason {
	case model.ReasonPriorityBoost:
		if durationHours < 1 || durationHours > 168 {
			return 0, apperr.Validationf("duration_hours must be in [1, 168]")
		}
		cost = int(math.Round(ReasonPriorityBoostCostPerHour * durationHours))
	case model.ReasonRequestWithoutReciprocity:
		cost = ReasonRequestWithoutReciprocityCost
	default:
		return 0, apperr.Validationf("unsupported spend reason %q", reason)
	}
	if p.SwapPoints < cost {
		return 0, apperr.InsufficientFundsErr(cost, p.SwapPoints)
	}
	p.SwapPoints -= cost
	if err := e.writePointsTx(p, model.TxSpent, cost, reason, "", ""); err != nil {
		return 0, err
	}
	return cost, nil
}

// CreateBoost writes an ActiveBoost record spanning [now, now+duration].
func (e *Engine) CreateBoost(uid string, durationHours float64, pointsSpent int, now time.Time) error {
	return e.store.PutActiveBoost(&model.ActiveBoost{
		ID:          uuid.NewString(),
		UID:         uid,
		Type:        model.BoostPriority,
		StartedAt:   now,
		EndsAt:      now.Add(time.Duration(durationHours * float64(time.Hour))),
		PointsSpent: pointsSpent,
	})
}

func (e *Engine) writePointsTx(p *model.Profile, typ model.TxType, amount int, reason model.TxReason, swapID, skill string) error {
	if p.SwapPoints < 0 {
		return fmt.Errorf("points balance went negative for %s", p.UID)
	}
	return e.store.PutPointsTransaction(&model.PointsTransaction{
		ID:            uuid.NewString(),
		UID:           p.UID,
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  p.SwapPoints,
		Reason:        reason,
		RelatedSwapID: swapID,
		RelatedSkill:  skill,
		CreatedAt:     time.Now(),
	})
}

func (e *Engine) writeCreditsTx(p *model.Profile, typ model.TxType, amount int, reason model.TxReason, swapID string) error {
	if p.SwapCredits < 0 {
		return fmt.Errorf("credits balance went negative for %s", p.UID)
	}
	return e.store.PutCreditsTransaction(&model.CreditsTransaction{
		ID:            uuid.NewString(),
		UID:           p.UID,
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  p.SwapCredits,
		Reason:        reason,
		RelatedSwapID: swapID,
		CreatedAt:     time.Now(),
	})
}
