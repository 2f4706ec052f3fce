package economy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
)

func TestTrustScoreBounds(t *testing.T) {
	require.Equal(t, 0.0, TrustScore(&model.Profile{}))

	maxed := &model.Profile{CompletedSwapCount: 25, AverageRating: 5}
	require.Equal(t, 0.5, TrustScore(maxed))

	// A low rating never pushes trust negative.
	low := &model.Profile{CompletedSwapCount: 0, AverageRating: 1}
	require.GreaterOrEqual(t, TrustScore(low), 0.0)
}

func TestTrustScoreMonotonicInCompletedSwaps(t *testing.T) {
	a := TrustScore(&model.Profile{CompletedSwapCount: 1, AverageRating: 3})
	b := TrustScore(&model.Profile{CompletedSwapCount: 10, AverageRating: 3})
	c := TrustScore(&model.Profile{CompletedSwapCount: 30, AverageRating: 3})
	require.Less(t, a, b)
	require.Less(t, b, c)
}

func TestPointsForSwapFloorsAtOne(t *testing.T) {
	require.Equal(t, 1, PointsForSwap(0.01, model.SkillBeginner, "x", 0))
}

func TestPointsForSwapScalesWithLevel(t *testing.T) {
	beginner := PointsForSwap(2, model.SkillBeginner, "guitar", 0.2)
	advanced := PointsForSwap(2, model.SkillAdvanced, "guitar", 0.2)
	require.Less(t, beginner, advanced)
}

func TestCreditsForSwap(t *testing.T) {
	require.Equal(t, 20, CreditsForSwap(2, model.SkillIntermediate))
	require.Equal(t, 15, CreditsForSwap(2, model.SkillBeginner))
	require.Equal(t, 25, CreditsForSwap(2, model.SkillAdvanced))
}

func TestIndirectRequesterCreditsIsHalfOfFull(t *testing.T) {
	full := CreditsForSwap(4, model.SkillIntermediate)
	half := IndirectRequesterCredits(4, model.SkillIntermediate)
	require.Equal(t, full/2, half)
}

func TestReviewCreditsScalesWithRating(t *testing.T) {
	low := ReviewCredits(3, model.SkillIntermediate, 1)
	high := ReviewCredits(3, model.SkillIntermediate, 5)
	require.Less(t, low, high)
	require.GreaterOrEqual(t, low, 1)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(store.Config{DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestReservePointsInsufficientFunds(t *testing.T) {
	st := newTestStore(t)
	e := New(st)

	p := &model.Profile{UID: "u1", SwapPoints: 10}
	err := e.ReservePoints(p, 20, "swap-1")
	require.Error(t, err)
	require.Equal(t, 10, p.SwapPoints)
}

func TestReserveAndRefundPointsRoundTrips(t *testing.T) {
	st := newTestStore(t)
	e := New(st)

	p := &model.Profile{UID: "u1", SwapPoints: 100}
	require.NoError(t, e.ReservePoints(p, 40, "swap-1"))
	require.Equal(t, 60, p.SwapPoints)

	require.NoError(t, e.RefundPoints(p, 40, "swap-1"))
	require.Equal(t, 100, p.SwapPoints)

	tx, err := st.ListPointsTransactions("u1", 10)
	require.NoError(t, err)
	require.Len(t, tx, 2)
}

func TestAwardPointsAndCredits(t *testing.T) {
	st := newTestStore(t)
	e := New(st)

	p := &model.Profile{UID: "u1"}
	require.NoError(t, e.AwardPoints(p, 15, "swap-1", "guitar"))
	require.Equal(t, 15, p.SwapPoints)
	require.Equal(t, 15, p.LifetimePointsEarned)

	require.NoError(t, e.AwardCredits(p, 10, "swap-1"))
	require.Equal(t, 10, p.SwapCredits)
}

func TestSpendPriorityBoostValidatesDuration(t *testing.T) {
	st := newTestStore(t)
	e := New(st)

	p := &model.Profile{UID: "u1", SwapPoints: 1000}
	_, err := e.Spend(p, model.ReasonPriorityBoost, 0)
	require.Error(t, err)

	_, err = e.Spend(p, model.ReasonPriorityBoost, 200)
	require.Error(t, err)
}

func TestSpendPriorityBoostChargesAndDeducts(t *testing.T) {
	st := newTestStore(t)
	e := New(st)

	p := &model.Profile{UID: "u1", SwapPoints: 1000}
	cost, err := e.Spend(p, model.ReasonPriorityBoost, 10)
	require.NoError(t, err)
	require.Equal(t, 50, cost)
	require.Equal(t, 950, p.SwapPoints)
}

func TestSpendUnsupportedReason(t *testing.T) {
	st := newTestStore(t)
	e := New(st)

	p := &model.Profile{UID: "u1", SwapPoints: 1000}
	_, err := e.Spend(p, model.TxReason("not_a_real_reason"), 1)
	require.Error(t, err)
}

func TestSpendInsufficientFunds(t *testing.T) {
	st := newTestStore(t)
	e := New(st)

	p := &model.Profile{UID: "u1", SwapPoints: 5}
	_, err := e.Spend(p, model.ReasonRequestWithoutReciprocity, 0)
	require.Error(t, err)
	require.Equal(t, 5, p.SwapPoints)
}
