package portfolio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func seedCompletedSwap(t *testing.T, st *store.Store, id, requester, recipient, offer, need string, hours float64) *model.SwapRequest {
	t.Helper()
	req := &model.SwapRequest{
		ID:             id,
		RequesterUID:   requester,
		RecipientUID:   recipient,
		Status:         model.SwapStatusCompleted,
		SwapType:       model.SwapTypeDirect,
		RequesterOffer: offer,
		RequesterNeed:  need,
		Completion:     model.Completion{FinalHours: hours},
	}
	require.NoError(t, st.PutSwapRequest(req))
	return req
}

func TestGetAggregatesVerifiedSkillsByRole(t *testing.T) {
	s, st := newTestService(t)
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice", DisplayName: "Alice"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "bob", DisplayName: "Bob"}))

	seedCompletedSwap(t, st, "s1", "alice", "bob", "guitar", "piano", 2)

	p, err := s.Get("alice", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, p.TotalSwapsCompleted)
	require.Len(t, p.VerifiedSkillsTaught, 1)
	require.Equal(t, "guitar", p.VerifiedSkillsTaught[0].Skill)
	require.Len(t, p.VerifiedSkillsLearned, 1)
	require.Equal(t, "piano", p.VerifiedSkillsLearned[0].Skill)
}

func TestGetAggregatesFromBothRoles(t *testing.T) {
	s, st := newTestService(t)
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice", DisplayName: "Alice"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "bob", DisplayName: "Bob"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "carol", DisplayName: "Carol"}))

	seedCompletedSwap(t, st, "s1", "alice", "bob", "guitar", "piano", 2)
	seedCompletedSwap(t, st, "s2", "carol", "alice", "painting", "guitar", 3)

	p, err := s.Get("alice", Options{})
	require.NoError(t, err)
	require.Equal(t, 2, p.TotalSwapsCompleted)

	var guitarAgg *VerifiedSkill
	for i := range p.VerifiedSkillsTaught {
		if p.VerifiedSkillsTaught[i].Skill == "guitar" {
			guitarAgg = &p.VerifiedSkillsTaught[i]
		}
	}
	require.NotNil(t, guitarAgg)
	require.Equal(t, 2, guitarAgg.TimesExchanged)
	require.Equal(t, 5.0, guitarAgg.TotalHours)
}

func TestGetIncludesSwapsAndReviewsWhenRequested(t *testing.T) {
	s, st := newTestService(t)
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice", DisplayName: "Alice"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "bob", DisplayName: "Bob"}))
	seedCompletedSwap(t, st, "s1", "alice", "bob", "guitar", "piano", 2)
	require.NoError(t, st.PutReview(&model.Review{
		ID: "r1", SwapRequestID: "s1", ReviewerUID: "bob", ReviewedUID: "alice", Rating: 5,
	}))

	p, err := s.Get("alice", Options{IncludeSwaps: true, IncludeReviews: true})
	require.NoError(t, err)
	require.Len(t, p.RecentSwaps, 1)
	require.Equal(t, "bob", p.RecentSwaps[0].PartnerUID)
	require.Equal(t, "Bob", p.RecentSwaps[0].PartnerName)
	require.NotNil(t, p.RecentSwaps[0].RatingReceived)
	require.Equal(t, 5, *p.RecentSwaps[0].RatingReceived)

	require.Len(t, p.RecentReviews, 1)
	require.Equal(t, "Bob", p.RecentReviews[0].ReviewerName)
}

func TestGetOmitsSwapsAndReviewsByDefault(t *testing.T) {
	s, st := newTestService(t)
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice", DisplayName: "Alice"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "bob", DisplayName: "Bob"}))
	seedCompletedSwap(t, st, "s1", "alice", "bob", "guitar", "piano", 2)

	p, err := s.Get("alice", Options{})
	require.NoError(t, err)
	require.Empty(t, p.RecentSwaps)
	require.Empty(t, p.RecentReviews)
}
