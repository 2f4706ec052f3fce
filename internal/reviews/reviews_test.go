package reviews

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/otitou/wap-backend-go/internal/economy"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, economy.New(st)), st
}

func seedCompletedSwap(t *testing.T, st *store.Store) *model.SwapRequest {
	t.Helper()
	require.NoError(t, st.PutProfile(&model.Profile{UID: "requester"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "recipient"}))

	req := &model.SwapRequest{
		ID:             "swap-1",
		RequesterUID:   "requester",
		RecipientUID:   "recipient",
		Status:         model.SwapStatusCompleted,
		SwapType:       model.SwapTypeDirect,
		RequesterOffer: "guitar",
		RequesterNeed:  "piano",
		Completion: model.Completion{
			FinalHours: 2,
			Requester:  model.Party{SkillLevel: model.SkillIntermediate},
			Recipient:  model.Party{SkillLevel: model.SkillIntermediate},
		},
	}
	require.NoError(t, st.PutSwapRequest(req))
	return req
}

func TestSubmitValidatesRating(t *testing.T) {
	s, st := newTestService(t)
	seedCompletedSwap(t, st)

	_, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 0})
	require.Error(t, err)

	_, err = s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 6})
	require.Error(t, err)
}

func TestSubmitRejectsNonParticipant(t *testing.T) {
	s, st := newTestService(t)
	seedCompletedSwap(t, st)

	_, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "stranger", Rating: 5})
	require.Error(t, err)
}

func TestSubmitRejectsIncompleteSwap(t *testing.T) {
	s, st := newTestService(t)
	req := seedCompletedSwap(t, st)
	req.Status = model.SwapStatusAccepted
	require.NoError(t, st.PutSwapRequest(req))

	_, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 5})
	require.Error(t, err)
}

func TestSubmitUpdatesReviewedPartyStats(t *testing.T) {
	s, st := newTestService(t)
	seedCompletedSwap(t, st)

	rev, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 5, ReviewText: "great!"})
	require.NoError(t, err)
	require.Equal(t, "recipient", rev.ReviewedUID)
	require.Equal(t, "piano", rev.SkillExchanged)

	recipient, err := st.GetProfile("recipient")
	require.NoError(t, err)
	require.Equal(t, 1, recipient.ReviewCount)
	require.Equal(t, 5.0, recipient.AverageRating)
	require.Greater(t, recipient.SwapCredits, 0)
}

func TestSubmitAveragesAcrossMultipleReviews(t *testing.T) {
	s, st := newTestService(t)
	seedCompletedSwap(t, st)
	require.NoError(t, st.PutProfile(&model.Profile{UID: "recipient", AverageRating: 4, ReviewCount: 1}))

	_, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 2})
	require.NoError(t, err)

	recipient, err := st.GetProfile("recipient")
	require.NoError(t, err)
	require.Equal(t, 2, recipient.ReviewCount)
	require.InDelta(t, 3.0, recipient.AverageRating, 0.001)
}

func TestSubmitRejectsDuplicateReview(t *testing.T) {
	s, st := newTestService(t)
	seedCompletedSwap(t, st)

	_, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 5})
	require.NoError(t, err)

	_, err = s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 3})
	require.Error(t, err)
}

func TestSubmitRejectsOverlongText(t *testing.T) {
	s, st := newTestService(t)
	seedCompletedSwap(t, st)

	long := make([]byte, 1001)
	_, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 4, ReviewText: string(long)})
	require.Error(t, err)
}

func TestForUserComputesAverage(t *testing.T) {
	s, st := newTestService(t)
	seedCompletedSwap(t, st)

	_, err := s.Submit(SubmitInput{SwapRequestID: "swap-1", ReviewerUID: "requester", Rating: 4})
	require.NoError(t, err)

	revs, avg, err := s.ForUser("recipient")
	require.NoError(t, err)
	require.Len(t, revs, 1)
	require.Equal(t, 4.0, avg)
}

func TestForUserEmptyReturnsZeroAverage(t *testing.T) {
	s, _ := newTestService(t)
	revs, avg, err := s.ForUser("nobody")
	require.NoError(t, err)
	require.Empty(t, revs)
	require.Equal(t, 0.0, avg)
}
