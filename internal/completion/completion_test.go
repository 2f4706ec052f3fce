package completion

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/otitou/wap-backend-go/internal/economy"
	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	econ := economy.New(st)
	notifier := email.New(email.Config{Enabled: false}, nil)
	return New(st, econ, notifier), st
}

func seedAcceptedSwap(t *testing.T, st *store.Store) *model.SwapRequest {
	t.Helper()
	require.NoError(t, st.PutProfile(&model.Profile{UID: "requester"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "recipient"}))

	req := &model.SwapRequest{
		ID:            "swap-1",
		RequesterUID:  "requester",
		RecipientUID:  "recipient",
		Status:        model.SwapStatusAccepted,
		SwapType:      model.SwapTypeDirect,
		RequesterNeed: "guitar",
	}
	require.NoError(t, st.PutSwapRequest(req))
	return req
}

func TestMarkCompleteFirstPartyGoesPending(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)

	req, err := s.MarkComplete(context.Background(), "swap-1", "requester", MarkCompleteInput{
		HoursClaimed: 2,
		SkillLevel:   model.SkillIntermediate,
	})
	require.NoError(t, err)
	require.Equal(t, model.SwapStatusPendingCompletion, req.Status)
	require.True(t, req.Completion.Requester.MarkedComplete)
	require.False(t, req.Completion.Recipient.MarkedComplete)
	require.NotNil(t, req.Completion.AutoCompleteAt)
}

func TestMarkCompleteSecondPartySettles(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	_, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)

	req, err := s.MarkComplete(ctx, "swap-1", "recipient", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)
	require.Equal(t, model.SwapStatusCompleted, req.Status)
	require.Equal(t, 2.0, req.Completion.FinalHours)
	require.Nil(t, req.Completion.AutoCompleteAt)

	requester, err := st.GetProfile("requester")
	require.NoError(t, err)
	require.Equal(t, 1, requester.CompletedSwapCount)
	require.Greater(t, requester.SwapPoints, 0)
}

func TestMarkCompleteAveragesDivergentHours(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	_, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)
	req, err := s.MarkComplete(ctx, "swap-1", "recipient", MarkCompleteInput{HoursClaimed: 4, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)
	require.Equal(t, 3.0, req.Completion.FinalHours)
}

func TestMarkCompleteRejectsDoubleMark(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	_, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)
	_, err = s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.Error(t, err)
}

func TestMarkCompleteValidatesHours(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)

	_, err := s.MarkComplete(context.Background(), "swap-1", "requester", MarkCompleteInput{HoursClaimed: 0, SkillLevel: model.SkillIntermediate})
	require.Error(t, err)
}

func TestMarkCompleteRejectsNonParticipant(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)

	_, err := s.MarkComplete(context.Background(), "swap-1", "stranger", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.Error(t, err)
}

func TestVerifyAdoptsOtherPartyHours(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	_, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 3, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)

	req, err := s.Verify(ctx, "swap-1", "recipient")
	require.NoError(t, err)
	require.Equal(t, model.SwapStatusCompleted, req.Status)
	require.Equal(t, 3.0, req.Completion.FinalHours)
}

func TestVerifyRejectsBeforeOtherPartyMarks(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)

	_, err := s.Verify(context.Background(), "swap-1", "recipient")
	require.Error(t, err)
}

func TestDisputeRequiresReason(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	_, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)

	_, err = s.Dispute(ctx, "swap-1", "recipient", "")
	require.Error(t, err)
}

func TestDisputeRecordsStatusAndDispute(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	_, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)

	req, err := s.Dispute(ctx, "swap-1", "recipient", "hours look wrong")
	require.NoError(t, err)
	require.Equal(t, model.SwapStatusDisputed, req.Status)
	require.Nil(t, req.Completion.AutoCompleteAt)

	disputes, err := st.ListDisputesForSwap("swap-1")
	require.NoError(t, err)
	require.Len(t, disputes, 1)
}

func TestAutoCompleteSettlesPastDeadline(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	req, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)

	past := req.Completion.AutoCompleteAt.Add(-2 * AutoCompleteWindow)
	req.Completion.AutoCompleteAt = &past
	require.NoError(t, st.PutSwapRequest(req))

	require.NoError(t, s.autoComplete("swap-1"))

	settled, err := st.GetSwapRequest("swap-1")
	require.NoError(t, err)
	require.Equal(t, model.SwapStatusCompleted, settled.Status)
	require.Equal(t, 2.0, settled.Completion.FinalHours)
}

func TestAutoCompleteSkipsAlreadySettled(t *testing.T) {
	s, st := newTestService(t)
	seedAcceptedSwap(t, st)
	ctx := context.Background()

	_, err := s.MarkComplete(ctx, "swap-1", "requester", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)
	_, err = s.MarkComplete(ctx, "swap-1", "recipient", MarkCompleteInput{HoursClaimed: 2, SkillLevel: model.SkillIntermediate})
	require.NoError(t, err)

	require.NoError(t, s.autoComplete("swap-1"))
}
