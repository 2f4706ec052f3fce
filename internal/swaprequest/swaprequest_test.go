package swaprequest

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

func seedProfiles(t *testing.T, st *store.Store, uids ...string) {
	t.Helper()
	for _, uid := range uids {
		require.NoError(t, st.PutProfile(&model.Profile{UID: uid, Email: uid + "@example.com"}))
	}
}

func TestCreateRejectsSelfRequest(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice")

	_, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "alice", SwapType: model.SwapTypeDirect, RequesterOffer: "guitar",
	})
	require.Error(t, err)
}

func TestCreateDirectRequiresOffer(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")

	_, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeDirect,
	})
	require.Error(t, err)
}

func TestCreateIndirectRequiresPoints(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")

	_, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeIndirect, PointsOffered: 0,
	})
	require.Error(t, err)
}

func TestCreateIndirectReservesPoints(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice", SwapPoints: 100}))

	req, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeIndirect, PointsOffered: 40,
	})
	require.NoError(t, err)
	require.Equal(t, 40, req.PointsReserved)

	alice, err := st.GetProfile("alice")
	require.NoError(t, err)
	require.Equal(t, 60, alice.SwapPoints)
}

func TestCreateRejectsDuplicatePending(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")

	_, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeDirect, RequesterOffer: "guitar",
	})
	require.NoError(t, err)

	_, err = s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeDirect, RequesterOffer: "piano",
	})
	require.Error(t, err)
}

func TestCreateRejectsBlockedPair(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")
	require.NoError(t, st.PutBlock(&model.Block{ID: "b1", BlockerUID: "bob", BlockedUID: "alice"}))

	_, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeDirect, RequesterOffer: "guitar",
	})
	require.Error(t, err)
}

func TestRespondAcceptBootstrapsConversation(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")

	req, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeDirect, RequesterOffer: "guitar",
	})
	require.NoError(t, err)

	updated, err := s.Respond(context.Background(), req.ID, "bob", ActionAccept)
	require.NoError(t, err)
	require.Equal(t, model.SwapStatusAccepted, updated.Status)
	require.NotEmpty(t, updated.ConversationID)

	conv, err := st.GetConversation(updated.ConversationID)
	require.NoError(t, err)
	require.True(t, conv.HasParticipant("alice"))
	require.True(t, conv.HasParticipant("bob"))
}

func TestRespondOnlyRecipientMayRespond(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")

	req, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeDirect, RequesterOffer: "guitar",
	})
	require.NoError(t, err)

	_, err = s.Respond(context.Background(), req.ID, "alice", ActionAccept)
	require.Error(t, err)
}

func TestRespondDeclineRefundsIndirectReservation(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "bob")
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice", SwapPoints: 100}))

	req, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeIndirect, PointsOffered: 40,
	})
	require.NoError(t, err)

	_, err = s.Respond(context.Background(), req.ID, "bob", ActionDecline)
	require.NoError(t, err)

	alice, err := st.GetProfile("alice")
	require.NoError(t, err)
	require.Equal(t, 100, alice.SwapPoints)
}

func TestCancelOnlyRequesterMayCancel(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob")

	req, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeDirect, RequesterOffer: "guitar",
	})
	require.NoError(t, err)

	err = s.Cancel(context.Background(), req.ID, "bob")
	require.Error(t, err)
}

func TestCancelRefundsIndirectReservation(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "bob")
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice", SwapPoints: 100}))

	req, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "alice", RecipientUID: "bob", SwapType: model.SwapTypeIndirect, PointsOffered: 25,
	})
	require.NoError(t, err)

	require.NoError(t, s.Cancel(context.Background(), req.ID, "alice"))

	alice, err := st.GetProfile("alice")
	require.NoError(t, err)
	require.Equal(t, 100, alice.SwapPoints)

	cancelled, err := st.GetSwapRequest(req.ID)
	require.NoError(t, err)
	require.Equal(t, model.SwapStatusCancelled, cancelled.Status)
}

func TestMaintainResponseRateCountsOnlyRespondedStatuses(t *testing.T) {
	s, st := newTestService(t)
	seedProfiles(t, st, "alice", "bob", "carol")

	req1, err := s.Create(context.Background(), CreateInput{
		RequesterUID: "bob", RecipientUID: "alice", SwapType: model.SwapTypeDirect, RequesterOffer: "guitar",
	})
	require.NoError(t, err)
	_, err = s.Create(context.Background(), CreateInput{
		RequesterUID: "carol", RecipientUID: "alice", SwapType: model.SwapTypeDirect, RequesterOffer: "painting",
	})
	require.NoError(t, err)

	_, err = s.Respond(context.Background(), req1.ID, "alice", ActionAccept)
	require.NoError(t, err)

	alice, err := st.GetProfile("alice")
	require.NoError(t, err)
	require.InDelta(t, 50.0, alice.ResponseRate, 0.01)
}
