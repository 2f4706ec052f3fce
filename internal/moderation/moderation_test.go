package moderation

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

func TestBlockRejectsSelf(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Block("alice", "alice", "annoying")
	require.Error(t, err)
}

func TestBlockSetsSharedConversationsBlocked(t *testing.T) {
	s, st := newTestService(t)
	require.NoError(t, st.PutConversation(&model.Conversation{
		ID: "conv-1", SwapRequestID: "swap-1", ParticipantUIDs: [2]string{"alice", "bob"}, Status: model.ConversationActive,
	}))

	_, err := s.Block("alice", "bob", "spam")
	require.NoError(t, err)

	conv, err := st.GetConversation("conv-1")
	require.NoError(t, err)
	require.Equal(t, model.ConversationBlocked, conv.Status)
}

func TestUnblockRestoresConversationWhenNoReverseBlock(t *testing.T) {
	s, st := newTestService(t)
	require.NoError(t, st.PutConversation(&model.Conversation{
		ID: "conv-1", SwapRequestID: "swap-1", ParticipantUIDs: [2]string{"alice", "bob"}, Status: model.ConversationActive,
	}))
	_, err := s.Block("alice", "bob", "spam")
	require.NoError(t, err)

	require.NoError(t, s.Unblock("alice", "bob"))

	conv, err := st.GetConversation("conv-1")
	require.NoError(t, err)
	require.Equal(t, model.ConversationActive, conv.Status)
}

func TestUnblockKeepsConversationBlockedWhenReverseBlockExists(t *testing.T) {
	s, st := newTestService(t)
	require.NoError(t, st.PutConversation(&model.Conversation{
		ID: "conv-1", SwapRequestID: "swap-1", ParticipantUIDs: [2]string{"alice", "bob"}, Status: model.ConversationActive,
	}))
	_, err := s.Block("alice", "bob", "spam")
	require.NoError(t, err)
	_, err = s.Block("bob", "alice", "retaliation")
	require.NoError(t, err)

	require.NoError(t, s.Unblock("alice", "bob"))

	conv, err := st.GetConversation("conv-1")
	require.NoError(t, err)
	require.Equal(t, model.ConversationBlocked, conv.Status)
}

func TestReportValidatesDetailsLength(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Report(ReportInput{ReporterUID: "alice", ReportedUID: "bob", Reason: model.ReportSpam, Details: "short"})
	require.Error(t, err)
}

func TestReportValidatesReason(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Report(ReportInput{
		ReporterUID: "alice", ReportedUID: "bob", Reason: model.ReportReason("bogus"), Details: "this is a long enough reason",
	})
	require.Error(t, err)
}

func TestReportRecordsPendingReport(t *testing.T) {
	s, st := newTestService(t)
	r, err := s.Report(ReportInput{
		ReporterUID: "alice", ReportedUID: "bob", Reason: model.ReportHarassment, Details: "this is a long enough reason",
	})
	require.NoError(t, err)
	require.Equal(t, model.ReportStatusPending, r.Status)

	stored, err := st.GetReport(r.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", stored.ReporterUID)
}
