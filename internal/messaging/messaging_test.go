package messaging

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	notifier := email.New(email.Config{Enabled: false}, nil)
	return New(st, notifier), st
}

func seedConversation(t *testing.T, st *store.Store, swapStatus model.SwapStatus) *model.Conversation {
	t.Helper()
	require.NoError(t, st.PutProfile(&model.Profile{UID: "alice"}))
	require.NoError(t, st.PutProfile(&model.Profile{UID: "bob"}))
	require.NoError(t, st.PutSwapRequest(&model.SwapRequest{
		ID: "swap-1", RequesterUID: "alice", RecipientUID: "bob", Status: swapStatus,
	}))
	conv := &model.Conversation{
		ID:              "conv-1",
		SwapRequestID:   "swap-1",
		ParticipantUIDs: [2]string{"alice", "bob"},
		Status:          model.ConversationActive,
		UnreadCounts:    map[string]int{"alice": 0, "bob": 0},
	}
	require.NoError(t, st.PutConversation(conv))
	return conv
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	s, st := newTestService(t)
	seedConversation(t, st, model.SwapStatusAccepted)

	_, err := s.SendMessage(context.Background(), "conv-1", "alice", "")
	require.Error(t, err)
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	s, st := newTestService(t)
	seedConversation(t, st, model.SwapStatusAccepted)

	_, err := s.SendMessage(context.Background(), "conv-1", "stranger", "hi")
	require.Error(t, err)
}

func TestSendMessageRejectsWhenSwapNotAccepted(t *testing.T) {
	s, st := newTestService(t)
	seedConversation(t, st, model.SwapStatusPending)

	_, err := s.SendMessage(context.Background(), "conv-1", "alice", "hi")
	require.Error(t, err)
}

func TestSendMessageIncrementsOtherPartyUnread(t *testing.T) {
	s, st := newTestService(t)
	seedConversation(t, st, model.SwapStatusAccepted)

	_, err := s.SendMessage(context.Background(), "conv-1", "alice", "hello bob")
	require.NoError(t, err)

	conv, err := st.GetConversation("conv-1")
	require.NoError(t, err)
	require.Equal(t, 1, conv.UnreadCounts["bob"])
	require.Equal(t, 0, conv.UnreadCounts["alice"])
	require.NotNil(t, conv.LastMessage)
	require.Equal(t, "alice", conv.LastMessage.SenderUID)
}

func TestMarkReadZeroesUnreadAndStampsReadBy(t *testing.T) {
	s, st := newTestService(t)
	seedConversation(t, st, model.SwapStatusAccepted)

	_, err := s.SendMessage(context.Background(), "conv-1", "alice", "hello bob")
	require.NoError(t, err)

	require.NoError(t, s.MarkRead("bob", "conv-1"))

	conv, err := st.GetConversation("conv-1")
	require.NoError(t, err)
	require.Equal(t, 0, conv.UnreadCounts["bob"])

	msgs, err := s.GetMessages("bob", "conv-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.True(t, containsUID(msgs[0].ReadBy, "bob"))
}

func TestGetMessagesRejectsNonParticipant(t *testing.T) {
	s, st := newTestService(t)
	seedConversation(t, st, model.SwapStatusAccepted)

	_, err := s.GetMessages("stranger", "conv-1", 10, 0)
	require.Error(t, err)
}

func TestUnreadTotalSumsAcrossConversations(t *testing.T) {
	s, st := newTestService(t)
	seedConversation(t, st, model.SwapStatusAccepted)

	_, err := s.SendMessage(context.Background(), "conv-1", "alice", "hello bob")
	require.NoError(t, err)

	total, err := s.UnreadTotal("bob")
	require.NoError(t, err)
	require.Equal(t, 1, total)
}
