// Package messaging implements conversations, message send/read, and
// unread tracking (spec §4.7).
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

const lastMessagePreviewLen = 100

// Service implements the messaging component.
type Service struct {
	store *store.Store
	email *email.Notifier
	log   *logging.Logger
}

// New builds a Service.
func New(st *store.Store, notifier *email.Notifier) *Service {
	return &Service{store: st, email: notifier, log: logging.GetDefault().Component("messaging")}
}

// ListConversations returns uid's active conversations, newest first.
func (s *Service) ListConversations(uid string, limit, offset int) ([]*model.Conversation, error) {
	return s.store.ListConversationsForUser(uid, limit, offset)
}

// SendMessage appends a message, provided the sender is a participant,
// the conversation is not blocked, and the owning swap is still in
// progress (accepted).
func (s *Service) SendMessage(ctx context.Context, conversationID, senderUID, content string) (*model.Message, error) {
	if content == "" || len(content) > 5000 {
		return nil, apperr.Validationf("content must be 1..5000 characters")
	}

	unlock := s.store.Lock(conversationID)
	defer unlock()

	conv, err := s.store.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderUID) {
		return nil, apperr.Forbiddenf("not a participant of this conversation")
	}
	if conv.Status == model.ConversationBlocked {
		return nil, apperr.Forbiddenf("conversation is blocked")
	}

	swap, err := s.store.GetSwapRequest(conv.SwapRequestID)
	if err != nil {
		return nil, err
	}
	if swap.Status != model.SwapStatusAccepted {
		return nil, apperr.Forbiddenf("swap exchange is not in progress")
	}

	now := time.Now()
	msg := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderUID:      senderUID,
		Content:        content,
		SentAt:         now,
		ReadBy:         []string{senderUID},
		Type:           model.MessageTypeText,
	}
	if err := s.store.PutMessage(msg); err != nil {
		return nil, err
	}

	other := conv.OtherParticipant(senderUID)
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = map[string]int{}
	}
	conv.UnreadCounts[other]++
	conv.LastMessage = &model.LastMessagePreview{
		Content:   truncate(content, lastMessagePreviewLen),
		SenderUID: senderUID,
		SentAt:    now,
	}
	conv.UpdatedAt = now
	if err := s.store.PutConversation(conv); err != nil {
		return nil, err
	}

	s.notifyNewMessage(ctx, conv, senderUID, other, content)
	return msg, nil
}

func (s *Service) notifyNewMessage(ctx context.Context, conv *model.Conversation, senderUID, recipientUID, content string) {
	recipient, err := s.store.GetProfile(recipientUID)
	if err != nil || !recipient.EmailUpdates {
		return
	}
	sender, err := s.store.GetProfile(senderUID)
	if err != nil {
		return
	}
	s.email.SendNewMessage(ctx, recipient.Email, recipient.UID, recipient.DisplayName, sender.DisplayName,
		truncate(content, lastMessagePreviewLen), conv.ID)
}

// GetMessages returns a conversation's messages descending by
// sent_at, provided uid is a participant.
func (s *Service) GetMessages(uid, conversationID string, limit int, before int64) ([]*model.Message, error) {
	conv, err := s.store.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(uid) {
		return nil, apperr.Forbiddenf("not a participant of this conversation")
	}
	return s.store.ListMessages(conversationID, limit, before)
}

// MarkRead marks every message not sent by uid as read by uid and
// zeroes uid's unread counter (spec P6).
func (s *Service) MarkRead(uid, conversationID string) error {
	unlock := s.store.Lock(conversationID)
	defer unlock()

	conv, err := s.store.GetConversation(conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(uid) {
		return apperr.Forbiddenf("not a participant of this conversation")
	}

	msgs, err := s.store.AllMessagesForConversation(conversationID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, m := range msgs {
		if m.SenderUID == uid || containsUID(m.ReadBy, uid) {
			continue
		}
		m.ReadBy = append(m.ReadBy, uid)
		if m.ReadAt == nil {
			m.ReadAt = &now
		}
		if err := s.store.UpdateMessage(m); err != nil {
			return err
		}
	}

	if conv.UnreadCounts == nil {
		conv.UnreadCounts = map[string]int{}
	}
	conv.UnreadCounts[uid] = 0
	return s.store.PutConversation(conv)
}

// UnreadTotal sums unread_counts[uid] across uid's active conversations.
func (s *Service) UnreadTotal(uid string) (int, error) {
	const candidateCap = 500
	convs, err := s.store.ListConversationsForUser(uid, candidateCap, 0)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range convs {
		total += c.UnreadCounts[uid]
	}
	return total, nil
}

func containsUID(list []string, uid string) bool {
	for _, v := range list {
		if v == uid {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
