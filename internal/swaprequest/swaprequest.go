// Package swaprequest implements the create/respond/cancel lifecycle
// of §4.4: precondition checks, points reservation for indirect
// swaps, conversation bootstrap on accept, and response-rate
// maintenance.
package swaprequest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/economy"
	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// CreateInput is the payload for creating a new swap request.
type CreateInput struct {
	RequesterUID   string
	RecipientUID   string
	SwapType       model.SwapType
	RequesterOffer string
	RequesterNeed  string
	PointsOffered  int
	Message        string
}

// Action is a recipient response to a pending request.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

// Service implements the swap request lifecycle.
type Service struct {
	store   *store.Store
	economy *economy.Engine
	email   *email.Notifier
	log     *logging.Logger
}

// New builds a Service.
func New(st *store.Store, econ *economy.Engine, notifier *email.Notifier) *Service {
	return &Service{store: st, economy: econ, email: notifier, log: logging.GetDefault().Component("swaprequest")}
}

// Create validates preconditions, reserves points for indirect swaps,
// and persists the new pending request.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.SwapRequest, error) {
	if in.RequesterUID == in.RecipientUID {
		return nil, apperr.Validationf("cannot create a swap request with yourself")
	}
	blocked, err := s.store.HasBlock(in.RequesterUID, in.RecipientUID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperr.Forbiddenf("blocked")
	}
	if _, err := s.store.GetProfile(in.RecipientUID); err != nil {
		return nil, err
	}
	if in.SwapType == model.SwapTypeDirect && in.RequesterOffer == "" {
		return nil, apperr.Validationf("requester_offer is required for a direct swap")
	}
	if in.SwapType == model.SwapTypeIndirect && in.PointsOffered < 1 {
		return nil, apperr.Validationf("points_offered must be >= 1 for an indirect swap")
	}

	unlock := s.store.Lock(in.RequesterUID)
	defer unlock()

	hasPending, err := s.store.HasPendingRequest(in.RequesterUID, in.RecipientUID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, apperr.Conflictf("a pending request to this recipient already exists")
	}

	now := time.Now()
	req := &model.SwapRequest{
		ID:             uuid.NewString(),
		RequesterUID:   in.RequesterUID,
		RecipientUID:   in.RecipientUID,
		Status:         model.SwapStatusPending,
		SwapType:       in.SwapType,
		RequesterOffer: in.RequesterOffer,
		RequesterNeed:  in.RequesterNeed,
		Message:        in.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if in.SwapType == model.SwapTypeIndirect {
		requester, err := s.store.GetProfile(in.RequesterUID)
		if err != nil {
			return nil, err
		}
		if err := s.economy.ReservePoints(requester, in.PointsOffered, req.ID); err != nil {
			return nil, err
		}
		req.PointsOffered = in.PointsOffered
		req.PointsReserved = in.PointsOffered
		if err := s.store.PutProfile(requester); err != nil {
			return nil, err
		}
	}

	if err := s.store.PutSwapRequest(req); err != nil {
		return nil, err
	}

	s.notifyNewRequest(ctx, req)
	return req, nil
}

func (s *Service) notifyNewRequest(ctx context.Context, req *model.SwapRequest) {
	recipient, err := s.store.GetProfile(req.RecipientUID)
	if err != nil || !recipient.EmailUpdates {
		return
	}
	requester, err := s.store.GetProfile(req.RequesterUID)
	if err != nil {
		return
	}
	s.email.SendSwapRequest(ctx, recipient.Email, recipient.DisplayName, requester.DisplayName,
		requester.SkillsToOffer, requester.ServicesNeeded, req.Message, req.ID)
}

// Respond accepts or declines a pending request, only callable by the recipient.
func (s *Service) Respond(ctx context.Context, id, recipientUID string, action Action) (*model.SwapRequest, error) {
	unlock := s.store.Lock(id)
	defer unlock()

	req, err := s.store.GetSwapRequest(id)
	if err != nil {
		return nil, err
	}
	if req.RecipientUID != recipientUID {
		return nil, apperr.Forbiddenf("only the recipient may respond to this request")
	}
	if req.Status != model.SwapStatusPending {
		return nil, apperr.Conflictf("request is not pending")
	}

	now := time.Now()
	req.RespondedAt = &now
	req.UpdatedAt = now

	switch action {
	case ActionAccept:
		req.Status = model.SwapStatusAccepted
		conv, err := s.bootstrapConversation(req, now)
		if err != nil {
			return nil, err
		}
		req.ConversationID = conv.ID
	case ActionDecline:
		req.Status = model.SwapStatusDeclined
		if err := s.refundIfIndirect(req); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validationf("unsupported action %q", action)
	}

	if err := s.store.PutSwapRequest(req); err != nil {
		return nil, err
	}
	if err := s.maintainResponseRate(recipientUID); err != nil {
		s.log.Warn("failed to update response rate", "uid", recipientUID, "err", err)
	}

	s.notifyResponse(ctx, req, action == ActionAccept)
	return req, nil
}

// bootstrapConversation creates the accept-time conversation
// idempotently: a retry after a client cancellation sees the existing
// conversation rather than creating a duplicate (spec §5).
func (s *Service) bootstrapConversation(req *model.SwapRequest, now time.Time) (*model.Conversation, error) {
	existing, err := s.store.GetConversationBySwap(req.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	first, second := req.RequesterUID, req.RecipientUID
	if second < first {
		first, second = second, first
	}
	conv := &model.Conversation{
		ID:             uuid.NewString(),
		ParticipantUIDs: [2]string{first, second},
		SwapRequestID:  req.ID,
		Status:         model.ConversationActive,
		CreatedAt:      now,
		UpdatedAt:      now,
		UnreadCounts:   map[string]int{req.RequesterUID: 0, req.RecipientUID: 0},
	}
	if err := s.store.PutConversation(conv); err != nil {
		return nil, err
	}

	sysMsg := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderUID:      model.SystemSender,
		Content:        "Swap accepted — say hello and coordinate your exchange!",
		SentAt:         now,
		ReadBy:         []string{model.SystemSender},
		Type:           model.MessageTypeSystem,
	}
	if err := s.store.PutMessage(sysMsg); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Service) refundIfIndirect(req *model.SwapRequest) error {
	if req.SwapType != model.SwapTypeIndirect || req.PointsReserved == 0 {
		return nil
	}
	unlock := s.store.Lock(req.RequesterUID)
	defer unlock()
	requester, err := s.store.GetProfile(req.RequesterUID)
	if err != nil {
		return err
	}
	if err := s.economy.RefundPoints(requester, req.PointsReserved, req.ID); err != nil {
		return err
	}
	return s.store.PutProfile(requester)
}

// Cancel is the requester-only withdrawal of a pending request.
func (s *Service) Cancel(ctx context.Context, id, requesterUID string) error {
	unlock := s.store.Lock(id)
	defer unlock()

	req, err := s.store.GetSwapRequest(id)
	if err != nil {
		return err
	}
	if req.RequesterUID != requesterUID {
		return apperr.Forbiddenf("only the requester may cancel this request")
	}
	if req.Status != model.SwapStatusPending {
		return apperr.Conflictf("request is not pending")
	}

	req.Status = model.SwapStatusCancelled
	req.UpdatedAt = time.Now()
	if err := s.refundIfIndirect(req); err != nil {
		return err
	}
	return s.store.PutSwapRequest(req)
}

// maintainResponseRate recomputes responseRate = responded/received*100
// over requests uid has received that are now settled (spec §4.4).
func (s *Service) maintainResponseRate(uid string) error {
	unlock := s.store.Lock(uid)
	defer unlock()

	const candidateCap = 1000
	all, err := s.store.ListIncoming(uid, "", candidateCap, 0)
	if err != nil {
		return err
	}
	var received, responded int
	for _, r := range all {
		received++
		switch r.Status {
		case model.SwapStatusAccepted, model.SwapStatusDeclined, model.SwapStatusCompleted:
			responded++
		}
	}
	if received == 0 {
		return nil
	}
	profile, err := s.store.GetProfile(uid)
	if err != nil {
		return err
	}
	profile.ResponseRate = float64(responded) / float64(received) * 100
	profile.UpdatedAt = time.Now()
	return s.store.PutProfile(profile)
}

func (s *Service) notifyResponse(ctx context.Context, req *model.SwapRequest, accepted bool) {
	requester, err := s.store.GetProfile(req.RequesterUID)
	if err != nil || !requester.EmailUpdates {
		return
	}
	recipient, err := s.store.GetProfile(req.RecipientUID)
	if err != nil {
		return
	}
	s.email.SendSwapResponse(ctx, requester.Email, requester.DisplayName, recipient.DisplayName, accepted, req.ConversationID)
}

// ListIncoming returns requests uid received.
func (s *Service) ListIncoming(uid string, status model.SwapStatus, limit, offset int) ([]*model.SwapRequest, error) {
	return s.store.ListIncoming(uid, status, limit, offset)
}

// ListOutgoing returns requests uid sent.
func (s *Service) ListOutgoing(uid string, status model.SwapStatus, limit, offset int) ([]*model.SwapRequest, error) {
	return s.store.ListOutgoing(uid, status, limit, offset)
}

// Get fetches a swap request, verifying the caller is a participant.
func (s *Service) Get(uid, id string) (*model.SwapRequest, error) {
	req, err := s.store.GetSwapRequest(id)
	if err != nil {
		return nil, err
	}
	if req.RequesterUID != uid && req.RecipientUID != uid {
		return nil, apperr.Forbiddenf("not a participant of this swap request")
	}
	return req, nil
}
