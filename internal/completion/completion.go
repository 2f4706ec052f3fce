// Package completion drives the two-sided completion state machine of
// §4.5: mark-complete, verify/dispute, and the cron-driven
// auto-complete sweep that finalizes swaps whose deadline has passed.
package completion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/economy"
	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// AutoCompleteWindow is the fixed deadline after the first mark-complete (spec §4.5).
const AutoCompleteWindow = 48 * time.Hour

// MarkCompleteInput is the payload for a mark_complete call.
type MarkCompleteInput struct {
	HoursClaimed float64
	SkillLevel   model.SkillLevel
	Notes        string
}

// VerifyAction is a non-marking party's response while pending_completion.
type VerifyAction string

const (
	ActionVerify  VerifyAction = "verify"
	ActionDispute VerifyAction = "dispute"
)

// Service implements the completion state machine.
type Service struct {
	store   *store.Store
	economy *economy.Engine
	email   *email.Notifier
	log     *logging.Logger
	cron    *cron.Cron
}

// New builds a Service.
func New(st *store.Store, econ *economy.Engine, notifier *email.Notifier) *Service {
	return &Service{
		store:   st,
		economy: econ,
		email:   notifier,
		log:     logging.GetDefault().Component("completion"),
	}
}

func (s *Service) validateInput(in MarkCompleteInput) error {
	if in.HoursClaimed < 0.5 || in.HoursClaimed > 100 {
		return apperr.Validationf("hours_exchanged must be in [0.5, 100]")
	}
	switch in.SkillLevel {
	case model.SkillBeginner, model.SkillIntermediate, model.SkillAdvanced:
	default:
		return apperr.Validationf("invalid skill_level %q", in.SkillLevel)
	}
	return nil
}

// MarkComplete records the caller's completion claim. If the other
// party already marked, this call triggers settlement.
func (s *Service) MarkComplete(ctx context.Context, id, uid string, in MarkCompleteInput) (*model.SwapRequest, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	unlock := s.store.Lock(id)
	defer unlock()

	req, err := s.store.GetSwapRequest(id)
	if err != nil {
		return nil, err
	}
	mine, other, isRequester, err := partyFor(req, uid)
	if err != nil {
		return nil, err
	}
	if req.Status != model.SwapStatusAccepted && req.Status != model.SwapStatusPendingCompletion {
		return nil, apperr.Conflictf("swap is not in a completable state")
	}
	if mine.MarkedComplete {
		return nil, apperr.Conflictf("you already marked this swap complete")
	}

	now := time.Now()
	mine.MarkedComplete = true
	mine.MarkedAt = &now
	mine.HoursClaimed = in.HoursClaimed
	mine.SkillLevel = in.SkillLevel
	mine.Notes = in.Notes
	setParty(req, isRequester, mine)

	if !other.MarkedComplete {
		req.Status = model.SwapStatusPendingCompletion
		deadline := now.Add(AutoCompleteWindow)
		req.Completion.AutoCompleteAt = &deadline
		req.UpdatedAt = now
		if err := s.store.PutSwapRequest(req); err != nil {
			return nil, err
		}
		s.notifyDeadline(ctx, req, isRequester)
		return req, nil
	}

	finalHours := (mine.HoursClaimed + other.HoursClaimed) / 2
	if err := s.finalize(req, finalHours, now); err != nil {
		return nil, err
	}
	return req, nil
}

// Verify adopts the other party's claimed hours as final and settles.
func (s *Service) Verify(ctx context.Context, id, uid string) (*model.SwapRequest, error) {
	unlock := s.store.Lock(id)
	defer unlock()

	req, err := s.store.GetSwapRequest(id)
	if err != nil {
		return nil, err
	}
	mine, other, isRequester, err := verifierFor(req, uid)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	mine.MarkedComplete = true
	mine.MarkedAt = &now
	setParty(req, isRequester, mine)

	if err := s.finalize(req, other.HoursClaimed, now); err != nil {
		return nil, err
	}
	return req, nil
}

// Dispute records the non-marking party's rejection of the claim.
func (s *Service) Dispute(ctx context.Context, id, uid, reason string) (*model.SwapRequest, error) {
	if reason == "" {
		return nil, apperr.Validationf("dispute_reason is required")
	}

	unlock := s.store.Lock(id)
	defer unlock()

	req, err := s.store.GetSwapRequest(id)
	if err != nil {
		return nil, err
	}
	mine, _, isRequester, err := verifierFor(req, uid)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	mine.DisputeReason = reason
	mine.DisputedAt = &now
	setParty(req, isRequester, mine)

	req.Status = model.SwapStatusDisputed
	req.Completion.AutoCompleteAt = nil
	req.UpdatedAt = now
	if err := s.store.PutSwapRequest(req); err != nil {
		return nil, err
	}

	if err := s.store.PutDispute(&model.Dispute{
		ID:            uuid.NewString(),
		SwapRequestID: req.ID,
		DisputerUID:   uid,
		Reason:        reason,
		Status:        "open",
		CreatedAt:     now,
	}); err != nil {
		s.log.Warn("failed to record dispute", "swap_id", req.ID, "err", err)
	}

	s.notifyDispute(ctx, req, isRequester)
	return req, nil
}

func (s *Service) finalize(req *model.SwapRequest, finalHours float64, now time.Time) error {
	req.Completion.FinalHours = finalHours
	req.Completion.CompletedAt = &now
	req.Completion.AutoCompleteAt = nil
	req.Status = model.SwapStatusCompleted
	req.UpdatedAt = now

	if err := s.economy.Settle(req); err != nil {
		return err
	}
	return s.store.PutSwapRequest(req)
}

// partyFor returns (caller's Party, other's Party, isRequester, error)
// for a mark-complete call. It rejects only a caller who is not a
// participant; whether the caller has already marked is not checked here.
func partyFor(req *model.SwapRequest, uid string) (model.Party, model.Party, bool, error) {
	switch uid {
	case req.RequesterUID:
		return req.Completion.Requester, req.Completion.Recipient, true, nil
	case req.RecipientUID:
		return req.Completion.Recipient, req.Completion.Requester, false, nil
	default:
		return model.Party{}, model.Party{}, false, apperr.Forbiddenf("not a participant of this swap request")
	}
}

// verifierFor returns the parties for a verify/dispute call: the
// caller must be the party that has NOT yet marked, and the swap must
// be pending_completion.
func verifierFor(req *model.SwapRequest, uid string) (model.Party, model.Party, bool, error) {
	mine, other, isRequester, err := partyFor(req, uid)
	if err != nil {
		return model.Party{}, model.Party{}, false, err
	}
	if req.Status != model.SwapStatusPendingCompletion {
		return model.Party{}, model.Party{}, false, apperr.Conflictf("swap is not pending completion")
	}
	if mine.MarkedComplete {
		return model.Party{}, model.Party{}, false, apperr.Conflictf("you already marked this swap complete")
	}
	if !other.MarkedComplete {
		return model.Party{}, model.Party{}, false, apperr.Conflictf("the other party has not marked complete yet")
	}
	return mine, other, isRequester, nil
}

func setParty(req *model.SwapRequest, isRequester bool, p model.Party) {
	if isRequester {
		req.Completion.Requester = p
	} else {
		req.Completion.Recipient = p
	}
}

func (s *Service) notifyDeadline(ctx context.Context, req *model.SwapRequest, markerIsRequester bool) {
	markerUID, otherUID := req.RequesterUID, req.RecipientUID
	if !markerIsRequester {
		markerUID, otherUID = req.RecipientUID, req.RequesterUID
	}
	other, err := s.store.GetProfile(otherUID)
	if err != nil || !other.EmailUpdates {
		return
	}
	marker, err := s.store.GetProfile(markerUID)
	if err != nil {
		return
	}
	s.email.SendCompletionDeadline(ctx, other.Email, other.DisplayName, marker.DisplayName, *req.Completion.AutoCompleteAt)
}

func (s *Service) notifyDispute(ctx context.Context, req *model.SwapRequest, disputerIsRequester bool) {
	disputerUID, otherUID := req.RequesterUID, req.RecipientUID
	if !disputerIsRequester {
		disputerUID, otherUID = req.RecipientUID, req.RequesterUID
	}
	other, err := s.store.GetProfile(otherUID)
	if err != nil || !other.EmailUpdates {
		return
	}
	disputer, err := s.store.GetProfile(disputerUID)
	if err != nil {
		return
	}
	party, _, _, err := partyFor(req, disputerUID)
	reason := ""
	if err == nil {
		reason = party.DisputeReason
	}
	s.email.SendDisputeRaised(ctx, other.Email, other.DisplayName, disputer.DisplayName, reason)
}

// StartSweep starts a cron-driven background job that finalizes
// pending_completion requests past their auto_complete_at (spec
// §4.5). The job is idempotent: a swap already settled is skipped
// because its status is no longer pending_completion.
func (s *Service) StartSweep(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, s.runSweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// StopSweep halts the background scheduler.
func (s *Service) StopSweep(ctx context.Context) {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

const sweepBatchSize = 100

func (s *Service) runSweep() {
	due, err := s.store.DuePendingCompletions(time.Now(), sweepBatchSize)
	if err != nil {
		s.log.Error("auto-complete sweep query failed", "err", err)
		return
	}
	for _, req := range due {
		if err := s.autoComplete(req.ID); err != nil {
			s.log.Error("auto-complete failed", "swap_id", req.ID, "err", err)
		}
	}
}

// autoComplete finalizes a single pending_completion request under
// its own lock, re-checking status so a concurrent manual completion
// wins the race.
func (s *Service) autoComplete(id string) error {
	unlock := s.store.Lock(id)
	defer unlock()

	req, err := s.store.GetSwapRequest(id)
	if err != nil {
		return err
	}
	if req.Status != model.SwapStatusPendingCompletion {
		return nil
	}
	if req.Completion.AutoCompleteAt == nil || req.Completion.AutoCompleteAt.After(time.Now()) {
		return nil
	}

	marking := req.Completion.Requester
	if !marking.MarkedComplete {
		marking = req.Completion.Recipient
	}

	return s.finalize(req, marking.HoursClaimed, time.Now())
}
