// Package moderation implements blocks (with cascading effect on
// shared conversations) and reports (spec §4.8).
package moderation

import (
	"time"

	"github.com/google/uuid"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// Service implements block/unblock/report.
type Service struct {
	store *store.Store
	log   *logging.Logger
}

// New builds a Service.
func New(st *store.Store) *Service {
	return &Service{store: st, log: logging.GetDefault().Component("moderation")}
}

// Block records blocker's block of blocked and sets every shared
// conversation to blocked.
func (s *Service) Block(blocker, blocked, reason string) (*model.Block, error) {
	if blocker == blocked {
		return nil, apperr.Validationf("cannot block yourself")
	}

	b := &model.Block{
		ID:         uuid.NewString(),
		BlockerUID: blocker,
		BlockedUID: blocked,
		CreatedAt:  time.Now(),
		Reason:     reason,
	}
	if err := s.store.PutBlock(b); err != nil {
		return nil, err
	}

	convs, err := s.store.ListConversationsForPair(blocker, blocked)
	if err != nil {
		return nil, err
	}
	for _, c := range convs {
		c.Status = model.ConversationBlocked
		c.UpdatedAt = time.Now()
		if err := s.store.PutConversation(c); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Unblock removes blocker's block of blocked, restoring shared
// conversations to active unless a reverse block still exists.
func (s *Service) Unblock(blocker, blocked string) error {
	if err := s.store.DeleteBlock(blocker, blocked); err != nil {
		return err
	}

	reverseBlocked, err := s.store.HasBlock(blocker, blocked)
	if err != nil {
		return err
	}
	if reverseBlocked {
		return nil
	}

	convs, err := s.store.ListConversationsForPair(blocker, blocked)
	if err != nil {
		return err
	}
	for _, c := range convs {
		c.Status = model.ConversationActive
		c.UpdatedAt = time.Now()
		if err := s.store.PutConversation(c); err != nil {
			return err
		}
	}
	return nil
}

// ReportInput is the payload for filing a report.
type ReportInput struct {
	ReporterUID    string
	ReportedUID    string
	ConversationID string
	MessageID      string
	Reason         model.ReportReason
	Details        string
}

// Report records a moderation report with no further side effects
// (spec §4.8: "record only; no user-facing effect here").
func (s *Service) Report(in ReportInput) (*model.Report, error) {
	if len(in.Details) < 10 || len(in.Details) > 2000 {
		return nil, apperr.Validationf("details must be 10..2000 characters")
	}
	switch in.Reason {
	case model.ReportSpam, model.ReportHarassment, model.ReportInappropriateContent, model.ReportScam, model.ReportOther:
	default:
		return nil, apperr.Validationf("invalid report reason %q", in.Reason)
	}

	r := &model.Report{
		ID:             uuid.NewString(),
		ReporterUID:    in.ReporterUID,
		ReportedUID:    in.ReportedUID,
		ConversationID: in.ConversationID,
		MessageID:      in.MessageID,
		Reason:         in.Reason,
		Details:        in.Details,
		Status:         model.ReportStatusPending,
		CreatedAt:      time.Now(),
	}
	if err := s.store.PutReport(r); err != nil {
		return nil, err
	}
	return r, nil
}
