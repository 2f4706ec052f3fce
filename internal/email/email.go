// Package email sends transactional notifications via SendGrid. The
// original used Resend; SendGrid is the mail provider carried in the
// example corpus, so sends take the same shape (subject/html/text)
// against a different client (spec SPEC_FULL DOMAIN STACK decision).
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/otitou/wap-backend-go/internal/cache"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// messageDebounceTTL caps new-message notifications to one per
// recipient per conversation in this window (original's 900s).
const messageDebounceTTL = 15 * time.Minute

// Content is a rendered email body in both formats.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// Config configures the SendGrid client.
type Config struct {
	Enabled bool
	APIKey  string
	From    string
}

// Notifier sends templated notification emails.
type Notifier struct {
	client  *sendgrid.Client
	cache   *cache.Cache
	from    string
	enabled bool
	log     *logging.Logger
}

// New builds a Notifier. When disabled or missing an API key, sends
// are logged and skipped rather than failing the caller.
func New(cfg Config, c *cache.Cache) *Notifier {
	log := logging.GetDefault().Component("email")
	enabled := cfg.Enabled && cfg.APIKey != ""
	if !enabled {
		log.Warn("email service disabled: missing api key or EMAIL_ENABLED=false")
	}
	return &Notifier{
		client:  sendgrid.NewSendClient(cfg.APIKey),
		cache:   c,
		from:    cfg.From,
		enabled: enabled,
		log:     log,
	}
}

// Enabled reports whether sends go out over SendGrid or are only logged.
func (n *Notifier) Enabled() bool { return n != nil && n.enabled }

func (n *Notifier) send(ctx context.Context, toEmail, toName string, c Content) bool {
	if !n.enabled {
		n.log.Info("email disabled, would send", "to", toEmail, "subject", c.Subject)
		return false
	}
	from := mail.NewEmail("We Are Plentiful", n.from)
	to := mail.NewEmail(toName, toEmail)
	msg := mail.NewSingleEmail(from, c.Subject, to, c.Text, c.HTML)
	resp, err := n.client.SendWithContext(ctx, msg)
	if err != nil {
		n.log.Error("failed to send email", "to", toEmail, "err", err)
		return false
	}
	if resp.StatusCode >= 300 {
		n.log.Error("email send rejected", "to", toEmail, "status", resp.StatusCode, "body", resp.Body)
		return false
	}
	n.log.Info("email sent", "to", toEmail, "subject", c.Subject)
	return true
}

// SendWelcome notifies a new user of their profile creation.
func (n *Notifier) SendWelcome(ctx context.Context, toEmail, userName, skillsToOffer, servicesNeeded string) bool {
	return n.send(ctx, toEmail, userName, welcomeEmail(userName, skillsToOffer, servicesNeeded))
}

// MatchInfo is the subset of a matched profile needed to render a notification.
type MatchInfo struct {
	UID            string
	DisplayName    string
	SkillsToOffer  string
	ServicesNeeded string
	Score          float64
}

// SendMatchNotification notifies a user of a new reciprocal match.
func (n *Notifier) SendMatchNotification(ctx context.Context, toEmail, userName string, m MatchInfo) bool {
	return n.send(ctx, toEmail, userName, matchNotificationEmail(userName, m))
}

// SendSwapRequest notifies a recipient of an incoming swap request.
func (n *Notifier) SendSwapRequest(ctx context.Context, toEmail, recipientName, requesterName, requesterOffers, requesterNeeds, message, requestID string) bool {
	return n.send(ctx, toEmail, recipientName, swapRequestEmail(recipientName, requesterName, requesterOffers, requesterNeeds, message, requestID))
}

// SendSwapResponse notifies a requester that their request was accepted or declined.
func (n *Notifier) SendSwapResponse(ctx context.Context, toEmail, requesterName, recipientName string, accepted bool, conversationID string) bool {
	if accepted {
		return n.send(ctx, toEmail, requesterName, swapAcceptedEmail(requesterName, recipientName, conversationID))
	}
	return n.send(ctx, toEmail, requesterName, swapDeclinedEmail(requesterName, recipientName))
}

// SendCompletionDeadline notifies a user that the other party marked
// their swap complete and that auto-completion is pending.
func (n *Notifier) SendCompletionDeadline(ctx context.Context, toEmail, recipientName, otherName string, autoCompleteAt time.Time) bool {
	return n.send(ctx, toEmail, recipientName, completionDeadlineEmail(recipientName, otherName, autoCompleteAt))
}

// SendDisputeRaised notifies a user that their counterpart disputed the swap.
func (n *Notifier) SendDisputeRaised(ctx context.Context, toEmail, recipientName, disputerName, reason string) bool {
	return n.send(ctx, toEmail, recipientName, disputeRaisedEmail(recipientName, disputerName, reason))
}

// SendNewMessage notifies a recipient of a new chat message, debounced
// to one email per conversation per messageDebounceTTL window.
func (n *Notifier) SendNewMessage(ctx context.Context, toEmail, recipientUID, recipientName, senderName, preview, conversationID string) bool {
	debounceKey := fmt.Sprintf("msg_notify:%s:%s", recipientUID, conversationID)
	if !n.cache.SetNX(ctx, debounceKey, messageDebounceTTL) {
		n.log.Debug("debounced message notification", "to", toEmail, "conversation", conversationID)
		return false
	}
	return n.send(ctx, toEmail, recipientName, newMessageEmail(recipientName, senderName, preview, conversationID))
}
