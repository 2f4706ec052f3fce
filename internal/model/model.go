// Package model defines the domain entities of the skill-exchange core.
package model

import "time"

// Profile is a user's public exchange presence: what they can teach,
// what they want to learn, and their running economy balances.
type Profile struct {
	UID                  string    `json:"uid"`
	Email                string    `json:"email"`
	DisplayName          string    `json:"display_name"`
	PhotoURL             string    `json:"photo_url,omitempty"`
	Bio                  string    `json:"bio,omitempty"`
	City                 string    `json:"city,omitempty"`
	Timezone             string    `json:"timezone,omitempty"`
	SkillsToOffer        string    `json:"skills_to_offer"`
	ServicesNeeded       string    `json:"services_needed"`
	DMOpen               bool      `json:"dm_open"`
	EmailUpdates         bool      `json:"email_updates"`
	ShowCity             bool      `json:"show_city"`
	SwapPoints           int       `json:"swap_points"`
	LifetimePointsEarned int       `json:"lifetime_points_earned"`
	SwapCredits          int       `json:"swap_credits"`
	CompletedSwapCount   int       `json:"completed_swap_count"`
	TotalHoursTraded     float64   `json:"total_hours_traded"`
	AverageRating        float64   `json:"average_rating"`
	ReviewCount          int       `json:"review_count"`
	ResponseRate         float64   `json:"response_rate"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// HasIndexableSkills reports whether both skill texts are non-empty,
// the invariant gating IndexedProfile existence (spec §3).
func (p *Profile) HasIndexableSkills() bool {
	return p.SkillsToOffer != "" && p.ServicesNeeded != ""
}

// SwapType distinguishes a two-sided skill trade from a one-sided,
// points-paid service request.
type SwapType string

const (
	SwapTypeDirect   SwapType = "direct"
	SwapTypeIndirect SwapType = "indirect"
)

// SwapStatus is a node in the swap lifecycle state machine (spec §4.4/§4.5).
type SwapStatus string

const (
	SwapStatusPending           SwapStatus = "pending"
	SwapStatusAccepted          SwapStatus = "accepted"
	SwapStatusDeclined          SwapStatus = "declined"
	SwapStatusCancelled         SwapStatus = "cancelled"
	SwapStatusPendingCompletion SwapStatus = "pending_completion"
	SwapStatusDisputed          SwapStatus = "disputed"
	SwapStatusCompleted         SwapStatus = "completed"
)

// IsTerminal reports whether status has no further outbound transitions.
func (s SwapStatus) IsTerminal() bool {
	switch s {
	case SwapStatusDeclined, SwapStatusCancelled, SwapStatusCompleted, SwapStatusDisputed:
		return true
	default:
		return false
	}
}

// SkillLevel bounds the multipliers used by the economy engine (spec §4.6).
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// Party is one participant's side of a Completion.
type Party struct {
	MarkedComplete bool       `json:"marked_complete"`
	MarkedAt       *time.Time `json:"marked_at,omitempty"`
	HoursClaimed   float64    `json:"hours_claimed,omitempty"`
	SkillLevel     SkillLevel `json:"skill_level,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	DisputeReason  string     `json:"dispute_reason,omitempty"`
	DisputedAt     *time.Time `json:"disputed_at,omitempty"`
}

// Completion tracks the two-sided mark-complete/verify/dispute protocol.
type Completion struct {
	Requester               Party      `json:"requester"`
	Recipient                Party      `json:"recipient"`
	AutoCompleteAt           *time.Time `json:"auto_complete_at,omitempty"`
	CompletedAt              *time.Time `json:"completed_at,omitempty"`
	FinalHours               float64    `json:"final_hours,omitempty"`
	RequesterPointsEarned    int        `json:"requester_points_earned,omitempty"`
	RequesterCreditsEarned   int        `json:"requester_credits_earned,omitempty"`
	RecipientPointsEarned    int        `json:"recipient_points_earned,omitempty"`
	RecipientCreditsEarned   int        `json:"recipient_credits_earned,omitempty"`
}

// SwapRequest is the single record driving the swap lifecycle (spec §3/§4.4/§4.5).
type SwapRequest struct {
	ID              string     `json:"id"`
	RequesterUID    string     `json:"requester_uid"`
	RecipientUID    string     `json:"recipient_uid"`
	Status          SwapStatus `json:"status"`
	SwapType        SwapType   `json:"swap_type"`
	RequesterOffer  string     `json:"requester_offer,omitempty"`
	RequesterNeed   string     `json:"requester_need"`
	PointsOffered   int        `json:"points_offered,omitempty"`
	PointsReserved  int        `json:"points_reserved"`
	Message         string     `json:"message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	ConversationID  string     `json:"conversation_id,omitempty"`
	Completion      Completion `json:"completion"`
}

// ConversationStatus mirrors §3's three-state enum.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationBlocked  ConversationStatus = "blocked"
	ConversationArchived ConversationStatus = "archived"
)

// LastMessagePreview is the denormalised last-message summary stored on a Conversation.
type LastMessagePreview struct {
	Content  string    `json:"content"`
	SenderUID string   `json:"sender_uid"`
	SentAt   time.Time `json:"sent_at"`
}

// Conversation is the thread spawned when a SwapRequest is accepted (spec §3/I4).
type Conversation struct {
	ID              string               `json:"id"`
	ParticipantUIDs [2]string            `json:"participant_uids"`
	SwapRequestID   string               `json:"swap_request_id"`
	Status          ConversationStatus   `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	LastMessage     *LastMessagePreview  `json:"last_message,omitempty"`
	UnreadCounts    map[string]int       `json:"unread_counts"`
}

// HasParticipant reports whether uid is one of the two sorted participants.
func (c *Conversation) HasParticipant(uid string) bool {
	return c.ParticipantUIDs[0] == uid || c.ParticipantUIDs[1] == uid
}

// OtherParticipant returns the participant that is not uid.
func (c *Conversation) OtherParticipant(uid string) string {
	if c.ParticipantUIDs[0] == uid {
		return c.ParticipantUIDs[1]
	}
	return c.ParticipantUIDs[0]
}

// MessageType distinguishes user text from system-authored notices.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// SystemSender is the synthetic sender UID for system-authored messages.
const SystemSender = "system"

// Message is a single entry in a Conversation's transcript.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	SenderUID      string      `json:"sender_uid"`
	Content        string      `json:"content"`
	SentAt         time.Time   `json:"sent_at"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
	ReadBy         []string    `json:"read_by"`
	Type           MessageType `json:"type"`
}

// Block records a one-directional moderation action (spec §3, §4.8).
type Block struct {
	ID         string    `json:"id"`
	BlockerUID string    `json:"blocker_uid"`
	BlockedUID string    `json:"blocked_uid"`
	CreatedAt  time.Time `json:"created_at"`
	Reason     string    `json:"reason,omitempty"`
}

// ReportReason enumerates spec §3's closed reason set.
type ReportReason string

const (
	ReportSpam                  ReportReason = "spam"
	ReportHarassment            ReportReason = "harassment"
	ReportInappropriateContent  ReportReason = "inappropriate_content"
	ReportScam                  ReportReason = "scam"
	ReportOther                 ReportReason = "other"
)

// ReportStatus tracks whether a report has been triaged (spec excludes adjudication).
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
)

// Report is a record-only moderation complaint (spec §4.8).
type Report struct {
	ID             string       `json:"id"`
	ReporterUID    string       `json:"reporter_uid"`
	ReportedUID    string       `json:"reported_uid"`
	ConversationID string       `json:"conversation_id,omitempty"`
	MessageID      string       `json:"message_id,omitempty"`
	Reason         ReportReason `json:"reason"`
	Details        string       `json:"details"`
	Status         ReportStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Review is a post-completion rating of a counterparty (spec §3, supplemented feature).
type Review struct {
	ID             string    `json:"id"`
	SwapRequestID  string    `json:"swap_request_id"`
	ReviewerUID    string    `json:"reviewer_uid"`
	ReviewedUID    string    `json:"reviewed_uid"`
	Rating         int       `json:"rating"`
	ReviewText     string    `json:"review_text,omitempty"`
	SkillExchanged string    `json:"skill_exchanged,omitempty"`
	HoursExchanged float64   `json:"hours_exchanged,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TxType distinguishes a credit from a debit on an append-only ledger.
type TxType string

const (
	TxEarned TxType = "earned"
	TxSpent  TxType = "spent"
)

// TxReason enumerates spec §3's closed PointsTransaction/CreditsTransaction reason set.
type TxReason string

const (
	ReasonSwapCompleted             TxReason = "swap_completed"
	ReasonPriorityBoost             TxReason = "priority_boost"
	ReasonRequestWithoutReciprocity TxReason = "request_without_reciprocity"
	ReasonIndirectSwapReserved      TxReason = "indirect_swap_reserved"
	ReasonIndirectSwapRefund        TxReason = "indirect_swap_refund"
	ReasonIndirectSwapPayment       TxReason = "indirect_swap_payment"
	ReasonBonus                     TxReason = "bonus"
)

// PointsTransaction is an append-only ledger entry for the non-fungible reputation currency.
type PointsTransaction struct {
	ID             string    `json:"id"`
	UID            string    `json:"uid"`
	Type           TxType    `json:"type"`
	Amount         int       `json:"amount"`
	BalanceAfter   int       `json:"balance_after"`
	Reason         TxReason  `json:"reason"`
	RelatedSwapID  string    `json:"related_swap_id,omitempty"`
	RelatedSkill   string    `json:"related_skill,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreditsTransaction is the analogous append-only ledger for the spendable currency.
type CreditsTransaction struct {
	ID             string    `json:"id"`
	UID            string    `json:"uid"`
	Type           TxType    `json:"type"`
	Amount         int       `json:"amount"`
	BalanceAfter   int       `json:"balance_after"`
	Reason         TxReason  `json:"reason"`
	RelatedSwapID  string    `json:"related_swap_id,omitempty"`
	RelatedSkill   string    `json:"related_skill,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// BoostType enumerates discretionary-spend boost kinds (spec §4.6 names only "priority").
type BoostType string

const BoostPriority BoostType = "priority"

// ActiveBoost is a time-bounded search-rank elevation tag on a profile.
type ActiveBoost struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	Type        BoostType `json:"type"`
	StartedAt   time.Time `json:"started_at"`
	EndsAt      time.Time `json:"ends_at"`
	PointsSpent int       `json:"points_spent"`
}

// Dispute is created when a party rejects the other's completion claim (spec §4.5).
type Dispute struct {
	ID            string    `json:"id"`
	SwapRequestID string    `json:"swap_request_id"`
	DisputerUID   string    `json:"disputer_uid"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// IndexedProfile is the projection stored in the vector index (spec §3/§4.1).
type IndexedProfile struct {
	UID      string
	OfferVec []float32
	NeedVec  []float32
	Payload  map[string]any
}
