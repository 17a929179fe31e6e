package engine

import (
	"slices"
	"time"
)

// State is the explicit lifecycle tag of the active Session.
type State string

const (
	// StateNone is reported when no session is active; it is never stored.
	StateNone State = ""

	// StateAwaitingGift is entered on subject selection; the next admin text is the gift.
	StateAwaitingGift          State = "awaiting_gift"
	StateAwaitingAmount        State = "awaiting_amount"
	StateReadyToPreview        State = "ready_to_preview"
	StateAwaitingContributions State = "awaiting_contributions"
	StateReminderPreview       State = "reminder_preview"
	StateEndingConfirm         State = "ending_confirm"
)

// AcceptsText reports whether free-text admin input drives this state.
func (s State) AcceptsText() bool {
	return s == StateAwaitingGift || s == StateAwaitingAmount
}

// PendingConfirmation is the single outstanding yes/no contribution prompt.
type PendingConfirmation struct {
	ParticipantID int64 `json:"participantId"`
	// PromptRef is the transport message id of the prompt, 0 until recorded.
	PromptRef int `json:"promptRef,omitempty"`
}

// Session is the single active birthday collection.
// Subject fields are a snapshot taken at selection time.
type Session struct {
	State State `json:"state"`
	// ResumeState is where a cancelled end request returns to.
	ResumeState State `json:"resumeState,omitempty"`

	SubjectID       int64  `json:"subjectId"`
	SubjectName     string `json:"subjectName"`
	SubjectBirthday Date   `json:"subjectBirthday"`

	GiftDetails        string  `json:"giftDetails,omitempty"`
	ContributionAmount string  `json:"contributionAmount,omitempty"`
	Contributors       []int64 `json:"contributors"`

	Pending *PendingConfirmation `json:"pendingConfirmation,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	AnnouncedAt time.Time `json:"announcedAt,omitzero"`
}

// HasContributed reports whether id acknowledged a contribution.
func (s *Session) HasContributed(id int64) bool {
	return slices.Contains(s.Contributors, id)
}

// Announced reports whether the announcement went out.
func (s *Session) Announced() bool {
	return !s.AnnouncedAt.IsZero()
}

// clone returns a deep copy safe to hand out of the engine.
func (s *Session) clone() Session {
	c := *s
	c.Contributors = slices.Clone(s.Contributors)
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	return c
}
