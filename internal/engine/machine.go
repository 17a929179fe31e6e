package engine

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Announcement carries the data rendered into announcement and reminder texts.
type Announcement struct {
	Name     string
	Birthday Date
	DaysLeft int
	Gift     string
	Amount   string
}

// Delivery pairs an announcement with the participants it must reach.
type Delivery struct {
	Announcement
	Recipients []int64
}

// Resolution is the result of answering a contribution prompt.
type Resolution struct {
	Participant Participant
	// Added is false when the answer was "no" or the participant already contributed.
	Added bool
	// PromptRef is the recorded prompt to retract, 0 if none.
	PromptRef int
}

// StatusRow is one non-subject participant in the status view.
type StatusRow struct {
	Participant Participant
	Contributed bool
}

// Status is a read-only view of the active session.
type Status struct {
	Session Session
	Rows    []StatusRow
}

// Machine drives the single active Session.
//
// Transitions are not safe for concurrent use: callers must feed events one at a
// time. A concurrent intake must serialize calls (one mutation in flight) to keep
// the single-session and unique-contributor guarantees.
type Machine struct {
	doc    *Document
	roster *Roster
	clock  Clock
	commit func() error
}

// State returns the tag of the active session, StateNone if there is none.
func (m *Machine) State() State {
	if s := m.doc.Session.Active; s != nil {
		return s.State
	}
	return StateNone
}

// Active returns a copy of the active session.
func (m *Machine) Active() (Session, bool) {
	if s := m.doc.Session.Active; s != nil {
		return s.clone(), true
	}
	return Session{}, false
}

// Start opens a session for subjectID.
func (m *Machine) Start(subjectID int64) (Session, error) {
	if m.doc.Session.Active != nil {
		return Session{}, ErrSessionActive
	}
	p, ok := m.roster.Lookup(subjectID)
	if !ok {
		return Session{}, ErrInvalidSelection
	}
	if !p.HasBirthday() {
		return Session{}, ErrBirthdayUnknown
	}

	s := &Session{
		State:           StateAwaitingGift,
		SubjectID:       p.ID,
		SubjectName:     p.Name,
		SubjectBirthday: p.Birthday,
		Contributors:    []int64{},
		StartedAt:       m.clock.Now(),
	}
	m.doc.Session.Active = s
	if err := m.commit(); err != nil {
		return Session{}, err
	}

	slog.Info(config.MsgSessionStarted,
		config.LogKeyComponent, config.CompSession,
		config.LogKeySubject, p.ID,
	)
	return s.clone(), nil
}

// SubmitText feeds free-text admin input: first the gift details, then the amount.
func (m *Machine) SubmitText(text string) (State, error) {
	s, err := m.active()
	if err != nil {
		return StateNone, err
	}
	if !s.State.AcceptsText() {
		return s.State, ErrUnexpectedInput
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return s.State, ErrEmptyInput
	}

	switch s.State {
	case StateAwaitingGift:
		s.GiftDetails = text
		return m.transition(s, StateAwaitingAmount)
	default:
		s.ContributionAmount = text
		return m.transition(s, StateReadyToPreview)
	}
}

// Announcement computes the announcement from the session and the current clock.
func (m *Machine) Announcement() (Announcement, error) {
	s, err := m.active()
	if err != nil {
		return Announcement{}, err
	}
	if s.State.AcceptsText() {
		return Announcement{}, ErrStaleAction
	}
	return m.announcement(s), nil
}

// ConfirmBroadcast moves a previewed session into collection and returns
// every participant except the subject as recipients.
func (m *Machine) ConfirmBroadcast() (Delivery, error) {
	s, err := m.active()
	if err != nil {
		return Delivery{}, err
	}
	if s.State != StateReadyToPreview {
		return Delivery{}, ErrStaleAction
	}

	var recipients []int64
	for _, p := range m.roster.List() {
		if p.ID != s.SubjectID {
			recipients = append(recipients, p.ID)
		}
	}

	s.AnnouncedAt = m.clock.Now()
	if _, err := m.transition(s, StateAwaitingContributions); err != nil {
		return Delivery{}, err
	}
	return Delivery{Announcement: m.announcement(s), Recipients: recipients}, nil
}

// Candidates lists participants that may still be acknowledged as contributors.
func (m *Machine) Candidates() ([]Participant, error) {
	s, err := m.active()
	if err != nil {
		return nil, err
	}
	if s.State != StateAwaitingContributions {
		return nil, ErrStaleAction
	}
	return m.nonContributors(s), nil
}

// RequestContribution opens the yes/no confirmation for id.
func (m *Machine) RequestContribution(id int64) (Participant, error) {
	s, err := m.active()
	if err != nil {
		return Participant{}, err
	}
	if s.State != StateAwaitingContributions {
		return Participant{}, ErrStaleAction
	}
	p, ok := m.roster.Lookup(id)
	if !ok || id == s.SubjectID || s.HasContributed(id) {
		return Participant{}, ErrInvalidSelection
	}

	s.Pending = &PendingConfirmation{ParticipantID: id}
	if err := m.commit(); err != nil {
		return Participant{}, err
	}
	return p, nil
}

// RecordPrompt stores the message reference of the outstanding confirmation prompt.
func (m *Machine) RecordPrompt(ref int) error {
	s, err := m.active()
	if err != nil {
		return err
	}
	if s.Pending == nil {
		return ErrStaleAction
	}
	s.Pending.PromptRef = ref
	return m.commit()
}

// ResolveContribution answers the confirmation for id.
// Accepting an id that already contributed is a no-op, so repeated confirmations never duplicate.
func (m *Machine) ResolveContribution(id int64, accept bool) (Resolution, error) {
	s, err := m.active()
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	dirty := false
	if s.Pending != nil && s.Pending.ParticipantID == id {
		res.PromptRef = s.Pending.PromptRef
		s.Pending = nil
		dirty = true
	}

	p, ok := m.roster.Lookup(id)
	switch {
	case !accept:
		res.Participant = p
	case !ok || id == s.SubjectID:
		return m.flush(res, dirty, ErrInvalidSelection)
	case !s.Announced():
		return m.flush(res, dirty, ErrStaleAction)
	case s.HasContributed(id):
		res.Participant = p
	default:
		res.Participant = p
		res.Added = true
		s.Contributors = append(s.Contributors, id)
		dirty = true
	}

	if dirty {
		if err := m.commit(); err != nil {
			return Resolution{}, err
		}
	}
	if res.Added {
		slog.Info(config.MsgContribution,
			config.LogKeyComponent, config.CompSession,
			config.LogKeyParticipant, id,
		)
	}
	return res, nil
}

// RequestReminder builds the reminder preview for non-contributors.
func (m *Machine) RequestReminder() (Delivery, error) {
	s, err := m.active()
	if err != nil {
		return Delivery{}, err
	}
	if s.State != StateAwaitingContributions && s.State != StateReminderPreview {
		return Delivery{}, ErrStaleAction
	}
	d, err := m.reminder(s)
	if err != nil {
		return Delivery{}, err
	}
	if s.State != StateReminderPreview {
		if _, err := m.transition(s, StateReminderPreview); err != nil {
			return Delivery{}, err
		}
	}
	return d, nil
}

// ConfirmReminder returns the reminder recipients and goes back to collecting.
func (m *Machine) ConfirmReminder() (Delivery, error) {
	s, err := m.active()
	if err != nil {
		return Delivery{}, err
	}
	if s.State != StateReminderPreview {
		return Delivery{}, ErrStaleAction
	}
	d, rerr := m.reminder(s)
	if _, err := m.transition(s, StateAwaitingContributions); err != nil {
		return Delivery{}, err
	}
	if rerr != nil {
		return Delivery{}, rerr
	}
	return d, nil
}

// Back leaves a preview or confirmation state without side effects.
func (m *Machine) Back() (State, error) {
	s, err := m.active()
	if err != nil {
		return StateNone, err
	}
	switch s.State {
	case StateReminderPreview:
		return m.transition(s, StateAwaitingContributions)
	case StateEndingConfirm:
		resume := s.ResumeState
		s.ResumeState = StateNone
		if resume == StateNone {
			resume = StateAwaitingContributions
		}
		return m.transition(s, resume)
	default:
		return s.State, nil
	}
}

// RequestEnd asks for confirmation before closing the session.
func (m *Machine) RequestEnd() (Session, error) {
	s, err := m.active()
	if err != nil {
		return Session{}, err
	}
	if s.State != StateEndingConfirm {
		s.ResumeState = s.State
		if _, err := m.transition(s, StateEndingConfirm); err != nil {
			return Session{}, err
		}
	}
	return s.clone(), nil
}

// ConfirmEnd closes the session on accept, archiving the final partition of the roster.
// Declining returns to the state the session was in.
func (m *Machine) ConfirmEnd(accept bool) (CompletedSession, error) {
	s, err := m.active()
	if err != nil {
		return CompletedSession{}, err
	}
	if s.State != StateEndingConfirm {
		return CompletedSession{}, ErrStaleAction
	}
	if !accept {
		_, err := m.Back()
		return CompletedSession{}, err
	}

	nonContributors := []int64{}
	for _, p := range m.nonContributors(s) {
		nonContributors = append(nonContributors, p.ID)
	}
	record := CompletedSession{
		SubjectID:          s.SubjectID,
		Name:               s.SubjectName,
		Birthday:           s.SubjectBirthday,
		GiftDetails:        s.GiftDetails,
		ContributionAmount: s.ContributionAmount,
		Contributors:       slices.Clone(s.Contributors),
		NonContributors:    nonContributors,
		ClosedAt:           m.clock.Now(),
	}

	m.doc.CompletedSessions = append(m.doc.CompletedSessions, record)
	m.doc.Session.Active = nil
	if err := m.commit(); err != nil {
		return CompletedSession{}, err
	}

	slog.Info(config.MsgSessionClosed,
		config.LogKeyComponent, config.CompSession,
		config.LogKeySubject, record.SubjectID,
		config.LogKeySent, len(record.Contributors),
		config.LogKeyFailed, len(record.NonContributors),
	)
	return record, nil
}

// Status lists every non-subject participant with their contribution flag.
func (m *Machine) Status() (Status, error) {
	s, err := m.active()
	if err != nil {
		return Status{}, err
	}
	st := Status{Session: s.clone()}
	for _, p := range m.roster.List() {
		if p.ID == s.SubjectID {
			continue
		}
		st.Rows = append(st.Rows, StatusRow{Participant: p, Contributed: s.HasContributed(p.ID)})
	}
	return st, nil
}

// Completed returns the archive, oldest first.
func (m *Machine) Completed() []CompletedSession {
	return slices.Clone(m.doc.CompletedSessions)
}

func (m *Machine) active() (*Session, error) {
	s := m.doc.Session.Active
	if s == nil {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

func (m *Machine) transition(s *Session, to State) (State, error) {
	from := s.State
	s.State = to
	if err := m.commit(); err != nil {
		return to, err
	}
	slog.Debug(config.MsgSessionStep,
		config.LogKeyComponent, config.CompSession,
		config.LogKeyFrom, string(from),
		config.LogKeyTo, string(to),
	)
	return to, nil
}

// flush persists a cleared prompt before reporting err.
func (m *Machine) flush(res Resolution, dirty bool, err error) (Resolution, error) {
	if dirty {
		if cerr := m.commit(); cerr != nil {
			return Resolution{}, cerr
		}
	}
	return res, err
}

func (m *Machine) announcement(s *Session) Announcement {
	return Announcement{
		Name:     s.SubjectName,
		Birthday: s.SubjectBirthday,
		DaysLeft: DaysUntil(m.clock.Now(), s.SubjectBirthday),
		Gift:     s.GiftDetails,
		Amount:   s.ContributionAmount,
	}
}

func (m *Machine) reminder(s *Session) (Delivery, error) {
	pending := m.nonContributors(s)
	if len(pending) == 0 {
		return Delivery{}, ErrAllContributed
	}
	d := Delivery{Announcement: m.announcement(s)}
	for _, p := range pending {
		d.Recipients = append(d.Recipients, p.ID)
	}
	return d, nil
}

func (m *Machine) nonContributors(s *Session) []Participant {
	var out []Participant
	for _, p := range m.roster.List() {
		if p.ID != s.SubjectID && !s.HasContributed(p.ID) {
			out = append(out, p)
		}
	}
	return out
}
