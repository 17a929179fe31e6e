package engine

import (
	"cmp"
	"slices"
	"time"
)

// Participant is a roster member keyed by their chat user id.
// Name and Birthday are set once and never edited afterwards.
type Participant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Birthday Date   `json:"birthday,omitzero"`

	// Seq is the registration order; selection menus are rendered in this order.
	Seq int `json:"seq"`
}

// HasBirthday reports whether registration is complete.
func (p Participant) HasBirthday() bool {
	return !p.Birthday.IsZero()
}

// CompletedSession is the immutable archive of a closed collection.
type CompletedSession struct {
	SubjectID          int64     `json:"subjectId"`
	Name               string    `json:"name"`
	Birthday           Date      `json:"birthday,omitzero"`
	GiftDetails        string    `json:"giftDetails,omitempty"`
	ContributionAmount string    `json:"contributionAmount,omitempty"`
	Contributors       []int64   `json:"contributors"`
	NonContributors    []int64   `json:"nonContributors"`
	ClosedAt           time.Time `json:"closedAt"`
}

// SessionSlot holds the singleton active session, nil when none is running.
type SessionSlot struct {
	Active *Session `json:"active"`
}

// Document is the whole persisted state, rewritten on every mutation.
type Document struct {
	Participants      map[int64]*Participant `json:"participants"`
	Session           SessionSlot            `json:"session"`
	CompletedSessions []CompletedSession     `json:"completedSessions"`
}

// NewDocument returns the defaults used on first run.
func NewDocument() *Document {
	return &Document{
		Participants:      make(map[int64]*Participant),
		CompletedSessions: []CompletedSession{},
	}
}

// SortedParticipants returns copies of all participants in registration order.
func (d *Document) SortedParticipants() []Participant {
	out := make([]Participant, 0, len(d.Participants))
	for _, p := range d.Participants {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Participant) int {
		return cmp.Or(cmp.Compare(a.Seq, b.Seq), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// normalize repairs fields a partial or older document may lack.
func (d *Document) normalize() {
	if d.Participants == nil {
		d.Participants = make(map[int64]*Participant)
	}
	if d.CompletedSessions == nil {
		d.CompletedSessions = []CompletedSession{}
	}
	for id, p := range d.Participants {
		if p == nil {
			delete(d.Participants, id)
			continue
		}
		p.ID = id
	}
	if s := d.Session.Active; s != nil && s.Contributors == nil {
		s.Contributors = []int64{}
	}
}
