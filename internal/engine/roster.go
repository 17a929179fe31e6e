package engine

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Outcome is the result of a registration step.
type Outcome int

const (
	// OutcomeAwaitingBirthday: a new participant was created without birthday.
	OutcomeAwaitingBirthday Outcome = iota + 1
	// OutcomeRegistered: the birthday was accepted.
	OutcomeRegistered
	// OutcomeInvalidDate: the input was not a valid date, nothing changed.
	OutcomeInvalidDate
	// OutcomeIgnored: the participant is fully registered; the text is not roster input.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAwaitingBirthday:
		return "awaiting_birthday"
	case OutcomeRegistered:
		return "registered"
	case OutcomeInvalidDate:
		return "invalid_date"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Roster is the participant registry stored in the Document.
type Roster struct {
	doc    *Document
	commit func() error
}

// RegisterOrGreet advances the two-step registration of a participant.
// Unknown ids are created with the supplied name; known ids without a birthday
// have the text parsed as a date.
func (r *Roster) RegisterOrGreet(id int64, text string) (Outcome, error) {
	log := slog.With(
		config.LogKeyComponent, config.CompRoster,
		config.LogKeyParticipant, id,
	)
	text = strings.TrimSpace(text)

	p, known := r.doc.Participants[id]
	switch {
	case !known:
		if text == "" {
			return 0, ErrEmptyInput
		}
		r.doc.Participants[id] = &Participant{
			ID:   id,
			Name: text,
			Seq:  r.nextSeq(),
		}
		if err := r.commit(); err != nil {
			return 0, err
		}
		log.Info(config.MsgParticipantNew, config.LogKeyName, text)
		return OutcomeAwaitingBirthday, nil

	case !p.HasBirthday():
		birthday, err := ParseBirthday(text)
		if err != nil {
			log.Debug(config.MsgInvalidDate, config.LogKeyValue, text)
			return OutcomeInvalidDate, nil
		}
		p.Birthday = birthday
		if err := r.commit(); err != nil {
			return 0, err
		}
		log.Info(config.MsgParticipantReg)
		return OutcomeRegistered, nil

	default:
		return OutcomeIgnored, nil
	}
}

// Lookup returns a copy of the participant record.
func (r *Roster) Lookup(id int64) (Participant, bool) {
	p, ok := r.doc.Participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// List returns every participant in registration order.
func (r *Roster) List() []Participant {
	return r.doc.SortedParticipants()
}

// WithBirthday returns registered participants that can be a session subject.
func (r *Roster) WithBirthday() []Participant {
	return slices.DeleteFunc(r.List(), func(p Participant) bool {
		return !p.HasBirthday()
	})
}

func (r *Roster) nextSeq() int {
	next := 1
	for _, p := range r.doc.Participants {
		if p.Seq >= next {
			next = p.Seq + 1
		}
	}
	return next
}
