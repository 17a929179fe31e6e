// Package calendar exports the roster as an iCalendar feed and a vCard address book.
package calendar

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// SummaryFunc renders the event title for a participant.
type SummaryFunc func(name string) string

// BuildICS renders one all-day event per participant for the previous, current and
// next year, skipping years before birth. Participants without a birthday are omitted.
func BuildICS(participants []engine.Participant, now time.Time, summary SummaryFunc, description string) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, p := range participants {
		if !p.HasBirthday() {
			continue
		}
		title := fmt.Sprintf(config.FallbackSummary, p.Name)
		if summary != nil {
			title = summary(p.Name)
		}
		for _, e := range createEvents(p, title, description, now) {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	// go-ical refuses to encode a calendar without components.
	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// createEvents generates events for the year window around now.
func createEvents(p engine.Participant, title, description string, now time.Time) []*ical.Event {
	uidBase := uid(p)
	current := now.Year()

	var events []*ical.Event
	for _, y := range []int{current - 1, current, current + 1} {
		if y < p.Birthday.Year {
			continue
		}
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, y, config.ICalDomain))
		event.Props.SetText(config.PropSummary, title)
		if description != "" {
			event.Props.SetText(config.PropDescription, description)
		}

		// time.Date moves Feb 29 to Mar 1 in non-leap years, matching the engine.
		dtStart := ical.NewProp(config.PropDTStart)
		dtStart.SetDate(time.Date(y, p.Birthday.Month, p.Birthday.Day, 0, 0, 0, 0, now.Location()))
		event.Props.Set(dtStart)

		events = append(events, event)
	}
	return events
}

// BuildVCards renders every participant as a vCard 4.0 entry.
func BuildVCards(participants []engine.Participant) ([]byte, error) {
	var buf bytes.Buffer
	enc := vcard.NewEncoder(&buf)
	for _, p := range participants {
		card := make(vcard.Card)
		card.SetValue(vcard.FieldVersion, config.VCardVersion)
		card.SetValue(vcard.FieldUID, fmt.Sprintf(config.VCardUIDFmt, p.ID))
		card.SetValue(vcard.FieldFormattedName, p.Name)
		if p.HasBirthday() {
			card.SetValue(vcard.FieldBirthday, p.Birthday.In(time.UTC).Format(config.DateFormatVCard))
		}
		if err := enc.Encode(card); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
	}
	return buf.Bytes(), nil
}

// uid derives a stable identifier so calendar clients can deduplicate across refreshes.
func uid(p engine.Participant) string {
	input := fmt.Sprintf(config.FormatHashInput, p.ID, p.Birthday.String(), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}
