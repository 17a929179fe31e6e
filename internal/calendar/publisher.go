package calendar

import (
	"log/slog"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// Updater receives rendered feeds, keyed by route.
type Updater interface {
	Update(path string, data []byte)
}

// Publisher regenerates the feeds after every committed mutation.
type Publisher struct {
	Target      Updater
	Clock       engine.Clock
	Summary     SummaryFunc
	Description string
}

// Committed implements engine.Observer.
func (p *Publisher) Committed(doc *engine.Document) {
	participants := doc.SortedParticipants()
	log := slog.With(config.LogKeyComponent, config.CompCalendar)

	ics, err := BuildICS(participants, p.Clock.Now(), p.Summary, p.Description)
	if err != nil {
		log.Error(config.ErrFeedBuild, config.LogKeyPath, config.RouteCalendar, config.LogKeyError, err)
	} else {
		p.Target.Update(config.RouteCalendar, ics)
	}

	vcf, err := BuildVCards(participants)
	if err != nil {
		log.Error(config.ErrFeedBuild, config.LogKeyPath, config.RouteRoster, config.LogKeyError, err)
	} else {
		p.Target.Update(config.RouteRoster, vcf)
	}

	log.Debug(config.MsgFeedsPublished, config.LogKeyCount, len(participants))
}
