// Package bot routes chat events into the roster and the session machine and
// renders the admin surface.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
	"github.com/tartampluch/go-birthday-bot/internal/i18n"
)

// Options wires the Bot collaborators.
type Options struct {
	Core       *engine.Core
	Translator *i18n.Translator
	Messenger  Messenger
	Notifier   Notifier
	Auth       Authorizer

	// PaymentDetails is appended to the announcement when set.
	PaymentDetails string
	// FlashTTL deletes transient replies after the delay; zero keeps them.
	FlashTTL time.Duration
}

// Bot handles events one at a time. Only deliveries and flash deletions run concurrently.
type Bot struct {
	core    *engine.Core
	tr      *i18n.Translator
	msg     Messenger
	notify  Notifier
	auth    Authorizer
	payment string
	ttl     time.Duration

	panelChat int64
	panelRef  int

	inflight sync.WaitGroup
	log      *slog.Logger
}

// New creates a Bot.
func New(opts Options) *Bot {
	return &Bot{
		core:    opts.Core,
		tr:      opts.Translator,
		msg:     opts.Messenger,
		notify:  opts.Notifier,
		auth:    opts.Auth,
		payment: opts.PaymentDetails,
		ttl:     opts.FlashTTL,
		log:     slog.With(config.LogKeyComponent, config.CompBot),
	}
}

// Run consumes events sequentially until the channel closes or ctx is done.
func (b *Bot) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			b.log.Info(config.MsgCtxCancel)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.Handle(ctx, ev)
		}
	}
}

// Wait blocks until background deliveries and flash deletions are finished.
func (b *Bot) Wait() {
	b.inflight.Wait()
}

// Handle processes a single event.
func (b *Bot) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventCommand:
		b.onCommand(ctx, ev)
	case EventText:
		if ev.Private {
			b.onRegistration(ctx, ev)
		} else {
			b.onAdminText(ctx, ev)
		}
	case EventCallback:
		b.onCallback(ctx, ev)
	default:
		b.log.Debug(config.MsgIgnoredUpdate, config.LogKeyChat, ev.ChatID)
	}
}

// -----------------------------------------------------------------------------
// Commands & Text
// -----------------------------------------------------------------------------

func (b *Bot) onCommand(ctx context.Context, ev Event) {
	switch ev.Text {
	case CommandStart:
		if ev.Private {
			b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyWelcome, nil), nil)
		}
	case CommandAdminPanel:
		if !b.authorized(ev) {
			b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyNoRights, nil))
			return
		}
		b.showPanel(ctx, ev.ChatID)
	default:
		b.log.Debug(config.MsgIgnoredUpdate, config.LogKeyCommand, ev.Text)
	}
}

// onRegistration drives the two-step name/birthday dialogue in private chats.
func (b *Bot) onRegistration(ctx context.Context, ev Event) {
	outcome, err := b.core.Roster.RegisterOrGreet(ev.UserID, ev.Text)
	switch {
	case errors.Is(err, engine.ErrEmptyInput):
		b.deliver(ctx, ev.ChatID, b.tr.T(config.TKeyEmptyName, nil))
		return
	case err != nil:
		b.log.Error(config.ErrHandleEvent, config.LogKeyUser, ev.UserID, config.LogKeyError, err)
		b.deliver(ctx, ev.ChatID, b.tr.T(config.TKeyInternalError, nil))
		return
	}

	switch outcome {
	case engine.OutcomeAwaitingBirthday:
		p, _ := b.core.Roster.Lookup(ev.UserID)
		b.deliver(ctx, ev.ChatID, b.tr.T(config.TKeyGreetNew, i18n.Data{"Name": p.Name}))
	case engine.OutcomeInvalidDate:
		b.deliver(ctx, ev.ChatID, b.tr.T(config.TKeyInvalidDate, nil))
	case engine.OutcomeRegistered:
		b.deliver(ctx, ev.ChatID, b.tr.T(config.TKeyRegistered, nil))
		b.deliver(ctx, ev.ChatID, b.tr.T(config.TKeyRegisteredHint, nil))
	default:
		b.log.Debug(config.MsgIgnoredText, config.LogKeyUser, ev.UserID)
	}
}

// onAdminText feeds gift details and amount while the session waits for them.
// Any other group chatter is ignored.
func (b *Bot) onAdminText(ctx context.Context, ev Event) {
	if !b.authorized(ev) || !b.core.Session.State().AcceptsText() {
		b.log.Debug(config.MsgIgnoredText, config.LogKeyChat, ev.ChatID)
		return
	}

	state, err := b.core.Session.SubmitText(ev.Text)
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.retract(ctx, ev.ChatID, ev.MessageID)

	switch state {
	case engine.StateAwaitingAmount:
		b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyAskAmount, nil), nil)
	case engine.StateReadyToPreview:
		a, err := b.core.Session.Announcement()
		if err != nil {
			b.fail(ctx, ev.ChatID, err)
			return
		}
		text := b.tr.T(config.TKeyPreview, i18n.Data{"Text": b.announcementText(a)})
		b.reply(ctx, ev.ChatID, text, Keyboard{
			row(b.tr.T(config.TKeyBtnSend, nil), Command{Kind: KindSend}),
		})
	}
	b.showPanel(ctx, ev.ChatID)
}

// -----------------------------------------------------------------------------
// Buttons
// -----------------------------------------------------------------------------

func (b *Bot) onCallback(ctx context.Context, ev Event) {
	if err := b.msg.Ack(ctx, ev.CallbackID); err != nil {
		b.log.Warn(config.ErrCallbackAck, config.LogKeyError, err)
	}

	if !b.authorized(ev) {
		b.log.Warn(config.MsgUnauthorized, config.LogKeyChat, ev.ChatID, config.LogKeyUser, ev.UserID)
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyNoRights, nil))
		return
	}

	cmd, err := DecodeCommand(ev.Text)
	if err != nil {
		b.log.Warn(config.ErrDecodeCommand, config.LogKeyError, err)
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyInvalidSelection, nil))
		return
	}
	b.log.Debug(config.MsgCallback, config.LogKeyCommand, cmd.String(), config.LogKeyState, string(b.core.Session.State()))

	switch cmd.Kind {
	case KindInitiate:
		b.initiate(ctx, ev)
	case KindSubject:
		b.selectSubject(ctx, ev, cmd.ID)
	case KindSend:
		b.broadcast(ctx, ev)
	case KindStatus:
		b.status(ctx, ev)
	case KindThank:
		b.pickContributor(ctx, ev)
	case KindThankPick:
		b.confirmContributor(ctx, ev, cmd.ID)
	case KindThankYes, KindThankNo:
		b.resolveContributor(ctx, ev, cmd.ID, cmd.Kind == KindThankYes)
	case KindRemind:
		b.previewReminder(ctx, ev)
	case KindRemindSend:
		b.sendReminder(ctx, ev)
	case KindEnd:
		b.requestEnd(ctx, ev)
	case KindEndYes, KindEndNo:
		b.confirmEnd(ctx, ev, cmd.Kind == KindEndYes)
	case KindBack:
		b.back(ctx, ev)
	case KindNoop:
	}
}

func (b *Bot) initiate(ctx context.Context, ev Event) {
	if s, ok := b.core.Session.Active(); ok {
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeySessionActive, i18n.Data{"Name": s.SubjectName}))
		return
	}
	subjects := b.core.Roster.WithBirthday()
	if len(subjects) == 0 {
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyNoSubjects, nil))
		return
	}
	b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyPickSubject, nil),
		pickerKeyboard(b.tr, subjects, KindSubject, false))
}

func (b *Bot) selectSubject(ctx context.Context, ev Event, id int64) {
	s, err := b.core.Session.Start(id)
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.retract(ctx, ev.ChatID, ev.MessageID)
	b.reply(ctx, ev.ChatID, b.tr.T(config.TKeySubjectChosen, i18n.Data{"Name": s.SubjectName}), nil)
	b.showPanel(ctx, ev.ChatID)
}

func (b *Bot) broadcast(ctx context.Context, ev Event) {
	d, err := b.core.Session.ConfirmBroadcast()
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.fanOut(ctx, ev.ChatID, d.Recipients, b.announcementText(d.Announcement))
	b.retract(ctx, ev.ChatID, ev.MessageID)
	b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyBroadcastDone, nil), nil)
	b.showPanel(ctx, ev.ChatID)
}

func (b *Bot) status(ctx context.Context, ev Event) {
	st, err := b.core.Session.Status()
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	text, kb := renderStatus(b.tr, st)
	b.reply(ctx, ev.ChatID, text, kb)
}

func (b *Bot) pickContributor(ctx context.Context, ev Event) {
	candidates, err := b.core.Session.Candidates()
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	if len(candidates) == 0 {
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyNoContributors, nil))
		return
	}
	b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyPickContributor, nil),
		pickerKeyboard(b.tr, candidates, KindThankPick, true))
}

func (b *Bot) confirmContributor(ctx context.Context, ev Event, id int64) {
	p, err := b.core.Session.RequestContribution(id)
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.retract(ctx, ev.ChatID, ev.MessageID)

	ref := b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyConfirmThank, i18n.Data{"Name": p.Name}),
		confirmKeyboard(b.tr, Command{Kind: KindThankYes, ID: id}, Command{Kind: KindThankNo, ID: id}))
	if ref == 0 {
		return
	}
	if err := b.core.Session.RecordPrompt(ref); err != nil {
		b.log.Error(config.ErrPersist, config.LogKeyError, err)
	}
}

func (b *Bot) resolveContributor(ctx context.Context, ev Event, id int64, accept bool) {
	s, _ := b.core.Session.Active()
	res, err := b.core.Session.ResolveContribution(id, accept)
	if res.PromptRef != 0 && res.PromptRef != ev.MessageID {
		b.retract(ctx, ev.ChatID, res.PromptRef)
	}
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.retract(ctx, ev.ChatID, ev.MessageID)

	switch {
	case !accept:
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyCancelled, nil))
	case res.Added:
		b.deliverAsync(ctx, id, b.tr.T(config.TKeyThankYou, i18n.Data{"Name": s.SubjectName}))
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyThankSent, i18n.Data{"Name": res.Participant.Name}))
		b.showPanel(ctx, ev.ChatID)
	}
}

func (b *Bot) previewReminder(ctx context.Context, ev Event) {
	d, err := b.core.Session.RequestReminder()
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	text := b.tr.T(config.TKeyReminderPreview, i18n.Data{"Text": b.reminderText(d.Announcement)})
	b.reply(ctx, ev.ChatID, text, Keyboard{
		row(b.tr.T(config.TKeyBtnSend, nil), Command{Kind: KindRemindSend}),
		row(b.tr.T(config.TKeyBtnBack, nil), Command{Kind: KindBack}),
	})
}

func (b *Bot) sendReminder(ctx context.Context, ev Event) {
	d, err := b.core.Session.ConfirmReminder()
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.fanOut(ctx, ev.ChatID, d.Recipients, b.reminderText(d.Announcement))
	b.retract(ctx, ev.ChatID, ev.MessageID)
	b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyReminderSent, nil), nil)
	b.showPanel(ctx, ev.ChatID)
}

func (b *Bot) requestEnd(ctx context.Context, ev Event) {
	s, err := b.core.Session.RequestEnd()
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.reply(ctx, ev.ChatID, b.tr.T(config.TKeyConfirmEnd, i18n.Data{"Name": s.SubjectName}),
		confirmKeyboard(b.tr, Command{Kind: KindEndYes}, Command{Kind: KindEndNo}))
}

func (b *Bot) confirmEnd(ctx context.Context, ev Event, accept bool) {
	record, err := b.core.Session.ConfirmEnd(accept)
	if err != nil {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.retract(ctx, ev.ChatID, ev.MessageID)
	if accept {
		b.reply(ctx, ev.ChatID, b.tr.T(config.TKeySessionEnded, i18n.Data{"Name": record.Name}), nil)
	} else {
		b.flash(ctx, ev.ChatID, b.tr.T(config.TKeyCancelled, nil))
	}
	b.showPanel(ctx, ev.ChatID)
}

func (b *Bot) back(ctx context.Context, ev Event) {
	if _, err := b.core.Session.Back(); err != nil && !errors.Is(err, engine.ErrNoActiveSession) {
		b.fail(ctx, ev.ChatID, err)
		return
	}
	b.retract(ctx, ev.ChatID, ev.MessageID)
	b.showPanel(ctx, ev.ChatID)
}

// -----------------------------------------------------------------------------
// Output helpers
// -----------------------------------------------------------------------------

func (b *Bot) authorized(ev Event) bool {
	return b.auth.Allowed(ev.ChatID, ev.UserID)
}

func (b *Bot) announcementText(a engine.Announcement) string {
	return b.tr.T(config.TKeyAnnouncement, announcementData(b.tr, a, b.payment))
}

func (b *Bot) reminderText(a engine.Announcement) string {
	return b.tr.T(config.TKeyReminder, announcementData(b.tr, a, b.payment))
}

// showPanel retracts the previous panel and renders the current one.
func (b *Bot) showPanel(ctx context.Context, chatID int64) {
	if b.panelRef != 0 {
		b.retract(ctx, b.panelChat, b.panelRef)
		b.panelRef = 0
	}
	var active *engine.Session
	if s, ok := b.core.Session.Active(); ok {
		active = &s
	}
	text, kb := renderPanel(b.tr, active)
	if ref := b.reply(ctx, chatID, text, kb); ref != 0 {
		b.panelChat, b.panelRef = chatID, ref
	}
}

// reply sends a message and returns its id, 0 on failure.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, kb Keyboard) int {
	ref, err := b.msg.Send(ctx, chatID, text, kb)
	if err != nil {
		b.log.Error(config.ErrDeliveryFailed, config.LogKeyChat, chatID, config.LogKeyError, err)
		return 0
	}
	return ref
}

// flash sends a transient reply that is deleted after the configured TTL.
func (b *Bot) flash(ctx context.Context, chatID int64, text string) {
	ref := b.reply(ctx, chatID, text, nil)
	if ref == 0 || b.ttl <= 0 {
		return
	}
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		timer := time.NewTimer(b.ttl)
		defer timer.Stop()
		select {
		case <-timer.C:
			b.retract(ctx, chatID, ref)
		case <-ctx.Done():
		}
	}()
}

// retract deletes a message; failures are logged and otherwise ignored.
func (b *Bot) retract(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := b.msg.Delete(ctx, chatID, messageID); err != nil {
		b.log.Warn(config.ErrRetractFailed,
			config.LogKeyChat, chatID,
			config.LogKeyMessage, messageID,
			config.LogKeyError, err,
		)
	}
}

// deliver sends a participant-facing text with retry, synchronously.
func (b *Bot) deliver(ctx context.Context, chatID int64, text string) {
	// The dispatcher logs failures itself.
	_ = b.notify.Send(ctx, chatID, text)
}

// deliverAsync is deliver without blocking the event loop.
// Deliveries are not cancelled on shutdown; Wait drains them.
func (b *Bot) deliverAsync(ctx context.Context, chatID int64, text string) {
	ctx = context.WithoutCancel(ctx)
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.deliver(ctx, chatID, text)
	}()
}

// fanOut broadcasts in the background and reports the counts to the admin chat.
func (b *Bot) fanOut(ctx context.Context, adminChat int64, recipients []int64, text string) {
	ctx = context.WithoutCancel(ctx)
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		sum := b.notify.Broadcast(ctx, recipients, text)
		b.reply(ctx, adminChat, b.tr.T(config.TKeyDeliverySummary, i18n.Data{
			"Sent":   sum.Sent,
			"Failed": sum.Failed,
		}), nil)
	}()
}

// fail reports a rejected action to the actor; the state is unchanged.
func (b *Bot) fail(ctx context.Context, chatID int64, err error) {
	data := i18n.Data{}
	if s, ok := b.core.Session.Active(); ok {
		data["Name"] = s.SubjectName
	}

	key := config.TKeyInternalError
	switch {
	case errors.Is(err, engine.ErrNoActiveSession):
		key = config.TKeyNoSession
	case errors.Is(err, engine.ErrSessionActive):
		key = config.TKeySessionActive
	case errors.Is(err, engine.ErrEmptyInput):
		key = config.TKeyEmptyInput
	case errors.Is(err, engine.ErrAllContributed):
		key = config.TKeyAllContributed
	case errors.Is(err, engine.ErrInvalidSelection),
		errors.Is(err, engine.ErrStaleAction),
		errors.Is(err, engine.ErrBirthdayUnknown),
		errors.Is(err, engine.ErrUnexpectedInput):
		key = config.TKeyInvalidSelection
	}

	if key == config.TKeyInternalError {
		b.log.Error(config.ErrHandleEvent, config.LogKeyChat, chatID, config.LogKeyError, err)
	} else {
		b.log.Info(config.MsgRejected, config.LogKeyChat, chatID, config.LogKeyKey, key, config.LogKeyError, err)
	}
	b.flash(ctx, chatID, b.tr.T(key, data))
}
