package bot

import (
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
	"github.com/tartampluch/go-birthday-bot/internal/i18n"
)

// Views are pure functions of the engine state; the Bot only sends what they return.

// renderPanel builds the admin control surface for the active session, nil if none.
func renderPanel(tr *i18n.Translator, s *engine.Session) (string, Keyboard) {
	title := tr.T(config.TKeyPanelTitle, nil)
	if s == nil {
		return title, Keyboard{
			row(tr.T(config.TKeyBtnStart, nil), Command{Kind: KindInitiate}),
		}
	}

	switch s.State {
	case engine.StateAwaitingGift:
		title += "\n\n" + tr.T(config.TKeyAwaitingGift, nil)
	case engine.StateAwaitingAmount:
		title += "\n\n" + tr.T(config.TKeyAwaitingAmount, nil)
	}

	kb := Keyboard{
		row(tr.T(config.TKeyBtnActive, i18n.Data{"Name": s.SubjectName}), Command{Kind: KindStatus}),
		row(tr.T(config.TKeyBtnStatus, nil), Command{Kind: KindStatus}),
	}
	if s.Announced() {
		kb = append(kb,
			row(tr.T(config.TKeyBtnThank, nil), Command{Kind: KindThank}),
			row(tr.T(config.TKeyBtnRemind, nil), Command{Kind: KindRemind}),
		)
	}
	kb = append(kb, row(tr.T(config.TKeyBtnEnd, nil), Command{Kind: KindEnd}))
	return title, kb
}

// renderStatus lists every non-subject participant with a contributed mark.
func renderStatus(tr *i18n.Translator, st engine.Status) (string, Keyboard) {
	kb := make(Keyboard, 0, len(st.Rows)+2)
	for _, r := range st.Rows {
		key := config.TKeyStatusUnpaid
		if r.Contributed {
			key = config.TKeyStatusPaid
		}
		kb = append(kb, row(tr.T(key, i18n.Data{"Name": r.Participant.Name}), Command{Kind: KindNoop}))
	}
	if st.Session.Announced() {
		kb = append(kb, row(tr.T(config.TKeyBtnRemind, nil), Command{Kind: KindRemind}))
	}
	kb = append(kb, row(tr.T(config.TKeyBtnBack, nil), Command{Kind: KindBack}))
	return tr.T(config.TKeyStatusTitle, i18n.Data{"Name": st.Session.SubjectName}), kb
}

// pickerKeyboard offers one button per participant, in roster order.
func pickerKeyboard(tr *i18n.Translator, ps []engine.Participant, kind Kind, back bool) Keyboard {
	kb := make(Keyboard, 0, len(ps)+1)
	for _, p := range ps {
		kb = append(kb, row(p.Name, Command{Kind: kind, ID: p.ID}))
	}
	if back {
		kb = append(kb, row(tr.T(config.TKeyBtnBack, nil), Command{Kind: KindBack}))
	}
	return kb
}

// confirmKeyboard is the yes/no pair used by every two-step action.
func confirmKeyboard(tr *i18n.Translator, yes, no Command) Keyboard {
	return Keyboard{
		row(tr.T(config.TKeyBtnYes, nil), yes),
		row(tr.T(config.TKeyBtnNo, nil), no),
	}
}

// announcementData fills the shared template fields of announcement and reminder texts.
func announcementData(tr *i18n.Translator, a engine.Announcement, payment string) i18n.Data {
	return i18n.Data{
		"Name":    a.Name,
		"Date":    tr.DayMonth(a.Birthday.Month, a.Birthday.Day),
		"Days":    tr.Plural(config.TKeyDaysLeft, a.DaysLeft),
		"Amount":  a.Amount,
		"Gift":    a.Gift,
		"Payment": payment,
	}
}
