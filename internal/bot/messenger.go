package bot

import (
	"context"
	"slices"

	"github.com/tartampluch/go-birthday-bot/internal/notify"
)

// EventKind distinguishes inbound updates.
type EventKind int

const (
	EventText EventKind = iota + 1
	EventCommand
	EventCallback
)

// Chat commands understood by the bot.
const (
	CommandStart      = "start"
	CommandAdminPanel = "admin_panel"
)

// Event is one inbound update, already stripped of transport details.
type Event struct {
	Kind    EventKind
	ChatID  int64
	Private bool
	UserID  int64

	// MessageID is the message that carried the text or the pressed button.
	MessageID  int
	CallbackID string

	// Text is the message text, the command name without slash, or the button payload.
	Text string
}

// Button is one inline action.
type Button struct {
	Text string
	Data string
}

// Keyboard is a grid of inline buttons, one slice per row.
type Keyboard [][]Button

func row(text string, cmd Command) []Button {
	return []Button{{Text: text, Data: cmd.Encode()}}
}

// Messenger is the chat transport used for replies and menus.
type Messenger interface {
	// Send posts text with an optional keyboard and returns the message id.
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
	// Ack answers a button press so the client stops its progress indicator.
	Ack(ctx context.Context, callbackID string) error
}

// Notifier delivers participant-facing texts with retry.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
	Broadcast(ctx context.Context, recipients []int64, text string) notify.Summary
}

// Authorizer is the admin capability gate: the admin chat, or a listed admin user anywhere.
type Authorizer struct {
	AdminChatID  int64
	AdminUserIDs []int64
}

// Allowed reports whether the actor may run admin-only actions.
func (a Authorizer) Allowed(chatID, userID int64) bool {
	if a.AdminChatID != 0 && chatID == a.AdminChatID {
		return true
	}
	return slices.Contains(a.AdminUserIDs, userID)
}
