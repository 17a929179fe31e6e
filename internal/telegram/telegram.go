// Package telegram binds the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tartampluch/go-birthday-bot/internal/bot"
	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// API is the subset of *tgbotapi.BotAPI the client needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client implements bot.Messenger and notify.Sender.
type Client struct {
	api API
	raw *tgbotapi.BotAPI
	log *slog.Logger
}

// New authenticates against the Bot API.
func New(token string, debug bool) (*Client, error) {
	raw, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTransportInit, err)
	}
	raw.Debug = debug

	c := NewWithAPI(raw)
	c.raw = raw
	c.log.Info(config.MsgBotReady, config.LogKeyName, raw.Self.UserName)
	return c, nil
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API) *Client {
	return &Client{
		api: api,
		log: slog.With(config.LogKeyComponent, config.CompTelegram),
	}
}

// Send posts text with an optional inline keyboard.
func (c *Client) Send(ctx context.Context, chatID int64, text string, kb bot.Keyboard) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(kb) > 0 {
		msg.ReplyMarkup = markup(kb)
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SendText posts plain text.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.Send(ctx, chatID, text, nil)
	return err
}

// Delete removes a message.
func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// Ack answers a callback query without showing a notification.
func (c *Client) Ack(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// Events long-polls for updates and converts them until ctx is done.
func (c *Client) Events(ctx context.Context) <-chan bot.Event {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = config.DefaultPollTimeout
	updates := c.raw.GetUpdatesChan(u)

	out := make(chan bot.Event)
	go func() {
		defer close(out)
		defer c.raw.StopReceivingUpdates()
		pump(ctx, updates, out, c.log)
	}()
	return out
}

// pump forwards converted updates until ctx is done or in closes.
func pump(ctx context.Context, in <-chan tgbotapi.Update, out chan<- bot.Event, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-in:
			if !ok {
				return
			}
			ev, ok := ToEvent(u)
			if !ok {
				log.Debug(config.MsgIgnoredUpdate, config.LogKeyValue, u.UpdateID)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// ToEvent converts a text message, a command or a button press.
func ToEvent(u tgbotapi.Update) (bot.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.Message == nil || q.Message.Chat == nil || q.From == nil {
			return bot.Event{}, false
		}
		return bot.Event{
			Kind:       bot.EventCallback,
			ChatID:     q.Message.Chat.ID,
			Private:    q.Message.Chat.IsPrivate(),
			UserID:     q.From.ID,
			MessageID:  q.Message.MessageID,
			CallbackID: q.ID,
			Text:       q.Data,
		}, true

	case u.Message != nil:
		m := u.Message
		if m.Chat == nil || m.From == nil || m.Text == "" {
			return bot.Event{}, false
		}
		ev := bot.Event{
			Kind:      bot.EventText,
			ChatID:    m.Chat.ID,
			Private:   m.Chat.IsPrivate(),
			UserID:    m.From.ID,
			MessageID: m.MessageID,
			Text:      m.Text,
		}
		if m.IsCommand() {
			ev.Kind = bot.EventCommand
			ev.Text = m.Command()
		}
		return ev, true

	default:
		return bot.Event{}, false
	}
}

func markup(kb bot.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, r := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
