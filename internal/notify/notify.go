package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/recall/pkg/models"
)

// ErrNoChat is returned when a learner has no Telegram chat to send to.
var ErrNoChat = errors.New("learner has no telegram chat")

// ReminderText builds the reminder message for count due items.
func ReminderText(count int) string {
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("You have %d %s to review! Run `recall review` to start a session.", count, noun)
}

// sender is the part of *tgbotapi.BotAPI used for reminders
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends reminders through a Telegram bot
type Telegram struct {
	api sender
	log *slog.Logger
}

// NewTelegram connects to the bot API with the given token
func NewTelegram(log *slog.Logger, token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	log.Info("authorized on telegram", slog.String("account", api.Self.UserName))
	return &Telegram{api: api, log: log}, nil
}

// SendReminder implements scheduler.Notifier
func (t *Telegram) SendReminder(ctx context.Context, l models.Learner, count int) error {
	if l.TelegramChatID == 0 {
		return fmt.Errorf("learner %d: %w", l.ID, ErrNoChat)
	}

	msg := tgbotapi.NewMessage(l.TelegramChatID, ReminderText(count))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send reminder to learner %d: %w", l.ID, err)
	}

	t.log.InfoContext(ctx, "sent reminder",
		slog.Int64("learner_id", l.ID),
		slog.Int("count", count),
	)
	return nil
}

// Log writes reminders to the logger. Used when no bot token is configured.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// SendReminder implements scheduler.Notifier
func (n *Log) SendReminder(ctx context.Context, l models.Learner, count int) error {
	n.log.InfoContext(ctx, ReminderText(count),
		slog.Int64("learner_id", l.ID),
		slog.String("learner", l.Name),
		slog.Int("count", count),
	)
	return nil
}
