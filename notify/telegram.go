package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends reports as bot messages to one chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

var _ Sink = (*Telegram)(nil)

// NewTelegram authenticates the bot token.
func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

// SendReport sends r as a plain-text message.
func (t *Telegram) SendReport(ctx context.Context, r Report) bool {
	if ctx.Err() != nil {
		return false
	}
	msg := tgbotapi.NewMessage(t.chatID, r.Text())
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn("telegram report failed",
			"chat_id", t.chatID,
			"title", r.Title,
			"error", err,
		)
		return false
	}
	return true
}
