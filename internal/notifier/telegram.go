package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

// messageSender is the slice of *tgbotapi.BotAPI the notifier uses.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends run summaries to a Telegram chat through a bot.
type TelegramNotifier struct {
	bot    messageSender
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier authenticates the bot token and returns a notifier
// bound to chatID.
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// NotifySummary sends one HTML-formatted message.
func (t *TelegramNotifier) NotifySummary(ctx context.Context, q model.Query, s model.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, telegramText(q, s))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.logger.Info("telegram summary sent", "chat_id", t.chatID)
	return nil
}

func telegramText(q model.Query, s model.Summary) string {
	var b strings.Builder
	b.WriteString("<b>jobscout: ")
	b.WriteString(html.EscapeString(queryTitle(q)))
	b.WriteString("</b>\n")
	for _, c := range counters(s) {
		fmt.Fprintf(&b, "%s: %s\n", c[0], c[1])
	}
	return strings.TrimSuffix(b.String(), "\n")
}
