package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/jobscout/internal/model"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier_NotifySummary(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{bot: sender, chatID: 42, logger: discardLogger()}

	q := model.Query{What: "data <engineer>", Where: "paris"}
	if err := n.NotifySummary(context.Background(), q, sampleSummary()); err != nil {
		t.Fatalf("NotifySummary() = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", msg.ChatID)
	}
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("ParseMode = %q", msg.ParseMode)
	}
	if !strings.HasPrefix(msg.Text, "<b>jobscout: data &lt;engineer&gt; in paris</b>") {
		t.Errorf("query not escaped in header: %q", msg.Text)
	}
	for _, want := range []string{"Fetched: 10", "Saved: 6", "Skipped: 2"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("message missing %q: %q", want, msg.Text)
		}
	}
}

func TestTelegramNotifier_SendError(t *testing.T) {
	n := &TelegramNotifier{bot: &fakeSender{err: errors.New("forbidden")}, chatID: 1, logger: discardLogger()}
	if err := n.NotifySummary(context.Background(), model.Query{What: "go"}, sampleSummary()); err == nil {
		t.Fatal("expected error from sender")
	}
}

func TestTelegramNotifier_CancelledContext(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{bot: sender, chatID: 1, logger: discardLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.NotifySummary(ctx, model.Query{What: "go"}, sampleSummary()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("no message should be sent on a cancelled context")
	}
}
