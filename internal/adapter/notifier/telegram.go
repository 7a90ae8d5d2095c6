package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/pgshelf/internal/config"
	"github.com/semmidev/pgshelf/internal/domain"
)

// Messages are the headline texts shared by every notifier.
type Messages struct {
	Success string
	Failure string
}

type Telegram struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	messages Messages
}

// NewTelegram builds the bot client without calling getMe, so an unreachable
// Bot API surfaces as a Notify error instead of at startup.
func NewTelegram(cfg config.TelegramConfig, messages Messages) (*Telegram, error) {
	bot := &tgbotapi.BotAPI{
		Token:  cfg.BotToken,
		Client: &http.Client{Timeout: 30 * time.Second},
		Buffer: 100,
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot.SetAPIEndpoint(endpoint)

	return newTelegram(bot, cfg.ChatID, messages)
}

func newTelegram(bot *tgbotapi.BotAPI, chatID string, messages Messages) (*Telegram, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	return &Telegram{
		bot:      bot,
		chatID:   id,
		messages: messages,
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Notify(ctx context.Context, report domain.Report) (string, error) {
	msg := tgbotapi.NewMessage(t.chatID, t.Text(report))

	sent, err := t.bot.Send(msg)
	if err != nil {
		return "", fmt.Errorf("failed to send telegram notification: %w", err)
	}

	return strconv.Itoa(sent.MessageID), nil
}

func (t *Telegram) Text(report domain.Report) string {
	failure, failed := report.Outcome.(*domain.Failure)
	if !failed {
		return fmt.Sprintf(
			"✅ %s\n\n"+
				"📁 File: %s\n"+
				"🕐 Duration: %s",
			t.messages.Success,
			report.Location,
			report.Duration,
		)
	}

	text := fmt.Sprintf(
		"❌ %s\n\n"+
			"🔧 Step: %s\n"+
			"📁 File: %s",
		t.messages.Failure,
		failure.Step,
		report.Filename,
	)
	if failure.Detail != "" {
		text += "\n\n" + failure.Detail
	}
	return text
}
