package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger delivers one rendered message.
type Messenger interface {
	SendMessage(ctx context.Context, text string) error
}

// TelegramMessenger posts HTML messages to a chat or channel.
type TelegramMessenger struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
}

// NewTelegramMessenger checks the token with getMe. channelID is either a
// numeric chat id or a public "@channel" username.
func NewTelegramMessenger(token, channelID string) (*TelegramMessenger, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, errors.New("telegram channel id is required")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	m := &TelegramMessenger{bot: bot}
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		m.chatID = id
	} else {
		if !strings.HasPrefix(channelID, "@") {
			channelID = "@" + channelID
		}
		m.channel = channelID
	}

	slog.Info("Telegram messenger initialized", "bot", bot.Self.UserName, "channel", channelID)
	return m, nil
}

func (m *TelegramMessenger) SendMessage(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg tgbotapi.MessageConfig
	if m.chatID != 0 {
		msg = tgbotapi.NewMessage(m.chatID, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(m.channel, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := m.bot.Send(msg)
	return err
}

// isPermanent reports whether retrying err cannot help: the Bot API rejected
// the request with a 4xx code (bad chat id, malformed markup). 429 is retried.
func isPermanent(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
	}
	return false
}
