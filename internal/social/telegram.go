package social

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram posts announcements to a channel through the bot API.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	channel string
}

// NewTelegram authorizes the bot; endpoint is overrideable for tests
// (empty means the public API).
func NewTelegram(token, channel, endpoint string) (*Telegram, error) {
	var (
		bot *tgbotapi.BotAPI
		err error
	)
	if endpoint == "" {
		bot, err = tgbotapi.NewBotAPI(token)
	} else {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	return &Telegram{bot: bot, channel: channel}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Publish sends the post text to the configured channel.
func (t *Telegram) Publish(ctx context.Context, post Post) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := post.Text
	if post.MediaURI != "" {
		text += "\n" + post.MediaURI
	}
	msg := tgbotapi.NewMessageToChannel(t.channel, text)
	sent, err := t.bot.Send(msg)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &Receipt{
		Platform:   t.Name(),
		PostID:     post.ID,
		ExternalID: strconv.Itoa(sent.MessageID),
		Ts:         time.Now().UTC(),
	}, nil
}
