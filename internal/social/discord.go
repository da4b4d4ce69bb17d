package social

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Discord publishes through a webhook; no bot session is required.
type Discord struct {
	client     *resty.Client
	webhookURL string
}

// NewDiscord builds a webhook client. The webhook URL carries its own auth.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     resty.New().SetTimeout(10 * time.Second),
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

type discordMessageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// Publish executes the webhook with the post text. wait=true makes Discord
// return the created message so we can keep its ID.
func (d *Discord) Publish(ctx context.Context, post Post) (*Receipt, error) {
	content := post.Text
	if post.MediaURI != "" {
		content += "\n" + post.MediaURI
	}
	var out discordMessageResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("wait", "true").
		SetBody(map[string]string{"content": content}).
		SetResult(&out).
		Post(d.webhookURL)
	if err != nil {
		return nil, fmt.Errorf("execute webhook: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("execute webhook: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &Receipt{
		Platform:   d.Name(),
		PostID:     post.ID,
		ExternalID: out.ID,
		Ts:         time.Now().UTC(),
	}, nil
}
