package social

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTikTokBaseURL = "https://open.tiktokapis.com"

// TikTok initiates a content post through the v2 content posting API.
type TikTok struct {
	client *resty.Client
}

func NewTikTok(token, baseURL string) *TikTok {
	if baseURL == "" {
		baseURL = defaultTikTokBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(15 * time.Second)
	return &TikTok{client: client}
}

func (t *TikTok) Name() string { return "tiktok" }

type tiktokInitResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
	} `json:"data"`
}

func (t *TikTok) Publish(ctx context.Context, post Post) (*Receipt, error) {
	if post.MediaURI == "" {
		return nil, fmt.Errorf("tiktok requires media")
	}
	var out tiktokInitResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"post_info": map[string]any{
				"title":         post.Text,
				"privacy_level": "PUBLIC_TO_EVERYONE",
			},
			"source_info": map[string]any{
				"source":    "PULL_FROM_URL",
				"video_url": post.MediaURI,
			},
		}).
		SetResult(&out).
		Post("/v2/post/publish/content/init/")
	if err != nil {
		return nil, fmt.Errorf("init content post: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("init content post: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &Receipt{
		Platform:   t.Name(),
		PostID:     post.ID,
		ExternalID: out.Data.PublishID,
		Ts:         time.Now().UTC(),
	}, nil
}
