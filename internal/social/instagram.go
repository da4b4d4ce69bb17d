package social

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultInstagramBaseURL = "https://graph.facebook.com/v19.0"

// Instagram publishes through the Graph API two-step flow: create a media
// container, then publish it. Posts without media are skipped since the API
// requires an image or video.
type Instagram struct {
	client    *resty.Client
	accountID string
}

func NewInstagram(token, accountID, baseURL string) *Instagram {
	if baseURL == "" {
		baseURL = defaultInstagramBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetQueryParam("access_token", token).
		SetTimeout(15 * time.Second)
	return &Instagram{client: client, accountID: accountID}
}

func (i *Instagram) Name() string { return "instagram" }

type igIDResponse struct {
	ID string `json:"id"`
}

func (i *Instagram) Publish(ctx context.Context, post Post) (*Receipt, error) {
	if post.MediaURI == "" {
		return nil, fmt.Errorf("instagram requires media")
	}

	var container igIDResponse
	resp, err := i.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"image_url": post.MediaURI,
			"caption":   post.Text,
		}).
		SetResult(&container).
		Post("/" + i.accountID + "/media")
	if err != nil {
		return nil, fmt.Errorf("create media container: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create media container: status %d: %s", resp.StatusCode(), resp.String())
	}

	var published igIDResponse
	resp, err = i.client.R().
		SetContext(ctx).
		SetQueryParam("creation_id", container.ID).
		SetResult(&published).
		Post("/" + i.accountID + "/media_publish")
	if err != nil {
		return nil, fmt.Errorf("publish media: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("publish media: status %d: %s", resp.StatusCode(), resp.String())
	}

	return &Receipt{
		Platform:   i.Name(),
		PostID:     post.ID,
		ExternalID: published.ID,
		Ts:         time.Now().UTC(),
	}, nil
}
