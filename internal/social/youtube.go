package social

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTube reads channel statistics through the Data API; stats only, no uploads.
type YouTube struct {
	client    *resty.Client
	channelID string
}

func NewYouTube(apiKey, channelID, baseURL string) *YouTube {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetQueryParam("key", apiKey).
		SetTimeout(10 * time.Second)
	return &YouTube{client: client, channelID: channelID}
}

func (y *YouTube) Name() string { return "youtube" }

type youtubeChannelsResponse struct {
	Items []struct {
		Statistics struct {
			ViewCount       string `json:"viewCount"`
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (y *YouTube) Stats(ctx context.Context) (map[string]float64, error) {
	var out youtubeChannelsResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part": "statistics",
			"id":   y.channelID,
		}).
		SetResult(&out).
		Get("/channels")
	if err != nil {
		return nil, fmt.Errorf("channel stats: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("channel stats: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("channel %s not found", y.channelID)
	}
	st := out.Items[0].Statistics
	stats := make(map[string]float64, 3)
	if v, err := strconv.ParseFloat(st.ViewCount, 64); err == nil {
		stats["youtube_views"] = v
	}
	if v, err := strconv.ParseFloat(st.SubscriberCount, 64); err == nil {
		stats["youtube_subscribers"] = v
	}
	if v, err := strconv.ParseFloat(st.VideoCount, 64); err == nil {
		stats["youtube_videos"] = v
	}
	return stats, nil
}
