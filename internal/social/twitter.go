package social

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTwitterBaseURL = "https://api.twitter.com"

// Twitter wraps the v2 API: tweet creation, recent search, tweet metrics, and follower stats.
type Twitter struct {
	client   *resty.Client
	username string
}

// NewTwitter builds a client authenticated with a bearer token.
func NewTwitter(bearer, username, baseURL string) *Twitter {
	if baseURL == "" {
		baseURL = defaultTwitterBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(bearer).
		SetTimeout(10 * time.Second)
	return &Twitter{client: client, username: username}
}

func (t *Twitter) Name() string { return "twitter" }

type tweetCreateResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish creates a tweet from the post text.
func (t *Twitter) Publish(ctx context.Context, post Post) (*Receipt, error) {
	var out tweetCreateResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": post.Text}).
		SetResult(&out).
		Post("/2/tweets")
	if err != nil {
		return nil, fmt.Errorf("create tweet: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create tweet: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &Receipt{
		Platform:   t.Name(),
		PostID:     post.ID,
		ExternalID: out.Data.ID,
		URL:        fmt.Sprintf("https://twitter.com/%s/status/%s", t.username, out.Data.ID),
		Ts:         time.Now().UTC(),
	}, nil
}

type tweetSearchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		AuthorID      string `json:"author_id"`
		Text          string `json:"text"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"users"`
	} `json:"includes"`
}

// Search runs a recent-search query and maps results to mentions.
func (t *Twitter) Search(ctx context.Context, query string, limit int) ([]Mention, error) {
	if limit <= 0 {
		limit = 10
	}
	var out tweetSearchResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":        query,
			"max_results":  strconv.Itoa(limit),
			"tweet.fields": "public_metrics,created_at,author_id",
			"expansions":   "author_id",
			"user.fields":  "public_metrics",
		}).
		SetResult(&out).
		Get("/2/tweets/search/recent")
	if err != nil {
		return nil, fmt.Errorf("search tweets: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search tweets: status %d: %s", resp.StatusCode(), resp.String())
	}

	authors := make(map[string]struct {
		name      string
		followers int
	}, len(out.Includes.Users))
	for _, u := range out.Includes.Users {
		authors[u.ID] = struct {
			name      string
			followers int
		}{u.Username, u.PublicMetrics.FollowersCount}
	}

	mentions := make([]Mention, 0, len(out.Data))
	for _, tw := range out.Data {
		author := authors[tw.AuthorID]
		ts, _ := time.Parse(time.RFC3339, tw.CreatedAt)
		mentions = append(mentions, Mention{
			ID:              tw.ID,
			Platform:        t.Name(),
			Author:          author.name,
			AuthorFollowers: author.followers,
			Text:            tw.Text,
			Likes:           tw.PublicMetrics.LikeCount,
			URL:             fmt.Sprintf("https://twitter.com/%s/status/%s", author.name, tw.ID),
			Ts:              ts,
		})
	}
	return mentions, nil
}

type tweetMetricsResponse struct {
	Data struct {
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
			QuoteCount   int `json:"quote_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// TweetEngagement returns a single engagement score for a published tweet,
// used as the observed signal by the content optimizer.
func (t *Twitter) TweetEngagement(ctx context.Context, tweetID string) (float64, error) {
	var out tweetMetricsResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("tweet.fields", "public_metrics").
		SetResult(&out).
		Get("/2/tweets/" + tweetID)
	if err != nil {
		return 0, fmt.Errorf("tweet metrics: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("tweet metrics: status %d: %s", resp.StatusCode(), resp.String())
	}
	m := out.Data.PublicMetrics
	return float64(m.LikeCount) + 2*float64(m.RetweetCount) + 1.5*float64(m.ReplyCount) + 2*float64(m.QuoteCount), nil
}

type twitterUserResponse struct {
	Data struct {
		PublicMetrics struct {
			FollowersCount int `json:"followers_count"`
			TweetCount     int `json:"tweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// Stats reports follower and tweet counts for the configured account.
func (t *Twitter) Stats(ctx context.Context) (map[string]float64, error) {
	var out twitterUserResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("user.fields", "public_metrics").
		SetResult(&out).
		Get("/2/users/by/username/" + t.username)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("user stats: status %d: %s", resp.StatusCode(), resp.String())
	}
	return map[string]float64{
		"twitter_followers": float64(out.Data.PublicMetrics.FollowersCount),
		"twitter_tweets":    float64(out.Data.PublicMetrics.TweetCount),
	}, nil
}
