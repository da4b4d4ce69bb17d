package social

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultSpotifyBaseURL  = "https://api.spotify.com"
	defaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Spotify reads artist followers/popularity using the client-credentials flow.
// The access token is cached and refreshed shortly before expiry.
type Spotify struct {
	client       *resty.Client
	tokenURL     string
	clientID     string
	clientSecret string
	artistID     string

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewSpotify(clientID, clientSecret, artistID, baseURL, tokenURL string) *Spotify {
	if baseURL == "" {
		baseURL = defaultSpotifyBaseURL
	}
	if tokenURL == "" {
		tokenURL = defaultSpotifyTokenURL
	}
	return &Spotify{
		client:       resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		artistID:     artistID,
	}
}

func (s *Spotify) Name() string { return "spotify" }

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Spotify) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.expires) {
		return s.token, nil
	}

	var out spotifyTokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.clientID, s.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&out).
		Post(s.tokenURL)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("token exchange: status %d: %s", resp.StatusCode(), resp.String())
	}
	s.token = out.AccessToken
	s.expires = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - 30*time.Second)
	return s.token, nil
}

type spotifyArtistResponse struct {
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
	Popularity int `json:"popularity"`
}

func (s *Spotify) Stats(ctx context.Context) (map[string]float64, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	var out spotifyArtistResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		Get("/v1/artists/" + s.artistID)
	if err != nil {
		return nil, fmt.Errorf("artist stats: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("artist stats: status %d: %s", resp.StatusCode(), resp.String())
	}
	return map[string]float64{
		"spotify_followers":  float64(out.Followers.Total),
		"spotify_popularity": float64(out.Popularity),
	}, nil
}
