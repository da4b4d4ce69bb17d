package social

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultDeezerBaseURL = "https://api.deezer.com"

// Deezer reads public artist stats; no auth required.
type Deezer struct {
	client   *resty.Client
	artistID string
}

func NewDeezer(artistID, baseURL string) *Deezer {
	if baseURL == "" {
		baseURL = defaultDeezerBaseURL
	}
	return &Deezer{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		artistID: artistID,
	}
}

func (d *Deezer) Name() string { return "deezer" }

type deezerArtistResponse struct {
	NbFan   int `json:"nb_fan"`
	NbAlbum int `json:"nb_album"`
}

func (d *Deezer) Stats(ctx context.Context) (map[string]float64, error) {
	var out deezerArtistResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/artist/" + d.artistID)
	if err != nil {
		return nil, fmt.Errorf("artist stats: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("artist stats: status %d: %s", resp.StatusCode(), resp.String())
	}
	return map[string]float64{
		"deezer_fans":   float64(out.NbFan),
		"deezer_albums": float64(out.NbAlbum),
	}, nil
}
