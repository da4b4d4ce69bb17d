package ipfs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client talks to an IPFS node's HTTP API (Kubo-compatible) for pinning
// crystal media and metadata.
type Client struct {
	http       *resty.Client
	gatewayURL string
	log        zerolog.Logger
}

// New builds a client for the given API endpoint. token is an optional
// bearer credential for hosted pinning services.
func New(apiURL, gatewayURL, token string, log zerolog.Logger) *Client {
	http := resty.New().SetBaseURL(strings.TrimRight(apiURL, "/"))
	if token != "" {
		http.SetAuthToken(token)
	}
	return &Client{
		http:       http,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		log:        log,
	}
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Add uploads content and returns its CID.
func (c *Client) Add(ctx context.Context, name string, r io.Reader) (string, error) {
	var out addResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", name, r).
		SetResult(&out).
		Post("/api/v0/add")
	if err != nil {
		return "", fmt.Errorf("ipfs add: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ipfs add: status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Hash == "" {
		return "", fmt.Errorf("ipfs add: empty hash in response")
	}
	c.log.Info().Str("name", name).Str("cid", out.Hash).Msg("content added to ipfs")
	return out.Hash, nil
}

// Pin asks the node to keep the CID.
func (c *Client) Pin(ctx context.Context, cid string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("arg", cid).
		Post("/api/v0/pin/add")
	if err != nil {
		return fmt.Errorf("ipfs pin: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ipfs pin: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// GatewayURL returns a browser-reachable URL for a CID.
func (c *Client) GatewayURL(cid string) string {
	if c.gatewayURL == "" {
		return "ipfs://" + cid
	}
	return c.gatewayURL + "/ipfs/" + cid
}
