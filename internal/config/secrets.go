// Package config also sources credentials from the process environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Secrets holds every credential the agent may need. Empty values are allowed;
// clients for platforms without credentials are simply not constructed.
type Secrets struct {
	OpenAIKey           string `env:"OPENAI_API_KEY"`
	TwitterBearer       string `env:"TWITTER_BEARER_TOKEN"`
	DiscordWebhookURL   string `env:"DISCORD_WEBHOOK_URL"`
	TelegramToken       string `env:"TELEGRAM_BOT_TOKEN"`
	InstagramToken      string `env:"INSTAGRAM_ACCESS_TOKEN"`
	TikTokToken         string `env:"TIKTOK_ACCESS_TOKEN"`
	YouTubeKey          string `env:"YOUTUBE_API_KEY"`
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
	ChainPrivateKey     string `env:"CHAIN_PRIVATE_KEY"`
	IPFSToken           string `env:"IPFS_API_TOKEN"`
}

// LoadSecrets parses credentials from the environment, reading .env first best-effort.
func LoadSecrets() (*Secrets, error) {
	_ = godotenv.Load()
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &s, nil
}
