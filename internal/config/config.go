// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string
	LogLevel    string
}

// Chain describes RPC connectivity, contract addresses, and transaction manager tuning.
type Chain struct {
	RPCURL           string  `yaml:"rpc_url"`
	ChainID          int64   `yaml:"chain_id"`
	TokenAddress     string  `yaml:"token_address"`
	PoolAddress      string  `yaml:"pool_address"`
	CrystalAddress   string  `yaml:"crystal_address"`
	RegistryAddress  string  `yaml:"registry_address"`
	Signer           string  `yaml:"signer"` // key|ledger
	LedgerAccount    int     `yaml:"ledger_account"`
	GasBufferPercent int     `yaml:"gas_buffer_percent"`
	EscalatePercent  int     `yaml:"escalate_percent"`
	MaxFeeGwei       float64 `yaml:"max_fee_gwei"`
	MaxAttempts      int     `yaml:"max_attempts"`
	ReceiptPollMs    int     `yaml:"receipt_poll_ms"`
	StallTimeoutMs   int     `yaml:"stall_timeout_ms"`
	ConfirmTimeoutMs int     `yaml:"confirm_timeout_ms"`
}

// Market configures the token market data feed.
type Market struct {
	Provider     string      `yaml:"provider"` // stub|dexscreener|trades
	Pairs        []string    `yaml:"pairs"`
	PollInterval int         `yaml:"poll_interval_ms"`
	StreamURL    string      `yaml:"stream_url"`
	DexScreener  DexScreener `yaml:"dexscreener"`
}

// DexScreener configures the HTTP polling feed targeting Dexscreener pairs.
type DexScreener struct {
	BaseURL      string `yaml:"base_url"`
	DefaultChain string `yaml:"default_chain"`
}

// Streams configures the music/creator stats pollers.
type Streams struct {
	PollInterval     int    `yaml:"poll_interval_ms"`
	SpotifyArtistID  string `yaml:"spotify_artist_id"`
	DeezerArtistID   string `yaml:"deezer_artist_id"`
	YouTubeChannelID string `yaml:"youtube_channel_id"`
}

// Social holds the non-secret platform settings; credentials live in Secrets.
type Social struct {
	Platforms          []string `yaml:"platforms"` // platforms promos are published to
	TwitterUsername    string   `yaml:"twitter_username"`
	TelegramChannel    string   `yaml:"telegram_channel"`
	InstagramAccountID string   `yaml:"instagram_account_id"`
}

// Limits encodes posting guard-rails enforced across every platform.
type Limits struct {
	HourlyPerPlatform int     `yaml:"hourly_per_platform"`
	DailyPerPlatform  int     `yaml:"daily_per_platform"`
	MinGapSeconds     int     `yaml:"min_gap_seconds"`
	PerMinute         float64 `yaml:"per_minute"`
	Burst             int     `yaml:"burst"`
}

// MilestoneRule declares one threshold the tracker watches for.
type MilestoneRule struct {
	Name       string  `yaml:"name"`
	Metric     string  `yaml:"metric"`
	Symbol     string  `yaml:"symbol"`
	Threshold  float64 `yaml:"threshold"`
	Hysteresis float64 `yaml:"hysteresis"`
}

// Content tunes promotional copy generation.
type Content struct {
	Model        string  `yaml:"model"`
	Persona      string  `yaml:"persona"`
	Variants     int     `yaml:"variants"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
	LearningRate float64 `yaml:"learning_rate"`
	FeedbackMins int     `yaml:"feedback_interval_mins"`
}

// Engagement configures community mention discovery and the reply worker.
type Engagement struct {
	Enabled         bool     `yaml:"enabled"`
	Keywords        []string `yaml:"keywords"`
	RefreshInterval int      `yaml:"refresh_interval_ms"`
	MinLikes        int      `yaml:"min_likes"`
	MinFollowers    int      `yaml:"min_followers"`
	QueueSize       int      `yaml:"queue_size"`
	MaxPerRefresh   int      `yaml:"max_per_refresh"`
	PointsPerReply  int64    `yaml:"points_per_reply"`
}

// Governance weighs the inputs of the voting power formula.
type Governance struct {
	TokenWeight     float64 `yaml:"token_weight"`
	StakeMultiplier float64 `yaml:"stake_multiplier"`
	CrystalBonus    float64 `yaml:"crystal_bonus"`
}

// Store points at the agent's durable SQLite state.
type Store struct {
	Path string `yaml:"path"`
}

// IPFS configures the pinning API and public gateway.
type IPFS struct {
	APIURL     string `yaml:"api_url"`
	GatewayURL string `yaml:"gateway_url"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App          App             `yaml:"app"`
	Chain        Chain           `yaml:"chain"`
	Market       Market          `yaml:"market"`
	Streams      Streams         `yaml:"streams"`
	Social       Social          `yaml:"social"`
	Limits       Limits          `yaml:"limits"`
	Milestones   []MilestoneRule `yaml:"milestones"`
	Content      Content         `yaml:"content"`
	Engagement   Engagement      `yaml:"engagement"`
	Governance   Governance      `yaml:"governance"`
	Store        Store           `yaml:"store"`
	IPFS         IPFS            `yaml:"ipfs"`
	RecorderPath string          `yaml:"recorder_path"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
