// Package content generates promotional copy and community replies, and scores
// candidates with a lightweight engagement model.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/pulse"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

const defaultChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// GeneratorConfig tunes prompt construction and HTTP behavior.
type GeneratorConfig struct {
	APIKey      string
	Model       string
	Persona     string
	Variants    int
	MaxTokens   int
	Temperature float64
	BaseURL     string
	HTTPClient  *http.Client
}

// Generator produces copy through the chat completions endpoint. Failures fall
// back to a deterministic template so milestone announcements never go dark.
type Generator struct {
	cfg GeneratorConfig
	log zerolog.Logger
}

func NewGenerator(cfg GeneratorConfig, log zerolog.Logger) *Generator {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultChatCompletionsURL
	}
	if cfg.Variants <= 0 {
		cfg.Variants = 1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 120
	}
	return &Generator{cfg: cfg, log: log}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	N           int           `json:"n,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Promo writes N candidate announcements for a milestone crossing.
func (g *Generator) Promo(ctx context.Context, trig pulse.Trigger) ([]string, error) {
	prompt := fmt.Sprintf(
		"Milestone reached: %s. Metric %s hit %.0f (threshold %.0f). Write a short, hype social post announcing it. Stay under 240 characters, include $MORE.",
		trig.Milestone, trig.Metric, trig.Value, trig.Threshold,
	)
	variants, err := g.complete(ctx, prompt, g.cfg.Variants)
	if err != nil {
		g.log.Warn().Err(err).Str("milestone", trig.Milestone).Msg("generation failed, using fallback")
		return []string{fallbackPromo(trig)}, nil
	}
	return variants, nil
}

// Reply drafts a single response to a community mention.
func (g *Generator) Reply(ctx context.Context, m social.Mention) (string, error) {
	prompt := fmt.Sprintf(
		"A fan (@%s) posted: %q. Write a warm, short reply in character. Stay under 240 characters.",
		m.Author, m.Text,
	)
	variants, err := g.complete(ctx, prompt, 1)
	if err != nil {
		g.log.Warn().Err(err).Str("mention", m.ID).Msg("reply generation failed, using fallback")
		return fallbackReply(m), nil
	}
	return variants[0], nil
}

func (g *Generator) complete(ctx context.Context, prompt string, n int) ([]string, error) {
	reqBody := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are " + g.cfg.Persona + "."},
			{Role: "user", Content: prompt},
		},
		N:           n,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	variants := make([]string, 0, len(out.Choices))
	for _, c := range out.Choices {
		text := strings.TrimSpace(c.Message.Content)
		if text != "" {
			variants = append(variants, text)
		}
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("empty choices returned")
	}
	return variants, nil
}

func fallbackPromo(trig pulse.Trigger) string {
	return fmt.Sprintf("BIG moment: %s just crossed %.0f! The $MORE fam keeps building. %s", trig.Metric, trig.Threshold, strings.ToUpper(trig.Milestone))
}

func fallbackReply(m social.Mention) string {
	return fmt.Sprintf("@%s appreciate you! The $MORE crew sees you.", m.Author)
}
