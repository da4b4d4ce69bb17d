package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grlkrash/grlkrashai-go/internal/pulse"
)

type pairTarget struct {
	Alias   string
	Chain   string
	Address string
}

type dexscreenerPairsResponse struct {
	Pairs []dexscreenerPair `json:"pairs"`
	Pair  *dexscreenerPair  `json:"pair"`
}

type dexscreenerPair struct {
	ChainID     string               `json:"chainId"`
	PairAddress string               `json:"pairAddress"`
	BaseToken   dexscreenerToken     `json:"baseToken"`
	QuoteToken  dexscreenerToken     `json:"quoteToken"`
	PriceUsd    string               `json:"priceUsd"`
	FDV         float64              `json:"fdv"`
	MarketCap   float64              `json:"marketCap"`
	Volume      dexscreenerVolumes   `json:"volume"`
	Liquidity   dexscreenerLiquidity `json:"liquidity"`
}

type dexscreenerToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexscreenerVolumes struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type dexscreenerLiquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

func (r *dexscreenerPairsResponse) firstPair() (*dexscreenerPair, bool) {
	if len(r.Pairs) > 0 {
		return &r.Pairs[0], true
	}
	if r.Pair != nil {
		return r.Pair, true
	}
	return nil, false
}

func (f *Feed) runDexScreener(ctx context.Context, out chan<- pulse.Point) error {
	client := &http.Client{Timeout: 10 * time.Second}
	if err := f.pollDexScreener(ctx, client, out); err != nil && !errors.Is(err, context.Canceled) {
		f.log.Warn().Err(err).Msg("initial dexscreener poll failed")
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.pollDexScreener(ctx, client, out); err != nil && !errors.Is(err, context.Canceled) {
				f.log.Warn().Err(err).Msg("dexscreener poll failed")
			}
		}
	}
}

func (f *Feed) pollDexScreener(ctx context.Context, client *http.Client, out chan<- pulse.Point) error {
	targets, err := parsePairSymbols(f.snapshotPairs(), f.dexscreenerDefaultChain)
	if err != nil {
		return err
	}
	for _, target := range targets {
		points, err := f.fetchDexScreener(ctx, client, target)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Str("pair", target.Alias).Msg("dexscreener fetch failed")
			continue
		}
		for _, p := range points {
			if err := emit(ctx, out, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Feed) fetchDexScreener(ctx context.Context, client *http.Client, target pairTarget) ([]pulse.Point, error) {
	base := strings.TrimSuffix(f.dexscreenerBaseURL, "/")
	url := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", base, target.Chain, target.Address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "grlkrashai-go/1.0 (market)")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload dexscreenerPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	pair, ok := payload.firstPair()
	if !ok {
		return nil, fmt.Errorf("no pair data returned")
	}

	now := time.Now().UTC()
	points := make([]pulse.Point, 0, 4)
	if pair.PriceUsd != "" {
		if px, err := strconv.ParseFloat(pair.PriceUsd, 64); err == nil && px > 0 {
			points = append(points, pulse.Point{Source: "market", Metric: "price_usd", Symbol: target.Alias, Value: px, Ts: now})
		}
	}
	cap := pair.MarketCap
	if cap <= 0 {
		cap = pair.FDV // FDV fallback when the circulating cap is unreported
	}
	if cap > 0 {
		points = append(points, pulse.Point{Source: "market", Metric: "market_cap_usd", Symbol: target.Alias, Value: cap, Ts: now})
		f.mu.Lock()
		f.lastCaps[target.Alias] = cap
		f.mu.Unlock()
	}
	if pair.Liquidity.USD > 0 {
		points = append(points, pulse.Point{Source: "market", Metric: "liquidity_usd", Symbol: target.Alias, Value: pair.Liquidity.USD, Ts: now})
	}
	if pair.Volume.H24 > 0 {
		points = append(points, pulse.Point{Source: "market", Metric: "volume_24h_usd", Symbol: target.Alias, Value: pair.Volume.H24, Ts: now})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("pair carries no usable metrics")
	}
	return points, nil
}

func parsePairSymbols(pairs []string, defaultChain string) ([]pairTarget, error) {
	defaultChain = strings.ToLower(strings.TrimSpace(defaultChain))
	targets := make([]pairTarget, 0, len(pairs))
	for _, raw := range pairs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		aliasPart := raw
		targetPart := raw
		if parts := strings.SplitN(raw, "@", 2); len(parts) == 2 {
			aliasPart = parts[0]
			targetPart = parts[1]
		}
		chain := defaultChain
		address := targetPart
		if parts := strings.SplitN(targetPart, "/", 2); len(parts) == 2 {
			if parts[0] != "" {
				chain = strings.ToLower(strings.TrimSpace(parts[0]))
			}
			address = parts[1]
		}
		chain = strings.ToLower(strings.TrimSpace(chain))
		address = strings.TrimSpace(address)
		if chain == "" || address == "" {
			return nil, fmt.Errorf("pair %q missing chain or address", raw)
		}
		alias := composePairAlias(aliasPart, address)
		targets = append(targets, pairTarget{Alias: alias, Chain: chain, Address: address})
	}
	return targets, nil
}
