package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grlkrash/grlkrashai-go/internal/pulse"
)

type tradeEnvelope struct {
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Side     string `json:"side"` // buy|sell (aggressor)
	Ts       int64  `json:"ts"`   // unix milliseconds
}

func (f *Feed) runTrades(ctx context.Context, out chan<- pulse.Point) error {
	if f.streamURL == "" {
		return fmt.Errorf("trades feed requires a stream url")
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeTradeStream(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("trade stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeTradeStream(ctx context.Context, out chan<- pulse.Point) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.streamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderTrades).Str("url", f.streamURL).Msg("connected trade stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("trade stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env tradeEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode trade message")
			continue
		}
		px, err := strconv.ParseFloat(env.Price, 64)
		if err != nil {
			f.log.Warn().Err(err).Msg("invalid trade price")
			continue
		}
		qty, err := strconv.ParseFloat(env.Quantity, 64)
		if err != nil {
			f.log.Warn().Err(err).Msg("invalid trade quantity")
			continue
		}
		ts := time.UnixMilli(env.Ts)

		volumeMetric := "buy_volume"
		if env.Side == "sell" {
			volumeMetric = "sell_volume"
		}
		if err := emit(ctx, out, pulse.Point{Source: "trades", Metric: "trade_price_usd", Symbol: env.Symbol, Value: px, Ts: ts}); err != nil {
			return err
		}
		if err := emit(ctx, out, pulse.Point{Source: "trades", Metric: volumeMetric, Symbol: env.Symbol, Value: px * qty, Ts: ts}); err != nil {
			return err
		}
	}
}
