package governance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// HoldingsReader exposes the on-chain positions that feed voting power.
type HoldingsReader interface {
	TokenBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	StakedBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	CrystalBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context) (uint8, error)
}

// Weights control how each holding contributes to voting power.
type Weights struct {
	TokenWeight     float64
	StakeMultiplier float64
	CrystalBonus    float64
}

// Breakdown reports the components of one holder's voting power.
type Breakdown struct {
	Tokens   float64
	Staked   float64
	Crystals int64
	Power    float64
}

// Calculator derives voting power from token, stake, and crystal holdings.
type Calculator struct {
	reader HoldingsReader
	w      Weights
	log    zerolog.Logger
}

func NewCalculator(reader HoldingsReader, w Weights, log zerolog.Logger) *Calculator {
	if w.TokenWeight == 0 {
		w.TokenWeight = 1
	}
	return &Calculator{reader: reader, w: w, log: log}
}

// VotingPower computes tokens*tokenWeight + staked*stakeMultiplier +
// crystals*crystalBonus, with balances normalized by the token's decimals.
func (c *Calculator) VotingPower(ctx context.Context, addr common.Address) (*Breakdown, error) {
	decimals, err := c.reader.TokenDecimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("token decimals: %w", err)
	}
	balance, err := c.reader.TokenBalance(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("token balance: %w", err)
	}
	staked, err := c.reader.StakedBalance(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("staked balance: %w", err)
	}
	crystals, err := c.reader.CrystalBalance(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("crystal balance: %w", err)
	}

	b := &Breakdown{
		Tokens:   normalize(balance, decimals),
		Staked:   normalize(staked, decimals),
		Crystals: crystals.Int64(),
	}
	b.Power = b.Tokens*c.w.TokenWeight +
		b.Staked*c.w.StakeMultiplier +
		float64(b.Crystals)*c.w.CrystalBonus

	c.log.Debug().
		Str("addr", addr.Hex()).
		Float64("tokens", b.Tokens).
		Float64("staked", b.Staked).
		Int64("crystals", b.Crystals).
		Float64("power", b.Power).
		Msg("voting power computed")
	return b, nil
}

// Quorum returns pct percent of the total supply in base units.
func Quorum(totalSupply *big.Int, pct int64) *big.Int {
	if totalSupply == nil || pct <= 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(totalSupply, big.NewInt(pct))
	return out.Div(out, big.NewInt(100))
}

func normalize(amount *big.Int, decimals uint8) float64 {
	if amount == nil || amount.Sign() == 0 {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), scale).Float64()
	return out
}
