package governance

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

type fakeReader struct {
	balance  *big.Int
	staked   *big.Int
	crystals *big.Int
	decimals uint8
	err      error
}

func (f *fakeReader) TokenBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return f.balance, f.err
}

func (f *fakeReader) StakedBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return f.staked, f.err
}

func (f *fakeReader) CrystalBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return f.crystals, f.err
}

func (f *fakeReader) TokenDecimals(ctx context.Context) (uint8, error) {
	return f.decimals, f.err
}

func units(whole int64, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(whole), scale)
}

func TestVotingPower(t *testing.T) {
	reader := &fakeReader{
		balance:  units(1000, 18),
		staked:   units(200, 18),
		crystals: big.NewInt(3),
		decimals: 18,
	}
	calc := NewCalculator(reader, Weights{TokenWeight: 1, StakeMultiplier: 2, CrystalBonus: 50}, zerolog.Nop())

	b, err := calc.VotingPower(context.Background(), common.HexToAddress("0xabc"))
	if err != nil {
		t.Fatalf("voting power: %v", err)
	}
	// 1000*1 + 200*2 + 3*50
	if want := 1550.0; math.Abs(b.Power-want) > 1e-6 {
		t.Fatalf("power = %v, want %v", b.Power, want)
	}
	if b.Tokens != 1000 || b.Staked != 200 || b.Crystals != 3 {
		t.Fatalf("breakdown = %+v", b)
	}
}

func TestVotingPowerDefaultsTokenWeight(t *testing.T) {
	reader := &fakeReader{
		balance:  units(10, 6),
		staked:   new(big.Int),
		crystals: new(big.Int),
		decimals: 6,
	}
	calc := NewCalculator(reader, Weights{}, zerolog.Nop())

	b, err := calc.VotingPower(context.Background(), common.HexToAddress("0x1"))
	if err != nil {
		t.Fatalf("voting power: %v", err)
	}
	if b.Power != 10 {
		t.Fatalf("power = %v, want 10", b.Power)
	}
}

func TestVotingPowerPropagatesErrors(t *testing.T) {
	reader := &fakeReader{err: errors.New("rpc down")}
	calc := NewCalculator(reader, Weights{TokenWeight: 1}, zerolog.Nop())

	if _, err := calc.VotingPower(context.Background(), common.HexToAddress("0x1")); err == nil {
		t.Fatal("expected error")
	}
}

func TestQuorum(t *testing.T) {
	total := units(1_000_000, 18)
	q := Quorum(total, 4)
	if want := units(40_000, 18); q.Cmp(want) != 0 {
		t.Fatalf("quorum = %s, want %s", q, want)
	}
	if q := Quorum(nil, 4); q.Sign() != 0 {
		t.Fatalf("nil supply quorum = %s, want 0", q)
	}
	if q := Quorum(total, 0); q.Sign() != 0 {
		t.Fatalf("zero pct quorum = %s, want 0", q)
	}
}
