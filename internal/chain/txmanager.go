package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/metrics"
)

// Request describes one transaction the manager should land on chain.
type Request struct {
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64 // 0 means estimate
}

// ManagerConfig tunes gas, retry, and timeout behavior.
type ManagerConfig struct {
	ChainID          *big.Int
	GasBufferPercent int           // added on top of the node's gas estimate
	EscalatePercent  int           // fee bump per resubmission; floored at 10
	MaxFeeWei        *big.Int      // hard ceiling for the fee cap; nil disables
	MaxAttempts      int           // submissions per request (initial + resubmits)
	ReceiptPoll      time.Duration // interval between receipt polls
	StallTimeout     time.Duration // no receipt within this window triggers escalation
	ConfirmTimeout   time.Duration // overall deadline per request
}

// minEscalatePercent is the smallest bump most nodes accept for a replacement
// transaction at the same nonce.
const minEscalatePercent = 10

func (c *ManagerConfig) withDefaults() ManagerConfig {
	out := *c
	if out.GasBufferPercent <= 0 {
		out.GasBufferPercent = 20
	}
	if out.EscalatePercent < minEscalatePercent {
		out.EscalatePercent = minEscalatePercent
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 3
	}
	if out.ReceiptPoll <= 0 {
		out.ReceiptPoll = 2 * time.Second
	}
	if out.StallTimeout <= 0 {
		out.StallTimeout = 30 * time.Second
	}
	if out.ConfirmTimeout <= 0 {
		out.ConfirmTimeout = 5 * time.Minute
	}
	return out
}

// TxManager lands transactions reliably: local monotonic nonce allocation,
// EIP-1559 fee construction, receipt polling with a stall timeout, and
// same-nonce fee escalation on stall. One transaction is in flight per signer
// at any time.
type TxManager struct {
	backend Backend
	signer  Signer
	cfg     ManagerConfig
	log     zerolog.Logger

	mu        sync.Mutex
	nonce     uint64
	haveNonce bool
}

// NewTxManager builds a manager for one signer account.
func NewTxManager(backend Backend, signer Signer, cfg ManagerConfig, log zerolog.Logger) *TxManager {
	return &TxManager{backend: backend, signer: signer, cfg: cfg.withDefaults(), log: log}
}

// Send submits the request and blocks until it is mined, escalated through, or
// abandoned. Resubmissions reuse the same nonce and call data; only fees move.
func (m *TxManager) Send(ctx context.Context, req Request) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConfirmTimeout)
	defer cancel()

	nonce, err := m.nextNonce(ctx)
	if err != nil {
		return nil, err
	}
	tip, feeCap, err := m.suggestFees(ctx)
	if err != nil {
		return nil, err
	}
	gas := req.GasLimit
	if gas == 0 {
		gas, err = m.estimateGas(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	var broadcast []common.Hash
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		tx := types.NewTx(&types.DynamicFeeTx{
			ChainID:   m.cfg.ChainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &req.To,
			Value:     value,
			Data:      req.Data,
		})
		signed, err := m.signer.SignTx(tx, m.cfg.ChainID)
		if err != nil {
			return nil, err
		}

		m.log.Info().
			Str("hash", signed.Hash().Hex()).
			Uint64("nonce", nonce).
			Int("attempt", attempt).
			Str("tip", tip.String()).
			Str("fee_cap", feeCap.String()).
			Msg("submitting transaction")

		if err := m.backend.SendTransaction(ctx, signed); err != nil {
			switch classify(err) {
			case errAlreadyKnown:
				// The node already holds this exact transaction; fall through
				// to receipt polling.
			case errNonceStale:
				// A replacement races the original: if an earlier broadcast of
				// this nonce mined during the stall window, the node reports
				// the new submission stale even though the payment landed.
				if receipt := m.minedEarlier(ctx, broadcast); receipt != nil {
					return m.settle(receipt, nonce)
				}
				m.haveNonce = false
				metrics.TxAttempts.WithLabelValues("nonce_resync").Inc()
				return nil, fmt.Errorf("nonce %d stale: %w", nonce, err)
			case errPermanent:
				m.haveNonce = false
				metrics.TxAttempts.WithLabelValues("permanent").Inc()
				return nil, fmt.Errorf("send tx: %w", err)
			default:
				metrics.TxAttempts.WithLabelValues("transient").Inc()
				m.log.Warn().Err(err).Uint64("nonce", nonce).Msg("transient send failure, retrying")
				if err := sleepCtx(ctx, m.cfg.ReceiptPoll); err != nil {
					return nil, err
				}
				continue
			}
		}

		broadcast = append(broadcast, signed.Hash())

		receipt, err := m.waitReceipt(ctx, signed.Hash())
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return m.settle(receipt, nonce)
		}

		// Stalled: bump fees and replace at the same nonce.
		tip, feeCap = m.escalate(tip, feeCap)
		metrics.TxAttempts.WithLabelValues("escalated").Inc()
		m.log.Warn().
			Uint64("nonce", nonce).
			Str("tip", tip.String()).
			Str("fee_cap", feeCap.String()).
			Msg("transaction stalled, escalating fees")
	}

	m.haveNonce = false
	metrics.TxAttempts.WithLabelValues("abandoned").Inc()
	return nil, fmt.Errorf("gave up on nonce %d after %d attempts", nonce, m.cfg.MaxAttempts)
}

// settle records a mined nonce. The nonce is consumed even when the receipt
// reports status 0; only advance past it.
func (m *TxManager) settle(receipt *types.Receipt, nonce uint64) (*types.Receipt, error) {
	m.nonce = nonce + 1
	m.haveNonce = true
	if receipt.Status == types.ReceiptStatusFailed {
		metrics.TxAttempts.WithLabelValues("reverted").Inc()
		return nil, fmt.Errorf("tx %s mined with status 0", receipt.TxHash.Hex())
	}
	metrics.TxAttempts.WithLabelValues("confirmed").Inc()
	return receipt, nil
}

// minedEarlier checks whether any previously broadcast version of the current
// nonce already has a receipt.
func (m *TxManager) minedEarlier(ctx context.Context, hashes []common.Hash) *types.Receipt {
	for _, hash := range hashes {
		receipt, err := m.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			m.log.Info().Str("hash", hash.Hex()).Msg("earlier submission mined during replacement")
			return receipt
		}
	}
	return nil
}

func (m *TxManager) nextNonce(ctx context.Context) (uint64, error) {
	if !m.haveNonce {
		nonce, err := m.backend.PendingNonceAt(ctx, m.signer.Address())
		if err != nil {
			return 0, fmt.Errorf("pending nonce: %w", err)
		}
		m.nonce = nonce
		m.haveNonce = true
	}
	return m.nonce, nil
}

// suggestFees builds a tip from the node's oracle and a fee cap of
// 2*baseFee+tip, clamped to the configured ceiling.
func (m *TxManager) suggestFees(ctx context.Context) (tip, feeCap *big.Int, err error) {
	tip, err = m.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("suggest tip: %w", err)
	}
	head, err := m.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("head header: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	feeCap = new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	tip, feeCap = m.clampFees(tip, feeCap)
	return tip, feeCap, nil
}

func (m *TxManager) estimateGas(ctx context.Context, req Request) (uint64, error) {
	from := m.signer.Address()
	msg := ethereum.CallMsg{From: from, To: &req.To, Value: req.Value, Data: req.Data}
	gas, err := m.backend.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return gas * uint64(100+m.cfg.GasBufferPercent) / 100, nil
}

func (m *TxManager) escalate(tip, feeCap *big.Int) (*big.Int, *big.Int) {
	pct := big.NewInt(int64(100 + m.cfg.EscalatePercent))
	newTip := new(big.Int).Div(new(big.Int).Mul(tip, pct), big.NewInt(100))
	newFeeCap := new(big.Int).Div(new(big.Int).Mul(feeCap, pct), big.NewInt(100))
	return m.clampFees(newTip, newFeeCap)
}

func (m *TxManager) clampFees(tip, feeCap *big.Int) (*big.Int, *big.Int) {
	if m.cfg.MaxFeeWei != nil && feeCap.Cmp(m.cfg.MaxFeeWei) > 0 {
		feeCap = new(big.Int).Set(m.cfg.MaxFeeWei)
	}
	if tip.Cmp(feeCap) > 0 {
		tip = new(big.Int).Set(feeCap)
	}
	return tip, feeCap
}

// waitReceipt polls until the transaction mines or the stall window elapses.
// It returns (nil, nil) on stall so the caller can escalate.
func (m *TxManager) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	deadline := time.Now().Add(m.cfg.StallTimeout)
	for {
		receipt, err := m.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		if err := sleepCtx(ctx, m.cfg.ReceiptPoll); err != nil {
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
