package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/usbwallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

// Signer produces EIP-155/London signatures for manager-built transactions.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeySigner signs with an in-memory secp256k1 key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeySigner parses a hex private key (0x prefix optional).
func NewKeySigner(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// NewKeySignerFromEnv loads CHAIN_PRIVATE_KEY, reading .env first best-effort.
func NewKeySignerFromEnv() (*KeySigner, error) {
	_ = godotenv.Load()
	hexKey := os.Getenv("CHAIN_PRIVATE_KEY")
	if hexKey == "" {
		return nil, fmt.Errorf("CHAIN_PRIVATE_KEY not set")
	}
	return NewKeySigner(hexKey)
}

func (s *KeySigner) Address() common.Address { return s.addr }

func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}

// LedgerSigner signs through a Ledger device found on the USB hub, using the
// standard derivation path at the configured account index.
type LedgerSigner struct {
	wallet  accounts.Wallet
	account accounts.Account
}

// NewLedgerSigner opens the first connected Ledger and derives the account.
func NewLedgerSigner(accountIndex int) (*LedgerSigner, error) {
	hub, err := usbwallet.NewLedgerHub()
	if err != nil {
		return nil, fmt.Errorf("ledger hub: %w", err)
	}
	wallets := hub.Wallets()
	if len(wallets) == 0 {
		return nil, fmt.Errorf("no ledger device found")
	}
	wallet := wallets[0]
	if err := wallet.Open(""); err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	account, err := wallet.Derive(ledgerDerivationPath(accountIndex), true)
	if err != nil {
		wallet.Close()
		return nil, fmt.Errorf("derive account %d: %w", accountIndex, err)
	}
	return &LedgerSigner{wallet: wallet, account: account}, nil
}

// ledgerDerivationPath returns the standard base path with the account index
// swapped in. The default path is copied; mutating it in place would alias the
// package-level slice and poison every later derivation.
func ledgerDerivationPath(accountIndex int) accounts.DerivationPath {
	path := append(accounts.DerivationPath{}, accounts.DefaultBaseDerivationPath...)
	if accountIndex > 0 {
		path[len(path)-1] = uint32(accountIndex)
	}
	return path
}

func (s *LedgerSigner) Address() common.Address { return s.account.Address }

func (s *LedgerSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := s.wallet.SignTx(s.account, tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("ledger sign: %w", err)
	}
	return signed, nil
}

// Close releases the device.
func (s *LedgerSigner) Close() error { return s.wallet.Close() }
