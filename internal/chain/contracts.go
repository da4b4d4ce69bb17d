package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const moreTokenABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

const morePoolABI = `[
  {"name":"stakedBalance","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"totalStaked","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

const memoryCrystalABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"forgeCrystal","type":"function","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"tier","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"tokenURI","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]}
]`

const erc6551RegistryABI = `[
  {"name":"account","type":"function","stateMutability":"view","inputs":[{"name":"implementation","type":"address"},{"name":"chainId","type":"uint256"},{"name":"tokenContract","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

// ContractAddresses holds the deployed addresses the agent talks to.
type ContractAddresses struct {
	Token    common.Address
	Pool     common.Address
	Crystal  common.Address
	Registry common.Address
}

// Contracts wraps view calls and transaction submission for the token, the
// staking pool, the crystal collection, and the account registry.
type Contracts struct {
	caller CallBackend
	mgr    *TxManager
	addrs  ContractAddresses

	token    abi.ABI
	pool     abi.ABI
	crystal  abi.ABI
	registry abi.ABI
}

// NewContracts parses the embedded ABIs. mgr may be nil for read-only use.
func NewContracts(caller CallBackend, mgr *TxManager, addrs ContractAddresses) (*Contracts, error) {
	c := &Contracts{caller: caller, mgr: mgr, addrs: addrs}
	var err error
	if c.token, err = abi.JSON(strings.NewReader(moreTokenABI)); err != nil {
		return nil, fmt.Errorf("token abi: %w", err)
	}
	if c.pool, err = abi.JSON(strings.NewReader(morePoolABI)); err != nil {
		return nil, fmt.Errorf("pool abi: %w", err)
	}
	if c.crystal, err = abi.JSON(strings.NewReader(memoryCrystalABI)); err != nil {
		return nil, fmt.Errorf("crystal abi: %w", err)
	}
	if c.registry, err = abi.JSON(strings.NewReader(erc6551RegistryABI)); err != nil {
		return nil, fmt.Errorf("registry abi: %w", err)
	}
	return c, nil
}

func (c *Contracts) call(ctx context.Context, parsed abi.ABI, to common.Address, out interface{}, method string, args ...interface{}) error {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	if err := parsed.UnpackIntoInterface(out, method, raw); err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return nil
}

// TokenBalance returns the $MORE balance of addr in base units.
func (c *Contracts) TokenBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	out := new(big.Int)
	if err := c.call(ctx, c.token, c.addrs.Token, &out, "balanceOf", addr); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenTotalSupply returns the total $MORE supply in base units.
func (c *Contracts) TokenTotalSupply(ctx context.Context) (*big.Int, error) {
	out := new(big.Int)
	if err := c.call(ctx, c.token, c.addrs.Token, &out, "totalSupply"); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenDecimals returns the token's decimal count.
func (c *Contracts) TokenDecimals(ctx context.Context) (uint8, error) {
	var out uint8
	if err := c.call(ctx, c.token, c.addrs.Token, &out, "decimals"); err != nil {
		return 0, err
	}
	return out, nil
}

// StakedBalance returns addr's staked $MORE in the pool.
func (c *Contracts) StakedBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	out := new(big.Int)
	if err := c.call(ctx, c.pool, c.addrs.Pool, &out, "stakedBalance", addr); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalStaked returns the pool's total staked $MORE.
func (c *Contracts) TotalStaked(ctx context.Context) (*big.Int, error) {
	out := new(big.Int)
	if err := c.call(ctx, c.pool, c.addrs.Pool, &out, "totalStaked"); err != nil {
		return nil, err
	}
	return out, nil
}

// CrystalBalance returns how many memory crystals addr holds.
func (c *Contracts) CrystalBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	out := new(big.Int)
	if err := c.call(ctx, c.crystal, c.addrs.Crystal, &out, "balanceOf", addr); err != nil {
		return nil, err
	}
	return out, nil
}

// CrystalURI returns the metadata URI for a minted crystal.
func (c *Contracts) CrystalURI(ctx context.Context, tokenID *big.Int) (string, error) {
	var out string
	if err := c.call(ctx, c.crystal, c.addrs.Crystal, &out, "tokenURI", tokenID); err != nil {
		return "", err
	}
	return out, nil
}

// BoundAccount resolves the token-bound account address for a crystal.
func (c *Contracts) BoundAccount(ctx context.Context, implementation common.Address, chainID *big.Int, tokenID *big.Int) (common.Address, error) {
	var out common.Address
	err := c.call(ctx, c.registry, c.addrs.Registry, &out, "account",
		implementation, chainID, c.addrs.Crystal, tokenID, new(big.Int))
	if err != nil {
		return common.Address{}, err
	}
	return out, nil
}

// TransferTokens sends $MORE to a recipient and waits for confirmation.
func (c *Contracts) TransferTokens(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	if c.mgr == nil {
		return nil, fmt.Errorf("no signer configured")
	}
	data, err := c.token.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("pack transfer: %w", err)
	}
	return c.mgr.Send(ctx, Request{To: c.addrs.Token, Data: data})
}

// ForgeCrystal mints a memory crystal of the given tier to the recipient.
func (c *Contracts) ForgeCrystal(ctx context.Context, to common.Address, tier uint8, payment *big.Int) (*types.Receipt, error) {
	if c.mgr == nil {
		return nil, fmt.Errorf("no signer configured")
	}
	data, err := c.crystal.Pack("forgeCrystal", to, tier)
	if err != nil {
		return nil, fmt.Errorf("pack forgeCrystal: %w", err)
	}
	return c.mgr.Send(ctx, Request{To: c.addrs.Crystal, Value: payment, Data: data})
}
