package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"github.com/grlkrash/grlkrashai-go/internal/chain"
	"github.com/grlkrash/grlkrashai-go/internal/config"
	"github.com/grlkrash/grlkrashai-go/internal/ipfs"
	"github.com/grlkrash/grlkrashai-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "config file")
	media := flag.String("media", "", "path to the crystal's media file")
	to := flag.String("to", "", "recipient address")
	tier := flag.Int("tier", 1, "crystal tier (1=common, 2=rare, 3=legendary)")
	payment := flag.Float64("payment", 0, "forge payment in ether")
	flag.Parse()

	if *media == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "usage: forge -media <file> -to <address> [-tier N] [-payment ETH]")
		os.Exit(2)
	}
	if !common.IsHexAddress(*to) {
		fmt.Fprintf(os.Stderr, "bad recipient address %q\n", *to)
		os.Exit(2)
	}
	if *tier < 1 || *tier > 3 {
		fmt.Fprintf(os.Stderr, "tier %d out of range [1,3]\n", *tier)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := util.NewLogger(cfg.App.LogLevel)
	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Fatal().Err(err).Msg("load secrets")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Pin the media first so the chain write never references missing content.
	pinner := ipfs.New(cfg.IPFS.APIURL, cfg.IPFS.GatewayURL, secrets.IPFSToken, log)
	f, err := os.Open(*media)
	if err != nil {
		log.Fatal().Err(err).Msg("open media")
	}
	cid, err := pinner.Add(ctx, filepath.Base(*media), f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("ipfs add")
	}
	if err := pinner.Pin(ctx, cid); err != nil {
		log.Fatal().Err(err).Msg("ipfs pin")
	}
	color.Cyan("media pinned: %s", pinner.GatewayURL(cid))

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.ChainID)
	if err != nil {
		log.Fatal().Err(err).Msg("dial rpc")
	}

	var signer chain.Signer
	if cfg.Chain.Signer == "ledger" {
		ledger, err := chain.NewLedgerSigner(cfg.Chain.LedgerAccount)
		if err != nil {
			log.Fatal().Err(err).Msg("open ledger")
		}
		defer ledger.Close()
		signer = ledger
	} else {
		signer, err = chain.NewKeySignerFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("load signer key")
		}
	}

	mgr := chain.NewTxManager(client, signer, chain.ManagerConfig{
		ChainID:          big.NewInt(cfg.Chain.ChainID),
		GasBufferPercent: cfg.Chain.GasBufferPercent,
		EscalatePercent:  cfg.Chain.EscalatePercent,
		MaxFeeWei:        gweiToWei(cfg.Chain.MaxFeeGwei),
		MaxAttempts:      cfg.Chain.MaxAttempts,
		ReceiptPoll:      time.Duration(cfg.Chain.ReceiptPollMs) * time.Millisecond,
		StallTimeout:     time.Duration(cfg.Chain.StallTimeoutMs) * time.Millisecond,
		ConfirmTimeout:   time.Duration(cfg.Chain.ConfirmTimeoutMs) * time.Millisecond,
	}, log)
	contracts, err := chain.NewContracts(client, mgr, chain.ContractAddresses{
		Token:    common.HexToAddress(cfg.Chain.TokenAddress),
		Pool:     common.HexToAddress(cfg.Chain.PoolAddress),
		Crystal:  common.HexToAddress(cfg.Chain.CrystalAddress),
		Registry: common.HexToAddress(cfg.Chain.RegistryAddress),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("contracts")
	}

	receipt, err := contracts.ForgeCrystal(ctx, common.HexToAddress(*to), uint8(*tier), etherToWei(*payment))
	if err != nil {
		color.Red("forge failed: %v", err)
		os.Exit(1)
	}
	color.Green("crystal forged: tx %s (block %s, gas used %d)",
		receipt.TxHash.Hex(), receipt.BlockNumber, receipt.GasUsed)
}

func gweiToWei(gwei float64) *big.Int {
	if gwei <= 0 {
		return nil
	}
	wei, _ := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9)).Int(nil)
	return wei
}

func etherToWei(eth float64) *big.Int {
	if eth <= 0 {
		return new(big.Int)
	}
	wei, _ := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18)).Int(nil)
	return wei
}
