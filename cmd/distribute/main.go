package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"github.com/grlkrash/grlkrashai-go/internal/chain"
	"github.com/grlkrash/grlkrashai-go/internal/config"
	"github.com/grlkrash/grlkrashai-go/internal/util"
)

type recipient struct {
	addr   common.Address
	amount *big.Int // base units
}

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "config file")
	file := flag.String("file", "recipients.txt", "recipients file: one 'address,amount' per line")
	dryRun := flag.Bool("dry-run", false, "parse and print without sending")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := util.NewLogger(cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

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

	mgr := chain.NewTxManager(client, signer, managerConfig(cfg.Chain), log)
	contracts, err := chain.NewContracts(client, mgr, chain.ContractAddresses{
		Token:    common.HexToAddress(cfg.Chain.TokenAddress),
		Pool:     common.HexToAddress(cfg.Chain.PoolAddress),
		Crystal:  common.HexToAddress(cfg.Chain.CrystalAddress),
		Registry: common.HexToAddress(cfg.Chain.RegistryAddress),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("contracts")
	}

	decimals, err := contracts.TokenDecimals(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("token decimals")
	}

	recipients, err := parseRecipients(*file, decimals)
	if err != nil {
		log.Fatal().Err(err).Msg("parse recipients")
	}
	if len(recipients) == 0 {
		log.Fatal().Msg("no recipients to pay")
	}
	fmt.Printf("Distributing to %d recipients from %s\n\n", len(recipients), signer.Address().Hex())

	if *dryRun {
		for _, r := range recipients {
			fmt.Printf("  %s  %s base units\n", r.addr.Hex(), r.amount)
		}
		color.Yellow("\ndry run, nothing sent")
		return
	}

	ok, failed := 0, 0
	for i, r := range recipients {
		receipt, err := contracts.TransferTokens(ctx, r.addr, r.amount)
		if err != nil {
			failed++
			color.Red("  [%d/%d] %s FAILED: %v", i+1, len(recipients), r.addr.Hex(), err)
			continue
		}
		ok++
		color.Green("  [%d/%d] %s tx %s (block %s)",
			i+1, len(recipients), r.addr.Hex(), receipt.TxHash.Hex(), receipt.BlockNumber)
	}

	fmt.Println()
	if failed == 0 {
		color.Green("done: %d transfers confirmed", ok)
	} else {
		color.Yellow("done: %d confirmed, %d failed", ok, failed)
		os.Exit(1)
	}
}

func managerConfig(c config.Chain) chain.ManagerConfig {
	return chain.ManagerConfig{
		ChainID:          big.NewInt(c.ChainID),
		GasBufferPercent: c.GasBufferPercent,
		EscalatePercent:  c.EscalatePercent,
		MaxFeeWei:        gweiToWei(c.MaxFeeGwei),
		MaxAttempts:      c.MaxAttempts,
		ReceiptPoll:      time.Duration(c.ReceiptPollMs) * time.Millisecond,
		StallTimeout:     time.Duration(c.StallTimeoutMs) * time.Millisecond,
		ConfirmTimeout:   time.Duration(c.ConfirmTimeoutMs) * time.Millisecond,
	}
}

func gweiToWei(gwei float64) *big.Int {
	if gwei <= 0 {
		return nil
	}
	wei, _ := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9)).Int(nil)
	return wei
}

// parseRecipients reads "address,amount" lines; amounts are whole tokens and
// are scaled by the token's decimals. Blank lines and # comments are skipped.
func parseRecipients(path string, decimals uint8) ([]recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	var out []recipient
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: want 'address,amount', got %q", lineNo, line)
		}
		addrStr := strings.TrimSpace(parts[0])
		if !common.IsHexAddress(addrStr) {
			return nil, fmt.Errorf("line %d: bad address %q", lineNo, addrStr)
		}
		amountF, ok := new(big.Float).SetString(strings.TrimSpace(parts[1]))
		if !ok || amountF.Sign() <= 0 {
			return nil, fmt.Errorf("line %d: bad amount %q", lineNo, parts[1])
		}
		amount, _ := new(big.Float).Mul(amountF, scale).Int(nil)
		out = append(out, recipient{addr: common.HexToAddress(addrStr), amount: amount})
	}
	return out, scanner.Err()
}
