package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bannergen/internal/adapter/repo"
	"bannergen/internal/chain"
	"bannergen/internal/domain"
	"bannergen/internal/infra"
	"bannergen/internal/quota"
	"bannergen/internal/usage"
)

func main() {
	var (
		walletFlag string
		resetFlag  bool
	)
	flag.StringVar(&walletFlag, "wallet", "", "wallet address to inspect")
	flag.BoolVar(&resetFlag, "reset", false, "clear today's usage for the wallet")
	flag.Parse()

	_ = godotenv.Load()

	wallet := strings.TrimSpace(walletFlag)
	if wallet == "" {
		exitWithError(errors.New("-wallet is required"))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	if cfg.RedisURL == "" {
		exitWithError(errors.New("REDIS_URL is required; in-memory counters live inside the API process"))
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "usage").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect redis: %w", err))
	}
	defer rdb.Close()
	ledger := usage.NewLedger(quota.NewRedis(rdb, "bannergen:"))

	if resetFlag {
		if err := ledger.Reset(ctx, wallet); err != nil {
			exitWithError(err)
		}
		fmt.Printf("Usage for %s reset\n", wallet)
	}

	var balances chain.BalanceReader = chain.MockReader{}
	if cfg.TokenMintAddress != "" {
		rpc, err := chain.NewRPCReader(chain.Options{Endpoint: cfg.SolanaRPCURL, Mint: cfg.TokenMintAddress, Logger: &logger})
		if err != nil {
			exitWithError(err)
		}
		balances = rpc
	}
	balance := balances.Balance(ctx, wallet)
	tier := domain.TierFromBalance(balance)

	used, err := ledger.Usage(ctx, wallet)
	if err != nil {
		exitWithError(err)
	}

	limit := "unlimited"
	if !tier.Unbounded() {
		limit = fmt.Sprint(tier.DailyLimit)
	}
	fmt.Printf("wallet=%s\n", wallet)
	fmt.Printf("balance=%s tier=%s\n", balance.String(), tier.Name)
	fmt.Printf("used_today=%d daily_limit=%s\n", used, limit)
	fmt.Printf("resets_at=%s\n", usage.NextReset(time.Now()).Format(time.RFC3339))

	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			exitWithError(fmt.Errorf("failed to connect database: %w", err))
		}
		defer pool.Close()
		stored, err := repo.NewBannerRepository(infra.NewSQLRunner(pool, logger)).CountByWallet(ctx, wallet)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("stored_banners=%d\n", stored)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
