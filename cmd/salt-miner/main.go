package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lifehaverdev/beacon-salt-miner/internal/chain"
	"github.com/lifehaverdev/beacon-salt-miner/internal/config"
	logpkg "github.com/lifehaverdev/beacon-salt-miner/internal/logger"
	minerpkg "github.com/lifehaverdev/beacon-salt-miner/pkg/miner"
	"github.com/lifehaverdev/beacon-salt-miner/pkg/types"
	"github.com/lifehaverdev/beacon-salt-miner/pkg/worker"
)

var (
	cfg    = config.NewConfig()
	logger *logpkg.Logger
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "salt-miner",
		Short: "Vanity salt miner for CREATE2 beacon proxies",
		Long: `Mines a 32-byte salt whose CREATE2-deployed beacon proxy lands at an
address with the configured vanity prefix. The predicted address is computed
locally and, when an RPC endpoint is configured, cross-checked against the
deployer contract before being trusted.`,
		Run: runMiner,
	}

	rootCmd.Flags().StringVarP(&cfg.Owner, "owner", "o", "", "Owner address the proxy is initialized for (required)")
	rootCmd.Flags().StringVarP(&cfg.Deployer, "deployer", "d", "", "Deployer contract address performing the CREATE2 (required)")
	rootCmd.Flags().StringVarP(&cfg.Beacon, "beacon", "b", "", "Beacon contract address inlined in the proxy code (required)")
	rootCmd.Flags().StringVarP(&cfg.Prefix, "prefix", "p", "", "Vanity address prefix to mine for (hex, required)")
	rootCmd.Flags().StringVarP(&cfg.RPCURL, "rpc-url", "r", "", "Ethereum JSON-RPC endpoint for on-chain verification (optional)")
	rootCmd.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	rootCmd.Flags().DurationVarP(&cfg.AttemptTimeout, "attempt-timeout", "t", 60*time.Second, "Per-round mining deadline before a fresh retry")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stdout)")
	rootCmd.Flags().IntVarP(&cfg.LogInterval, "log-interval", "i", 5, "Logging interval in seconds (default: 5)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMiner(cmd *cobra.Command, args []string) {
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging()
	logger.Printf("Starting beacon proxy salt miner with %d workers...", cfg.Workers)
	logger.Printf("Owner: %s", cfg.OwnerAddress().Hex())
	logger.Printf("Deployer: %s", cfg.DeployerAddress().Hex())
	logger.Printf("Beacon: %s", cfg.BeaconAddress().Hex())
	logger.Printf("Target prefix: 0x%s", config.CleanHex(cfg.Prefix))

	var verifier worker.ChainVerifier
	if cfg.RPCURL != "" {
		v, err := chain.Dial(cfg.RPCURL, cfg.DeployerAddress())
		if err != nil {
			logger.Warnf("verifier unavailable, mining local-only: %v", err)
		} else {
			defer v.Close()
			verifier = v
			logger.Printf("Verifying against deployer contract via %s", cfg.RPCURL)
		}
	} else {
		logger.Printf("No RPC endpoint configured, results will be unverified")
	}

	miner, err := minerpkg.NewMiner(cfg, logger, verifier)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer miner.Stop()

	req := types.MiningRequest{
		Owner:    cfg.OwnerAddress(),
		Deployer: cfg.DeployerAddress(),
		Beacon:   cfg.BeaconAddress(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Received interrupt signal, stopping miners...")
		cancel()
	}()

	result, err := miner.GetSalt(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Printf("Mining stopped by user after %d attempts.", miner.Attempts())
			return
		}
		if errors.Is(err, types.ErrPredictionMismatch) {
			logger.Printf("FATAL: %v", err)
			logger.Println("Local derivation no longer matches the deployer contract; refusing to mine.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Printf("🎉 Found match!")
	logger.Printf("Salt: 0x%x", result.Salt)
	logger.Printf("Address: %s", result.Address.Hex())
	logger.Printf("Verified: %v", result.Verified)
	logger.Printf("Attempts: %d", result.Attempts)
	logger.Printf("Duration: %v", result.Duration)

	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Attempts) / result.Duration.Seconds()
	}
	logger.Printf("Rate: %.2f hashes/sec", rate)
}

func setupLogging() {
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logger = logpkg.NewWriter(file)
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		logger = logpkg.New()
		logger.SetFlags(log.LstdFlags)
	}
	logger.SetVerbose(cfg.Verbose)
}
