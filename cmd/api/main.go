package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/cache"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/chain"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/config"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/jupiter"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/pricing"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/server"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/storage"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/sweep"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/tokenmeta"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the sweep API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	adminFeeUSD, err := decimal.NewFromString(cfg.AdminFeeUSD)
	if err != nil || !adminFeeUSD.IsPositive() {
		logger.WithField("value", cfg.AdminFeeUSD).Fatal("SWEEP_ADMIN_FEE_USD must be a positive decimal")
	}
	adminFeeReceiver, err := solana.PublicKeyFromBase58(cfg.AdminFeeReceiver)
	if err != nil {
		logger.WithError(err).Fatal("SWEEP_ADMIN_FEE_RECEIVER is not a valid address")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Metadata/price cache: Redis when reachable, in-process otherwise.
	var metaCache storage.MetaCache
	redisCache := cache.NewRedisCache(cfg.RedisAddr, logger)
	if err := redisCache.Ping(ctx); err != nil {
		logger.WithError(err).Warn("redis unreachable, falling back to in-memory cache")
		metaCache = cache.NewMemoryCache()
	} else {
		metaCache = redisCache
		defer func() {
			_ = redisCache.Close()
		}()
	}

	// Optional ClickHouse sink for sweep analytics
	var sink storage.SweepStore
	if cfg.ClickHouseAddr != "" {
		store, err := storage.NewClickHouseStore(storage.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to connect to ClickHouse, sweep analytics disabled")
		} else {
			sink = store
			defer func() {
				_ = store.Close()
			}()
		}
	}

	// On-chain ledger client with retry and backoff
	ledger := chain.NewClient(chain.ClientConfig{
		RPCUrl:       cfg.RPCUrl,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	// Quote provider, price oracle, and mint metadata resolver
	quotes := jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey)
	oracle := pricing.NewOracle(cfg.PriceBaseURL, metaCache, cfg.PriceCacheTTL, logger)
	resolver := tokenmeta.NewResolver(ledger, metaCache, cfg.TokenMetaTTL, logger)

	planner := sweep.NewPlanner(ledger, quotes, oracle, resolver, sweep.Config{
		BatchSize:             cfg.BatchSize,
		BaseComputeUnits:      cfg.BaseComputeUnits,
		PerSwapComputeUnits:   cfg.PerSwapComputeUnits,
		ComputeUnitPriceMicro: cfg.ComputeUnitPriceMicro,
		SlippageBps:           cfg.SlippageBps,
		PerTxFeeLamports:      cfg.PerTxFeeLamports,
		AdminFeeUSD:           adminFeeUSD,
		AdminFeeReceiver:      adminFeeReceiver,
	}, logger)

	broadcaster := sweep.NewBroadcaster(ledger, cfg.ConfirmTimeout, logger)

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Planner:     planner,
		Broadcaster: broadcaster,
		Prices:      oracle,
		Sink:        sink,
		DevMode:     cfg.DevMode,
		Logger:      logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("sweep api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
