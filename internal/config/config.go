package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// API server
	APIAddr string
	APIKey  string
	DevMode bool

	// RPC settings
	RPCUrl       string
	RPCTimeout   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Redis settings
	RedisAddr string

	// ClickHouse settings (optional sweep analytics sink)
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Jupiter swap API
	JupiterBaseURL string
	JupiterAPIKey  string

	// Price feed
	PriceBaseURL  string
	PriceCacheTTL time.Duration
	TokenMetaTTL  time.Duration

	// Sweep policy knobs. Heuristics, not protocol constraints, so every
	// one of them is overridable from the environment.
	BatchSize             int
	BaseComputeUnits      uint32
	PerSwapComputeUnits   uint32
	ComputeUnitPriceMicro uint64
	SlippageBps           uint16
	PerTxFeeLamports      uint64
	AdminFeeUSD           string
	AdminFeeReceiver      string

	// Confirmation
	ConfirmTimeout time.Duration
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCTimeout:   getDurationEnv("RPC_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Jupiter
		JupiterBaseURL: getEnv("JUPITER_BASE_URL", "https://api.jup.ag/swap/v1"),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),

		// Price feed
		PriceBaseURL:  getEnv("PRICE_BASE_URL", "https://api.jup.ag/price/v2"),
		PriceCacheTTL: getDurationEnv("PRICE_CACHE_TTL", 30*time.Second),
		TokenMetaTTL:  getDurationEnv("TOKEN_META_TTL", 10*time.Minute),

		// Sweep policy
		BatchSize:             getIntEnv("SWEEP_BATCH_SIZE", 3),
		BaseComputeUnits:      uint32(getUint64Env("SWEEP_BASE_COMPUTE_UNITS", 200_000)),
		PerSwapComputeUnits:   uint32(getUint64Env("SWEEP_PER_SWAP_COMPUTE_UNITS", 150_000)),
		ComputeUnitPriceMicro: getUint64Env("SWEEP_COMPUTE_UNIT_PRICE_MICRO", 5_000),
		SlippageBps:           uint16(getUint64Env("SWEEP_SLIPPAGE_BPS", 100)),
		PerTxFeeLamports:      getUint64Env("SWEEP_PER_TX_FEE_LAMPORTS", 1_000_000),
		AdminFeeUSD:           getEnv("SWEEP_ADMIN_FEE_USD", "0.50"),
		AdminFeeReceiver:      getEnv("SWEEP_ADMIN_FEE_RECEIVER", ""),

		// Confirmation
		ConfirmTimeout: getDurationEnv("CONFIRM_TIMEOUT", 60*time.Second),
	}
}

// Validate rejects configurations the planner cannot operate under.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be >= 1, got %d", c.BatchSize)
	}
	if c.AdminFeeReceiver == "" {
		return fmt.Errorf("SWEEP_ADMIN_FEE_RECEIVER is required")
	}
	if c.PerTxFeeLamports == 0 {
		return fmt.Errorf("SWEEP_PER_TX_FEE_LAMPORTS must be > 0")
	}
	if c.RPCUrl == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getUint64Env(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseUint(val, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
