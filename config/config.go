package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"dicehouse/database"
)

// Config holds all engine configuration
type Config struct {
	// Protocol parameters. Basis points convert to WAD internally.
	OwnerAddress     string
	HouseEdgeBps     uint64 // e.g. 100 = 1%
	KellyFractionBps uint64 // 10000 = full Kelly
	Lookback         uint64 // retrievable-block-hash horizon
	ExpiryWindow     uint64 // blocks before an unclaimed bet is sweepable; Lookback+1 so sweeping starts only after the last claimable block
	MaxSweepPerPlace int    // expired bets swept opportunistically per placement

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string

	// Chain configuration. Empty means the simulated chain.
	EthRPCURL string

	// Environment: "development" or "production"
	Environment string
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// SetTestConfig replaces the global config, for tests.
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// ResetConfig clears the global config so the next Get reloads it.
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig returns a config suitable for unit tests.
func NewTestConfig() *Config {
	return &Config{
		OwnerAddress:     "0x00000000000000000000000000000000000000aa",
		HouseEdgeBps:     100,
		KellyFractionBps: 10000,
		Lookback:         256,
		ExpiryWindow:     257,
		MaxSweepPerPlace: 5,
		Environment:      "test",
	}
}

// GetDatabaseURL constructs the full database URL
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Owner returns the configured owner address.
func (c *Config) Owner() common.Address {
	return common.HexToAddress(c.OwnerAddress)
}

// HouseEdge returns the WAD-scaled house edge.
func (c *Config) HouseEdge() *uint256.Int {
	return bpsToWad(c.HouseEdgeBps)
}

// KellyFraction returns the WAD-scaled fractional-Kelly factor.
func (c *Config) KellyFraction() *uint256.Int {
	return bpsToWad(c.KellyFractionBps)
}

func bpsToWad(bps uint64) *uint256.Int {
	v := uint256.NewInt(bps)
	return v.Mul(v, uint256.NewInt(1e14))
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		OwnerAddress:     os.Getenv("OWNER_ADDRESS"),
		HouseEdgeBps:     100,
		KellyFractionBps: 10000,
		Lookback:         256,
		ExpiryWindow:     257,
		MaxSweepPerPlace: 5,

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),
		EthRPCURL:   os.Getenv("ETH_RPC_URL"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if v := os.Getenv("HOUSE_EDGE_BPS"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 || parsed >= 10000 {
			return nil, fmt.Errorf("invalid HOUSE_EDGE_BPS: %q", v)
		}
		config.HouseEdgeBps = parsed
	}
	if v := os.Getenv("KELLY_FRACTION_BPS"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 || parsed > 10000 {
			return nil, fmt.Errorf("invalid KELLY_FRACTION_BPS: %q", v)
		}
		config.KellyFractionBps = parsed
	}
	if v := os.Getenv("LOOKBACK"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 {
			return nil, fmt.Errorf("invalid LOOKBACK: %q", v)
		}
		config.Lookback = parsed
	}
	if v := os.Getenv("EXPIRY_WINDOW"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 {
			return nil, fmt.Errorf("invalid EXPIRY_WINDOW: %q", v)
		}
		config.ExpiryWindow = parsed
	}
	if v := os.Getenv("MAX_SWEEP_PER_PLACE"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid MAX_SWEEP_PER_PLACE: %q", v)
		}
		config.MaxSweepPerPlace = parsed
	}

	if config.OwnerAddress == "" {
		return nil, fmt.Errorf("OWNER_ADDRESS is required")
	}
	if !common.IsHexAddress(config.OwnerAddress) {
		return nil, fmt.Errorf("invalid OWNER_ADDRESS: %q", config.OwnerAddress)
	}

	return config, nil
}

func getEnvWithDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
