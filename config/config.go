package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"

	"pegcore/crypto"
)

var (
	// ErrNoAssets indicates a configuration without any collateral assets.
	ErrNoAssets = errors.New("config: at least one collateral asset required")
	// ErrAssetSource indicates an asset without exactly one price source.
	ErrAssetSource = errors.New("config: each asset needs exactly one of FeedURL or StaticPrice")
)

// AssetConfig describes one allowed collateral asset and its price source.
// Exactly one of FeedURL and StaticPrice must be set.
type AssetConfig struct {
	Symbol      string `toml:"Symbol"`
	FeedURL     string `toml:"FeedURL"`
	StaticPrice string `toml:"StaticPrice"`
}

// Config captures the runtime configuration for the engine daemon.
type Config struct {
	ListenAddress      string        `toml:"ListenAddress"`
	DataDir            string        `toml:"DataDir"`
	MaxPriceAgeSeconds uint64        `toml:"MaxPriceAgeSeconds"`
	EngineAddress      string        `toml:"EngineAddress"`
	VaultAddress       string        `toml:"VaultAddress"`
	Assets             []AssetConfig `toml:"assets"`
}

// Load loads and validates the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8640"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./pegd-data"
	}
	if c.MaxPriceAgeSeconds == 0 {
		c.MaxPriceAgeSeconds = 3 * 3600
	}
}

// Validate rejects configurations that would leave the engine unable to value
// collateral or custody funds.
func (c *Config) Validate() error {
	if len(c.Assets) == 0 {
		return ErrNoAssets
	}
	seen := make(map[string]bool, len(c.Assets))
	for _, asset := range c.Assets {
		symbol := strings.TrimSpace(asset.Symbol)
		if symbol == "" {
			return fmt.Errorf("config: asset with empty symbol")
		}
		if seen[symbol] {
			return fmt.Errorf("config: duplicate asset %s", symbol)
		}
		seen[symbol] = true
		hasFeed := strings.TrimSpace(asset.FeedURL) != ""
		hasStatic := strings.TrimSpace(asset.StaticPrice) != ""
		if hasFeed == hasStatic {
			return fmt.Errorf("%w: %s", ErrAssetSource, symbol)
		}
		if hasStatic {
			if _, ok := new(big.Int).SetString(strings.TrimSpace(asset.StaticPrice), 10); !ok {
				return fmt.Errorf("config: invalid static price for %s", symbol)
			}
		}
	}
	if _, err := crypto.DecodeAddress(strings.TrimSpace(c.EngineAddress)); err != nil {
		return fmt.Errorf("config: invalid EngineAddress: %w", err)
	}
	if _, err := crypto.DecodeAddress(strings.TrimSpace(c.VaultAddress)); err != nil {
		return fmt.Errorf("config: invalid VaultAddress: %w", err)
	}
	return nil
}
