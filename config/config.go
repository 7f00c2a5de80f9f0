// Package config loads the engine's two tunables from an optional TOML
// file, with CLI flag overrides layered on top (§4.8/§6.5).
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"vmxexchange/engine"
)

// fileConfig is the TOML document shape. Both fields are optional; a
// missing field leaves the engine default in place.
type fileConfig struct {
	NumBiddingRounds *int `toml:"numBiddingRounds"`
	AuctionInterval  *int `toml:"auctionIntervalSeconds"`
}

// Config is the fully resolved, validated runtime configuration.
type Config struct {
	Engine                 engine.Config
	AuctionIntervalSeconds int
}

// Default mirrors spec defaults: 5 bidding rounds, 1 second between
// cycles.
var Default = Config{
	Engine:                 engine.DefaultConfig,
	AuctionIntervalSeconds: 1,
}

// Load reads path (if non-empty and it exists) as TOML, then applies any
// non-zero override values, and validates the result. Both
// numBiddingRounds and auctionIntervalSeconds must end up positive.
func Load(path string, numBiddingRoundsOverride, auctionIntervalOverride int) (Config, error) {
	cfg := Default

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else {
			var parsed fileConfig
			if err := toml.Unmarshal(data, &parsed); err != nil {
				return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
			}
			if parsed.NumBiddingRounds != nil {
				cfg.Engine.NumBiddingRounds = *parsed.NumBiddingRounds
			}
			if parsed.AuctionInterval != nil {
				cfg.AuctionIntervalSeconds = *parsed.AuctionInterval
			}
		}
	}

	if numBiddingRoundsOverride != 0 {
		cfg.Engine.NumBiddingRounds = numBiddingRoundsOverride
	}
	if auctionIntervalOverride != 0 {
		cfg.AuctionIntervalSeconds = auctionIntervalOverride
	}

	if cfg.Engine.NumBiddingRounds <= 0 {
		return Config{}, fmt.Errorf("config: numBiddingRounds must be positive, got %d", cfg.Engine.NumBiddingRounds)
	}
	if cfg.AuctionIntervalSeconds <= 0 {
		return Config{}, fmt.Errorf("config: auctionIntervalSeconds must be positive, got %d", cfg.AuctionIntervalSeconds)
	}

	return cfg, nil
}
