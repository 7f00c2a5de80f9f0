package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("", 0, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.NumBiddingRounds != 5 || cfg.AuctionIntervalSeconds != 1 {
		t.Errorf("cfg = %+v, want defaults {5, 1}", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exchange.toml")
	if err := os.WriteFile(path, []byte("numBiddingRounds = 8\nauctionIntervalSeconds = 2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, 0, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.NumBiddingRounds != 8 || cfg.AuctionIntervalSeconds != 2 {
		t.Errorf("cfg = %+v, want {8, 2}", cfg)
	}
}

func TestCLIOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exchange.toml")
	if err := os.WriteFile(path, []byte("numBiddingRounds = 8\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, 3, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.NumBiddingRounds != 3 {
		t.Errorf("NumBiddingRounds = %d, want CLI override 3", cfg.Engine.NumBiddingRounds)
	}
}

func TestLoadRejectsNonPositiveValues(t *testing.T) {
	if _, err := Load("", -1, 0); err == nil {
		t.Error("expected error for negative numBiddingRounds override")
	}
	if _, err := Load("", 0, -1); err == nil {
		t.Error("expected error for negative auctionIntervalSeconds override")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/exchange.toml", 0, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.NumBiddingRounds != 5 {
		t.Errorf("NumBiddingRounds = %d, want default 5", cfg.Engine.NumBiddingRounds)
	}
}
