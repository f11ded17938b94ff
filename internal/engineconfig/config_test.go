package engineconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default() failed validation: %v", err)
	}
	if cfg.Meta.ConfigID != "adpulse_default" {
		t.Errorf("expected config_id=adpulse_default, got %s", cfg.Meta.ConfigID)
	}
	if cfg.Reallocation.MinBudget().IsZero() {
		t.Error("default min_target_budget parsed to zero")
	}
}

func TestLoad(t *testing.T) {
	path := "../../config/engine.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Meta.ConfigID == "" {
		t.Error("expected non-empty config_id")
	}

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	yaml := `
meta:
  config_id: test
  version: v1
scoring:
  weihgts:
    tiktok: 1.0
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for misspelled field, got nil")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Meta.ConfigID != "adpulse_default" {
		t.Errorf("expected defaults when file missing, got %s", cfg.Meta.ConfigID)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		field  string
	}{
		{
			"missing config id",
			func(cfg *Config) { cfg.Meta.ConfigID = "" },
			"meta.config_id",
		},
		{
			"source weights off sum",
			func(cfg *Config) { cfg.Scoring.Weights.TikTok = 0.7 },
			"scoring.weights",
		},
		{
			"negative epsilon",
			func(cfg *Config) { cfg.Scoring.ScoreEpsilon = -0.1 },
			"scoring.score_epsilon",
		},
		{
			"tiktok weights off sum",
			func(cfg *Config) { cfg.Scoring.TikTok.SpendWeight = 0.5 },
			"scoring.tiktok weights",
		},
		{
			"zero saturation midpoint",
			func(cfg *Config) { cfg.Scoring.Meta.ROASMid = 0 },
			"scoring.meta.roas_mid",
		},
		{
			"frequency penalty above one",
			func(cfg *Config) { cfg.Scoring.Meta.FrequencyPenalty = 1.5 },
			"scoring.meta.frequency_penalty",
		},
		{
			"unparseable min budget",
			func(cfg *Config) { cfg.Reallocation.MinTargetBudget = "fifty" },
			"reallocation.min_target_budget",
		},
		{
			"bucket share above one",
			func(cfg *Config) { cfg.Reallocation.MaxBucketShare = 1.2 },
			"reallocation.max_bucket_share",
		},
		{
			"score floor above range",
			func(cfg *Config) { cfg.Reallocation.MinScoreFloor = 120 },
			"reallocation.min_score_floor",
		},
		{
			"ctr floor above one",
			func(cfg *Config) { cfg.Reallocation.CTRFloor["tiktok"] = 1.5 },
			"reallocation.ctr_floor.tiktok",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestHashChangesWithConfig(t *testing.T) {
	a := Default()
	b := Default()
	b.Reallocation.MaxBucketShare = 0.75

	hashA, err := Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hashB, err := Hash(b)
	if err != nil {
		t.Fatal(err)
	}
	if hashA == hashB {
		t.Error("hash did not change with parameters")
	}
}
