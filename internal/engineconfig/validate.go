package engineconfig

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ValidationError reports an invalid parameter file (program stops)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Scoring ===
	if err := checkWeightSum("scoring.weights", cfg.Scoring.Weights.Sum()); err != nil {
		return err
	}
	if cfg.Scoring.ScoreEpsilon < 0 {
		return ValidationError{"scoring.score_epsilon", "must be >= 0"}
	}

	tt := cfg.Scoring.TikTok
	if tt.MinViews < 0 {
		return ValidationError{"scoring.tiktok.min_views", "must be >= 0"}
	}
	if err := checkWeightSum("scoring.tiktok weights",
		tt.EngagementWeight+tt.WatchWeight+tt.SpendWeight); err != nil {
		return err
	}
	for field, mid := range map[string]float64{
		"scoring.tiktok.engagement_mid": tt.EngagementMid,
		"scoring.tiktok.watch_mid":      tt.WatchMid,
		"scoring.tiktok.ctr_mid":        tt.CTRMid,
		"scoring.tiktok.cvr_mid":        tt.CVRMid,
		"scoring.tiktok.roas_mid":       tt.ROASMid,
	} {
		if mid <= 0 {
			return ValidationError{field, "must be > 0"}
		}
	}

	mt := cfg.Scoring.Meta
	if err := checkWeightSum("scoring.meta weights",
		mt.CTRWeight+mt.CPCWeight+mt.CPRWeight+mt.ROASWeight+mt.CompletionWeight); err != nil {
		return err
	}
	for field, mid := range map[string]float64{
		"scoring.meta.ctr_mid":        mt.CTRMid,
		"scoring.meta.cpc_mid":        mt.CPCMid,
		"scoring.meta.cpr_mid":        mt.CPRMid,
		"scoring.meta.roas_mid":       mt.ROASMid,
		"scoring.meta.completion_mid": mt.CompletionMid,
	} {
		if mid <= 0 {
			return ValidationError{field, "must be > 0"}
		}
	}
	if mt.FrequencyCeiling <= 0 {
		return ValidationError{"scoring.meta.frequency_ceiling", "must be > 0"}
	}
	if mt.FrequencyPenalty < 0 || mt.FrequencyPenalty > 1 {
		return ValidationError{"scoring.meta.frequency_penalty", "must be in [0, 1]"}
	}

	// === Reallocation ===
	re := cfg.Reallocation
	if _, err := decimal.NewFromString(re.MinTargetBudget); err != nil {
		return ValidationError{"reallocation.min_target_budget", "must be a decimal amount"}
	}
	if re.MaxBucketShare <= 0 || re.MaxBucketShare > 1 {
		return ValidationError{"reallocation.max_bucket_share", "must be in (0, 1]"}
	}
	if re.MinScoreFloor < 0 || re.MinScoreFloor > 100 {
		return ValidationError{"reallocation.min_score_floor", "must be in [0, 100]"}
	}
	if re.FrequencyCutFraction <= 0 || re.FrequencyCutFraction > 1 {
		return ValidationError{"reallocation.frequency_cut_fraction", "must be in (0, 1]"}
	}
	for platform, floor := range re.CTRFloor {
		if floor < 0 || floor > 1 {
			return ValidationError{
				fmt.Sprintf("reallocation.ctr_floor.%s", platform), "must be in [0, 1]"}
		}
	}
	for platform, floor := range re.ROASFloor {
		if floor < 0 {
			return ValidationError{
				fmt.Sprintf("reallocation.roas_floor.%s", platform), "must be >= 0"}
		}
	}

	return nil
}

// MinBudget returns the minimum per-target budget as a decimal
func (r Reallocation) MinBudget() decimal.Decimal {
	d, err := decimal.NewFromString(r.MinTargetBudget)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func checkWeightSum(field string, sum float64) error {
	if math.Abs(sum-1.0) > 1e-6 {
		return ValidationError{field, fmt.Sprintf("weights must sum to 1.0, got %.6f", sum)}
	}
	return nil
}
