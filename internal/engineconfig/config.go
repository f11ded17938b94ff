package engineconfig

// Config is the full parameter set for the scoring and reallocation
// engine. Runs are reproducible from (inputs, Config) alone; nothing in
// the engine reads ambient tunables.
type Config struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	Scoring      Scoring      `yaml:"scoring" json:"scoring"`
	Reallocation Reallocation `yaml:"reallocation" json:"reallocation"`
}

// Meta identifies the parameter set
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Scoring holds score calculator parameters
type Scoring struct {
	// Unified score source weights, sum = 1.0. Weights of absent sources
	// are redistributed proportionally among present ones.
	Weights SourceWeights `yaml:"weights" json:"weights"`

	// Minimum score movement that triggers a history snapshot
	ScoreEpsilon float64 `yaml:"score_epsilon" json:"score_epsilon"`

	TikTok TikTokParams `yaml:"tiktok" json:"tiktok"`
	Meta   MetaParams   `yaml:"meta" json:"meta"`
}

// SourceWeights blends the unified score inputs
type SourceWeights struct {
	TikTok float64 `yaml:"tiktok" json:"tiktok"`
	Meta   float64 `yaml:"meta" json:"meta"`
	Sku    float64 `yaml:"sku" json:"sku"`
}

// Sum returns the sum of all source weights
func (w SourceWeights) Sum() float64 {
	return w.TikTok + w.Meta + w.Sku
}

// TikTokParams tunes the TikTok platform score
type TikTokParams struct {
	// Below this view count the composite is damped toward the neutral
	// midpoint to keep small samples from swinging to extremes
	MinViews int64 `yaml:"min_views" json:"min_views"`

	// Saturation midpoints: input value at which a component reaches 0.5
	EngagementMid float64 `yaml:"engagement_mid" json:"engagement_mid"`
	WatchMid      float64 `yaml:"watch_mid" json:"watch_mid"`
	CTRMid        float64 `yaml:"ctr_mid" json:"ctr_mid"`
	CVRMid        float64 `yaml:"cvr_mid" json:"cvr_mid"`
	ROASMid       float64 `yaml:"roas_mid" json:"roas_mid"`

	// Component weights, sum = 1.0
	EngagementWeight float64 `yaml:"engagement_weight" json:"engagement_weight"`
	WatchWeight      float64 `yaml:"watch_weight" json:"watch_weight"`
	SpendWeight      float64 `yaml:"spend_weight" json:"spend_weight"`
}

// MetaParams tunes the Meta (Facebook/Instagram) platform score
type MetaParams struct {
	CTRMid        float64 `yaml:"ctr_mid" json:"ctr_mid"`
	CPCMid        float64 `yaml:"cpc_mid" json:"cpc_mid"`
	CPRMid        float64 `yaml:"cpr_mid" json:"cpr_mid"`
	ROASMid       float64 `yaml:"roas_mid" json:"roas_mid"`
	CompletionMid float64 `yaml:"completion_mid" json:"completion_mid"`

	// Component weights, sum = 1.0
	CTRWeight        float64 `yaml:"ctr_weight" json:"ctr_weight"`
	CPCWeight        float64 `yaml:"cpc_weight" json:"cpc_weight"`
	CPRWeight        float64 `yaml:"cpr_weight" json:"cpr_weight"`
	ROASWeight       float64 `yaml:"roas_weight" json:"roas_weight"`
	CompletionWeight float64 `yaml:"completion_weight" json:"completion_weight"`

	// Audience fatigue: score loses FrequencyPenalty per frequency unit
	// above the ceiling
	FrequencyCeiling float64 `yaml:"frequency_ceiling" json:"frequency_ceiling"`
	FrequencyPenalty float64 `yaml:"frequency_penalty" json:"frequency_penalty"`
}

// Reallocation holds reallocation engine parameters
type Reallocation struct {
	// Minimum daily budget per target; threshold-cut targets are forced
	// to this amount (or zero when PauseOnThreshold is set)
	MinTargetBudget string `yaml:"min_target_budget" json:"min_target_budget"`

	// Maximum fraction of a style bucket one target may absorb
	MaxBucketShare float64 `yaml:"max_bucket_share" json:"max_bucket_share"`

	// Targets scoring below this are flagged PAUSE_CANDIDATE and reduced
	// to the minimum instead of joining proportional redistribution
	MinScoreFloor float64 `yaml:"min_score_floor" json:"min_score_floor"`

	// Hard-cut floors per platform; targets with ad spend below either
	// floor are cut to minimum before redistribution
	CTRFloor  map[string]float64 `yaml:"ctr_floor" json:"ctr_floor"`
	ROASFloor map[string]float64 `yaml:"roas_floor" json:"roas_floor"`

	// Meta frequency cap: above the ceiling, the target is capped at
	// FrequencyCutFraction of its prior budget
	FrequencyCeiling     float64 `yaml:"frequency_ceiling" json:"frequency_ceiling"`
	FrequencyCutFraction float64 `yaml:"frequency_cut_fraction" json:"frequency_cut_fraction"`

	// When true, threshold-cut targets go to zero and are flagged for pause
	PauseOnThreshold bool `yaml:"pause_on_threshold" json:"pause_on_threshold"`
}

// Default returns the parameter set used when no YAML file is supplied.
// The unified source weights and all thresholds are first-guess defaults,
// expected to be tuned per account.
func Default() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "adpulse_default",
			Version:  "v1",
		},
		Scoring: Scoring{
			Weights: SourceWeights{
				TikTok: 0.5,
				Meta:   0.3,
				Sku:    0.2,
			},
			ScoreEpsilon: 0.01,
			TikTok: TikTokParams{
				MinViews:         1000,
				EngagementMid:    0.04,
				WatchMid:         0.30,
				CTRMid:           0.010,
				CVRMid:           0.02,
				ROASMid:          2.0,
				EngagementWeight: 0.40,
				WatchWeight:      0.30,
				SpendWeight:      0.30,
			},
			Meta: MetaParams{
				CTRMid:           0.010,
				CPCMid:           5.0,
				CPRMid:           50.0,
				ROASMid:          2.0,
				CompletionMid:    0.25,
				CTRWeight:        0.25,
				CPCWeight:        0.15,
				CPRWeight:        0.20,
				ROASWeight:       0.25,
				CompletionWeight: 0.15,
				FrequencyCeiling: 3.5,
				FrequencyPenalty: 0.20,
			},
		},
		Reallocation: Reallocation{
			MinTargetBudget: "50",
			MaxBucketShare:  0.80,
			MinScoreFloor:   5.0,
			CTRFloor: map[string]float64{
				"tiktok":    0.004,
				"facebook":  0.008,
				"instagram": 0.008,
			},
			ROASFloor: map[string]float64{
				"tiktok":    0.8,
				"facebook":  0.8,
				"instagram": 0.8,
			},
			FrequencyCeiling:     3.5,
			FrequencyCutFraction: 0.5,
			PauseOnThreshold:     false,
		},
	}
}
