package detection

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/utils"
)

// CoordinationConfig holds every tunable threshold and weight of the
// detection engine. Values are validated once at load time; the engine
// assumes a valid config afterwards.
type CoordinationConfig struct {
	// Time windows
	SyncWindowSeconds int `yaml:"sync_window_seconds"`

	// Similarity thresholds
	TextSimilarityThreshold float64 `yaml:"text_similarity_threshold"`
	MinTextLength           int     `yaml:"min_text_length"`
	MinHashtagOverlap       int     `yaml:"min_hashtag_overlap"`

	// Cluster detection
	MinClusterSize    int     `yaml:"min_cluster_size"`
	MinClusterDensity float64 `yaml:"min_cluster_density"`
	LouvainResolution float64 `yaml:"louvain_resolution"`

	// Edge weights
	SyncWeight         float64 `yaml:"sync_weight"`
	URLWeight          float64 `yaml:"url_weight"`
	TextWeight         float64 `yaml:"text_weight"`
	HashtagWeight      float64 `yaml:"hashtag_weight"`
	ReplyPatternWeight float64 `yaml:"reply_pattern_weight"`

	// Scoring weights
	ClusterCoverageWeight float64 `yaml:"cluster_coverage_weight"`
	DensityWeight         float64 `yaml:"density_weight"`
	SyncRateWeight        float64 `yaml:"sync_rate_weight"`
}

func DefaultConfig() CoordinationConfig {
	return CoordinationConfig{
		SyncWindowSeconds:       90,
		TextSimilarityThreshold: 0.8,
		MinTextLength:           10,
		MinHashtagOverlap:       2,
		MinClusterSize:          3,
		MinClusterDensity:       0.3,
		LouvainResolution:       1.0,
		SyncWeight:              1.0,
		URLWeight:               1.5,
		TextWeight:              1.0,
		HashtagWeight:           0.5,
		ReplyPatternWeight:      0.8,
		ClusterCoverageWeight:   0.4,
		DensityWeight:           0.3,
		SyncRateWeight:          0.3,
	}
}

// Validate rejects configurations the engine cannot run with. Every weight
// and threshold must be non-negative.
func (c CoordinationConfig) Validate() error {
	checks := []struct {
		name string
		val  float64
	}{
		{"sync_window_seconds", float64(c.SyncWindowSeconds)},
		{"text_similarity_threshold", c.TextSimilarityThreshold},
		{"min_text_length", float64(c.MinTextLength)},
		{"min_hashtag_overlap", float64(c.MinHashtagOverlap)},
		{"min_cluster_size", float64(c.MinClusterSize)},
		{"min_cluster_density", c.MinClusterDensity},
		{"louvain_resolution", c.LouvainResolution},
		{"sync_weight", c.SyncWeight},
		{"url_weight", c.URLWeight},
		{"text_weight", c.TextWeight},
		{"hashtag_weight", c.HashtagWeight},
		{"reply_pattern_weight", c.ReplyPatternWeight},
		{"cluster_coverage_weight", c.ClusterCoverageWeight},
		{"density_weight", c.DensityWeight},
		{"sync_rate_weight", c.SyncRateWeight},
	}
	for _, check := range checks {
		if check.val < 0 {
			return fmt.Errorf("detection config: %s must be >= 0, got %v", check.name, check.val)
		}
	}
	return nil
}

// LoadConfig builds the engine config from defaults, an optional YAML file
// pointed at by DETECTION_CONFIG_PATH, and environment variable overrides,
// in that order of precedence (env wins).
func LoadConfig(log *logger.Logger) (CoordinationConfig, error) {
	cfg := DefaultConfig()

	if path := utils.GetEnv("DETECTION_CONFIG_PATH", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read detection config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse detection config %s: %w", path, err)
		}
	}

	cfg.SyncWindowSeconds = utils.GetEnvAsInt("SYNC_WINDOW_SECONDS", cfg.SyncWindowSeconds, log)
	cfg.TextSimilarityThreshold = utils.GetEnvAsFloat("TEXT_SIMILARITY_THRESHOLD", cfg.TextSimilarityThreshold, log)
	cfg.MinTextLength = utils.GetEnvAsInt("MIN_TEXT_LENGTH", cfg.MinTextLength, log)
	cfg.MinHashtagOverlap = utils.GetEnvAsInt("MIN_HASHTAG_OVERLAP", cfg.MinHashtagOverlap, log)
	cfg.MinClusterSize = utils.GetEnvAsInt("MIN_CLUSTER_SIZE", cfg.MinClusterSize, log)
	cfg.MinClusterDensity = utils.GetEnvAsFloat("MIN_CLUSTER_DENSITY", cfg.MinClusterDensity, log)
	cfg.LouvainResolution = utils.GetEnvAsFloat("LOUVAIN_RESOLUTION", cfg.LouvainResolution, log)
	cfg.SyncWeight = utils.GetEnvAsFloat("SYNC_WEIGHT", cfg.SyncWeight, log)
	cfg.URLWeight = utils.GetEnvAsFloat("URL_WEIGHT", cfg.URLWeight, log)
	cfg.TextWeight = utils.GetEnvAsFloat("TEXT_WEIGHT", cfg.TextWeight, log)
	cfg.HashtagWeight = utils.GetEnvAsFloat("HASHTAG_WEIGHT", cfg.HashtagWeight, log)
	cfg.ReplyPatternWeight = utils.GetEnvAsFloat("REPLY_PATTERN_WEIGHT", cfg.ReplyPatternWeight, log)
	cfg.ClusterCoverageWeight = utils.GetEnvAsFloat("CLUSTER_COVERAGE_WEIGHT", cfg.ClusterCoverageWeight, log)
	cfg.DensityWeight = utils.GetEnvAsFloat("DENSITY_WEIGHT", cfg.DensityWeight, log)
	cfg.SyncRateWeight = utils.GetEnvAsFloat("SYNC_RATE_WEIGHT", cfg.SyncRateWeight, log)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
