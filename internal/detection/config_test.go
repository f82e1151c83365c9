package detection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/murmurwatch/murmur-backend/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SyncWindowSeconds != 90 {
		t.Errorf("SyncWindowSeconds = %d, want 90", cfg.SyncWindowSeconds)
	}
	if cfg.TextSimilarityThreshold != 0.8 {
		t.Errorf("TextSimilarityThreshold = %v, want 0.8", cfg.TextSimilarityThreshold)
	}
	if cfg.MinClusterSize != 3 {
		t.Errorf("MinClusterSize = %d, want 3", cfg.MinClusterSize)
	}
	if cfg.URLWeight != 1.5 {
		t.Errorf("URLWeight = %v, want 1.5", cfg.URLWeight)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CoordinationConfig)
		wantErr bool
	}{
		{"defaults", func(c *CoordinationConfig) {}, false},
		{"zero weights allowed", func(c *CoordinationConfig) { c.HashtagWeight = 0 }, false},
		{"negative sync window", func(c *CoordinationConfig) { c.SyncWindowSeconds = -1 }, true},
		{"negative threshold", func(c *CoordinationConfig) { c.TextSimilarityThreshold = -0.1 }, true},
		{"negative density", func(c *CoordinationConfig) { c.MinClusterDensity = -0.5 }, true},
		{"negative edge weight", func(c *CoordinationConfig) { c.URLWeight = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SYNC_WINDOW_SECONDS", "120")
	t.Setenv("MIN_CLUSTER_SIZE", "5")
	t.Setenv("TEXT_SIMILARITY_THRESHOLD", "0.9")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SyncWindowSeconds != 120 {
		t.Errorf("SyncWindowSeconds = %d, want 120", cfg.SyncWindowSeconds)
	}
	if cfg.MinClusterSize != 5 {
		t.Errorf("MinClusterSize = %d, want 5", cfg.MinClusterSize)
	}
	if cfg.TextSimilarityThreshold != 0.9 {
		t.Errorf("TextSimilarityThreshold = %v, want 0.9", cfg.TextSimilarityThreshold)
	}
	// Untouched values keep defaults.
	if cfg.URLWeight != 1.5 {
		t.Errorf("URLWeight = %v, want default 1.5", cfg.URLWeight)
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detection.yaml")
	content := "sync_window_seconds: 30\nmin_cluster_density: 0.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DETECTION_CONFIG_PATH", path)
	// Env override beats the file.
	t.Setenv("SYNC_WINDOW_SECONDS", "45")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SyncWindowSeconds != 45 {
		t.Errorf("SyncWindowSeconds = %d, want env override 45", cfg.SyncWindowSeconds)
	}
	if cfg.MinClusterDensity != 0.5 {
		t.Errorf("MinClusterDensity = %v, want 0.5 from file", cfg.MinClusterDensity)
	}
}
