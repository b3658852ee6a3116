package testsupport

import (
	"path/filepath"
	"testing"

	"airmatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithThresholds overrides the seed thresholds on the test config.
func WithThresholds(artistAuto, artistReview, titleAuto, titleReview float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Matching.ArtistAuto = artistAuto
		cfg.Matching.ArtistReview = artistReview
		cfg.Matching.TitleAuto = titleAuto
		cfg.Matching.TitleReview = titleReview
	}
}
