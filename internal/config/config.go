package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Matching contains default match thresholds and candidate generation
// settings. The threshold values here seed the settings table on first
// open; the store copy is authoritative afterwards.
type Matching struct {
	ArtistAuto   float64 `toml:"artist_auto"`
	ArtistReview float64 `toml:"artist_review"`
	TitleAuto    float64 `toml:"title_auto"`
	TitleReview  float64 `toml:"title_review"`
	// FuzzyFloor is the minimum fuzzy similarity for a candidate to be
	// retained at all.
	FuzzyFloor float64 `toml:"fuzzy_floor"`
	// VectorTopK is how many nearest neighbors the vector index returns.
	VectorTopK int `toml:"vector_top_k"`
	// PromoteAutoLinks creates a permanent identity bridge whenever a
	// candidate auto-links during discovery.
	PromoteAutoLinks bool `toml:"promote_auto_links"`
}

// Discovery contains batch sizing for discovery runs.
type Discovery struct {
	// SignatureBatchSize is the checkpoint granularity: progress is
	// persisted after each batch of signatures.
	SignatureBatchSize int `toml:"signature_batch_size"`
	// SearchChunkSize caps how many pairs a single vector index query
	// may carry.
	SearchChunkSize int `toml:"search_chunk_size"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for airmatch.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Matching  Matching  `toml:"matching"`
	Discovery Discovery `toml:"discovery"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/airmatch/config.toml")
}

// Default returns a configuration populated with defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/airmatch",
			LogDir:  "~/.local/share/airmatch/logs",
		},
		Matching: Matching{
			ArtistAuto:       0.90,
			ArtistReview:     0.70,
			TitleAuto:        0.85,
			TitleReview:      0.65,
			FuzzyFloor:       0.4,
			VectorTopK:       5,
			PromoteAutoLinks: true,
		},
		Discovery: Discovery{
			SignatureBatchSize: 100,
			SearchChunkSize:    500,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads, parses, and validates a configuration file. A missing file
// at the default location is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if normErr := cfg.normalize(); normErr != nil {
				return nil, normErr
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing
// to overwrite an existing file.
func WriteSample(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// DatabasePath returns the location of the sqlite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "airmatch.db")
}

// LockPath returns the location of the discovery run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "discovery.lock")
}

// EnsureDirectories creates the configured directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
