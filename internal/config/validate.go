package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	bounds := map[string]float64{
		"matching.artist_auto":   c.Matching.ArtistAuto,
		"matching.artist_review": c.Matching.ArtistReview,
		"matching.title_auto":    c.Matching.TitleAuto,
		"matching.title_review":  c.Matching.TitleReview,
		"matching.fuzzy_floor":   c.Matching.FuzzyFloor,
	}
	for name, value := range bounds {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.Matching.ArtistAuto < c.Matching.ArtistReview {
		return errors.New("matching.artist_auto must be greater than or equal to matching.artist_review")
	}
	if c.Matching.TitleAuto < c.Matching.TitleReview {
		return errors.New("matching.title_auto must be greater than or equal to matching.title_review")
	}
	if c.Matching.VectorTopK <= 0 {
		return errors.New("matching.vector_top_k must be positive")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if c.Discovery.SignatureBatchSize <= 0 {
		return errors.New("discovery.signature_batch_size must be positive")
	}
	if c.Discovery.SearchChunkSize <= 0 {
		return errors.New("discovery.search_chunk_size must be positive")
	}
	return nil
}
