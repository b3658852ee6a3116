package classify

import (
	"errors"
	"fmt"
)

// Thresholds holds the four independently configurable cut points. The
// auto value on each axis must be greater than or equal to the review
// value; configurations violating that are rejected, never clamped.
type Thresholds struct {
	ArtistAuto   float64 `json:"artist_auto"`
	ArtistReview float64 `json:"artist_review"`
	TitleAuto    float64 `json:"title_auto"`
	TitleReview  float64 `json:"title_review"`
}

// Validate reports whether the threshold configuration is acceptable.
func (t Thresholds) Validate() error {
	bounds := []struct {
		name  string
		value float64
	}{
		{"artist_auto", t.ArtistAuto},
		{"artist_review", t.ArtistReview},
		{"title_auto", t.TitleAuto},
		{"title_review", t.TitleReview},
	}
	for _, b := range bounds {
		if b.value < 0 || b.value > 1 {
			return fmt.Errorf("threshold %s must be between 0 and 1, got %v", b.name, b.value)
		}
	}
	if t.ArtistAuto < t.ArtistReview {
		return errors.New("artist_auto must be greater than or equal to artist_review")
	}
	if t.TitleAuto < t.TitleReview {
		return errors.New("title_auto must be greater than or equal to title_review")
	}
	return nil
}
