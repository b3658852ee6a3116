package classify

import "testing"

func defaultThresholds() Thresholds {
	return Thresholds{
		ArtistAuto:   0.90,
		ArtistReview: 0.70,
		TitleAuto:    0.85,
		TitleReview:  0.65,
	}
}

func TestClassifyRectangularRegion(t *testing.T) {
	th := defaultThresholds()
	cases := []struct {
		name      string
		artistSim float64
		titleSim  float64
		matchType MatchType
		expected  Category
	}{
		{"both clear auto", 0.95, 0.90, MatchFuzzy, CategoryAutoLink},
		{"exact scores", 1.0, 1.0, MatchExact, CategoryAutoLink},
		{"artist auto title review", 0.95, 0.70, MatchFuzzy, CategoryReview},
		{"artist review title auto", 0.75, 0.95, MatchFuzzy, CategoryReview},
		{"both review", 0.75, 0.70, MatchFuzzy, CategoryReview},
		{"artist below review", 0.50, 0.95, MatchFuzzy, CategoryReject},
		{"title below review", 0.95, 0.40, MatchVector, CategoryReject},
		{"both below", 0.10, 0.10, MatchVector, CategoryReject},
		{"bridge ignores scores", 0.0, 0.0, MatchIdentityBridge, CategoryIdentityBridge},
		{"exactly at auto", 0.90, 0.85, MatchFuzzy, CategoryAutoLink},
		{"exactly at review", 0.70, 0.65, MatchFuzzy, CategoryReview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.artistSim, tc.titleSim, tc.matchType, th); got != tc.expected {
				t.Fatalf("Classify(%v, %v, %s) = %s, want %s",
					tc.artistSim, tc.titleSim, tc.matchType, got, tc.expected)
			}
		})
	}
}

// Auto-link must never be reachable without both dimensions clearing
// their auto threshold, for any valid threshold configuration.
func TestClassifyNeverAutoLinksBelowAuto(t *testing.T) {
	configs := []Thresholds{
		defaultThresholds(),
		{ArtistAuto: 0.5, ArtistReview: 0.5, TitleAuto: 0.5, TitleReview: 0.5},
		{ArtistAuto: 1.0, ArtistReview: 0.0, TitleAuto: 1.0, TitleReview: 0.0},
		{ArtistAuto: 0.0, ArtistReview: 0.0, TitleAuto: 0.0, TitleReview: 0.0},
	}
	sims := []float64{0, 0.25, 0.49, 0.5, 0.51, 0.84, 0.85, 0.9, 0.99, 1.0}
	for _, th := range configs {
		if err := th.Validate(); err != nil {
			t.Fatalf("test config invalid: %v", err)
		}
		for _, a := range sims {
			for _, s := range sims {
				got := Classify(a, s, MatchFuzzy, th)
				if got == CategoryAutoLink && (a < th.ArtistAuto || s < th.TitleAuto) {
					t.Fatalf("auto_link at (%v, %v) with thresholds %+v", a, s, th)
				}
			}
		}
	}
}

// Exact matches score (1.0, 1.0) and must classify as auto_link under any
// valid threshold configuration.
func TestExactMatchAlwaysAutoLinks(t *testing.T) {
	configs := []Thresholds{
		defaultThresholds(),
		{ArtistAuto: 1.0, ArtistReview: 1.0, TitleAuto: 1.0, TitleReview: 1.0},
		{ArtistAuto: 0.2, ArtistReview: 0.1, TitleAuto: 0.2, TitleReview: 0.1},
	}
	for _, th := range configs {
		if got := Classify(1.0, 1.0, MatchExact, th); got != CategoryAutoLink {
			t.Fatalf("exact match classified as %s with thresholds %+v", got, th)
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	cases := []struct {
		name    string
		t       Thresholds
		wantErr bool
	}{
		{"valid", defaultThresholds(), false},
		{"artist auto below review", Thresholds{ArtistAuto: 0.5, ArtistReview: 0.7, TitleAuto: 0.8, TitleReview: 0.6}, true},
		{"title auto below review", Thresholds{ArtistAuto: 0.9, ArtistReview: 0.7, TitleAuto: 0.5, TitleReview: 0.6}, true},
		{"out of range", Thresholds{ArtistAuto: 1.5, ArtistReview: 0.7, TitleAuto: 0.8, TitleReview: 0.6}, true},
		{"negative", Thresholds{ArtistAuto: 0.9, ArtistReview: -0.1, TitleAuto: 0.8, TitleReview: 0.6}, true},
		{"equal auto and review", Thresholds{ArtistAuto: 0.7, ArtistReview: 0.7, TitleAuto: 0.7, TitleReview: 0.7}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.t.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTitleWarnings(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		work     string
		expected []Warning
	}{
		{"identical", "Hey Jude", "Hey Jude", nil},
		{"case only", "HEY JUDE", "Hey Jude", []Warning{WarningCaseOnly}},
		{"truncation", "Bohemian Rhap", "Bohemian Rhapsody", []Warning{WarningTruncationRisk}},
		{"length mismatch", "One", "One More Time Around The Block", []Warning{WarningTruncationRisk, WarningLengthMismatch}},
		{"unrelated", "Hey Jude", "Let It Be", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TitleWarnings(tc.raw, tc.work)
			if len(got) != len(tc.expected) {
				t.Fatalf("TitleWarnings(%q, %q) = %v, want %v", tc.raw, tc.work, got, tc.expected)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Fatalf("TitleWarnings(%q, %q) = %v, want %v", tc.raw, tc.work, got, tc.expected)
				}
			}
		})
	}
}
