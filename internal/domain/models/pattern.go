package models

// PatternType discriminates detected pattern kinds.
type PatternType string

const (
	PatternSeasonal PatternType = "seasonal"
	PatternTrend    PatternType = "trend"
	PatternAnomaly  PatternType = "anomaly"
)

// PatternStrength tiers confidence at the 0.5 and 0.7 thresholds.
type PatternStrength string

const (
	StrengthWeak     PatternStrength = "weak"
	StrengthModerate PatternStrength = "moderate"
	StrengthStrong   PatternStrength = "strong"
)

// PatternMetrics summarizes the market state a pattern describes.
type PatternMetrics struct {
	Performance float64 `json:"performance"`
	Volatility  float64 `json:"volatility"`
	Volume      float64 `json:"volume"`
	Price       float64 `json:"price"`
}

// Pattern is one detected seasonal, trend, or anomaly pattern.
// Collections are produced fresh per detection run and replace the
// prior set; they are never persisted.
type Pattern struct {
	ID                    string          `json:"id"`
	Type                  PatternType     `json:"type"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Confidence            float64         `json:"confidence"`
	Period                string          `json:"period"`
	Metrics               PatternMetrics  `json:"metrics"`
	HistoricalOccurrences int             `json:"historicalOccurrences"`
	LastOccurrence        string          `json:"lastOccurrence,omitempty"`
	Strength              PatternStrength `json:"strength"`
	Color                 string          `json:"color"`
}

// StrengthFor maps a confidence value to its tier.
func StrengthFor(confidence float64) PatternStrength {
	switch {
	case confidence > 0.7:
		return StrengthStrong
	case confidence > 0.5:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}
