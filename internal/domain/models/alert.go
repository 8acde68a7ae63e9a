package models

import "time"

// Alert is a user-defined notification rule evaluated against the
// latest aggregated bucket of its symbol/timeframe.
type Alert struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`      // performance, volatility, volume, price
	Condition     string     `json:"condition"` // above, below, equals
	Threshold     float64    `json:"threshold"`
	Enabled       bool       `json:"enabled"`
	Symbol        string     `json:"symbol"`
	Timeframe     string     `json:"timeframe"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastTriggered *time.Time `json:"lastTriggered,omitempty"`
	TriggerCount  int        `json:"triggerCount"`
}

// AlertEvaluation is the outcome of checking one alert against the
// latest data.
type AlertEvaluation struct {
	Alert     Alert   `json:"alert"`
	Triggered bool    `json:"triggered"`
	Observed  float64 `json:"observed"`
}

// Matches reports whether the observed value satisfies the alert's
// condition. Equality uses a small relative tolerance since observed
// values are derived floats.
func (a Alert) Matches(observed float64) bool {
	switch a.Condition {
	case "above":
		return observed > a.Threshold
	case "below":
		return observed < a.Threshold
	case "equals":
		diff := observed - a.Threshold
		if diff < 0 {
			diff = -diff
		}
		tol := a.Threshold * 0.001
		if tol < 0 {
			tol = -tol
		}
		if tol < 1e-9 {
			tol = 1e-9
		}
		return diff <= tol
	}
	return false
}

// ObservedValue extracts the metric the alert watches from a bucket.
func (a Alert) ObservedValue(m FinancialMetrics) float64 {
	switch a.Type {
	case "performance":
		return m.Performance
	case "volatility":
		return m.Volatility
	case "volume":
		return m.Volume
	case "price":
		return m.Close
	}
	return 0
}
