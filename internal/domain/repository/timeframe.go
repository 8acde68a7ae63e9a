package repository

import "MarketCal/internal/domain/models"

// DefaultTimeframe returns the default bucketing resolution.
func DefaultTimeframe() models.Timeframe { return models.TimeframeDaily }

// NormalizeTimeframe converts a raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) models.Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := models.Timeframe(s)
	if tf.Valid() {
		return tf
	}
	return DefaultTimeframe()
}
