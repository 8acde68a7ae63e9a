package pattern

import (
	"fmt"
	"math"
	"sort"
	"time"

	"MarketCal/internal/domain/models"
	"MarketCal/pkg/util"
)

const (
	minSeriesLen      = 20
	trendWindow       = 30
	minTrendLen       = 10
	slopeThreshold    = 0.01
	minMonthObs       = 3
	minSeasonalConf   = 0.3
	anomalyZThreshold = 2.0
	strongZThreshold  = 3.0

	colorGreen     = "#10b981"
	colorRed       = "#ef4444"
	colorGray      = "#6b7280"
	colorAnomHigh  = "#dc2626"
	colorAnomMild  = "#ea580c"
)

// Detect analyzes the series for monthly seasonality, linear trend,
// and z-score anomalies. Series shorter than 20 entries yield an empty
// set. Any panic inside detection surfaces as an error, never as a
// partial pattern list.
func Detect(series []models.FinancialMetrics, timeframe models.Timeframe) (patterns []models.Pattern, err error) {
	defer func() {
		if r := recover(); r != nil {
			patterns = nil
			err = fmt.Errorf("pattern detection: %v", r)
		}
	}()

	if len(series) < minSeriesLen {
		return []models.Pattern{}, nil
	}

	patterns = append(patterns, detectSeasonal(series)...)
	patterns = append(patterns, detectTrend(series)...)
	patterns = append(patterns, detectAnomalies(series)...)

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})
	return patterns, nil
}

// detectSeasonal groups entries by calendar month across years and
// emits a pattern for months whose performance clusters tightly.
func detectSeasonal(series []models.FinancialMetrics) []models.Pattern {
	type monthGroup struct {
		perfs   []float64
		vol     float64
		volume  float64
		price   float64
		last    string
	}

	groups := make(map[time.Month]*monthGroup)
	for _, m := range series {
		t, ok := util.ParseBucketKey(m.Date)
		if !ok {
			continue
		}
		g := groups[t.Month()]
		if g == nil {
			g = &monthGroup{}
			groups[t.Month()] = g
		}
		g.perfs = append(g.perfs, m.Performance)
		g.vol += m.Volatility
		g.volume += m.Volume
		g.price += m.Close
		if m.Date > g.last {
			g.last = m.Date
		}
	}

	var out []models.Pattern
	for month := time.January; month <= time.December; month++ {
		g := groups[month]
		if g == nil || len(g.perfs) < minMonthObs {
			continue
		}

		n := float64(len(g.perfs))
		meanPerf := mean(g.perfs)
		confidence := 1 - variance(g.perfs, meanPerf)/100
		if confidence < 0 {
			confidence = 0
		}
		if confidence < minSeasonalConf {
			continue
		}

		color := colorGreen
		direction := "gains"
		if meanPerf < 0 {
			color = colorRed
			direction = "losses"
		}

		out = append(out, models.Pattern{
			ID:          fmt.Sprintf("seasonal-%d", int(month)),
			Type:        models.PatternSeasonal,
			Name:        fmt.Sprintf("%s Seasonality", month.String()),
			Description: fmt.Sprintf("%s has averaged %.2f%% %s across %d observations", month.String(), math.Abs(meanPerf), direction, len(g.perfs)),
			Confidence:  confidence,
			Period:      month.String(),
			Metrics: models.PatternMetrics{
				Performance: meanPerf,
				Volatility:  g.vol / n,
				Volume:      g.volume / n,
				Price:       g.price / n,
			},
			HistoricalOccurrences: len(g.perfs),
			LastOccurrence:        g.last,
			Strength:              models.StrengthFor(confidence),
			Color:                 color,
		})
	}
	return out
}

// detectTrend fits an ordinary-least-squares slope of close against
// index over the trailing window and emits exactly one trend pattern.
func detectTrend(series []models.FinancialMetrics) []models.Pattern {
	window := series
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}
	if len(window) < minTrendLen {
		return nil
	}

	n := float64(len(window))
	var sumX, sumY, sumXY, sumXX float64
	for i, m := range window {
		x := float64(i)
		sumX += x
		sumY += m.Close
		sumXY += x * m.Close
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (n*sumXY - sumX*sumY) / denom

	name, color := "Sideways Trend", colorGray
	switch {
	case slope >= slopeThreshold:
		name, color = "Upward Trend", colorGreen
	case slope <= -slopeThreshold:
		name, color = "Downward Trend", colorRed
	}

	confidence := math.Min(1, math.Abs(slope)*100)
	last := window[len(window)-1]

	var avgPerf, avgVol, avgVolume float64
	for _, m := range window {
		avgPerf += m.Performance
		avgVol += m.Volatility
		avgVolume += m.Volume
	}

	return []models.Pattern{{
		ID:          "trend-recent",
		Type:        models.PatternTrend,
		Name:        name,
		Description: fmt.Sprintf("Price is moving %.4f per period over the last %d periods", slope, len(window)),
		Confidence:  confidence,
		Period:      fmt.Sprintf("Recent %d periods", trendWindow),
		Metrics: models.PatternMetrics{
			Performance: avgPerf / n,
			Volatility:  avgVol / n,
			Volume:      avgVolume / n,
			Price:       last.Close,
		},
		HistoricalOccurrences: len(window),
		LastOccurrence:        last.Date,
		Strength:              models.StrengthFor(confidence),
		Color:                 color,
	}}
}

// detectAnomalies flags entries whose performance deviates from the
// whole-series mean by more than two population standard deviations.
func detectAnomalies(series []models.FinancialMetrics) []models.Pattern {
	perfs := make([]float64, len(series))
	for i, m := range series {
		perfs[i] = m.Performance
	}
	mu := mean(perfs)
	sigma := math.Sqrt(variance(perfs, mu))
	if sigma == 0 {
		return nil
	}

	var out []models.Pattern
	for i, m := range series {
		z := (m.Performance - mu) / sigma
		if math.Abs(z) <= anomalyZThreshold {
			continue
		}

		strength := models.StrengthModerate
		if math.Abs(z) > strongZThreshold {
			strength = models.StrengthStrong
		}

		deviation := m.Performance - mu
		color := colorAnomMild
		if math.Abs(deviation) > 50 {
			color = colorAnomHigh
		}

		out = append(out, models.Pattern{
			ID:          fmt.Sprintf("anomaly-%d", i),
			Type:        models.PatternAnomaly,
			Name:        "Performance Anomaly",
			Description: fmt.Sprintf("Performance deviated %.2f%% from the series mean on %s", deviation, m.Date),
			Confidence:  math.Min(1, math.Abs(z)/4),
			Period:      m.Date,
			Metrics: models.PatternMetrics{
				Performance: m.Performance,
				Volatility:  m.Volatility,
				Volume:      m.Volume,
				Price:       m.Close,
			},
			HistoricalOccurrences: 1,
			LastOccurrence:        m.Date,
			Strength:              strength,
			Color:                 color,
		})
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, mu float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mu
		sum += d * d
	}
	return sum / float64(len(values))
}
