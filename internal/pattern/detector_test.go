package pattern

import (
	"fmt"
	"testing"

	"MarketCal/internal/domain/models"
)

func dailySeries(closes []float64) []models.FinancialMetrics {
	out := make([]models.FinancialMetrics, len(closes))
	for i, c := range closes {
		out[i] = models.FinancialMetrics{
			Date:        fmt.Sprintf("2024-01-%02d", i%28+1),
			Close:       c,
			Performance: 1.0,
			Volatility:  2.0,
			Volume:      100,
		}
	}
	return out
}

func TestShortSeriesYieldsEmptySet(t *testing.T) {
	series := dailySeries([]float64{100, 101, 102})
	patterns, err := Detect(series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("expected empty set for short series, got %d", len(patterns))
	}
}

func TestTrendEndToEnd(t *testing.T) {
	base := []float64{100, 102, 101, 105, 110, 108, 95, 112, 109, 111}
	closes := append(append(append([]float64{}, base...), base...), base...)
	series := dailySeries(closes)

	patterns, err := Detect(series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	var trend *models.Pattern
	for i := range patterns {
		if patterns[i].Type == models.PatternTrend {
			if trend != nil {
				t.Fatal("more than one trend pattern emitted")
			}
			trend = &patterns[i]
		}
	}
	if trend == nil {
		t.Fatal("no trend pattern emitted")
	}
	if trend.ID != "trend-recent" {
		t.Fatalf("trend id = %s", trend.ID)
	}
	if trend.Period != "Recent 30 periods" {
		t.Fatalf("trend period = %q", trend.Period)
	}
	if trend.Metrics.Price != closes[len(closes)-1] {
		t.Fatalf("trend price = %f, want last close %f", trend.Metrics.Price, closes[len(closes)-1])
	}
}

func TestAnomalyDeterminism(t *testing.T) {
	series := make([]models.FinancialMetrics, 26)
	for i := range series {
		series[i] = models.FinancialMetrics{
			Date:        fmt.Sprintf("2024-02-%02d", i%28+1),
			Close:       100,
			Performance: 1.0,
			Volume:      10,
		}
	}
	// One entry far outside the cluster: z well above 3.
	series[25].Performance = 60.0
	series[25].Date = "2024-03-01"

	patterns, err := Detect(series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	var anomalies []models.Pattern
	for _, p := range patterns {
		if p.Type == models.PatternAnomaly {
			anomalies = append(anomalies, p)
		}
	}
	if len(anomalies) != 1 {
		t.Fatalf("expected exactly one anomaly, got %d", len(anomalies))
	}
	a := anomalies[0]
	if a.Strength != models.StrengthStrong {
		t.Fatalf("anomaly strength = %s, want strong", a.Strength)
	}
	if a.ID != "anomaly-25" {
		t.Fatalf("anomaly id = %s", a.ID)
	}
	if a.Period != "2024-03-01" {
		t.Fatalf("anomaly period = %s", a.Period)
	}

	// Same input, same output.
	again, _ := Detect(series, models.TimeframeDaily)
	if len(again) != len(patterns) {
		t.Fatalf("detection not deterministic: %d vs %d patterns", len(again), len(patterns))
	}
}

func TestNoAnomalyOnUniformSeries(t *testing.T) {
	series := make([]models.FinancialMetrics, 25)
	for i := range series {
		series[i] = models.FinancialMetrics{
			Date:        fmt.Sprintf("2024-02-%02d", i%28+1),
			Close:       100,
			Performance: 1.0,
		}
	}
	patterns, err := Detect(series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	for _, p := range patterns {
		if p.Type == models.PatternAnomaly {
			t.Fatalf("anomaly emitted on uniform series: %+v", p)
		}
	}
}

func TestSeasonalGrouping(t *testing.T) {
	// Three years of stable January gains and March losses.
	var series []models.FinancialMetrics
	for year := 2022; year <= 2024; year++ {
		series = append(series,
			models.FinancialMetrics{Date: fmt.Sprintf("%d-01-15", year), Close: 100, Performance: 3.0, Volume: 10},
			models.FinancialMetrics{Date: fmt.Sprintf("%d-03-15", year), Close: 100, Performance: -2.0, Volume: 10},
		)
	}
	// Pad with varied other months so the series clears the minimum length.
	for i := 0; i < 16; i++ {
		series = append(series, models.FinancialMetrics{
			Date:        fmt.Sprintf("2024-06-%02d", i+1),
			Close:       100,
			Performance: float64(i%5) - 2,
			Volume:      10,
		})
	}

	patterns, err := Detect(series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	var january, march *models.Pattern
	for i := range patterns {
		if patterns[i].Type != models.PatternSeasonal {
			continue
		}
		switch patterns[i].Period {
		case "January":
			january = &patterns[i]
		case "March":
			march = &patterns[i]
		}
	}
	if january == nil || march == nil {
		t.Fatalf("expected January and March seasonal patterns, got %+v", patterns)
	}
	if january.Color != colorGreen {
		t.Fatalf("January color = %s", january.Color)
	}
	if march.Color != colorRed {
		t.Fatalf("March color = %s", march.Color)
	}
	// Identical performance each year: variance 0, full confidence.
	if january.Confidence != 1 || january.Strength != models.StrengthStrong {
		t.Fatalf("January confidence/strength = %f/%s", january.Confidence, january.Strength)
	}
	if january.HistoricalOccurrences != 3 {
		t.Fatalf("January occurrences = %d", january.HistoricalOccurrences)
	}
}

func TestOutputSortedByConfidence(t *testing.T) {
	base := []float64{100, 102, 101, 105, 110, 108, 95, 112, 109, 111}
	closes := append(append(append([]float64{}, base...), base...), base...)
	series := dailySeries(closes)
	series[5].Performance = 80 // force an anomaly with high confidence

	patterns, err := Detect(series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	for i := 1; i < len(patterns); i++ {
		if patterns[i].Confidence > patterns[i-1].Confidence {
			t.Fatalf("patterns not sorted by confidence at %d: %f > %f",
				i, patterns[i].Confidence, patterns[i-1].Confidence)
		}
	}
}
