package calendar

import (
	"fmt"
	"math"
	"testing"
	"time"

	"MarketCal/internal/domain/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dailyEntry(date string, open, high, low, close, volume float64) models.FinancialMetrics {
	m := models.FinancialMetrics{
		Date: date, Open: open, High: high, Low: low, Close: close, Volume: volume,
	}
	if open != 0 {
		m.Performance = (close - open) / open * 100
		m.Volatility = (high - low) / open * 100
	}
	m.Liquidity = volume
	return m
}

func TestDailyPassthrough(t *testing.T) {
	a := NewAggregator()
	in := []models.FinancialMetrics{
		dailyEntry("2024-03-01", 100, 110, 95, 105, 10),
		dailyEntry("2024-03-02", 105, 108, 100, 102, 12),
	}
	out := a.Aggregate(in, models.TimeframeDaily)
	if len(out) != len(in) {
		t.Fatalf("daily aggregation changed length: %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("daily entry %d mutated", i)
		}
	}
}

func TestMonthlyOHLC(t *testing.T) {
	a := NewAggregator()
	in := []models.FinancialMetrics{
		dailyEntry("2024-03-01", 100, 112, 98, 104, 10),
		dailyEntry("2024-03-02", 104, 120, 103, 118, 20),
		dailyEntry("2024-03-03", 118, 119, 90, 95, 15),
	}
	out := a.Aggregate(in, models.TimeframeMonthly)
	if len(out) != 1 {
		t.Fatalf("expected one monthly bucket, got %d", len(out))
	}

	m := out[0]
	if m.Date != "2024-03" {
		t.Fatalf("month key = %s", m.Date)
	}
	if m.Open != 100 || m.Close != 95 {
		t.Fatalf("open/close wrong: %f/%f", m.Open, m.Close)
	}
	if m.High != 120 || m.Low != 90 {
		t.Fatalf("high/low wrong: %f/%f", m.High, m.Low)
	}
	if m.Volume != 45 {
		t.Fatalf("volume sum wrong: %f", m.Volume)
	}
	wantPerf := (95.0 - 100.0) / 100.0 * 100
	if math.Abs(m.Performance-wantPerf) > 1e-9 {
		t.Fatalf("performance = %f, want %f", m.Performance, wantPerf)
	}
	if m.DaysCount != 3 {
		t.Fatalf("daysCount = %d", m.DaysCount)
	}
	if math.Abs(m.AvgDailyVolume-15) > 1e-9 {
		t.Fatalf("avgDailyVolume = %f", m.AvgDailyVolume)
	}
}

func TestVolumeWeightedVolatility(t *testing.T) {
	a := NewAggregator()
	in := []models.FinancialMetrics{
		{Date: "2024-03-01", Open: 100, High: 100, Low: 100, Close: 100, Volume: 10, Volatility: 2},
		{Date: "2024-03-02", Open: 100, High: 100, Low: 100, Close: 100, Volume: 30, Volatility: 6},
	}
	out := a.Aggregate(in, models.TimeframeMonthly)
	want := (2.0*10 + 6.0*30) / 40.0
	if math.Abs(out[0].Volatility-want) > 1e-9 {
		t.Fatalf("weighted volatility = %f, want %f", out[0].Volatility, want)
	}
}

func TestZeroVolumeVolatilityIsZero(t *testing.T) {
	a := NewAggregator()
	in := []models.FinancialMetrics{
		{Date: "2024-03-01", Open: 100, Close: 100, Volume: 0, Volatility: 5},
	}
	out := a.Aggregate(in, models.TimeframeMonthly)
	if out[0].Volatility != 0 {
		t.Fatalf("volatility with zero volume = %f", out[0].Volatility)
	}
}

func TestWeeklyExcludesOpenWeek(t *testing.T) {
	// Clock inside week 3 of 2024: days 15-21.
	now := time.Date(2024, time.January, 16, 0, 0, 0, 0, time.UTC)
	a := NewAggregatorAt(fixedClock(now))

	in := []models.FinancialMetrics{
		dailyEntry("2024-01-03", 100, 101, 99, 100.5, 10), // week 1
		dailyEntry("2024-01-10", 100, 101, 99, 100.5, 10), // week 2
		dailyEntry("2024-01-16", 100, 101, 99, 100.5, 10), // week 3 (open)
	}
	out := a.Aggregate(in, models.TimeframeWeekly)
	if len(out) != 2 {
		t.Fatalf("expected 2 completed weeks, got %d: %v", len(out), out)
	}
	if out[0].Date != "2024-W01" || out[1].Date != "2024-W02" {
		t.Fatalf("week keys wrong: %s %s", out[0].Date, out[1].Date)
	}
}

func TestWeeklySortAcrossYearBoundary(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	a := NewAggregatorAt(fixedClock(now))

	in := []models.FinancialMetrics{
		dailyEntry("2025-01-02", 100, 101, 99, 100, 10), // 2025-W01
		dailyEntry("2024-12-28", 100, 101, 99, 100, 10), // 2024-W52
	}
	out := a.Aggregate(in, models.TimeframeWeekly)
	if len(out) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(out))
	}
	if out[0].Date != "2024-W52" || out[1].Date != "2025-W01" {
		t.Fatalf("weeks not sorted across year boundary: %s %s", out[0].Date, out[1].Date)
	}
}

func TestPatchLatestReplacesInPlace(t *testing.T) {
	series := []models.FinancialMetrics{
		dailyEntry("2024-03-01", 100, 110, 95, 105, 10),
		dailyEntry("2024-03-02", 105, 108, 100, 102, 12),
	}

	update := MetricsFromKline("2024-03-02", models.Kline{
		Open: 105, High: 115, Low: 100, Close: 114, Volume: 20,
	})
	if !PatchLatest(series, update) {
		t.Fatal("patch for existing bucket was not applied")
	}
	if series[1].Close != 114 || series[1].Volume != 20 {
		t.Fatalf("patch not applied in place: %v", series[1])
	}
	if len(series) != 2 {
		t.Fatalf("patch changed series length: %d", len(series))
	}

	// Re-applying the same update is idempotent.
	before := make([]models.FinancialMetrics, len(series))
	copy(before, series)
	PatchLatest(series, update)
	for i := range series {
		if series[i] != before[i] {
			t.Fatalf("re-patch changed entry %d", i)
		}
	}
}

func TestPatchLatestIgnoresUnknownBucket(t *testing.T) {
	series := []models.FinancialMetrics{
		dailyEntry("2024-03-01", 100, 110, 95, 105, 10),
	}
	update := MetricsFromKline("2024-03-05", models.Kline{Open: 1, Close: 2})
	if PatchLatest(series, update) {
		t.Fatal("patch for unknown bucket was applied")
	}
	if len(series) != 1 {
		t.Fatalf("unknown bucket was appended: %d entries", len(series))
	}
}

func TestFilterByDateRange(t *testing.T) {
	series := []models.FinancialMetrics{
		dailyEntry("2024-03-01", 100, 101, 99, 100, 1),
		dailyEntry("2024-03-15", 100, 101, 99, 100, 1),
		dailyEntry("2024-04-01", 100, 101, 99, 100, 1),
		{Date: "not-a-date", Open: 1, Close: 1},
	}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	out := FilterByDateRange(series, start, end)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries in range, got %d", len(out))
	}
	if out[0].Date != "2024-03-01" || out[1].Date != "2024-03-15" {
		t.Fatalf("wrong entries retained: %v", out)
	}
}

func TestSummarize(t *testing.T) {
	series := []models.FinancialMetrics{
		{Date: "2024-03-01", Performance: 2, Volatility: 1, Volume: 10},
		{Date: "2024-03-02", Performance: -4, Volatility: 3, Volume: 20},
		{Date: "2024-03-03", Performance: 6, Volatility: 2, Volume: 30},
	}
	s := Summarize(series)
	if s.Buckets != 3 || s.TotalVolume != 60 {
		t.Fatalf("buckets/volume wrong: %+v", s)
	}
	if math.Abs(s.AvgPerformance-4.0/3.0) > 1e-9 {
		t.Fatalf("avg performance = %f", s.AvgPerformance)
	}
	if s.MedianPerf != 2 {
		t.Fatalf("median = %f", s.MedianPerf)
	}
	if s.BestBucket != "2024-03-03" || s.WorstBucket != "2024-03-02" {
		t.Fatalf("best/worst wrong: %s %s", s.BestBucket, s.WorstBucket)
	}

	empty := Summarize(nil)
	if empty.Buckets != 0 || empty.TotalVolume != 0 {
		t.Fatalf("empty summary not zero: %+v", empty)
	}
}

func TestLargeMonthGrouping(t *testing.T) {
	a := NewAggregator()
	var in []models.FinancialMetrics
	for month := 1; month <= 3; month++ {
		for day := 1; day <= 5; day++ {
			in = append(in, dailyEntry(
				fmt.Sprintf("2024-%02d-%02d", month, day),
				100, 105, 95, 101, 10,
			))
		}
	}
	out := a.Aggregate(in, models.TimeframeMonthly)
	if len(out) != 3 {
		t.Fatalf("expected 3 monthly buckets, got %d", len(out))
	}
	for i, m := range out {
		if m.DaysCount != 5 {
			t.Fatalf("bucket %d daysCount = %d", i, m.DaysCount)
		}
	}
}
