package calendar

import (
	"sort"
	"time"

	"MarketCal/internal/domain/models"
	"MarketCal/pkg/util"
)

// Aggregator converts a flat daily series into period-keyed buckets and
// patches the newest bucket in place on live kline updates.
type Aggregator struct {
	now func() time.Time
}

// NewAggregator creates an aggregator using wall-clock time for the
// last-completed-week cutoff.
func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// NewAggregatorAt creates an aggregator with a fixed clock.
func NewAggregatorAt(now func() time.Time) *Aggregator {
	return &Aggregator{now: now}
}

// Aggregate buckets a daily series by the given timeframe. Daily input
// passes through unchanged. Weekly aggregation excludes weeks beyond
// the last completed one so a partial current week never shows as
// final.
func (a *Aggregator) Aggregate(daily []models.FinancialMetrics, tf models.Timeframe) []models.FinancialMetrics {
	switch tf {
	case models.TimeframeWeekly:
		return a.groupBy(daily, weeklyKey, true)
	case models.TimeframeMonthly:
		return a.groupBy(daily, monthlyKey, false)
	default:
		return daily
	}
}

func weeklyKey(t time.Time) string  { return util.WeekKey(t) }
func monthlyKey(t time.Time) string { return util.MonthKey(t) }

func (a *Aggregator) groupBy(daily []models.FinancialMetrics, keyFn func(time.Time) string, excludeOpenWeek bool) []models.FinancialMetrics {
	type group struct {
		key     string
		members []models.FinancialMetrics
	}

	var cutYear, cutWeek int
	if excludeOpenWeek {
		cutYear, cutWeek = util.LastCompletedWeek(a.now())
	}

	order := make([]string, 0)
	groups := make(map[string]*group)

	for _, m := range daily {
		t, ok := util.ParseBucketKey(m.Date)
		if !ok {
			continue
		}
		if excludeOpenWeek {
			y, w := t.Year(), util.WeekNumber(t)
			if y > cutYear || (y == cutYear && w > cutWeek) {
				continue
			}
		}
		key := keyFn(t)
		g, seen := groups[key]
		if !seen {
			g = &group{key: key}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, m)
	}

	out := make([]models.FinancialMetrics, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sort.Slice(g.members, func(i, j int) bool {
			return g.members[i].Date < g.members[j].Date
		})
		out = append(out, reduce(key, g.members))
	}

	sort.Slice(out, func(i, j int) bool {
		ti, oki := util.ParseBucketKey(out[i].Date)
		tj, okj := util.ParseBucketKey(out[j].Date)
		if !oki || !okj {
			return out[i].Date < out[j].Date
		}
		return ti.Before(tj)
	})
	return out
}

// reduce folds one bucket's members, already date-ascending, into a
// single aggregated entry.
func reduce(key string, members []models.FinancialMetrics) models.FinancialMetrics {
	agg := models.FinancialMetrics{
		Date: key,
		Open: members[0].Open,
		High: members[0].High,
		Low:  members[0].Low,
	}

	var weightedVol, minVol, maxVol float64
	minVol = members[0].Volatility
	maxVol = members[0].Volatility

	for i, m := range members {
		if m.High > agg.High {
			agg.High = m.High
		}
		if m.Low < agg.Low {
			agg.Low = m.Low
		}
		agg.Volume += m.Volume
		agg.Liquidity += m.Liquidity
		weightedVol += m.Volatility * m.Volume
		if m.Volatility < minVol {
			minVol = m.Volatility
		}
		if m.Volatility > maxVol {
			maxVol = m.Volatility
		}
		if i == len(members)-1 {
			agg.Close = m.Close
		}
	}

	if agg.Volume > 0 {
		agg.Volatility = weightedVol / agg.Volume
	}
	if agg.Open != 0 {
		agg.Performance = (agg.Close - agg.Open) / agg.Open * 100
	}

	agg.DaysCount = len(members)
	agg.AvgDailyVolume = agg.Volume / float64(len(members))
	agg.AvgDailyLiquidity = agg.Liquidity / float64(len(members))
	agg.VolatilityRange = maxVol - minVol
	return agg
}

// PatchLatest replaces the series entry whose date key matches the
// update, recomputing nothing beyond what the update carries. Updates
// with no matching entry are ignored rather than appended, so an
// out-of-band bucket can never be introduced. Returns true if an entry
// was replaced.
func PatchLatest(series []models.FinancialMetrics, update models.FinancialMetrics) bool {
	for i := range series {
		if series[i].Date == update.Date {
			series[i] = update
			return true
		}
	}
	return false
}

// MetricsFromKline derives a bucket entry from raw kline OHLCV, used
// for live patch-in of the current bucket. The liquidity proxy for
// live patches is the raw volume.
func MetricsFromKline(dateKey string, k models.Kline) models.FinancialMetrics {
	m := models.FinancialMetrics{
		Date:      dateKey,
		Open:      k.Open,
		High:      k.High,
		Low:       k.Low,
		Close:     k.Close,
		Volume:    k.Volume,
		Liquidity: k.Volume,
	}
	if k.Open != 0 {
		m.Performance = (k.Close - k.Open) / k.Open * 100
		m.Volatility = (k.High - k.Low) / k.Open * 100
	}
	return m
}

// FilterByDateRange retains entries whose parsed date key falls within
// [start, end] inclusive. Entries with unparseable keys are dropped.
func FilterByDateRange(series []models.FinancialMetrics, start, end time.Time) []models.FinancialMetrics {
	out := make([]models.FinancialMetrics, 0, len(series))
	for _, m := range series {
		t, ok := util.ParseBucketKey(m.Date)
		if !ok {
			continue
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Summary aggregates headline statistics over a series.
type Summary struct {
	Buckets         int     `json:"buckets"`
	TotalVolume     float64 `json:"totalVolume"`
	AvgPerformance  float64 `json:"avgPerformance"`
	MedianPerf      float64 `json:"medianPerformance"`
	AvgVolatility   float64 `json:"avgVolatility"`
	BestBucket      string  `json:"bestBucket"`
	WorstBucket     string  `json:"worstBucket"`
	BestPerformance float64 `json:"bestPerformance"`
	WorstPerf       float64 `json:"worstPerformance"`
}

// Summarize computes headline statistics for a series. An empty series
// yields a zero summary.
func Summarize(series []models.FinancialMetrics) Summary {
	s := Summary{Buckets: len(series)}
	if len(series) == 0 {
		return s
	}

	perfs := make([]float64, 0, len(series))
	s.BestBucket = series[0].Date
	s.WorstBucket = series[0].Date
	s.BestPerformance = series[0].Performance
	s.WorstPerf = series[0].Performance

	for _, m := range series {
		s.TotalVolume += m.Volume
		s.AvgPerformance += m.Performance
		s.AvgVolatility += m.Volatility
		perfs = append(perfs, m.Performance)
		if m.Performance > s.BestPerformance {
			s.BestPerformance = m.Performance
			s.BestBucket = m.Date
		}
		if m.Performance < s.WorstPerf {
			s.WorstPerf = m.Performance
			s.WorstBucket = m.Date
		}
	}

	n := float64(len(series))
	s.AvgPerformance /= n
	s.AvgVolatility /= n

	sort.Float64s(perfs)
	mid := len(perfs) / 2
	if len(perfs)%2 == 1 {
		s.MedianPerf = perfs[mid]
	} else {
		s.MedianPerf = (perfs[mid-1] + perfs[mid]) / 2
	}
	return s
}
