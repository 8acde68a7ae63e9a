package indicator

import (
	"math"

	"MarketCal/internal/domain/models"
)

// Pure indicator functions over the aggregated series. All operate on
// closing price and degrade to defined neutral values on insufficient
// history instead of returning errors, so callers always have a number
// to render.

const (
	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	bollingerN     = 20
	bollingerK     = 2.0
	benchmarkN     = 30
	benchmarkBeta  = 1.2
	benchmarkRatio = 0.8
	annualTradDays = 252
)

// MACDResult is the MACD line, its signal, and the histogram.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerResult is the band triple around the moving average.
type BollingerResult struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// BenchmarkResult compares trailing asset return against a synthetic
// benchmark.
type BenchmarkResult struct {
	Performance float64 `json:"performance"`
	Benchmark   float64 `json:"benchmark"`
	Alpha       float64 `json:"alpha"`
	Beta        float64 `json:"beta"`
}

// IndicatorSet bundles all indicators for one series.
type IndicatorSet struct {
	SMA20      float64         `json:"sma20"`
	SMA50      float64         `json:"sma50"`
	EMA20      float64         `json:"ema20"`
	RSI        float64         `json:"rsi"`
	MACD       MACDResult      `json:"macd"`
	Bollinger  BollingerResult `json:"bollinger"`
	StdDev     float64         `json:"stdDev"`
	VIX        float64         `json:"vix"`
	Benchmark  BenchmarkResult `json:"benchmark"`
	DataPoints int             `json:"dataPoints"`
}

// ComputeAll evaluates the full indicator battery over the series.
func ComputeAll(series []models.FinancialMetrics) IndicatorSet {
	return IndicatorSet{
		SMA20:      SMA(series, 20),
		SMA50:      SMA(series, 50),
		EMA20:      EMA(series, 20),
		RSI:        RSI(series),
		MACD:       MACD(series),
		Bollinger:  BollingerBands(series, bollingerN, bollingerK),
		StdDev:     StandardDeviation(series, bollingerN),
		VIX:        VIXLike(series, bollingerN),
		Benchmark:  BenchmarkComparison(series, benchmarkN),
		DataPoints: len(series),
	}
}

// SMA is the arithmetic mean of closes over the last n entries, or all
// available if fewer. An empty series yields 0.
func SMA(series []models.FinancialMetrics, n int) float64 {
	if len(series) == 0 || n <= 0 {
		return 0
	}
	window := series
	if len(window) > n {
		window = window[len(window)-n:]
	}
	sum := 0.0
	for _, m := range window {
		sum += m.Close
	}
	return sum / float64(len(window))
}

// EMA seeds with the first close of the passed slice and applies the
// 2/(n+1) smoothing factor forward. A series shorter than n yields 0
// by convention.
func EMA(series []models.FinancialMetrics, n int) float64 {
	if len(series) < n || n <= 0 {
		return 0
	}
	k := 2.0 / (float64(n) + 1.0)
	ema := series[0].Close
	for _, m := range series[1:] {
		ema = m.Close*k + ema*(1-k)
	}
	return ema
}

// RSI is the fixed 14-period relative strength index. Fewer than 15
// points yield the neutral 50; zero average loss saturates to 100.
func RSI(series []models.FinancialMetrics) float64 {
	if len(series) < rsiPeriod+1 {
		return 50
	}
	window := series[len(series)-(rsiPeriod+1):]

	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i].Close - window[i-1].Close
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / rsiPeriod
	avgLoss := losses / rsiPeriod
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// MACD is EMA(12)-EMA(26) with a signal averaged over the MACD line
// recomputed at each of the trailing 9 points. Series shorter than the
// slow period yield an all-zero result.
func MACD(series []models.FinancialMetrics) MACDResult {
	if len(series) < macdSlow {
		return MACDResult{}
	}

	line := EMA(series, macdFast) - EMA(series, macdSlow)

	points := macdSignal
	if len(series) < points {
		points = len(series)
	}
	sum := 0.0
	for i := 0; i < points; i++ {
		sub := series[:len(series)-i]
		if len(sub) < macdSlow {
			break
		}
		sum += EMA(sub, macdFast) - EMA(sub, macdSlow)
	}
	signal := sum / float64(points)

	return MACDResult{
		MACD:      line,
		Signal:    signal,
		Histogram: line - signal,
	}
}

// BollingerBands puts a volatility envelope around SMA(n). The band
// offset derives from the percent-scaled standard deviation.
func BollingerBands(series []models.FinancialMetrics, n int, k float64) BollingerResult {
	middle := SMA(series, n)
	offset := StandardDeviation(series, n) / 100 * k
	return BollingerResult{
		Upper:  middle + offset,
		Middle: middle,
		Lower:  middle - offset,
	}
}

// StandardDeviation is the population standard deviation of the last n
// one-step percentage returns of close, expressed in percent. Fewer
// than 2 points yield 0.
func StandardDeviation(series []models.FinancialMetrics, n int) float64 {
	window := series
	if len(window) > n {
		window = window[len(window)-n:]
	}
	if len(window) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (window[i].Close-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * 100
}

// VIXLike annualizes the percent return deviation with the sqrt(252)
// trading-day scale, appropriate for daily-bucketed data.
func VIXLike(series []models.FinancialMetrics, n int) float64 {
	return StandardDeviation(series, n) * math.Sqrt(annualTradDays)
}

// BenchmarkComparison reports trailing total return against a
// deterministic synthetic benchmark at 80% of the asset's return with
// a fixed beta. Fewer than n points yield an all-zero result.
func BenchmarkComparison(series []models.FinancialMetrics, n int) BenchmarkResult {
	if len(series) < n || n <= 0 {
		return BenchmarkResult{}
	}
	window := series[len(series)-n:]
	first := window[0].Close
	last := window[len(window)-1].Close
	if first == 0 {
		return BenchmarkResult{}
	}

	totalReturn := (last - first) / first * 100
	benchmark := totalReturn * benchmarkRatio
	return BenchmarkResult{
		Performance: totalReturn,
		Benchmark:   benchmark,
		Alpha:       totalReturn - benchmark,
		Beta:        benchmarkBeta,
	}
}
