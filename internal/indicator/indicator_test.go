package indicator

import (
	"math"
	"testing"

	"MarketCal/internal/domain/models"
)

func closes(values ...float64) []models.FinancialMetrics {
	out := make([]models.FinancialMetrics, len(values))
	for i, v := range values {
		out[i] = models.FinancialMetrics{Close: v}
	}
	return out
}

func approx(t *testing.T, got, want, tol float64, what string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %f, want %f", what, got, want)
	}
}

func TestSMA(t *testing.T) {
	if v := SMA(nil, 5); v != 0 {
		t.Fatalf("SMA(nil) = %f", v)
	}
	approx(t, SMA(closes(1, 2, 3, 4), 2), 3.5, 1e-9, "SMA window")
	// Fewer entries than the window: average everything.
	approx(t, SMA(closes(1, 2, 3), 10), 2, 1e-9, "SMA short series")
}

func TestEMA(t *testing.T) {
	if v := EMA(closes(1, 2), 5); v != 0 {
		t.Fatalf("EMA below period = %f", v)
	}
	// Seeded with the first close, k = 2/(3+1) = 0.5.
	// 1 -> 0.5*2+0.5*1=1.5 -> 0.5*3+0.5*1.5=2.25
	approx(t, EMA(closes(1, 2, 3), 3), 2.25, 1e-9, "EMA")
	// Constant series converges to the constant.
	approx(t, EMA(closes(5, 5, 5, 5, 5), 3), 5, 1e-9, "EMA constant")
}

func TestRSINeutralAndSaturated(t *testing.T) {
	if v := RSI(nil); v != 50 {
		t.Fatalf("RSI(empty) = %f, want 50", v)
	}
	if v := RSI(closes(1, 2, 3)); v != 50 {
		t.Fatalf("RSI(short) = %f, want 50", v)
	}

	// 15 strictly rising closes: no losses, saturates at 100.
	rising := make([]float64, 15)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	if v := RSI(closes(rising...)); v != 100 {
		t.Fatalf("RSI(all gains) = %f, want 100", v)
	}

	// Alternating equal gains and losses centers near 50.
	alt := make([]float64, 16)
	for i := range alt {
		if i%2 == 0 {
			alt[i] = 100
		} else {
			alt[i] = 101
		}
	}
	v := RSI(closes(alt...))
	if v < 40 || v > 60 {
		t.Fatalf("RSI(alternating) = %f, want near 50", v)
	}
}

func TestMACDDegenerate(t *testing.T) {
	got := MACD(closes(1, 2, 3))
	if got.MACD != 0 || got.Signal != 0 || got.Histogram != 0 {
		t.Fatalf("MACD below slow period = %+v", got)
	}

	series := make([]float64, 40)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	r := MACD(closes(series...))
	if r.MACD <= 0 {
		t.Fatalf("MACD on uptrend should be positive, got %f", r.MACD)
	}
	approx(t, r.Histogram, r.MACD-r.Signal, 1e-9, "histogram")
}

func TestStandardDeviation(t *testing.T) {
	if v := StandardDeviation(nil, 20); v != 0 {
		t.Fatalf("StdDev(empty) = %f", v)
	}
	if v := StandardDeviation(closes(100), 20); v != 0 {
		t.Fatalf("StdDev(single) = %f", v)
	}
	// Constant series: zero returns, zero deviation.
	if v := StandardDeviation(closes(100, 100, 100, 100), 20); v != 0 {
		t.Fatalf("StdDev(constant) = %f", v)
	}
	// 100 -> 110 -> 99: returns +10% and -10%, mean 0, std 10%.
	approx(t, StandardDeviation(closes(100, 110, 99), 20), 10, 1e-9, "StdDev")
}

func TestVIXLikeScaling(t *testing.T) {
	series := closes(100, 110, 99)
	approx(t, VIXLike(series, 20), StandardDeviation(series, 20)*math.Sqrt(252), 1e-9, "VIX scale")
}

func TestBollingerBands(t *testing.T) {
	series := closes(100, 110, 99)
	b := BollingerBands(series, 20, 2)
	mid := SMA(series, 20)
	offset := StandardDeviation(series, 20) / 100 * 2
	approx(t, b.Middle, mid, 1e-9, "bollinger middle")
	approx(t, b.Upper, mid+offset, 1e-9, "bollinger upper")
	approx(t, b.Lower, mid-offset, 1e-9, "bollinger lower")
}

func TestBenchmarkComparison(t *testing.T) {
	if r := BenchmarkComparison(closes(1, 2, 3), 30); r != (BenchmarkResult{}) {
		t.Fatalf("benchmark below window = %+v", r)
	}

	series := make([]float64, 30)
	for i := range series {
		series[i] = 100
	}
	series[0] = 100
	series[29] = 120
	r := BenchmarkComparison(closes(series...), 30)
	approx(t, r.Performance, 20, 1e-9, "total return")
	approx(t, r.Benchmark, 16, 1e-9, "benchmark return")
	approx(t, r.Alpha, 4, 1e-9, "alpha")
	if r.Beta != 1.2 {
		t.Fatalf("beta = %f", r.Beta)
	}

	// Deterministic: same input, same output.
	again := BenchmarkComparison(closes(series...), 30)
	if r != again {
		t.Fatalf("benchmark not deterministic: %+v vs %+v", r, again)
	}
}

func TestComputeAllOnShortSeries(t *testing.T) {
	set := ComputeAll(nil)
	if set.RSI != 50 || set.SMA20 != 0 || set.DataPoints != 0 {
		t.Fatalf("ComputeAll(empty) = %+v", set)
	}
}
