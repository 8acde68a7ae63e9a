package usecase

import (
	"context"
	"testing"
	"time"

	"MarketCal/internal/calendar"
	"MarketCal/internal/domain/models"
	"MarketCal/internal/pattern"
	"MarketCal/pkg/cache"
)

func calendarFixture(t *testing.T, klines []models.Kline) (*CalendarUsecase, *fakeSource) {
	t.Helper()
	source := &fakeSource{
		klines: map[string][]models.Kline{"BTCUSDT": klines},
	}
	log := testLogger(t)
	uc := NewCalendarUsecase(
		source,
		calendar.NewAggregatorAt(func() time.Time {
			return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
		}),
		pattern.NewRunner(log, false, 0),
		cache.NewMemoryCache(),
		time.Minute,
		log,
	)
	return uc, source
}

func marchKlines(days int) []models.Kline {
	out := make([]models.Kline, 0, days)
	for i := 0; i < days; i++ {
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		open := 100.0 + float64(i)
		out = append(out, models.Kline{
			OpenTime:  day.UnixMilli(),
			CloseTime: day.Add(24*time.Hour).UnixMilli() - 1,
			Open:      open, High: open + 5, Low: open - 5, Close: open + 1, Volume: 10,
		})
	}
	return out
}

func TestGetCalendarDaily(t *testing.T) {
	uc, _ := calendarFixture(t, marchKlines(5))

	series, err := uc.GetCalendar(context.Background(), models.CalendarRequest{
		Symbol: "BTCUSDT", Timeframe: "daily", Limit: 5,
	})
	if err != nil {
		t.Fatalf("get calendar: %v", err)
	}
	if len(series) != 5 {
		t.Fatalf("got %d buckets, want 5", len(series))
	}
	if series[0].Date != "2024-03-01" || series[4].Date != "2024-03-05" {
		t.Fatalf("unexpected bucket range: %s .. %s", series[0].Date, series[4].Date)
	}
}

func TestGetCalendarUsesCache(t *testing.T) {
	uc, source := calendarFixture(t, marchKlines(5))
	req := models.CalendarRequest{Symbol: "BTCUSDT", Timeframe: "daily", Limit: 5}

	if _, err := uc.GetCalendar(context.Background(), req); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := uc.GetCalendar(context.Background(), req); err != nil {
		t.Fatalf("second read: %v", err)
	}

	fetches := 0
	for _, c := range source.calls {
		if c == "klines:BTCUSDT" {
			fetches++
		}
	}
	if fetches != 1 {
		t.Fatalf("upstream fetched %d times, want 1", fetches)
	}
}

func TestRefreshInvalidatesCache(t *testing.T) {
	uc, source := calendarFixture(t, marchKlines(5))
	req := models.CalendarRequest{Symbol: "BTCUSDT", Timeframe: "daily", Limit: 5}
	ctx := context.Background()

	if _, err := uc.GetCalendar(ctx, req); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if err := uc.Refresh(ctx, "BTCUSDT"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := uc.GetCalendar(ctx, req); err != nil {
		t.Fatalf("read after refresh: %v", err)
	}

	fetches := 0
	for _, c := range source.calls {
		if c == "klines:BTCUSDT" {
			fetches++
		}
	}
	if fetches != 2 {
		t.Fatalf("upstream fetched %d times after refresh, want 2", fetches)
	}
}

func TestGetCalendarDateRangeFilter(t *testing.T) {
	uc, _ := calendarFixture(t, marchKlines(10))

	series, err := uc.GetCalendar(context.Background(), models.CalendarRequest{
		Symbol: "BTCUSDT", Timeframe: "daily", Limit: 10,
		From: "2024-03-03", To: "2024-03-05",
	})
	if err != nil {
		t.Fatalf("get calendar: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("got %d buckets in range, want 3", len(series))
	}
	if series[0].Date != "2024-03-03" || series[2].Date != "2024-03-05" {
		t.Fatalf("range filter wrong: %s .. %s", series[0].Date, series[2].Date)
	}
}

func TestMonthlyDerivesFromDaily(t *testing.T) {
	uc, _ := calendarFixture(t, marchKlines(10))

	series, err := uc.GetCalendar(context.Background(), models.CalendarRequest{
		Symbol: "BTCUSDT", Timeframe: "monthly", Limit: 10,
	})
	if err != nil {
		t.Fatalf("get calendar: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("got %d monthly buckets, want 1", len(series))
	}
	m := series[0]
	if m.Date != "2024-03" {
		t.Fatalf("month key = %s", m.Date)
	}
	if m.Open != 100 || m.Close != 110 || m.DaysCount != 10 {
		t.Fatalf("monthly OHLC wrong: %+v", m)
	}
}

func TestGetSummary(t *testing.T) {
	uc, _ := calendarFixture(t, marchKlines(5))

	summary, err := uc.GetSummary(context.Background(), models.CalendarRequest{
		Symbol: "BTCUSDT", Timeframe: "daily", Limit: 5,
	})
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.Buckets != 5 || summary.TotalVolume != 50 {
		t.Fatalf("summary wrong: %+v", summary)
	}
}

func TestGetIndicatorsShortSeries(t *testing.T) {
	uc, _ := calendarFixture(t, marchKlines(5))

	set, err := uc.GetIndicators(context.Background(), models.IndicatorsRequest{
		Symbol: "BTCUSDT", Timeframe: "daily", Limit: 5,
	})
	if err != nil {
		t.Fatalf("get indicators: %v", err)
	}
	if set.DataPoints != 5 {
		t.Fatalf("data points = %d, want 5", set.DataPoints)
	}
	if set.RSI != 50 {
		t.Fatalf("short-series RSI = %v, want neutral 50", set.RSI)
	}
}

func TestGetPatternsShortSeries(t *testing.T) {
	uc, _ := calendarFixture(t, marchKlines(5))

	res, err := uc.GetPatterns(context.Background(), models.PatternsRequest{
		Symbol: "BTCUSDT", Timeframe: "daily", Limit: 5,
	})
	if err != nil {
		t.Fatalf("get patterns: %v", err)
	}
	if res.Patterns == nil || len(res.Patterns) != 0 {
		t.Fatalf("short series should yield empty pattern set, got %v", res.Patterns)
	}
}

func TestLatestBucket(t *testing.T) {
	uc, _ := calendarFixture(t, marchKlines(3))
	ctx := context.Background()

	m, ok, err := uc.LatestBucket(ctx, "BTCUSDT", models.TimeframeDaily, 3)
	if err != nil || !ok {
		t.Fatalf("latest bucket: ok=%v err=%v", ok, err)
	}
	if m.Date != "2024-03-03" {
		t.Fatalf("latest bucket = %s", m.Date)
	}

	empty, _ := calendarFixture(t, nil)
	_, ok, err = empty.LatestBucket(ctx, "BTCUSDT", models.TimeframeDaily, 3)
	if err != nil {
		t.Fatalf("latest bucket on empty: %v", err)
	}
	if ok {
		t.Fatal("empty series reported a latest bucket")
	}
}
