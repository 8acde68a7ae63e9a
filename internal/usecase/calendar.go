package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketCal/internal/calendar"
	"MarketCal/internal/domain/models"
	domrepo "MarketCal/internal/domain/repository"
	"MarketCal/internal/indicator"
	"MarketCal/internal/pattern"
	"MarketCal/internal/service/binance"
	"MarketCal/pkg/cache"
	"MarketCal/pkg/logger"
	"MarketCal/pkg/util"
)

// CalendarUsecase rebuilds the aggregated calendar series from kline
// history and serves the derived views (summary, indicators, patterns)
// over it. Series are cached per symbol/timeframe/limit and rebuilt
// wholesale on refresh.
type CalendarUsecase struct {
	source     domrepo.MarketDataSource
	aggregator *calendar.Aggregator
	runner     *pattern.Runner
	cache      cache.Service
	cacheTTL   time.Duration
	log        *logger.Logger
}

func NewCalendarUsecase(
	source domrepo.MarketDataSource,
	aggregator *calendar.Aggregator,
	runner *pattern.Runner,
	c cache.Service,
	cacheTTL time.Duration,
	log *logger.Logger,
) *CalendarUsecase {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &CalendarUsecase{
		source:     source,
		aggregator: aggregator,
		runner:     runner,
		cache:      c,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// GetCalendar returns the aggregated series for the request, applying
// the optional inclusive date-range filter.
func (u *CalendarUsecase) GetCalendar(ctx context.Context, req models.CalendarRequest) ([]models.FinancialMetrics, error) {
	tf := domrepo.NormalizeTimeframe(req.Timeframe)
	series, err := u.series(ctx, req.Symbol, tf, req.Limit)
	if err != nil {
		return nil, err
	}

	if req.From != "" || req.To != "" {
		start := util.ParseTimeDefault(req.From, time.Time{})
		end := util.ParseTimeDefault(req.To, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
		series = calendar.FilterByDateRange(series, start, end)
	}
	return series, nil
}

// GetSummary computes headline statistics over the aggregated series.
func (u *CalendarUsecase) GetSummary(ctx context.Context, req models.CalendarRequest) (calendar.Summary, error) {
	series, err := u.GetCalendar(ctx, req)
	if err != nil {
		return calendar.Summary{}, err
	}
	return calendar.Summarize(series), nil
}

// GetIndicators evaluates the indicator battery over the series.
func (u *CalendarUsecase) GetIndicators(ctx context.Context, req models.IndicatorsRequest) (indicator.IndicatorSet, error) {
	tf := domrepo.NormalizeTimeframe(req.Timeframe)
	series, err := u.series(ctx, req.Symbol, tf, req.Limit)
	if err != nil {
		return indicator.IndicatorSet{}, err
	}
	return indicator.ComputeAll(series), nil
}

// GetPatterns runs pattern detection over the series via the runner.
func (u *CalendarUsecase) GetPatterns(ctx context.Context, req models.PatternsRequest) (pattern.Result, error) {
	tf := domrepo.NormalizeTimeframe(req.Timeframe)
	series, err := u.series(ctx, req.Symbol, tf, req.Limit)
	if err != nil {
		return pattern.Result{}, err
	}
	return u.runner.Detect(ctx, series, tf)
}

// Refresh drops cached series for the symbol so the next read rebuilds
// from upstream.
func (u *CalendarUsecase) Refresh(ctx context.Context, symbol string) error {
	if err := u.cache.DeleteByPattern(ctx, "calendar:"+symbol+":*"); err != nil {
		return fmt.Errorf("invalidate calendar cache: %w", err)
	}
	u.log.Info("calendar cache invalidated", logger.String("symbol", symbol))
	return nil
}

// LatestBucket returns the newest bucket of the aggregated series, or
// false when the series is empty.
func (u *CalendarUsecase) LatestBucket(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.FinancialMetrics, bool, error) {
	series, err := u.series(ctx, symbol, tf, limit)
	if err != nil {
		return models.FinancialMetrics{}, false, err
	}
	if len(series) == 0 {
		return models.FinancialMetrics{}, false, nil
	}
	return series[len(series)-1], true, nil
}

// series fetches daily kline history, maps it to calendar buckets, and
// aggregates by the timeframe. Weekly and monthly series always derive
// from daily candles so the custom week numbering applies.
func (u *CalendarUsecase) series(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.FinancialMetrics, error) {
	if limit <= 0 {
		limit = 365
	}
	key := fmt.Sprintf("calendar:%s:%s:%d", symbol, tf, limit)

	var raw string
	if err := u.cache.Get(ctx, key, &raw); err == nil {
		var cached []models.FinancialMetrics
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
	}

	klines, err := u.source.FetchKlineHistory(ctx, symbol, models.TimeframeDaily.Interval(), limit)
	if err != nil {
		return nil, err
	}

	daily := binance.ToFinancialMetrics(klines, models.TimeframeDaily.Interval())
	series := u.aggregator.Aggregate(daily, tf)

	if encoded, err := json.Marshal(series); err == nil {
		if err := u.cache.Set(ctx, key, string(encoded), u.cacheTTL); err != nil {
			u.log.Warn("calendar cache write failed", logger.Error(err))
		}
	}
	return series, nil
}
