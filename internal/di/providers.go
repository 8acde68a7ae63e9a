package di

import (
	"context"
	"fmt"
	"net"
	"strconv"

	domrepo "MarketCal/internal/domain/repository"
	"MarketCal/internal/calendar"
	"MarketCal/internal/handler/api"
	"MarketCal/internal/pattern"
	internalrepo "MarketCal/internal/repository"
	"MarketCal/internal/service/binance"
	"MarketCal/internal/usecase"
	"MarketCal/pkg/cache"
	"MarketCal/pkg/config"
	xhttp "MarketCal/pkg/http"
	"MarketCal/pkg/logger"
	"MarketCal/pkg/server"
)

// streamChannels are the combined-stream channels every live session
// subscribes to per symbol.
var streamChannels = []string{"depth@100ms", "ticker", "kline_1d"}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideCache creates the configured cache backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("cache.redis.addr: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("cache.redis.addr port: %w", err)
		}
		return cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
	}

	opts := []cache.MemoryOption{}
	if cfg.Cache.MaxItems > 0 {
		opts = append(opts, cache.WithMemoryMaxSize(cfg.Cache.MaxItems))
	}
	return cache.NewMemoryCache(opts...), nil
}

// ProvideMarketDataSource creates the exchange REST client.
func ProvideMarketDataSource(cfg *config.Config, log *logger.Logger) domrepo.MarketDataSource {
	return binance.NewClient(cfg.Binance.RestURL, log,
		binance.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Binance.RequestTimeout))),
		binance.WithPageSize(cfg.Binance.KlinePageSize),
		binance.WithRequestsPerSec(cfg.Binance.RequestsPerSec),
	)
}

// ProvideStreamSession opens the combined WebSocket stream for the
// default symbol.
func ProvideStreamSession(cfg *config.Config, log *logger.Logger) (domrepo.StreamSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Binance.RequestTimeout)
	defer cancel()

	return binance.OpenCombinedStream(ctx,
		cfg.Binance.WebSocketURL,
		cfg.Binance.DefaultSymbol,
		streamChannels,
		log,
		binance.WithReconnectDelay(cfg.Binance.ReconnectDelay),
	)
}

// ProvideLiveSession wires the live session over source and stream.
func ProvideLiveSession(
	cfg *config.Config,
	source domrepo.MarketDataSource,
	stream domrepo.StreamSession,
	log *logger.Logger,
) *usecase.LiveSession {
	return usecase.NewLiveSession(source, stream, cfg.Binance.DefaultSymbol, cfg.Binance.DepthLimit, 90, log)
}

// ProvidePatternRunner creates the pattern-detection runner.
func ProvidePatternRunner(cfg *config.Config, log *logger.Logger) *pattern.Runner {
	return pattern.NewRunner(log, cfg.Patterns.Background, cfg.Patterns.QueueSize)
}

// ProvideCalendarUsecase wires the calendar aggregation pipeline.
func ProvideCalendarUsecase(
	cfg *config.Config,
	source domrepo.MarketDataSource,
	runner *pattern.Runner,
	c cache.Service,
	log *logger.Logger,
) *usecase.CalendarUsecase {
	return usecase.NewCalendarUsecase(source, calendar.NewAggregator(), runner, c, cfg.Cache.TTL, log)
}

// ProvideAlertUsecase wires alert rules over the cache-backed store.
func ProvideAlertUsecase(c cache.Service, cal *usecase.CalendarUsecase, log *logger.Logger) *usecase.AlertUsecase {
	return usecase.NewAlertUsecase(internalrepo.NewAlertStore(c), cal, log)
}

// ProvideHTTPHandler assembles the API router.
func ProvideHTTPHandler(
	log *logger.Logger,
	cal *usecase.CalendarUsecase,
	live *usecase.LiveSession,
	source domrepo.MarketDataSource,
	alerts *usecase.AlertUsecase,
) xhttp.Handler {
	return api.NewRouter(
		api.NewDashboardEchoHandler(log, cal, live, source),
		api.NewAlertsEchoHandler(log, alerts),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	live *usecase.LiveSession,
	runner *pattern.Runner,
	c cache.Service,
) *server.App {
	return server.New(cfg, log, handler, live, runner, c)
}
