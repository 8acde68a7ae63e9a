package binance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"MarketCal/internal/domain/models"
	"MarketCal/internal/service/metrics"
	"MarketCal/internal/service/ratelimit"
	xhttp "MarketCal/pkg/http"
	"MarketCal/pkg/logger"
	"MarketCal/pkg/util"
)

const (
	defaultPageSize = 1000
	defaultTimeout  = 15 * time.Second
)

// ClientOption configures Client.
type ClientOption func(*Client)

// Client is a typed REST client for the exchange's public market-data
// endpoints.
type Client struct {
	baseURL  string
	http     *xhttp.Client
	limiter  *ratelimit.Limiter
	log      *logger.Logger
	pageSize int
	rps      float64
}

// NewClient creates a REST client for the given API base URL.
func NewClient(baseURL string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  baseURL,
		log:      log,
		limiter:  ratelimit.New(),
		pageSize: defaultPageSize,
		rps:      10,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(defaultTimeout))
	}
	return c
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *xhttp.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithPageSize sets the per-call kline row cap.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRequestsPerSec sets the client-side request rate cap.
func WithRequestsPerSec(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.rps = float64(n)
		}
	}
}

// FetchOrderBook fetches a depth snapshot for the symbol.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	var raw models.RestDepth
	err := c.get(ctx, "depth", map[string][]string{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(depth)},
	}, &raw)
	if err != nil {
		return nil, err
	}

	book := &models.OrderBook{
		Symbol:       symbol,
		Bids:         raw.Bids,
		Asks:         raw.Asks,
		LastUpdateID: raw.LastUpdateID,
	}
	return book, nil
}

// FetchTicker fetches the 24h ticker snapshot for the symbol.
func (c *Client) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var raw models.RestTicker
	err := c.get(ctx, "ticker/24hr", map[string][]string{
		"symbol": {symbol},
	}, &raw)
	if err != nil {
		return nil, err
	}
	t := raw.Normalize()
	return &t, nil
}

// FetchKlineHistory fetches up to targetCount candles, oldest first.
// The upstream caps each call at the page size, so pages are fetched
// newest-first with an exclusive end-time cursor set just before the
// earliest open time seen so far, and prepended until the target is
// met or history is exhausted.
func (c *Client) FetchKlineHistory(ctx context.Context, symbol, interval string, targetCount int) ([]models.Kline, error) {
	if targetCount <= 0 {
		return nil, nil
	}

	var collected []models.Kline
	var endTime int64

	for len(collected) < targetCount {
		limit := targetCount - len(collected)
		if limit > c.pageSize {
			limit = c.pageSize
		}

		params := map[string][]string{
			"symbol":   {symbol},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		}
		if endTime > 0 {
			params["endTime"] = []string{strconv.FormatInt(endTime, 10)}
		}

		var rows []models.RestKline
		if err := c.get(ctx, "klines", params, &rows); err != nil {
			return nil, err
		}

		page := make([]models.Kline, 0, len(rows))
		for _, row := range rows {
			k, ok := row.Parse()
			if !ok {
				c.log.Warn("dropping malformed kline row", logger.String("symbol", symbol))
				continue
			}
			page = append(page, k)
		}

		if len(page) == 0 {
			break
		}

		collected = append(page, collected...)
		endTime = page[0].OpenTime - 1

		if len(rows) < limit {
			break
		}
	}

	if len(collected) > targetCount {
		collected = collected[len(collected)-targetCount:]
	}
	return collected, nil
}

// ToFinancialMetrics maps candles to calendar buckets, deriving
// performance, volatility, and a liquidity proxy, and keying each
// bucket by the interval's date-key format.
func ToFinancialMetrics(klines []models.Kline, interval string) []models.FinancialMetrics {
	out := make([]models.FinancialMetrics, 0, len(klines))
	for _, k := range klines {
		m := models.FinancialMetrics{
			Date:   bucketKey(k.OpenTime, interval),
			Open:   k.Open,
			High:   k.High,
			Low:    k.Low,
			Close:  k.Close,
			Volume: k.Volume,
		}
		if k.Open != 0 {
			m.Performance = (k.Close - k.Open) / k.Open * 100
			m.Volatility = (k.High - k.Low) / k.Open * 100
		}
		m.Liquidity = k.Volume*0.7 + k.Volume*(1-m.Volatility/100)*0.3
		if m.Liquidity < 0 {
			m.Liquidity = 0
		}
		out = append(out, m)
	}
	return out
}

func bucketKey(openTimeMs int64, interval string) string {
	t := time.UnixMilli(openTimeMs).UTC()
	switch interval {
	case "1w":
		return util.WeekKey(t)
	case "1M":
		return util.MonthKey(t)
	default:
		return util.DayKey(t)
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string][]string, dest interface{}) error {
	if err := c.waitForSlot(ctx, endpoint); err != nil {
		return err
	}

	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/%s", c.baseURL, endpoint),
		QueryParams: params,
	}, dest)
	metrics.RestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RestRequests.WithLabelValues(endpoint, "error").Inc()
		if isTimeout(err) {
			return xhttp.TimeoutError(fmt.Sprintf("%s request timed out", endpoint)).WithError(err)
		}
		return xhttp.NetworkError(fmt.Sprintf("%s request failed", endpoint)).WithError(err)
	}

	metrics.RestRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

func (c *Client) waitForSlot(ctx context.Context, endpoint string) error {
	for !c.limiter.Allow("rest:"+endpoint, c.rps, c.rps) {
		select {
		case <-ctx.Done():
			return xhttp.TimeoutError("request cancelled while rate limited").WithError(ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
