package usecase

import (
	"context"
	"sync"
	"time"

	"MarketCal/internal/calendar"
	"MarketCal/internal/domain/models"
	domrepo "MarketCal/internal/domain/repository"
	"MarketCal/internal/orderbook"
	"MarketCal/internal/service/binance"
	"MarketCal/pkg/logger"
	"MarketCal/pkg/util"
)

// LiveSession owns one symbol's live state: the order-book replica,
// the latest ticker, and the live-patched daily series. It is the
// single consumer of its stream session, so events apply in arrival
// order; a symbol switch retargets the stream first, then reseeds
// baseline state, so diffs for the old symbol cannot be misattributed.
type LiveSession struct {
	source domrepo.MarketDataSource
	stream domrepo.StreamSession
	log    *logger.Logger

	replica *orderbook.Replica
	depth   int
	history int

	mu     sync.RWMutex
	symbol string
	ticker models.Ticker
	series []models.FinancialMetrics

	done chan struct{}
}

// NewLiveSession wires a live session over an open stream.
func NewLiveSession(source domrepo.MarketDataSource, stream domrepo.StreamSession, symbol string, depth, history int, log *logger.Logger) *LiveSession {
	if depth <= 0 {
		depth = 100
	}
	if history <= 0 {
		history = 90
	}
	return &LiveSession{
		source:  source,
		stream:  stream,
		log:     log,
		replica: orderbook.New(symbol),
		depth:   depth,
		history: history,
		symbol:  symbol,
		done:    make(chan struct{}),
	}
}

// tickerRefreshInterval is the period of the REST ticker fallback that
// covers gaps between stream ticker frames.
const tickerRefreshInterval = 30 * time.Second

// Start seeds baseline state and begins consuming stream events.
func (s *LiveSession) Start(ctx context.Context) error {
	if err := s.reseed(ctx, s.symbol); err != nil {
		return err
	}
	go s.consume()
	go s.refreshTicker(ctx)
	return nil
}

// Close ends the session and its stream.
func (s *LiveSession) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	return s.stream.CloseIntentionally()
}

// ChangeSymbol switches the live subscription. The stream resubscribes
// first so symbol assignment precedes the snapshot fetch; the replica
// is cleared and reseeded for the new symbol.
func (s *LiveSession) ChangeSymbol(ctx context.Context, symbol string) error {
	s.mu.Lock()
	if symbol == s.symbol {
		s.mu.Unlock()
		return nil
	}
	s.symbol = symbol
	s.mu.Unlock()

	if err := s.stream.ChangeSymbol(ctx, symbol); err != nil {
		return err
	}
	s.replica.Switch(symbol)
	return s.reseed(ctx, symbol)
}

// Symbol returns the currently tracked symbol.
func (s *LiveSession) Symbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol
}

// Status reports the stream connection state.
func (s *LiveSession) Status() domrepo.ConnectionStatus {
	return s.stream.Status()
}

// OrderBook returns a copy of the current replica.
func (s *LiveSession) OrderBook() models.OrderBook {
	return s.replica.Snapshot()
}

// BookStats summarizes the replica for presentation.
type BookStats struct {
	MidPrice        float64 `json:"midPrice"`
	Spread          float64 `json:"spread"`
	BidDepthPercent float64 `json:"bidDepthPercent"`
}

// Stats derives presentation numbers from the replica, tolerant of an
// empty book.
func (s *LiveSession) Stats() BookStats {
	return BookStats{
		MidPrice:        s.replica.MidPrice(),
		Spread:          s.replica.Spread(),
		BidDepthPercent: s.replica.BidDepthPercent(),
	}
}

// Ticker returns the latest normalized ticker snapshot.
func (s *LiveSession) Ticker() models.Ticker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticker
}

// Series returns a copy of the live-patched daily series.
func (s *LiveSession) Series() []models.FinancialMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FinancialMetrics, len(s.series))
	copy(out, s.series)
	return out
}

// reseed fetches the snapshot and daily history for the symbol. The
// two fetches are independent of in-flight diffs; the replica's own
// symbol guard keeps stale data out.
func (s *LiveSession) reseed(ctx context.Context, symbol string) error {
	book, err := s.source.FetchOrderBook(ctx, symbol, s.depth)
	if err != nil {
		return err
	}
	s.replica.Seed(book)

	klines, err := s.source.FetchKlineHistory(ctx, symbol, models.TimeframeDaily.Interval(), s.history)
	if err != nil {
		return err
	}
	series := binance.ToFinancialMetrics(klines, models.TimeframeDaily.Interval())

	s.mu.Lock()
	s.series = series
	s.mu.Unlock()

	s.log.Info("live session seeded",
		logger.String("symbol", symbol),
		logger.Int("book_levels", len(book.Bids)+len(book.Asks)),
		logger.Int("series_len", len(series)))
	return nil
}

func (s *LiveSession) refreshTicker(ctx context.Context) {
	t := time.NewTicker(tickerRefreshInterval)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			symbol := s.Symbol()
			ticker, err := s.source.FetchTicker(ctx, symbol)
			if err != nil {
				s.log.Debug("ticker refresh failed", logger.Error(err))
				continue
			}
			s.mu.Lock()
			if ticker.Symbol == s.symbol {
				s.ticker = *ticker
			}
			s.mu.Unlock()
		}
	}
}

func (s *LiveSession) consume() {
	events := s.stream.Events()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handle(ev)
		}
	}
}

func (s *LiveSession) handle(ev domrepo.StreamEvent) {
	switch {
	case ev.Depth != nil:
		s.replica.ApplyDiff(ev.Depth)
	case ev.Ticker != nil:
		s.mu.Lock()
		if ev.Ticker.Symbol == s.symbol {
			s.ticker = *ev.Ticker
		}
		s.mu.Unlock()
	case ev.Kline != nil:
		s.patchBucket(ev.Kline)
	}
}

// patchBucket applies a live kline update to the current bucket by
// exact date-key match. Updates with no matching bucket are dropped
// rather than appended.
func (s *LiveSession) patchBucket(ev *models.KlineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Symbol != s.symbol {
		return
	}

	k := ev.Candle.Kline()
	key := util.DayKey(time.UnixMilli(k.OpenTime).UTC())
	update := calendar.MetricsFromKline(key, k)
	if !calendar.PatchLatest(s.series, update) {
		s.log.Debug("kline update for unknown bucket dropped",
			logger.String("symbol", ev.Symbol),
			logger.String("bucket", key))
	}
}
