package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"MarketCal/internal/domain/models"
	drepo "MarketCal/internal/domain/repository"
	"MarketCal/internal/service/metrics"
	"MarketCal/pkg/logger"

	"github.com/gorilla/websocket"
)

const defaultReconnectDelay = 5 * time.Second

// Session is one live WebSocket subscription. In combined mode it keeps
// a single socket open and switches symbols with subscribe/unsubscribe
// control frames; in single-channel mode the channel is baked into the
// connection path, so a symbol switch closes and redials.
type Session struct {
	baseURL        string
	channels       []string
	combined       bool
	reconnectDelay time.Duration
	log            *logger.Logger
	dial           func(ctx context.Context, url string) (*websocket.Conn, error)

	mu        sync.Mutex
	conn      *websocket.Conn
	symbol    string
	status    drepo.ConnectionStatus
	closed    bool
	switching bool
	nextID    int64

	events chan drepo.StreamEvent
}

// SessionOption configures Session.
type SessionOption func(*Session)

// WithReconnectDelay sets the delay before the single reconnect attempt.
func WithReconnectDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.reconnectDelay = d }
}

// WithDialer overrides the websocket dial function.
func WithDialer(dial func(ctx context.Context, url string) (*websocket.Conn, error)) SessionOption {
	return func(s *Session) { s.dial = dial }
}

// OpenCombinedStream opens a combined-stream session subscribed to the
// given channels (e.g. "depth@100ms", "ticker", "kline_1d") for symbol.
func OpenCombinedStream(ctx context.Context, baseURL, symbol string, channels []string, log *logger.Logger, opts ...SessionOption) (*Session, error) {
	s := newSession(baseURL, symbol, channels, true, log, opts...)
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	go s.readLoop()
	return s, nil
}

// OpenDepthStream opens a single-channel depth diff session for symbol.
func OpenDepthStream(ctx context.Context, baseURL, symbol string, log *logger.Logger, opts ...SessionOption) (*Session, error) {
	s := newSession(baseURL, symbol, []string{"depth@100ms"}, false, log, opts...)
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	go s.readLoop()
	return s, nil
}

// OpenKlineStream opens a single-channel kline session for symbol.
func OpenKlineStream(ctx context.Context, baseURL, symbol, interval string, log *logger.Logger, opts ...SessionOption) (*Session, error) {
	s := newSession(baseURL, symbol, []string{"kline_" + interval}, false, log, opts...)
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	go s.readLoop()
	return s, nil
}

func newSession(baseURL, symbol string, channels []string, combined bool, log *logger.Logger, opts ...SessionOption) *Session {
	s := &Session{
		baseURL:        baseURL,
		channels:       channels,
		combined:       combined,
		reconnectDelay: defaultReconnectDelay,
		log:            log,
		symbol:         symbol,
		status:         drepo.StatusDisconnected,
		events:         make(chan drepo.StreamEvent, 256),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		s.dial = func(ctx context.Context, url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		}
	}
	return s
}

// Events returns the parsed event channel. It closes when the session
// ends for good.
func (s *Session) Events() <-chan drepo.StreamEvent { return s.events }

// Symbol returns the currently subscribed symbol.
func (s *Session) Symbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol
}

// Status returns the session's connection state.
func (s *Session) Status() drepo.ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ChangeSymbol switches the subscription to a new symbol. Combined
// sessions unsubscribe and resubscribe in place; single-channel
// sessions close and redial. Frames still tagged with the old symbol
// are discarded by the read loop.
func (s *Session) ChangeSymbol(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session closed")
	}
	if symbol == s.symbol {
		return nil
	}

	old := s.symbol
	s.symbol = symbol

	if !s.combined {
		// Channel is part of the path, redial on the new one. The read
		// loop sees the old conn die with switching set and redials
		// immediately for the current symbol.
		s.switching = true
		if s.conn != nil {
			_ = s.conn.Close()
		}
		return nil
	}

	if s.conn == nil {
		return fmt.Errorf("session not connected")
	}
	if err := s.writeControl("UNSUBSCRIBE", old); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", old, err)
	}
	if err := s.writeControl("SUBSCRIBE", symbol); err != nil {
		return fmt.Errorf("subscribe %s: %w", symbol, err)
	}
	s.log.Info("stream symbol changed",
		logger.String("from", old),
		logger.String("to", symbol))
	return nil
}

// CloseIntentionally closes the session and suppresses the reconnect.
func (s *Session) CloseIntentionally() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.status = drepo.StatusDisconnected
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Session) connect(ctx context.Context) error {
	s.mu.Lock()
	s.status = drepo.StatusConnecting
	url := s.endpointLocked()
	s.mu.Unlock()

	conn, err := s.dial(ctx, url)
	if err != nil {
		s.mu.Lock()
		s.status = drepo.StatusError
		s.mu.Unlock()
		return fmt.Errorf("stream connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.status = drepo.StatusConnected
	err = nil
	if s.combined {
		err = s.writeControl("SUBSCRIBE", s.symbol)
	}
	s.mu.Unlock()

	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("stream subscribe: %w", err)
	}
	return nil
}

func (s *Session) endpointLocked() string {
	if s.combined {
		return s.baseURL + "/stream"
	}
	return fmt.Sprintf("%s/ws/%s@%s", s.baseURL, strings.ToLower(s.symbol), s.channels[0])
}

func (s *Session) writeControl(method, symbol string) error {
	s.nextID++
	params := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		params = append(params, strings.ToLower(symbol)+"@"+ch)
	}
	return s.conn.WriteJSON(models.ControlFrame{
		Method: method,
		Params: params,
		ID:     s.nextID,
	})
}

func (s *Session) readLoop() {
	defer close(s.events)

	for {
		s.mu.Lock()
		conn := s.conn
		closed := s.closed
		s.mu.Unlock()

		if closed || conn == nil {
			return
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed = s.closed
			switching := s.switching
			s.switching = false
			s.mu.Unlock()
			if closed {
				return
			}
			if switching {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				err := s.connect(ctx)
				cancel()
				if err != nil {
					s.log.Error("stream redial after symbol change failed", logger.Error(err))
					s.mu.Lock()
					s.status = drepo.StatusError
					s.mu.Unlock()
					return
				}
				continue
			}
			if !s.reconnectOnce() {
				return
			}
			continue
		}

		s.handleFrame(frame)
	}
}

// reconnectOnce makes the single timed reconnect attempt after an
// unintentional close, resubscribing to whatever the current symbol is
// by then. Returns false when the session should end.
func (s *Session) reconnectOnce() bool {
	s.mu.Lock()
	s.status = drepo.StatusDisconnected
	s.conn = nil
	delay := s.reconnectDelay
	s.mu.Unlock()

	s.log.Warn("stream dropped, reconnecting", logger.Duration("delay_ms", delay))
	metrics.StreamReconnects.Inc()
	time.Sleep(delay)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.connect(ctx); err != nil {
		s.log.Error("stream reconnect failed", logger.Error(err))
		s.mu.Lock()
		s.status = drepo.StatusError
		s.mu.Unlock()
		return false
	}

	s.log.Info("stream reconnected", logger.String("symbol", s.Symbol()))
	return true
}

// handleFrame parses one raw frame and forwards it as a typed event.
// Malformed frames are dropped without surfacing an error; frames for a
// symbol other than the current one are discarded as stale.
func (s *Session) handleFrame(frame []byte) {
	payload := frame
	if s.combined {
		var env models.StreamEnvelope
		if err := json.Unmarshal(frame, &env); err != nil || len(env.Data) == 0 {
			metrics.StreamDropped.WithLabelValues("malformed").Inc()
			return
		}
		payload = env.Data
	}

	var header models.EventHeader
	if err := json.Unmarshal(payload, &header); err != nil || header.Event == "" {
		metrics.StreamDropped.WithLabelValues("malformed").Inc()
		return
	}

	if !strings.EqualFold(header.Symbol, s.Symbol()) {
		metrics.StreamDropped.WithLabelValues("stale_symbol").Inc()
		return
	}

	ev := drepo.StreamEvent{Symbol: header.Symbol}
	switch header.Event {
	case "depthUpdate":
		var d models.DepthUpdateEvent
		if err := json.Unmarshal(payload, &d); err != nil {
			metrics.StreamDropped.WithLabelValues("malformed").Inc()
			return
		}
		ev.Depth = &d
	case "24hrTicker":
		var t models.WSTicker
		if err := json.Unmarshal(payload, &t); err != nil {
			metrics.StreamDropped.WithLabelValues("malformed").Inc()
			return
		}
		normalized := t.Normalize()
		ev.Ticker = &normalized
		metrics.LastPrice.WithLabelValues(normalized.Symbol).Set(normalized.LastPrice)
	case "kline":
		var k models.KlineEvent
		if err := json.Unmarshal(payload, &k); err != nil {
			metrics.StreamDropped.WithLabelValues("malformed").Inc()
			return
		}
		ev.Kline = &k
	default:
		metrics.StreamDropped.WithLabelValues("unknown_event").Inc()
		return
	}

	metrics.StreamEvents.WithLabelValues(header.Event).Inc()
	select {
	case s.events <- ev:
	default:
		// drop on backpressure
		metrics.StreamDropped.WithLabelValues("backpressure").Inc()
	}
}
