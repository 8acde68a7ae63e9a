package repository

import (
	"context"

	"MarketCal/internal/domain/models"
)

// MarketDataSource provides REST access to exchange market data.
type MarketDataSource interface {
	FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error)
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	FetchKlineHistory(ctx context.Context, symbol, interval string, targetCount int) ([]models.Kline, error)
}

// StreamEvent is one parsed frame delivered by a stream session.
type StreamEvent struct {
	Symbol string
	Depth  *models.DepthUpdateEvent
	Ticker *models.Ticker
	Kline  *models.KlineEvent
}

// StreamSession is one live WebSocket subscription. Events arrive on
// Events in frame order; the channel closes when the session ends.
type StreamSession interface {
	Events() <-chan StreamEvent
	ChangeSymbol(ctx context.Context, symbol string) error
	Symbol() string
	Status() ConnectionStatus
	CloseIntentionally() error
}

// ConnectionStatus is the lifecycle state of a stream session.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// AlertStore persists user-defined alert rules.
type AlertStore interface {
	Save(ctx context.Context, alert *models.Alert) error
	Get(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context) ([]models.Alert, error)
	Delete(ctx context.Context, id string) error
}
