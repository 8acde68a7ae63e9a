package models

import "strconv"

// FinancialMetrics is one calendar bucket of the aggregated series. The
// Date key is an ISO day (YYYY-MM-DD), a custom week (YYYY-Www), or a
// month (YYYY-MM) depending on the active timeframe.
type FinancialMetrics struct {
	Date        string  `json:"date"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	Volatility  float64 `json:"volatility"`
	Liquidity   float64 `json:"liquidity"`
	Performance float64 `json:"performance"`

	// Rollup fields, populated only by weekly/monthly aggregation.
	AvgDailyVolume    float64 `json:"avgDailyVolume,omitempty"`
	AvgDailyLiquidity float64 `json:"avgDailyLiquidity,omitempty"`
	VolatilityRange   float64 `json:"volatilityRange,omitempty"`
	DaysCount         int     `json:"daysCount,omitempty"`
}

// Kline is one OHLCV candle, times in unix milliseconds.
type Kline struct {
	OpenTime  int64
	CloseTime int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// PriceLevel is one order-book level in the exchange's wire shape:
// a [price, quantity] pair of decimal strings.
type PriceLevel [2]string

func (l PriceLevel) Price() float64 {
	v, _ := strconv.ParseFloat(l[0], 64)
	return v
}

func (l PriceLevel) Quantity() float64 {
	v, _ := strconv.ParseFloat(l[1], 64)
	return v
}

// OrderBook is a bounded local replica of one symbol's book.
// Bids are sorted descending by numeric price, asks ascending.
type OrderBook struct {
	Symbol       string       `json:"symbol"`
	Bids         []PriceLevel `json:"bids"`
	Asks         []PriceLevel `json:"asks"`
	LastUpdateID int64        `json:"lastUpdateId"`
}

// Ticker is the canonical 24h ticker snapshot. REST and WebSocket
// payloads are normalized into this one shape at the boundary.
type Ticker struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"lastPrice"`
	PriceChange        float64 `json:"priceChange"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quoteVolume"`
}

// Timeframe selects the calendar bucketing resolution.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// Interval returns the upstream kline interval for the timeframe.
func (t Timeframe) Interval() string {
	switch t {
	case TimeframeWeekly:
		return "1w"
	case TimeframeMonthly:
		return "1M"
	default:
		return "1d"
	}
}

func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return true
	}
	return false
}
