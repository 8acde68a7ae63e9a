package models

import (
	"encoding/json"
	"strconv"
)

// Wire shapes for the exchange's REST and WebSocket payloads. Everything
// here is parsed once at the boundary and converted to the canonical
// types in market.go before any downstream logic sees it.

// RestTicker is the /ticker/24hr response shape with decimal strings.
type RestTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}

func (t RestTicker) Normalize() Ticker {
	return Ticker{
		Symbol:             t.Symbol,
		LastPrice:          parseDecimal(t.LastPrice),
		PriceChange:        parseDecimal(t.PriceChange),
		PriceChangePercent: parseDecimal(t.PriceChangePercent),
		HighPrice:          parseDecimal(t.HighPrice),
		LowPrice:           parseDecimal(t.LowPrice),
		Volume:             parseDecimal(t.Volume),
		QuoteVolume:        parseDecimal(t.QuoteVolume),
	}
}

// RestDepth is the /depth snapshot response.
type RestDepth struct {
	LastUpdateID int64        `json:"lastUpdateId"`
	Bids         []PriceLevel `json:"bids"`
	Asks         []PriceLevel `json:"asks"`
}

// RestKline is one positional /klines row:
// [openTime, open, high, low, close, volume, closeTime, ...].
type RestKline []json.RawMessage

// Parse converts a positional kline row into a Kline. Returns false if
// the row is too short or a field does not parse.
func (r RestKline) Parse() (Kline, bool) {
	if len(r) < 7 {
		return Kline{}, false
	}
	var k Kline
	if err := json.Unmarshal(r[0], &k.OpenTime); err != nil {
		return Kline{}, false
	}
	if err := json.Unmarshal(r[6], &k.CloseTime); err != nil {
		return Kline{}, false
	}
	fields := []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, dst := range fields {
		var s string
		if err := json.Unmarshal(r[i+1], &s); err != nil {
			return Kline{}, false
		}
		*dst = parseDecimal(s)
	}
	return k, true
}

// StreamEnvelope wraps combined-stream frames: {stream, data}.
type StreamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// ControlFrame is the combined-stream subscribe/unsubscribe request.
type ControlFrame struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// EventHeader carries the common discriminator fields of stream events.
type EventHeader struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
}

// DepthUpdateEvent is a depthUpdate diff frame.
type DepthUpdateEvent struct {
	Event         string       `json:"e"`
	EventTime     int64        `json:"E"`
	Symbol        string       `json:"s"`
	FirstUpdateID int64        `json:"U"`
	FinalUpdateID int64        `json:"u"`
	Bids          []PriceLevel `json:"b"`
	Asks          []PriceLevel `json:"a"`
}

// WSTicker is the compact-key 24hrTicker stream payload.
type WSTicker struct {
	Event              string `json:"e"`
	Symbol             string `json:"s"`
	LastPrice          string `json:"c"`
	PriceChange        string `json:"p"`
	PriceChangePercent string `json:"P"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
	Volume             string `json:"v"`
	QuoteVolume        string `json:"q"`
}

func (t WSTicker) Normalize() Ticker {
	return Ticker{
		Symbol:             t.Symbol,
		LastPrice:          parseDecimal(t.LastPrice),
		PriceChange:        parseDecimal(t.PriceChange),
		PriceChangePercent: parseDecimal(t.PriceChangePercent),
		HighPrice:          parseDecimal(t.HighPrice),
		LowPrice:           parseDecimal(t.LowPrice),
		Volume:             parseDecimal(t.Volume),
		QuoteVolume:        parseDecimal(t.QuoteVolume),
	}
}

// KlineEvent is a kline stream frame; the candle itself nests under "k".
type KlineEvent struct {
	Event   string        `json:"e"`
	Symbol  string        `json:"s"`
	Candle  KlinePayload  `json:"k"`
}

// KlinePayload is the nested candle of a kline stream frame.
type KlinePayload struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

func (p KlinePayload) Kline() Kline {
	return Kline{
		OpenTime:  p.OpenTime,
		CloseTime: p.CloseTime,
		Open:      parseDecimal(p.Open),
		High:      parseDecimal(p.High),
		Low:       parseDecimal(p.Low),
		Close:     parseDecimal(p.Close),
		Volume:    parseDecimal(p.Volume),
	}
}

func parseDecimal(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
