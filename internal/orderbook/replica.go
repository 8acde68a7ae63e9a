package orderbook

import (
	"sort"
	"strings"
	"sync"

	"MarketCal/internal/domain/models"
)

const defaultMaxDepth = 100

// Replica is a bounded local copy of one symbol's order book. It is
// seeded from a REST snapshot and mutated by stream diffs applied in
// arrival order. Diffs tagged with a symbol other than the current one
// are discarded, so frames from before a symbol switch cannot leak in.
type Replica struct {
	mu       sync.RWMutex
	symbol   string
	bids     []models.PriceLevel
	asks     []models.PriceLevel
	updateID int64
	maxDepth int
}

// New creates an empty replica for symbol.
func New(symbol string) *Replica {
	return &Replica{symbol: symbol, maxDepth: defaultMaxDepth}
}

// Symbol returns the symbol the replica currently tracks.
func (r *Replica) Symbol() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.symbol
}

// Switch clears the book and retargets the replica to a new symbol.
// The next snapshot seed repopulates it.
func (r *Replica) Switch(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbol = symbol
	r.bids = nil
	r.asks = nil
	r.updateID = 0
}

// Seed replaces the book wholesale from a REST snapshot. Snapshots for
// a different symbol are ignored.
func (r *Replica) Seed(book *models.OrderBook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !strings.EqualFold(book.Symbol, r.symbol) {
		return
	}
	r.bids = sortSide(dropZero(book.Bids), true)
	r.asks = sortSide(dropZero(book.Asks), false)
	r.truncate()
	r.updateID = book.LastUpdateID
}

// ApplyDiff applies one depth diff. Zero-quantity levels are removed,
// others upserted; both sides are re-sorted numerically and truncated.
// Returns false when the diff was discarded (stale symbol).
func (r *Replica) ApplyDiff(ev *models.DepthUpdateEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !strings.EqualFold(ev.Symbol, r.symbol) {
		return false
	}
	r.bids = applySide(r.bids, ev.Bids, true)
	r.asks = applySide(r.asks, ev.Asks, false)
	r.truncate()
	if ev.FinalUpdateID > r.updateID {
		r.updateID = ev.FinalUpdateID
	}
	return true
}

// Snapshot returns a copy of the current book.
func (r *Replica) Snapshot() models.OrderBook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	book := models.OrderBook{
		Symbol:       r.symbol,
		Bids:         make([]models.PriceLevel, len(r.bids)),
		Asks:         make([]models.PriceLevel, len(r.asks)),
		LastUpdateID: r.updateID,
	}
	copy(book.Bids, r.bids)
	copy(book.Asks, r.asks)
	return book
}

// MidPrice returns the midpoint of best bid and ask, 0 for an empty or
// one-sided book.
func (r *Replica) MidPrice() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.bids) == 0 || len(r.asks) == 0 {
		return 0
	}
	return (r.bids[0].Price() + r.asks[0].Price()) / 2
}

// Spread returns the best-ask minus best-bid, 0 for an empty book.
func (r *Replica) Spread() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.bids) == 0 || len(r.asks) == 0 {
		return 0
	}
	return r.asks[0].Price() - r.bids[0].Price()
}

// BidDepthPercent returns the bid share of total resting quantity as a
// percentage, 0 for an empty book.
func (r *Replica) BidDepthPercent() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bidQty := totalQuantity(r.bids)
	askQty := totalQuantity(r.asks)
	total := bidQty + askQty
	if total == 0 {
		return 0
	}
	return bidQty / total * 100
}

func (r *Replica) truncate() {
	if len(r.bids) > r.maxDepth {
		r.bids = r.bids[:r.maxDepth]
	}
	if len(r.asks) > r.maxDepth {
		r.asks = r.asks[:r.maxDepth]
	}
}

func applySide(levels, diffs []models.PriceLevel, descending bool) []models.PriceLevel {
	if len(diffs) == 0 {
		return levels
	}

	byPrice := make(map[float64]models.PriceLevel, len(levels)+len(diffs))
	for _, l := range levels {
		byPrice[l.Price()] = l
	}
	for _, d := range diffs {
		price := d.Price()
		if d.Quantity() == 0 {
			delete(byPrice, price)
			continue
		}
		byPrice[price] = d
	}

	merged := make([]models.PriceLevel, 0, len(byPrice))
	for _, l := range byPrice {
		merged = append(merged, l)
	}
	return sortSide(merged, descending)
}

func sortSide(levels []models.PriceLevel, descending bool) []models.PriceLevel {
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price() > levels[j].Price()
		}
		return levels[i].Price() < levels[j].Price()
	})
	return levels
}

func dropZero(levels []models.PriceLevel) []models.PriceLevel {
	out := make([]models.PriceLevel, 0, len(levels))
	for _, l := range levels {
		if l.Quantity() == 0 {
			continue
		}
		out = append(out, l)
	}
	return out
}

func totalQuantity(levels []models.PriceLevel) float64 {
	sum := 0.0
	for _, l := range levels {
		sum += l.Quantity()
	}
	return sum
}
