// Package orderbook implements the price-time priority matching kernel:
// a single symbol's resting orders, held as two price ladders (bids
// descending, asks ascending), each a FIFO per price level.
package orderbook

import (
	"container/list"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"matchcore/domain"
)

// level is the FIFO of resting orders sharing a single integer price.
// Levels are removed from the ladder the instant they drain — an empty
// level must never be observable in the book.
type level struct {
	price  int64
	orders *list.List // of *domain.Order, oldest (best time priority) at Front
}

// Book owns the resting orders for one symbol. It is not safe for
// concurrent use — it must be touched from exactly one thread at a
// time (or behind a mutex when the engine runs more than one worker
// against the same book).
type Book struct {
	symbol string
	bids   *rbt.Tree[int64, *level] // best bid = highest price
	asks   *rbt.Tree[int64, *level] // best ask = lowest price
}

func ascending(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func descending(a, b int64) int {
	return -ascending(a, b)
}

// New creates an empty order book for symbol.
func New(symbol string) *Book {
	return &Book{
		symbol: symbol,
		bids:   rbt.NewWith[int64, *level](descending),
		asks:   rbt.NewWith[int64, *level](ascending),
	}
}

func (b *Book) ladderFor(side domain.Side) *rbt.Tree[int64, *level] {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// Add inserts order at the tail of its price level's FIFO (time
// priority), creating the level if it doesn't yet exist. Add requires
// order.Qty > 0.
func (b *Book) Add(order *domain.Order) error {
	if order.Qty <= 0 {
		return domain.ErrInvalidOrder
	}

	ladder := b.ladderFor(order.Side)
	lvl, found := ladder.Get(order.Price)
	if !found {
		lvl = &level{price: order.Price, orders: list.New()}
		ladder.Put(order.Price, lvl)
	}
	lvl.orders.PushBack(order)
	return nil
}

// Match attempts to cross taker against the opposite side, producing
// trades in the order they occurred. Any residual quantity left on
// taker after the walk is rested on its own side at its own price.
//
// match with qty <= 0 is a caller bug; this implementation rejects it
// with domain.ErrInvalidOrder rather than treating it as a no-op.
func (b *Book) Match(taker *domain.Order) ([]domain.Trade, error) {
	if taker.Qty <= 0 {
		return nil, domain.ErrInvalidOrder
	}

	opposite := b.ladderFor(oppositeSide(taker.Side))
	crosses := crossingFunc(taker)

	var trades []domain.Trade
	for taker.Qty > 0 {
		node := opposite.Left()
		if node == nil {
			break
		}
		lvl := node.Value
		if !crosses(lvl.price) {
			break
		}

		for taker.Qty > 0 && lvl.orders.Len() > 0 {
			front := lvl.orders.Front()
			maker := front.Value.(*domain.Order)

			qty := taker.Qty
			if maker.Qty < qty {
				qty = maker.Qty
			}

			trades = append(trades, domain.Trade{
				MakerID: maker.ID,
				TakerID: taker.ID,
				Symbol:  taker.Symbol,
				Price:   maker.Price,
				Qty:     qty,
				TsNs:    taker.TsNs,
			})

			maker.Qty -= qty
			taker.Qty -= qty

			if maker.Filled() {
				lvl.orders.Remove(front)
			}
		}

		if lvl.orders.Len() == 0 {
			opposite.Remove(lvl.price)
		}
	}

	if taker.Qty > 0 {
		if err := b.Add(taker); err != nil {
			return trades, err
		}
	}
	return trades, nil
}

func oppositeSide(s domain.Side) domain.Side {
	if s == domain.Buy {
		return domain.Sell
	}
	return domain.Buy
}

// crossingFunc returns the price test a resting order on the opposite
// side must pass to cross against taker: a buy taker never pays above
// its limit, a sell taker never sells below its limit.
func crossingFunc(taker *domain.Order) func(restingPrice int64) bool {
	if taker.Side == domain.Buy {
		return func(restingPrice int64) bool { return restingPrice <= taker.Price }
	}
	return func(restingPrice int64) bool { return restingPrice >= taker.Price }
}

// Depth returns the total number of price levels across both sides —
// a diagnostic, not used by matching itself.
func (b *Book) Depth() int {
	return b.bids.Size() + b.asks.Size()
}

// BestBid returns the highest resting buy price, or 0 if bids is empty.
func (b *Book) BestBid() int64 {
	node := b.bids.Left()
	if node == nil {
		return 0
	}
	return node.Value.price
}

// BestAsk returns the lowest resting sell price, or 0 if asks is empty.
func (b *Book) BestAsk() int64 {
	node := b.asks.Left()
	if node == nil {
		return 0
	}
	return node.Value.price
}
