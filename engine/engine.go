// Package engine composes two ring buffers and a worker pool around an
// order book, exposing a lifecycle (Start/Stop/State) and a non-blocking
// submit/poll-trade API on top of them.
package engine

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"matchcore/domain"
	"matchcore/orderbook"
	"matchcore/ring"
)

// State is the engine lifecycle: Created -> Running -> Stopped. Stopped
// is terminal; there is no restart.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Engine is the concurrent core for one symbol: an ingress ring of
// orders, an egress ring of trades, a single-symbol order book, and a
// pool of worker goroutines that drain ingress, match, and publish to
// egress.
type Engine struct {
	symbol string

	ingress *ring.Ring[domain.Order]
	egress  *ring.Ring[domain.Trade]
	book    *orderbook.Book

	// matchMu guards book access only when more than one worker is
	// configured, serializing matches behind a mutex instead of sharding
	// the book. With a single worker, which is the reference default,
	// matchMu stays nil and the hot path takes no lock at all.
	matchMu *sync.Mutex

	workers int
	state   atomic.Int32
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New constructs an engine for symbol in the Created state. It does not
// spawn any workers until Start is called.
func New(symbol string, cfg Config) (*Engine, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	ingress, err := ring.New[domain.Order](cfg.IngressCapacity)
	if err != nil {
		return nil, err
	}
	egress, err := ring.New[domain.Trade](cfg.EgressCapacity)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		symbol:  symbol,
		ingress: ingress,
		egress:  egress,
		book:    orderbook.New(symbol),
		workers: cfg.Workers,
	}
	if cfg.Workers > 1 {
		e.matchMu = &sync.Mutex{}
	}
	return e, nil
}

// Start transitions Created -> Running and spawns the worker pool.
// Calling Start from any state other than Created returns
// domain.ErrInvalidState.
func (e *Engine) Start() error {
	if !e.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return domain.ErrInvalidState
	}

	e.stopCh = make(chan struct{})
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.runWorker()
	}

	log.Info().Str("symbol", e.symbol).Int("workers", e.workers).Msg("engine started")
	return nil
}

// Stop transitions Running -> Stopped, signals workers to exit, and
// joins them before returning. It does not drain the ingress ring first,
// so orders still queued there when Stop is called are never processed.
// The egress ring may still hold undrained trades after Stop returns.
// Calling Stop from any state other than Running returns
// domain.ErrInvalidState.
func (e *Engine) Stop() error {
	if !e.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		return domain.ErrInvalidState
	}

	close(e.stopCh)
	e.wg.Wait()

	log.Info().Str("symbol", e.symbol).Msg("engine stopped")
	return nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Submit enqueues order on the ingress ring (non-blocking). It returns
// false when the ring is full — backpressure, not an error.
func (e *Engine) Submit(order domain.Order) bool {
	return e.ingress.Enqueue(order)
}

// PollTrade dequeues one trade from the egress ring into out (non-
// blocking). It returns false when the ring is empty.
func (e *Engine) PollTrade(out *domain.Trade) bool {
	v, ok := e.egress.Dequeue()
	if !ok {
		return false
	}
	*out = v
	return true
}

// runWorker is the worker loop: dequeue an order, match it, publish any
// trades, repeat. On ingress-empty or egress-full it yields the CPU and
// retries rather than blocking on a condition variable or channel, so
// the loop never sleeps waiting for work. It checks for a stop signal
// between iterations so a worker always finishes its current match pass
// before exiting.
func (e *Engine) runWorker() {
	defer e.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		order, ok := e.ingress.Dequeue()
		if !ok {
			runtime.Gosched()
			continue
		}

		trades := e.match(&order)
		for _, trade := range trades {
			for !e.egress.Enqueue(trade) {
				runtime.Gosched()
			}
		}
	}
}

// match runs the order book's matching algorithm, optionally serialized
// behind matchMu when Workers > 1. A matching anomaly (invalid order)
// is a programming error on the caller's part — it is logged and the
// order is dropped rather than corrupting book state or crashing the
// worker.
func (e *Engine) match(order *domain.Order) []domain.Trade {
	if e.matchMu != nil {
		e.matchMu.Lock()
		defer e.matchMu.Unlock()
	}

	trades, err := e.book.Match(order)
	if err != nil {
		log.Error().Err(err).Str("symbol", e.symbol).Uint64("order_id", order.ID).
			Msg("rejected invalid order")
		return nil
	}
	return trades
}
