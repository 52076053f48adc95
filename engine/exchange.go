package engine

import (
	"sync"
	"sync/atomic"

	"matchcore/domain"
)

// Exchange is a registry of one *Engine per symbol, each with its own
// ingress ring, egress ring, worker pool and book. A single *Engine
// already stands on its own — Exchange is a convenience for running
// several of them side by side, mapping each symbol to its engine.
//
// Reads are lock-free: engines is an immutable map[string]*Engine stored
// in an atomic.Value, so GetOrCreate's fast path is a single atomic load.
// Creating a new symbol's engine is the rare path and is copy-on-write
// under mu.
type Exchange struct {
	engines atomic.Value // map[string]*Engine
	mu      sync.Mutex
	cfg     Config
}

// NewExchange creates an empty exchange. Every engine it creates for a
// new symbol uses cfg.
func NewExchange(cfg Config) *Exchange {
	x := &Exchange{cfg: cfg}
	x.engines.Store(make(map[string]*Engine))
	return x
}

// GetOrCreate returns the engine for symbol, creating and starting one
// (with Exchange's Config) if none exists yet.
func (x *Exchange) GetOrCreate(symbol string) (*Engine, error) {
	engines := x.engines.Load().(map[string]*Engine)
	if e, ok := engines[symbol]; ok {
		return e, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	engines = x.engines.Load().(map[string]*Engine)
	if e, ok := engines[symbol]; ok {
		return e, nil
	}

	e, err := New(symbol, x.cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Start(); err != nil {
		return nil, err
	}

	next := make(map[string]*Engine, len(engines)+1)
	for k, v := range engines {
		next[k] = v
	}
	next[symbol] = e
	x.engines.Store(next)

	return e, nil
}

// Submit routes order to its symbol's engine, creating the engine on
// first use.
func (x *Exchange) Submit(order domain.Order) (bool, error) {
	e, err := x.GetOrCreate(order.Symbol)
	if err != nil {
		return false, err
	}
	return e.Submit(order), nil
}

// Stop stops every engine currently registered, joining their worker
// pools. If an engine's Stop fails, it returns that error at once and
// the engines not yet visited are left running.
func (x *Exchange) Stop() error {
	engines := x.engines.Load().(map[string]*Engine)
	for _, e := range engines {
		if err := e.Stop(); err != nil {
			return err
		}
	}
	return nil
}
