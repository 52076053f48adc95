// Package ring implements a bounded, lock-free, multi-producer
// multi-consumer queue using per-slot sequence numbers.
//
// The protocol is the classic Vyukov MPMC bounded queue: each slot
// carries its own sequence counter, and head/tail cursors are advanced
// with a CAS loop. A slot is writable when its sequence equals the
// producer's claimed position, and readable when its sequence equals the
// consumer's claimed position plus one. No separate size counter is
// needed — the sequence ladder alone distinguishes full from empty.
package ring

import (
	"runtime"
	"sync/atomic"

	"matchcore/domain"
)

// cacheLine is a padding type sized to a common cache line (64 bytes).
// Nominal: platforms with 128-byte lines may benefit from more.
type cacheLine [64]byte

// slot holds one element plus its sequence number. The trailing pad
// keeps adjacent slots from sharing a cache line under contention.
type slot[T any] struct {
	seq atomic.Uint64
	val T
	_   cacheLine
}

// Ring is a bounded MPMC queue of T. Capacity must be a power of two.
// Ring is safe for any number of concurrent producers and consumers;
// it contains no mutex, condition variable, or semaphore.
type Ring[T any] struct {
	_    cacheLine
	head atomic.Uint64
	_    cacheLine
	tail atomic.Uint64
	_    cacheLine
	mask uint64
	buf  []slot[T]
}

// New creates a Ring with the given capacity, which must be a non-zero
// power of two. It returns domain.ErrInvalidCapacity otherwise.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, domain.ErrInvalidCapacity
	}

	r := &Ring[T]{
		mask: uint64(capacity - 1),
		buf:  make([]slot[T], capacity),
	}
	for i := range r.buf {
		r.buf[i].seq.Store(uint64(i))
	}
	return r, nil
}

// Cap returns the ring's fixed capacity.
func (r *Ring[T]) Cap() int {
	return int(r.mask) + 1
}

// Enqueue stores v in the ring. It returns false, without blocking, if
// the ring is full at some instant during the call.
func (r *Ring[T]) Enqueue(v T) bool {
	for {
		tail := r.tail.Load()
		s := &r.buf[tail&r.mask]
		seq := s.seq.Load()

		diff := int64(seq) - int64(tail)
		switch {
		case diff == 0:
			if r.tail.CompareAndSwap(tail, tail+1) {
				s.val = v
				s.seq.Store(tail + 1)
				return true
			}
		case diff < 0:
			// seq < tail: this slot has not yet been released by its
			// last consumer — the ring is full.
			return false
		default:
			// Another producer has already claimed this slot; retry.
		}
		runtime.Gosched()
	}
}

// Dequeue moves the oldest element out of the ring, resets its slot to
// the zero value, and returns the element with true. It returns the zero
// value and false, without blocking, if the ring is empty at some
// instant during the call.
func (r *Ring[T]) Dequeue() (T, bool) {
	for {
		head := r.head.Load()
		s := &r.buf[head&r.mask]
		seq := s.seq.Load()

		diff := int64(seq) - int64(head+1)
		switch {
		case diff == 0:
			if r.head.CompareAndSwap(head, head+1) {
				v := s.val
				var zero T
				s.val = zero
				s.seq.Store(head + r.mask + 1)
				return v, true
			}
		case diff < 0:
			var zero T
			return zero, false
		default:
			// Another consumer has already claimed this slot; retry.
		}
		runtime.Gosched()
	}
}
