package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/domain"
)

func TestNewRejectsBadCapacity(t *testing.T) {
	_, err := New[int](0)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)

	_, err = New[int](3)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)

	r, err := New[int](1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Cap())
}

func TestCapacityOneAlternates(t *testing.T) {
	r, err := New[int](1)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		require.True(t, r.Enqueue(i))
		v, ok := r.Dequeue()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestCapacityNBoundary(t *testing.T) {
	const n = 16
	r, err := New[int](n)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		require.True(t, r.Enqueue(i))
	}
	assert.False(t, r.Enqueue(n), "enqueue must fail once the ring is full")

	for i := 0; i < n; i++ {
		v, ok := r.Dequeue()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := r.Dequeue()
	assert.False(t, ok, "dequeue must fail once the ring is empty")
}

// TestMPMCStress runs 4 producers x 100k enqueues each against 4
// consumers on a capacity-2^14 ring. The multiset dequeued must equal
// the multiset enqueued, per-producer FIFO order is preserved, and
// no value is dequeued twice.
func TestMPMCStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in -short mode")
	}

	const (
		producers   = 4
		perProducer = 100_000
		consumers   = 4
		capacity    = 1 << 14
	)

	r, err := New[uint64](capacity)
	require.NoError(t, err)

	// Encode producer id in the high bits and the per-producer sequence
	// in the low bits so FIFO order per producer can be checked after
	// the fact without any shared coordination during the run.
	encode := func(producer, seq int) uint64 {
		return uint64(producer)<<40 | uint64(seq)
	}

	var producerWg sync.WaitGroup
	for p := 0; p < producers; p++ {
		producerWg.Add(1)
		go func(p int) {
			defer producerWg.Done()
			for seq := 0; seq < perProducer; seq++ {
				for !r.Enqueue(encode(p, seq)) {
					// spin: bounded queue, consumers are draining concurrently
				}
			}
		}(p)
	}

	var (
		mu       sync.Mutex
		consumed = make([]uint64, 0, producers*perProducer)
		seen     = make(map[uint64]bool, producers*perProducer)
	)

	done := make(chan struct{})
	var consumerWg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				select {
				case <-done:
					// Drain whatever remains without blocking further.
					for {
						v, ok := r.Dequeue()
						if !ok {
							return
						}
						mu.Lock()
						consumed = append(consumed, v)
						seen[v] = true
						mu.Unlock()
					}
				default:
					v, ok := r.Dequeue()
					if !ok {
						continue
					}
					mu.Lock()
					require.False(t, seen[v], "value dequeued twice: %d", v)
					consumed = append(consumed, v)
					seen[v] = true
					mu.Unlock()
				}
			}
		}()
	}

	producerWg.Wait()
	close(done)
	consumerWg.Wait()

	require.Len(t, consumed, producers*perProducer)

	perProducerSeen := make(map[int][]int, producers)
	for _, v := range consumed {
		p := int(v >> 40)
		seq := int(v & ((1 << 40) - 1))
		perProducerSeen[p] = append(perProducerSeen[p], seq)
	}
	for p := 0; p < producers; p++ {
		seqs := perProducerSeen[p]
		require.Len(t, seqs, perProducer)
		for i, seq := range seqs {
			require.Equal(t, i, seq, "producer %d: FIFO order violated at position %d", p, i)
		}
	}
}
