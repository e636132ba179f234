package miner

import (
	"sync"
	"testing"

	"github.com/lifehaverdev/beacon-salt-miner/pkg/types"
)

// Pushing N results and popping from concurrent consumers must yield
// exactly N distinct deliveries: no duplicates, no drops.
func TestPrefetchQueueExclusivity(t *testing.T) {
	const n = 100
	const consumers = 10

	q := &prefetchQueue{}
	for i := 0; i < n; i++ {
		r := &types.MiningResult{}
		r.Salt[31] = byte(i)
		r.Salt[30] = byte(i >> 8)
		q.push(r)
	}

	delivered := make(chan *types.MiningResult, n)
	var wg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				r := q.pop()
				if r == nil {
					return
				}
				delivered <- r
			}
		}()
	}
	wg.Wait()
	close(delivered)

	seen := make(map[[32]byte]bool)
	for r := range delivered {
		if seen[r.Salt] {
			t.Errorf("salt %x delivered twice", r.Salt)
		}
		seen[r.Salt] = true
	}
	if len(seen) != n {
		t.Errorf("delivered %d distinct results, want %d", len(seen), n)
	}
	if q.len() != 0 {
		t.Errorf("queue not drained: %d left", q.len())
	}
}

func TestPrefetchQueueFIFO(t *testing.T) {
	q := &prefetchQueue{}
	if q.pop() != nil {
		t.Error("pop on empty queue should return nil")
	}

	first := &types.MiningResult{Salt: [32]byte{31: 1}}
	second := &types.MiningResult{Salt: [32]byte{31: 2}}
	q.push(first)
	q.push(second)

	if got := q.pop(); got != first {
		t.Errorf("first pop = %v, want oldest entry", got)
	}
	if got := q.pop(); got != second {
		t.Errorf("second pop = %v, want second entry", got)
	}
	if q.pop() != nil {
		t.Error("drained queue should pop nil")
	}
}
