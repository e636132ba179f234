package miner

import (
	"sync"

	"github.com/lifehaverdev/beacon-salt-miner/pkg/types"
)

// prefetchQueue is a FIFO of pre-mined results for one owner. Producers are
// background refill goroutines, consumers are foreground GetSalt calls; an
// entry popped here is gone and can never be handed to a second caller.
type prefetchQueue struct {
	mu    sync.Mutex
	items []*types.MiningResult
}

func (q *prefetchQueue) push(r *types.MiningResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, r)
}

// pop removes and returns the oldest entry, or nil when the queue is empty.
func (q *prefetchQueue) pop() *types.MiningResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r
}

func (q *prefetchQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
