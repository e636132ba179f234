// Package miner coordinates vanity-salt mining runs: it owns retry policy,
// per-owner prefetch queues, and the racing of worker shards.
package miner

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/lifehaverdev/beacon-salt-miner/internal/config"
	"github.com/lifehaverdev/beacon-salt-miner/internal/crypto"
	"github.com/lifehaverdev/beacon-salt-miner/internal/logger"
	"github.com/lifehaverdev/beacon-salt-miner/pkg/types"
	"github.com/lifehaverdev/beacon-salt-miner/pkg/worker"
)

// Miner is the sole public entry point for salt mining. GetSalt blocks until
// a salt is found or a fatal error surfaces; recoverable shard failures are
// retried internally and show up to callers only as latency.
type Miner struct {
	// Policy bounds the retry loop. The zero value retries forever.
	Policy RetryPolicy
	// ShardMaxAttempts caps each shard's attempts per mining round;
	// 0 leaves shards bounded only by the attempt timeout.
	ShardMaxAttempts int64

	config   *config.Config
	logger   *logger.Logger
	verifier worker.ChainVerifier
	matcher  *worker.Matcher
	entropy  io.Reader

	attempts int64

	mu        sync.Mutex
	queues    map[common.Address]*prefetchQueue
	refilling map[common.Address]bool
	refillWG  sync.WaitGroup
	done      chan struct{}
	once      sync.Once
}

// NewMiner creates a coordinator. verifier may be nil, in which case all
// results are returned unverified.
func NewMiner(cfg *config.Config, log *logger.Logger, verifier worker.ChainVerifier) (*Miner, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	matcher, err := worker.NewMatcher(cfg.Prefix)
	if err != nil {
		return nil, err
	}
	return &Miner{
		config:    cfg,
		logger:    log,
		verifier:  verifier,
		matcher:   matcher,
		entropy:   rand.Reader,
		queues:    make(map[common.Address]*prefetchQueue),
		refilling: make(map[common.Address]bool),
		done:      make(chan struct{}),
	}, nil
}

// GetSalt returns a salt whose derived proxy address matches the configured
// vanity prefix. The owner's prefetch queue is consulted first; a hit is
// O(1) with no search. Otherwise shards are raced until one succeeds.
func (m *Miner) GetSalt(ctx context.Context, req types.MiningRequest) (*types.MiningResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if res := m.queue(req.Owner).pop(); res != nil {
		m.logger.Debugf("prefetch hit for owner %s: %s", req.Owner.Hex(), res.Address.Hex())
		m.maybeRefill(req)
		return res, nil
	}

	res, err := m.mine(ctx, req)
	if err != nil {
		return nil, err
	}
	m.maybeRefill(req)
	return res, nil
}

// Attempts returns the total number of candidate salts tried so far.
func (m *Miner) Attempts() int64 {
	return atomic.LoadInt64(&m.attempts)
}

// Stop halts background refill and waits for it to drain. In-flight GetSalt
// calls are cancelled through their own contexts, not here.
func (m *Miner) Stop() {
	m.once.Do(func() { close(m.done) })
	m.refillWG.Wait()
}

// mine runs the retry loop around shard races. Fatal errors (a failed
// derivation self-check, oversized init args, request problems) propagate
// immediately; timeouts and shard failures retry per policy.
func (m *Miner) mine(ctx context.Context, req types.MiningRequest) (*types.MiningResult, error) {
	wcfg, err := m.workerConfig(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stopProgress := m.startProgressLog(start)
	defer stopProgress()

	for attempt := 0; ; attempt++ {
		if m.Policy.exhausted(attempt) {
			return nil, fmt.Errorf("retry budget exhausted after %d attempts: %w", attempt, types.ErrWorkerExhausted)
		}
		if attempt > 0 {
			if d := m.Policy.delay(attempt); d > 0 {
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}

		res, err := m.raceShards(ctx, wcfg)
		switch {
		case err == nil:
			res.Duration = time.Since(start)
			return res, nil
		case errors.Is(err, types.ErrPredictionMismatch):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			m.logger.Warnf("mining attempt %d failed, retrying: %v", attempt+1, err)
		}
	}
}

// raceShards runs one bounded mining round: every shard searches its own
// salt sequence, the first success wins and cancels the rest. Late results
// from other shards are dropped unseen, so no wasted verification happens.
func (m *Miner) raceShards(ctx context.Context, wcfg *types.WorkerConfig) (*types.MiningResult, error) {
	raceCtx := ctx
	cancelTimeout := func() {}
	if m.config.AttemptTimeout > 0 {
		raceCtx, cancelTimeout = context.WithTimeout(ctx, m.config.AttemptTimeout)
	}
	defer cancelTimeout()

	raceCtx, cancel := context.WithCancel(raceCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(raceCtx)
	winner := make(chan *types.MiningResult, 1)

	for i := 0; i < m.config.Workers; i++ {
		shard := uint32(i)
		g.Go(func() error {
			seq, err := worker.NewSaltSequence(m.entropy, wcfg.Request.Owner, shard)
			if err != nil {
				return err
			}
			w := worker.New(wcfg, m.matcher, seq, m.verifier, &m.attempts, m.logger)

			res, err := w.Mine(gctx)
			if err != nil {
				// A shard cancelled because a sibling won (or the round
				// timed out) is not an error of its own.
				if gctx.Err() != nil && !errors.Is(err, types.ErrPredictionMismatch) {
					return nil
				}
				return err
			}
			select {
			case winner <- res:
				cancel()
			default:
			}
			return nil
		})
	}

	err := g.Wait()
	select {
	case res := <-winner:
		return res, nil
	default:
	}
	if err != nil {
		return nil, err
	}
	return nil, types.ErrWorkerTimeout
}

// workerConfig computes the run constants every shard shares: the encoded
// initializer args and the proxy init code hash. Recomputing either per
// candidate would be pure waste; both depend only on the request.
func (m *Miner) workerConfig(req types.MiningRequest) (*types.WorkerConfig, error) {
	initArgs := crypto.EncodeInitArgs(req.Deployer, req.Owner)
	codeHash, err := crypto.ProxyInitCodeHash(req.Beacon, initArgs)
	if err != nil {
		return nil, err
	}
	return &types.WorkerConfig{
		Request:      req,
		InitArgs:     initArgs,
		InitCodeHash: codeHash,
		MaxAttempts:  m.ShardMaxAttempts,
	}, nil
}

func (m *Miner) queue(owner common.Address) *prefetchQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[owner]
	if !ok {
		q = &prefetchQueue{}
		m.queues[owner] = q
	}
	return q
}

// maybeRefill schedules background mining when the owner's queue drops
// below the low-water mark. At most one refill runs per owner; the caller
// is never blocked.
func (m *Miner) maybeRefill(req types.MiningRequest) {
	target := m.config.PrefetchTarget
	if target <= 0 {
		return
	}
	q := m.queue(req.Owner)
	if q.len() >= (target+1)/2 {
		return
	}

	m.mu.Lock()
	if m.refilling[req.Owner] {
		m.mu.Unlock()
		return
	}
	m.refilling[req.Owner] = true
	m.mu.Unlock()

	m.refillWG.Add(1)
	go func() {
		defer m.refillWG.Done()
		defer func() {
			m.mu.Lock()
			delete(m.refilling, req.Owner)
			m.mu.Unlock()
		}()

		ctx, cancelRefill := context.WithCancel(context.Background())
		defer cancelRefill()
		finished := make(chan struct{})
		defer close(finished)
		go func() {
			select {
			case <-m.done:
				cancelRefill()
			case <-finished:
			}
		}()

		for q.len() < target {
			select {
			case <-m.done:
				return
			default:
			}
			res, err := m.mine(ctx, req)
			if err != nil {
				m.logger.Warnf("background refill for owner %s stopped: %v", req.Owner.Hex(), err)
				return
			}
			q.push(res)
			m.logger.Debugf("prefetched salt for owner %s (%d/%d)", req.Owner.Hex(), q.len(), target)
		}
	}()
}

// startProgressLog emits periodic attempt/rate lines in verbose mode.
func (m *Miner) startProgressLog(start time.Time) func() {
	if !m.config.Verbose || m.config.LogInterval <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(time.Duration(m.config.LogInterval) * time.Second)
	stopped := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				attempts := m.Attempts()
				elapsed := time.Since(start)
				rate := 0.0
				if elapsed.Seconds() > 0 {
					rate = float64(attempts) / elapsed.Seconds()
				}
				m.logger.Printf("Progress: %d attempts, %.2f hashes/sec", attempts, rate)
			case <-stopped:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(stopped)
	}
}
