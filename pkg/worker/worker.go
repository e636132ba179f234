package worker

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lifehaverdev/beacon-salt-miner/internal/crypto"
	"github.com/lifehaverdev/beacon-salt-miner/internal/logger"
	"github.com/lifehaverdev/beacon-salt-miner/pkg/types"
)

// ChainVerifier is the read-only collaborator used to cross-check local
// derivation against the deployer contract. Implementations must be
// deterministic for a fixed (owner, salt) pair.
type ChainVerifier interface {
	ComputeAddress(ctx context.Context, owner common.Address, salt [32]byte) (common.Address, error)
}

// Worker owns one independent search shard. No state is shared with other
// shards except the run-wide attempt counter, which is updated atomically.
type Worker struct {
	config   *types.WorkerConfig
	matcher  *Matcher
	seq      *SaltSequence
	verifier ChainVerifier // nil disables verification entirely
	attempts *int64
	log      *logger.Logger

	// Pre-allocated buffers for the hot loop
	hasher   hash.Hash
	inputBuf [crypto.Create2InputLen]byte
	hashBuf  [32]byte
	addrBuf  [20]byte

	// degraded is set when the chain was unreachable at self-check time;
	// the shard then mines local-only and its results carry Verified=false.
	degraded bool
}

// New creates a worker shard. The constant parts of the CREATE2 input are
// primed once here so the search loop only rewrites the salt slot.
func New(cfg *types.WorkerConfig, matcher *Matcher, seq *SaltSequence, verifier ChainVerifier, attempts *int64, log *logger.Logger) *Worker {
	w := &Worker{
		config:   cfg,
		matcher:  matcher,
		seq:      seq,
		verifier: verifier,
		attempts: attempts,
		log:      log,
		hasher:   crypto.NewKeccak(),
	}
	crypto.PrimeCreate2Input(w.inputBuf[:], cfg.Request.Deployer, cfg.InitCodeHash)
	return w
}

// Mine searches this shard's salt sequence until a candidate address matches
// the vanity prefix, the context expires (ErrWorkerTimeout), or the attempt
// cap is hit (ErrWorkerExhausted). A failed self-check aborts immediately
// with ErrPredictionMismatch before any mining attempt is made.
func (w *Worker) Mine(ctx context.Context) (*types.MiningResult, error) {
	if err := w.selfCheck(ctx); err != nil {
		return nil, err
	}

	const checkInterval = 1024
	var local int64
	for {
		if local%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", types.ErrWorkerTimeout, ctx.Err())
			default:
			}
		}
		if w.config.MaxAttempts > 0 && local >= w.config.MaxAttempts {
			return nil, types.ErrWorkerExhausted
		}

		salt := w.seq.Next()
		copy(w.inputBuf[crypto.Create2PrefixLen:], salt[:])
		crypto.Create2AddressInto(w.hasher, w.inputBuf[:], w.hashBuf[:], w.addrBuf[:])
		local++
		atomic.AddInt64(w.attempts, 1)

		if !w.matcher.Matches(w.addrBuf[:]) {
			continue
		}

		addr := common.BytesToAddress(w.addrBuf[:])
		verified, keep := w.confirm(ctx, salt, addr)
		if !keep {
			continue
		}
		return &types.MiningResult{
			Salt:     salt,
			Address:  addr,
			Verified: verified,
			Attempts: atomic.LoadInt64(w.attempts),
		}, nil
	}
}

// selfCheck derives one address locally and asks the chain for the same
// salt. Disagreement is fatal: it means the derivation logic itself has
// drifted and every subsequent candidate would be unreliable. An
// unreachable chain downgrades the shard to local-only mode instead.
func (w *Worker) selfCheck(ctx context.Context) error {
	if w.verifier == nil {
		return nil
	}

	salt := w.seq.Next()
	local := crypto.Create2Address(w.config.Request.Deployer, salt, w.config.InitCodeHash)

	remote, err := w.verifier.ComputeAddress(ctx, w.config.Request.Owner, salt)
	if err != nil {
		if errors.Is(err, types.ErrChainUnavailable) {
			w.log.Warnf("chain verifier unreachable, mining local-only: %v", err)
			w.degraded = true
			return nil
		}
		return fmt.Errorf("derivation self-check: %w", err)
	}
	if local != remote {
		return fmt.Errorf("%w: local %s, on-chain %s (salt %x)",
			types.ErrPredictionMismatch, local.Hex(), remote.Hex(), salt)
	}
	return nil
}

// confirm re-checks a winning candidate against the chain. A late
// disagreement here discards only the candidate and the search continues:
// the shard's derivation already passed the self-check, so a single-salt
// divergence points at off-chain state drift, not broken logic.
func (w *Worker) confirm(ctx context.Context, salt [32]byte, addr common.Address) (verified, keep bool) {
	if w.verifier == nil || w.degraded {
		return false, true
	}
	remote, err := w.verifier.ComputeAddress(ctx, w.config.Request.Owner, salt)
	if err != nil {
		w.log.Warnf("candidate verification unavailable, returning unverified result: %v", err)
		return false, true
	}
	if remote != addr {
		w.log.Warnf("candidate %s rejected: chain computed %s, continuing search", addr.Hex(), remote.Hex())
		return false, false
	}
	return true, true
}
