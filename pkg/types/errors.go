package types

import "errors"

// Request validation errors. All fail fast and are never retried.
var (
	ErrMissingBeacon   = errors.New("beacon address is missing or zero")
	ErrMissingDeployer = errors.New("deployer address is missing or zero")
	ErrMissingOwner    = errors.New("owner address is missing or zero")
)

var (
	// ErrPredictionMismatch means the local derivation and the on-chain
	// computation disagreed for the same salt. Fatal: every subsequent
	// candidate would be equally unreliable, so the run aborts immediately.
	ErrPredictionMismatch = errors.New("local address derivation disagrees with on-chain computation")

	// ErrWorkerTimeout is returned when a shard's attempt deadline expires.
	// Recoverable: the coordinator retries with a fresh shard.
	ErrWorkerTimeout = errors.New("mining worker exceeded its attempt deadline")

	// ErrWorkerExhausted is returned when a shard hits its attempt cap
	// without a match. Recoverable.
	ErrWorkerExhausted = errors.New("mining worker exhausted its attempt budget")

	// ErrChainUnavailable means the verifier RPC endpoint could not be
	// reached. Mining proceeds in degraded local-only mode.
	ErrChainUnavailable = errors.New("chain verifier unreachable")
)
