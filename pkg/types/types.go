package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MiningRequest identifies one salt-mining run. All three addresses must be
// well-formed before a request reaches the miner; see Validate.
type MiningRequest struct {
	Owner    common.Address
	Deployer common.Address
	Beacon   common.Address
}

// Validate rejects requests that cannot produce a meaningful derivation.
// A zero beacon or deployer is a configuration error, not a retryable one.
func (r MiningRequest) Validate() error {
	if r.Beacon == (common.Address{}) {
		return ErrMissingBeacon
	}
	if r.Deployer == (common.Address{}) {
		return ErrMissingDeployer
	}
	if r.Owner == (common.Address{}) {
		return ErrMissingOwner
	}
	return nil
}

// MiningResult is the outcome of one successful mining run.
// Verified is true only when the on-chain computation was consulted and
// agreed; a result mined while the chain was unreachable carries
// Verified=false but is still usable.
type MiningResult struct {
	Salt     [32]byte
	Address  common.Address
	Verified bool
	Attempts int64
	Duration time.Duration
}

// WorkerConfig carries the per-run constants shared by every worker shard.
// All fields are computed once by the coordinator; shards never mutate them.
type WorkerConfig struct {
	Request      MiningRequest
	InitArgs     []byte // encoded initializer call, constant per run
	InitCodeHash []byte // keccak256 of the proxy creation code, constant per run

	// MaxAttempts bounds a single shard's search; 0 means no cap
	// (the shard runs until its context is cancelled).
	MaxAttempts int64
}
