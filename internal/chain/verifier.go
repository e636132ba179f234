// Package chain wraps the single read-only RPC call used to cross-check
// local address derivation against the deployer contract's own view.
package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lifehaverdev/beacon-salt-miner/pkg/types"
)

// computeAddressABI is the deployer contract's deterministic view. Any
// disagreement between this call and local derivation for the same salt is
// a correctness signal, never a race.
const computeAddressABI = `[{"type":"function","name":"computeAddress","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}]`

// Verifier asks the deployer contract for the authoritative proxy address.
type Verifier struct {
	client   *ethclient.Client
	deployer common.Address
	abi      abi.ABI
}

// Dial connects to an Ethereum JSON-RPC endpoint. A failed dial is reported
// as ErrChainUnavailable so callers can fall back to local-only mining.
func Dial(rawurl string, deployer common.Address) (*Verifier, error) {
	parsed, err := abi.JSON(strings.NewReader(computeAddressABI))
	if err != nil {
		return nil, fmt.Errorf("parse computeAddress abi: %w", err)
	}
	client, err := ethclient.Dial(rawurl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrChainUnavailable, err)
	}
	return &Verifier{client: client, deployer: deployer, abi: parsed}, nil
}

// ComputeAddress performs one eth_call against the deployer contract and
// returns the address it would deploy a proxy for (owner, salt) at.
// Transport failures map to ErrChainUnavailable.
func (v *Verifier) ComputeAddress(ctx context.Context, owner common.Address, salt [32]byte) (common.Address, error) {
	data, err := v.abi.Pack("computeAddress", owner, salt)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack computeAddress call: %w", err)
	}

	ret, err := v.client.CallContract(ctx, ethereum.CallMsg{To: &v.deployer, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", types.ErrChainUnavailable, err)
	}

	out, err := v.abi.Unpack("computeAddress", ret)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode computeAddress result: %w", err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("decode computeAddress result: got %d values, want 1", len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("decode computeAddress result: unexpected type %T", out[0])
	}
	return addr, nil
}

// Close releases the underlying RPC connection.
func (v *Verifier) Close() {
	v.client.Close()
}
