package crypto

import (
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// v1 beacon proxy creation code, assembled as:
//
//	seg0 || uint16(runtime+args length) || seg1 || beacon (20) || seg2 || initArgs
//
// The segments are contract opcodes and must never be edited in place:
// a one-byte change silently moves every derived address. They are pinned
// here as the single source of truth and covered by golden-vector tests.
var (
	proxySeg0 = common.FromHex("0x3d61")
	proxySeg1 = common.FromHex("0x80600b3d3981f3363d3d373d3d3d363d73")
	proxySeg2 = common.FromHex("0x5afa3d82803e903d91602b57fd5bf3")
)

// proxyRuntimeLen is the number of runtime bytes counted by the uint16
// length field: the tail of seg1 past the copy wrapper (10), the inlined
// beacon address (20) and seg2 (15).
const proxyRuntimeLen = 10 + 20 + 15

// MaxInitArgsLen is the hard protocol limit on encoded initializer args:
// the creation code's length field is a uint16 covering runtime + args.
const MaxInitArgsLen = 0xFFFF - proxyRuntimeLen

// ErrArgsTooLong reports initializer args that exceed MaxInitArgsLen.
var ErrArgsTooLong = errors.New("encoded init args exceed proxy length-prefix limit")

// ProxyInitCode assembles the full CREATE2 creation code for a beacon proxy
// pointing at beacon, with initArgs appended verbatim as constructor data.
func ProxyInitCode(beacon common.Address, initArgs []byte) ([]byte, error) {
	if len(initArgs) > MaxInitArgsLen {
		return nil, ErrArgsTooLong
	}

	code := make([]byte, 0, len(proxySeg0)+2+len(proxySeg1)+20+len(proxySeg2)+len(initArgs))
	code = append(code, proxySeg0...)
	code = binary.BigEndian.AppendUint16(code, uint16(proxyRuntimeLen+len(initArgs)))
	code = append(code, proxySeg1...)
	code = append(code, beacon.Bytes()...)
	code = append(code, proxySeg2...)
	code = append(code, initArgs...)
	return code, nil
}

// ProxyInitCodeHash returns keccak256 of the proxy creation code. Constant
// for a fixed (beacon, initArgs) pair, so miners compute it once per run.
func ProxyInitCodeHash(beacon common.Address, initArgs []byte) ([]byte, error) {
	code, err := ProxyInitCode(beacon, initArgs)
	if err != nil {
		return nil, err
	}
	return Keccak256(code), nil
}

// DeriveProxyAddress predicts the address a beacon proxy deployed by
// deployer with the given salt will land at. Pure: identical inputs always
// yield the identical address.
func DeriveProxyAddress(beacon, deployer common.Address, initArgs []byte, salt [32]byte) (common.Address, error) {
	codeHash, err := ProxyInitCodeHash(beacon, initArgs)
	if err != nil {
		return common.Address{}, err
	}
	return Create2Address(deployer, salt, codeHash), nil
}
