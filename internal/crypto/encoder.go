package crypto

import "github.com/ethereum/go-ethereum/common"

// InitializerSignature is the pinned v1 initializer the deployed proxy
// delegates its constructor call to. Bumping this signature changes the
// selector and therefore every derived address.
const InitializerSignature = "initialize(address,address)"

// initSelector is the first 4 bytes of keccak256(InitializerSignature) = 0x485cc955.
var initSelector = Keccak256([]byte(InitializerSignature))[:4]

// InitArgsLen is the encoded initializer call size: selector + two padded addresses.
const InitArgsLen = 4 + 32 + 32

// EncodeInitArgs ABI-encodes the initializer call for a new proxy:
// selector followed by the deployer and owner addresses, each left-padded
// to 32 bytes, in declaration order. Computed once per mining run and
// reused for every candidate salt.
func EncodeInitArgs(deployer, owner common.Address) []byte {
	args := make([]byte, 0, InitArgsLen)
	args = append(args, initSelector...)
	args = append(args, common.LeftPadBytes(deployer.Bytes(), 32)...)
	args = append(args, common.LeftPadBytes(owner.Bytes(), 32)...)
	return args
}
