package crypto

import (
	"hash"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const (
	// CREATE2 input layout: 0xff (1) + deployer (20) + salt (32) + initCodeHash (32) = 85
	Create2PrefixLen = 1 + 20
	Create2SaltLen   = 32
	Create2SuffixLen = 32
	Create2InputLen  = Create2PrefixLen + Create2SaltLen + Create2SuffixLen
)

// Keccak256 calculates the keccak256 hash of the concatenated inputs
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// NewKeccak returns a reusable keccak256 hasher for hot loops.
func NewKeccak() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// Create2Address computes keccak256(0xff || deployer || salt || initCodeHash)[12:].
func Create2Address(deployer common.Address, salt [32]byte, initCodeHash []byte) common.Address {
	return common.BytesToAddress(Keccak256([]byte{0xff}, deployer.Bytes(), salt[:], initCodeHash)[12:])
}

// PrimeCreate2Input fills the constant parts of an 85-byte CREATE2 input buffer:
// 0xff + deployer at the front, initCodeHash at the back. The salt slot
// (inputBuf[21:53]) is written by the caller per candidate.
func PrimeCreate2Input(inputBuf []byte, deployer common.Address, initCodeHash []byte) {
	inputBuf[0] = 0xff
	copy(inputBuf[1:Create2PrefixLen], deployer.Bytes())
	copy(inputBuf[Create2PrefixLen+Create2SaltLen:], initCodeHash)
}

// Create2AddressInto hashes a primed CREATE2 input and writes the 20-byte address
// into addrBuf. Reuses the provided hasher to avoid allocations. inputBuf must be
// Create2InputLen (85), hashBuf must be at least 32 bytes, addrBuf must be 20 bytes.
func Create2AddressInto(hasher hash.Hash, inputBuf, hashBuf, addrBuf []byte) {
	hasher.Reset()
	hasher.Write(inputBuf)
	sum := hasher.Sum(hashBuf[:0])
	copy(addrBuf, sum[12:32])
}
