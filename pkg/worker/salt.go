package worker

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lifehaverdev/beacon-salt-miner/internal/crypto"
)

// SaltSequence generates one shard's candidate salts as a deterministic
// sequence over a random base:
//
//	salt = base (20 random bytes) || shard word (4) || counter (8, big-endian)
//
// The shard word is keccak256(owner)[0:4] XOR the shard index, so no two
// shards in the same run can ever emit the same salt. Given a fixed entropy
// source the whole sequence is reproducible, which the test harness relies on.
type SaltSequence struct {
	salt    [32]byte
	counter uint64
}

// NewSaltSequence seeds a sequence for the given shard. entropy is normally
// crypto/rand.Reader; tests inject a fixed reader.
func NewSaltSequence(entropy io.Reader, owner common.Address, shard uint32) (*SaltSequence, error) {
	s := &SaltSequence{}
	if _, err := io.ReadFull(entropy, s.salt[:20]); err != nil {
		return nil, fmt.Errorf("seed salt base: %w", err)
	}
	ownerHash := crypto.Keccak256(owner.Bytes())
	word := binary.BigEndian.Uint32(ownerHash[:4]) ^ shard
	binary.BigEndian.PutUint32(s.salt[20:24], word)
	return s, nil
}

// Next returns the next candidate salt in the sequence.
func (s *SaltSequence) Next() [32]byte {
	binary.BigEndian.PutUint64(s.salt[24:], s.counter)
	s.counter++
	return s.salt
}
