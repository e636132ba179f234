package worker

import (
	"encoding/hex"
	"fmt"

	"github.com/lifehaverdev/beacon-salt-miner/internal/config"
)

// Matcher tests whether a derived address carries the configured vanity
// prefix. The prefix is fixed per deployment; changing it never touches the
// derivation itself, only this comparison target. Matching operates on raw
// address bytes with no allocations in the hot loop.
type Matcher struct {
	full    []byte // whole prefix bytes
	half    byte   // high nibble, when the prefix has odd hex length
	hasHalf bool
}

// NewMatcher parses a hex prefix (with or without 0x) into a byte-level
// comparison target. Nibble granularity: a prefix of n hex characters pins
// the address's top 4*n bits.
func NewMatcher(prefix string) (*Matcher, error) {
	clean := config.CleanHex(prefix)
	if clean == "" {
		return nil, fmt.Errorf("empty vanity prefix")
	}
	if len(clean) > 40 {
		return nil, fmt.Errorf("vanity prefix %q longer than an address", prefix)
	}

	m := &Matcher{}
	if len(clean)%2 != 0 {
		nib, err := hex.DecodeString(clean[len(clean)-1:] + "0")
		if err != nil {
			return nil, fmt.Errorf("invalid vanity prefix %q: %w", prefix, err)
		}
		m.half = nib[0] >> 4
		m.hasHalf = true
		clean = clean[:len(clean)-1]
	}

	full, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid vanity prefix %q: %w", prefix, err)
	}
	m.full = full
	return m, nil
}

// Bits returns the number of leading address bits the matcher pins.
func (m *Matcher) Bits() int {
	bits := len(m.full) * 8
	if m.hasHalf {
		bits += 4
	}
	return bits
}

// Matches reports whether the 20-byte address begins with the target prefix.
func (m *Matcher) Matches(addr []byte) bool {
	for i, b := range m.full {
		if addr[i] != b {
			return false
		}
	}
	if m.hasHalf {
		return addr[len(m.full)]>>4 == m.half
	}
	return true
}
