package worker

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewMatcher(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		bits    int
		wantErr bool
	}{
		{name: "even prefix", prefix: "1424", bits: 16},
		{name: "odd prefix", prefix: "142", bits: 12},
		{name: "0x prefix stripped", prefix: "0x1152", bits: 16},
		{name: "single nibble", prefix: "f", bits: 4},
		{name: "full address", prefix: "1424c48921a37c458daad63141c99dba561c3902", bits: 160},
		{name: "empty", prefix: "", wantErr: true},
		{name: "too long", prefix: "1424c48921a37c458daad63141c99dba561c3902ff", wantErr: true},
		{name: "non-hex", prefix: "12zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.prefix)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMatcher(%q) error = %v", tt.prefix, err)
			}
			if m.Bits() != tt.bits {
				t.Errorf("Bits() = %d, want %d", m.Bits(), tt.bits)
			}
		})
	}
}

// The decisive cases sit at the prefix boundary: flipping the bit just
// below the boundary must not affect the match, flipping the lowest bit
// inside the prefix must break it.
func TestMatcherBoundaryBits(t *testing.T) {
	base := common.HexToAddress("0x1424c48921a37c458daad63141c99dba561c3902")

	tests := []struct {
		name   string
		prefix string
		addr   common.Address
		want   bool
	}{
		{name: "exact prefix", prefix: "1424", addr: base, want: true},
		{
			name:   "bit below boundary flipped",
			prefix: "1424",
			// byte 2: 0xc4 -> 0x44 (top bit of the first unpinned byte)
			addr: common.HexToAddress("0x1424448921a37c458daad63141c99dba561c3902"),
			want: true,
		},
		{
			name:   "lowest prefix bit flipped",
			prefix: "1424",
			addr:   common.HexToAddress("0x1425c48921a37c458daad63141c99dba561c3902"),
			want:   false,
		},
		{name: "odd prefix matches", prefix: "142", addr: base, want: true},
		{
			name:   "odd prefix, half nibble differs",
			prefix: "143",
			addr:   base,
			want:   false,
		},
		{
			name:   "odd prefix, bit below half-nibble boundary flipped",
			prefix: "142",
			// nibble 3: 0x4 -> 0xc (top bit of the first unpinned nibble)
			addr: common.HexToAddress("0x142cc48921a37c458daad63141c99dba561c3902"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.prefix)
			if err != nil {
				t.Fatalf("NewMatcher(%q) error = %v", tt.prefix, err)
			}
			if got := m.Matches(tt.addr.Bytes()); got != tt.want {
				t.Errorf("Matches(%s) with prefix %q = %v, want %v", tt.addr.Hex(), tt.prefix, got, tt.want)
			}
		})
	}
}
