package miner

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lifehaverdev/beacon-salt-miner/internal/config"
	"github.com/lifehaverdev/beacon-salt-miner/internal/logger"
	"github.com/lifehaverdev/beacon-salt-miner/pkg/types"
	"github.com/lifehaverdev/beacon-salt-miner/pkg/worker"
)

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

type stubVerifier struct {
	mu    sync.Mutex
	calls int
	addr  common.Address
}

func (s *stubVerifier) ComputeAddress(context.Context, common.Address, [32]byte) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.addr, nil
}

func (s *stubVerifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testRequest() types.MiningRequest {
	return types.MiningRequest{
		Owner:    common.HexToAddress("0xabcdabcdabcdabcdabcdabcdabcdabcdabcdabcd"),
		Deployer: common.HexToAddress("0xf00df00df00df00df00df00df00df00df00df00d"),
		Beacon:   common.HexToAddress("0xbeacbeacbeacbeacbeacbeacbeacbeacbeacbeac"),
	}
}

func newTestMiner(t *testing.T, prefix string, workers int, verifier worker.ChainVerifier) *Miner {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Prefix = prefix
	cfg.Workers = workers
	cfg.AttemptTimeout = time.Minute

	m, err := NewMiner(cfg, logger.NewWriter(io.Discard), verifier)
	if err != nil {
		t.Fatalf("NewMiner() error = %v", err)
	}
	m.entropy = zeroReader{}
	return m
}

func TestNewMinerInvalidPrefix(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Prefix = "not-hex"
	if _, err := NewMiner(cfg, logger.NewWriter(io.Discard), nil); err == nil {
		t.Fatal("NewMiner accepted a non-hex prefix")
	}
}

func TestGetSaltValidatesRequest(t *testing.T) {
	m := newTestMiner(t, "1", 1, nil)
	defer m.Stop()

	req := testRequest()
	req.Beacon = common.Address{}
	if _, err := m.GetSalt(context.Background(), req); !errors.Is(err, types.ErrMissingBeacon) {
		t.Fatalf("GetSalt() error = %v, want ErrMissingBeacon", err)
	}
}

func TestGetSaltMines(t *testing.T) {
	m := newTestMiner(t, "1", 2, nil)
	defer m.Stop()

	res, err := m.GetSalt(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GetSalt() error = %v", err)
	}
	if res.Address.Bytes()[0]>>4 != 0x1 {
		t.Errorf("address %s does not carry the vanity prefix", res.Address.Hex())
	}
	if res.Verified {
		t.Error("result must be unverified with no chain verifier")
	}
	if res.Attempts <= 0 {
		t.Errorf("attempts = %d, want > 0", res.Attempts)
	}
}

func TestGetSaltPrefetchHit(t *testing.T) {
	m := newTestMiner(t, "1", 1, nil)
	defer m.Stop()

	req := testRequest()
	cached := &types.MiningResult{Salt: [32]byte{31: 0x42}}
	m.queue(req.Owner).push(cached)

	res, err := m.GetSalt(context.Background(), req)
	if err != nil {
		t.Fatalf("GetSalt() error = %v", err)
	}
	if res != cached {
		t.Error("cache hit should return the prefetched result")
	}
	if m.Attempts() != 0 {
		t.Errorf("cache hit performed %d mining attempts", m.Attempts())
	}
}

// A failed derivation self-check aborts the whole run: no retries, no
// mining attempts, regardless of the retry budget left.
func TestGetSaltFatalMismatchShortCircuits(t *testing.T) {
	verifier := &stubVerifier{addr: common.HexToAddress("0x000000000000000000000000000000000000dead")}
	m := newTestMiner(t, "1", 1, verifier)
	m.Policy = RetryPolicy{MaxAttempts: 5}
	defer m.Stop()

	_, err := m.GetSalt(context.Background(), testRequest())
	if !errors.Is(err, types.ErrPredictionMismatch) {
		t.Fatalf("GetSalt() error = %v, want ErrPredictionMismatch", err)
	}
	if got := verifier.callCount(); got != 1 {
		t.Errorf("verifier consulted %d times, want 1 (no retry after fatal)", got)
	}
	if m.Attempts() != 0 {
		t.Errorf("performed %d mining attempts after a fatal self-check", m.Attempts())
	}
}

// Recoverable shard exhaustion is retried until the policy gives up.
func TestGetSaltRetriesUntilPolicyExhausted(t *testing.T) {
	m := newTestMiner(t, "ffffffffffff", 1, nil)
	m.ShardMaxAttempts = 3
	m.Policy = RetryPolicy{MaxAttempts: 2}
	defer m.Stop()

	_, err := m.GetSalt(context.Background(), testRequest())
	if !errors.Is(err, types.ErrWorkerExhausted) {
		t.Fatalf("GetSalt() error = %v, want ErrWorkerExhausted", err)
	}
	if m.Attempts() != 6 {
		t.Errorf("attempts = %d, want 6 (2 rounds x 3 candidates)", m.Attempts())
	}
}

func TestGetSaltCancelled(t *testing.T) {
	m := newTestMiner(t, "ffffffffffff", 1, nil)
	defer m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.GetSalt(ctx, testRequest())
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("GetSalt() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("GetSalt did not return after cancellation")
	}
}

func TestBackgroundRefill(t *testing.T) {
	m := newTestMiner(t, "1", 1, nil)
	m.config.PrefetchTarget = 2
	defer m.Stop()

	req := testRequest()
	if _, err := m.GetSalt(context.Background(), req); err != nil {
		t.Fatalf("GetSalt() error = %v", err)
	}

	deadline := time.After(10 * time.Second)
	for m.queue(req.Owner).len() < 2 {
		select {
		case <-deadline:
			t.Fatalf("refill stalled: queue holds %d of 2", m.queue(req.Owner).len())
		case <-time.After(10 * time.Millisecond):
		}
	}

	// the next request must be served from the queue, not a fresh search
	before := m.Attempts()
	res, err := m.GetSalt(context.Background(), req)
	if err != nil {
		t.Fatalf("GetSalt() error = %v", err)
	}
	if res == nil {
		t.Fatal("GetSalt() returned nil result")
	}
	if m.Attempts() != before {
		t.Errorf("prefetch hit triggered %d extra attempts", m.Attempts()-before)
	}
}
