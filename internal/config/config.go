package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Errors
var (
	ErrNoOwnerSpecified    = errors.New("must specify --owner")
	ErrNoDeployerSpecified = errors.New("must specify --deployer")
	ErrNoBeaconSpecified   = errors.New("must specify --beacon")
	ErrNoPrefixSpecified   = errors.New("must specify --prefix")
)

// Config holds the application configuration
type Config struct {
	Owner    string
	Deployer string
	Beacon   string
	Prefix   string
	RPCURL   string

	Workers        int
	AttemptTimeout time.Duration
	PrefetchTarget int

	Verbose     bool
	LogFile     string
	LogInterval int // Logging interval in seconds
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:        runtime.NumCPU(),
		AttemptTimeout: 60 * time.Second,
		LogInterval:    5,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Owner == "" {
		return ErrNoOwnerSpecified
	}
	if c.Deployer == "" {
		return ErrNoDeployerSpecified
	}
	if c.Beacon == "" {
		return ErrNoBeaconSpecified
	}
	if c.Prefix == "" {
		return ErrNoPrefixSpecified
	}
	for name, addr := range map[string]string{
		"owner": c.Owner, "deployer": c.Deployer, "beacon": c.Beacon,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s address: %s", name, addr)
		}
	}
	prefix := CleanHex(c.Prefix)
	if len(prefix) == 0 || len(prefix) > 40 {
		return fmt.Errorf("prefix must be 1-40 hex characters, got %q", c.Prefix)
	}
	for _, ch := range prefix {
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return fmt.Errorf("prefix contains non-hex character %q", ch)
		}
	}
	return nil
}

// OwnerAddress returns the parsed owner address.
func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// DeployerAddress returns the parsed deployer address.
func (c *Config) DeployerAddress() common.Address {
	return common.HexToAddress(c.Deployer)
}

// BeaconAddress returns the parsed beacon address.
func (c *Config) BeaconAddress() common.Address {
	return common.HexToAddress(c.Beacon)
}

// CleanHex strips an optional 0x prefix and lowercases the rest.
func CleanHex(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return strings.ToLower(s)
}
