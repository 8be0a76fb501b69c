// Package config loads the agent configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values for optional settings.
const (
	DefaultBaseURL        = "https://public-api.dextools.io/trial/v2"
	DefaultChain          = "base"
	DefaultRequestTimeout = 10 * time.Second
	DefaultGatherTimeout  = 25 * time.Second
	DefaultHealthPort     = 8080
	DefaultLogLevel       = "info"
)

// Config holds everything the agent needs at startup.
type Config struct {
	// Upstream analytics API
	APIKey         string
	BaseURL        string
	Chain          string
	RequestTimeout time.Duration
	GatherTimeout  time.Duration

	// Agent identity, passed to the SDK untouched
	PrivateKey         string
	NFTTokenID         string
	OwnerAddress       string
	RateLimitPerMinute int

	HealthPort int
	LogLevel   string
}

// LookupFunc reads one variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a validated Config from lookup.
func FromLookup(lookup LookupFunc) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	c := &Config{
		APIKey:       get("DEXTOOLS_API_KEY"),
		BaseURL:      strings.TrimRight(get("DEXTOOLS_BASE_URL"), "/"),
		Chain:        get("DEXTOOLS_CHAIN"),
		PrivateKey:   get("PRIVATE_KEY"),
		NFTTokenID:   get("NFT_TOKEN_ID"),
		OwnerAddress: get("OWNER_ADDRESS"),
		LogLevel:     strings.ToLower(get("LOG_LEVEL")),
	}

	var err error
	if c.RequestTimeout, err = durationVar(get, "REQUEST_TIMEOUT"); err != nil {
		return nil, err
	}
	if c.GatherTimeout, err = durationVar(get, "GATHER_TIMEOUT"); err != nil {
		return nil, err
	}
	if c.HealthPort, err = intVar(get, "HEALTH_PORT"); err != nil {
		return nil, err
	}
	if c.RateLimitPerMinute, err = intVar(get, "RATE_LIMIT_PER_MINUTE"); err != nil {
		return nil, err
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Chain == "" {
		c.Chain = DefaultChain
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.GatherTimeout == 0 {
		c.GatherTimeout = DefaultGatherTimeout
	}
	if c.HealthPort == 0 {
		c.HealthPort = DefaultHealthPort
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks that required fields are set and values are sane.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("DEXTOOLS_API_KEY is required")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.GatherTimeout < 0 {
		return fmt.Errorf("GATHER_TIMEOUT must be positive, got %s", c.GatherTimeout)
	}
	if c.RequestTimeout > c.GatherTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) cannot exceed GATHER_TIMEOUT (%s)", c.RequestTimeout, c.GatherTimeout)
	}
	if c.HealthPort < 1 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535, got %d", c.HealthPort)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// durationVar accepts Go durations ("15s") or plain seconds ("15").
func durationVar(get func(string) string, key string) (time.Duration, error) {
	s := get(key)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, s)
	}
	return d, nil
}

func intVar(get func(string) string, key string) (int, error) {
	s := get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, s)
	}
	return n, nil
}
