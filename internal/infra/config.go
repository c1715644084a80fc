package infra

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/json0755/call-option-token/internal/domain"
	"github.com/json0755/call-option-token/pkg/quant"
)

// Config holds the full application configuration.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Instrument struct {
		ID         string `yaml:"id"`         // generated when empty
		Name       string `yaml:"name"`       // display name
		Symbol     string `yaml:"symbol"`     // ticker
		Strike     string `yaml:"strike"`     // decimal string, e.g. "2.5"
		Expiry     string `yaml:"expiry"`     // RFC3339, e.g. "2026-10-01T00:00:00Z"
		Collateral string `yaml:"collateral"` // "NATIVE"
	} `yaml:"instrument"`

	Issuer struct {
		Address string `yaml:"address"`
	} `yaml:"issuer"`

	Notify struct {
		ListenAddr     string  `yaml:"listen_addr"`
		AcceptsPerSec  float64 `yaml:"accepts_per_sec"`
		AcceptBurst    int     `yaml:"accept_burst"`
		SendBufferSize int     `yaml:"send_buffer_size"`
	} `yaml:"notify"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies env overrides and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Issuer.Address == "" {
		return fmt.Errorf("issuer address is required")
	}
	if c.Instrument.Symbol == "" {
		return fmt.Errorf("instrument symbol is required")
	}

	strike, err := quant.ParsePrice(c.Instrument.Strike)
	if err != nil {
		return fmt.Errorf("instrument strike: %w", err)
	}
	if strike <= 0 {
		return fmt.Errorf("instrument strike must be positive")
	}

	if _, err := time.Parse(time.RFC3339, c.Instrument.Expiry); err != nil {
		return fmt.Errorf("instrument expiry: %w", err)
	}

	switch domain.CollateralKind(c.Instrument.Collateral) {
	case domain.CollateralNative:
	default:
		return fmt.Errorf("collateral kind %q is not supported", c.Instrument.Collateral)
	}

	if c.Notify.ListenAddr != "" {
		if c.Notify.AcceptsPerSec < 0 || c.Notify.AcceptBurst < 0 {
			return fmt.Errorf("notify rate limits must be non-negative")
		}
	}

	return nil
}

// Terms builds the immutable instrument terms from the config. A missing
// instrument ID is generated here, once, so that restarts over a persisted
// journal keep the configured identity stable.
func (c *Config) Terms() (domain.Terms, error) {
	strike, err := quant.ParsePrice(c.Instrument.Strike)
	if err != nil {
		return domain.Terms{}, err
	}
	expiry, err := time.Parse(time.RFC3339, c.Instrument.Expiry)
	if err != nil {
		return domain.Terms{}, err
	}

	id := c.Instrument.ID
	if id == "" {
		id = uuid.NewString()
	}

	return domain.Terms{
		ID:           id,
		Name:         c.Instrument.Name,
		Symbol:       c.Instrument.Symbol,
		StrikeMicros: strike,
		ExpiryUnixM:  quant.TimeStamp(expiry.UnixMicro()),
		Collateral:   domain.CollateralKind(c.Instrument.Collateral),
	}, nil
}

// overrideWithEnv applies environment variables over the config file.
// Rule #5: environment wins over file.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("OPTION_ISSUER_ADDR"); addr != "" {
		cfg.Issuer.Address = addr
	}
	if addr := os.Getenv("OPTION_NOTIFY_ADDR"); addr != "" {
		cfg.Notify.ListenAddr = addr
	}
	if level := os.Getenv("OPTION_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
