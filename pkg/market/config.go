package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"pricebot/pkg/confkit"
)

// Well-known source names. Each must be configured.
const (
	SourcePancakeSwap   = "pancakeswap"
	SourceBscScan       = "bscscan"
	SourceCoinMarketCap = "coinmarketcap"
)

var requiredSources = []string{SourcePancakeSwap, SourceBscScan, SourceCoinMarketCap}

// Config describes the tracked token and the upstream sources queried for it.
type Config struct {
	Token   TokenConfig              `yaml:"token"`
	Sources map[string]*SourceConfig `yaml:"sources"`
}

// TokenConfig identifies the tracked token across upstream sources.
//
// Addresses are stored in EIP-55 checksum form. A zero or omitted numeric
// field selects its default; negative values are rejected.
type TokenConfig struct {
	Contract     string `yaml:"contract"`
	BurnAddress  string `yaml:"burn_address"`
	CMCID        int    `yaml:"cmc_id"`
	TotalSupply  int64  `yaml:"total_supply"`   // display units ("T")
	UnitScale    int64  `yaml:"unit_scale"`     // display unit -> market-cap multiplier
	BurnScaleExp int32  `yaml:"burn_scale_exp"` // base units per display unit, as a power of ten
	ExplorerURL  string `yaml:"explorer_url"`
}

// SourceConfig represents configuration for a single upstream endpoint.
type SourceConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	TimeoutRaw     string        `yaml:"timeout"`
	Timeout        time.Duration `yaml:"-"`
	HTTPTimeoutRaw string        `yaml:"http_timeout"`
	HTTPTimeout    time.Duration `yaml:"-"`
}

// Token defaults match the tracked BEP-20 contract.
const (
	DefaultContract     = "0x8076C74C5e3F5852037F31Ff0093Eeb8c8ADd8D3"
	DefaultBurnAddress  = "0x0000000000000000000000000000000000000001"
	DefaultCMCID        = 8757
	DefaultTotalSupply  = 1000
	DefaultUnitScale    = 1_000_000
	DefaultBurnScaleExp = 21
	DefaultExplorerURL  = "https://bscscan.com"
)

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads market configuration from the default project location and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/market.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read market config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal market config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	c.Token.applyDefaults()
	if c.Sources == nil {
		c.Sources = make(map[string]*SourceConfig)
	}
	for name, source := range c.Sources {
		if source == nil {
			source = &SourceConfig{}
			c.Sources[name] = source
		}
		source.expandEnv()
		if err := source.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (t *TokenConfig) applyDefaults() {
	t.Contract = strings.TrimSpace(os.ExpandEnv(t.Contract))
	t.BurnAddress = strings.TrimSpace(os.ExpandEnv(t.BurnAddress))
	t.ExplorerURL = strings.TrimRight(strings.TrimSpace(os.ExpandEnv(t.ExplorerURL)), "/")
	if t.Contract == "" {
		t.Contract = DefaultContract
	}
	if t.BurnAddress == "" {
		t.BurnAddress = DefaultBurnAddress
	}
	if t.CMCID == 0 {
		t.CMCID = DefaultCMCID
	}
	if t.TotalSupply == 0 {
		t.TotalSupply = DefaultTotalSupply
	}
	if t.UnitScale == 0 {
		t.UnitScale = DefaultUnitScale
	}
	if t.BurnScaleExp == 0 {
		t.BurnScaleExp = DefaultBurnScaleExp
	}
	if t.ExplorerURL == "" {
		t.ExplorerURL = DefaultExplorerURL
	}
	t.Contract = checksumAddress(t.Contract)
	t.BurnAddress = checksumAddress(t.BurnAddress)
}

// checksumAddress returns addr in checksum form, or unchanged when it is not a
// hex address so that Validate can report it.
func checksumAddress(addr string) string {
	if !common.IsHexAddress(addr) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}

func (s *SourceConfig) expandEnv() {
	s.BaseURL = strings.TrimSpace(os.ExpandEnv(s.BaseURL))
	s.APIKey = strings.TrimSpace(os.ExpandEnv(s.APIKey))
	s.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(s.TimeoutRaw))
	s.HTTPTimeoutRaw = strings.TrimSpace(os.ExpandEnv(s.HTTPTimeoutRaw))
}

func (s *SourceConfig) parseDurations(name string) error {
	if s.TimeoutRaw != "" {
		d, err := time.ParseDuration(s.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("market source %s: invalid timeout %q: %w", name, s.TimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("market source %s: timeout must be positive, got %s", name, d)
		}
		s.Timeout = d
	}
	if s.HTTPTimeoutRaw != "" {
		d, err := time.ParseDuration(s.HTTPTimeoutRaw)
		if err != nil {
			return fmt.Errorf("market source %s: invalid http_timeout %q: %w", name, s.HTTPTimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("market source %s: http_timeout must be positive, got %s", name, d)
		}
		s.HTTPTimeout = d
	}
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Token.Contract) {
		return fmt.Errorf("market config: token.contract %q is not a hex address", c.Token.Contract)
	}
	if !common.IsHexAddress(c.Token.BurnAddress) {
		return fmt.Errorf("market config: token.burn_address %q is not a hex address", c.Token.BurnAddress)
	}
	if c.Token.TotalSupply <= 0 {
		return fmt.Errorf("market config: token.total_supply must be positive (0 selects the default)")
	}
	if c.Token.UnitScale <= 0 {
		return fmt.Errorf("market config: token.unit_scale must be positive (0 selects the default)")
	}
	if c.Token.BurnScaleExp <= 0 {
		return fmt.Errorf("market config: token.burn_scale_exp must be positive (0 selects the default)")
	}
	if c.Token.CMCID <= 0 {
		return fmt.Errorf("market config: token.cmc_id must be positive (0 selects the default)")
	}
	for _, name := range requiredSources {
		if _, ok := c.Sources[name]; !ok {
			return fmt.Errorf("market config: source %s not defined", name)
		}
	}
	for name := range c.Sources {
		if !isKnownSource(name) {
			return fmt.Errorf("market config: unsupported source %q", name)
		}
	}
	return nil
}

// Source returns the named source config, or an empty one when absent.
func (c *Config) Source(name string) *SourceConfig {
	if s, ok := c.Sources[name]; ok && s != nil {
		return s
	}
	return &SourceConfig{}
}

func isKnownSource(name string) bool {
	for _, known := range requiredSources {
		if name == known {
			return true
		}
	}
	return false
}
