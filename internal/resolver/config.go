package resolver

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/store"
)

// Config is the chain configuration: source priority order per key domain
// and the failure-ledger retry-after window.
type Config struct {
	FailureTTLHours int                    `yaml:"failure_ttl_hours"`
	Chains          map[string]ChainConfig `yaml:"chains"`
}

// ChainConfig orders the sources for one key domain, most trusted first.
type ChainConfig struct {
	Sources []string `yaml:"sources"`
}

// DefaultConfig is used when no chains file is configured.
func DefaultConfig() *Config {
	return &Config{
		FailureTTLHours: 168, // 7 days
		Chains: map[string]ChainConfig{
			string(model.DomainRecording): {Sources: []string{"quansic", "musicbrainz"}},
			string(model.DomainArtist):    {Sources: []string{"quansic", "musicbrainz", "spotify"}},
		},
	}
}

// LoadConfig reads a chains file. The YAML has a top-level "resolver" key.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: read config %s", path)
	}
	var wrapper struct {
		Resolver Config `yaml:"resolver"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "resolver: parse config")
	}
	cfg := &wrapper.Resolver
	if cfg.FailureTTLHours <= 0 {
		cfg.FailureTTLHours = DefaultConfig().FailureTTLHours
	}
	if len(cfg.Chains) == 0 {
		cfg.Chains = DefaultConfig().Chains
	}
	return cfg, nil
}

// FailureTTL returns the configured window as a duration.
func (c *Config) FailureTTL() time.Duration {
	return time.Duration(c.FailureTTLHours) * time.Hour
}

// BuildRecordingChain assembles the ISRC chain from config order. Every
// configured source must have a registered live adapter; sources with a
// cache table also get a cache layer in the same position.
func BuildRecordingChain(cfg *Config, st store.Store, adapters map[string]Adapter[model.RecordingMeta]) (*Chain[model.RecordingMeta], error) {
	cc, ok := cfg.Chains[string(model.DomainRecording)]
	if !ok {
		return nil, eris.New("resolver: no recording chain configured")
	}
	var caches []Cache[model.RecordingMeta]
	var lives []Adapter[model.RecordingMeta]
	for _, name := range cc.Sources {
		a, ok := adapters[name]
		if !ok {
			return nil, eris.Errorf("resolver: no adapter registered for source %q", name)
		}
		lives = append(lives, a)
		caches = append(caches, &RecordingCache{Source: name, Store: st})
	}
	ledger := &StoreLedger{Domain: model.DomainRecording, Store: st}
	return NewChain(model.DomainRecording, caches, lives, ledger, cfg.FailureTTL()), nil
}

// BuildArtistChain assembles the ISNI chain from config order.
func BuildArtistChain(cfg *Config, st store.Store, adapters map[string]Adapter[model.ArtistMeta]) (*Chain[model.ArtistMeta], error) {
	cc, ok := cfg.Chains[string(model.DomainArtist)]
	if !ok {
		return nil, eris.New("resolver: no artist chain configured")
	}
	var caches []Cache[model.ArtistMeta]
	var lives []Adapter[model.ArtistMeta]
	for _, name := range cc.Sources {
		a, ok := adapters[name]
		if !ok {
			return nil, eris.Errorf("resolver: no adapter registered for source %q", name)
		}
		lives = append(lives, a)
		caches = append(caches, &ArtistCache{Source: name, Store: st})
	}
	ledger := &StoreLedger{Domain: model.DomainArtist, Store: st}
	return NewChain(model.DomainArtist, caches, lives, ledger, cfg.FailureTTL()), nil
}
