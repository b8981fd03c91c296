package recency

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Hardcoded fallbacks used when neither the defaults block nor a per-type
// override mentions a field.
const (
	defaultCacheOnCreation     = true
	defaultCacheOnModification = false
	defaultCacheTime           = 60 * time.Second
)

// Config is the process-wide recency configuration: a defaults block plus
// per-entity-type overrides. It is constructed once at startup; the resolver
// treats it as immutable.
type Config struct {
	Defaults Overrides
	Types    map[string]Overrides
}

// Overrides is one configuration block. Nil pointer fields mean "not
// mentioned here"; the resolver merges field by field, so an override only
// replaces what it explicitly sets. Lists replace wholesale, never merge.
type Overrides struct {
	CacheOnCreation     *bool
	CacheOnModification *bool
	CacheTime           *time.Duration
	Tiers               []string
	OnlyCacheMatching   []Predicate
}

// EntityConfig is the fully resolved configuration for one entity type.
type EntityConfig struct {
	CacheOnCreation     bool
	CacheOnModification bool
	CacheTime           time.Duration
	Tiers               []string
	OnlyCacheMatching   []Predicate
}

// effective merges the hardcoded fallbacks, the defaults block, and the
// per-type override (in that order) into the resolved config for entityType.
func (c Config) effective(entityType string) EntityConfig {
	ec := EntityConfig{
		CacheOnCreation:     defaultCacheOnCreation,
		CacheOnModification: defaultCacheOnModification,
		CacheTime:           defaultCacheTime,
		Tiers:               []string{DefaultTierName},
	}
	ec.apply(c.Defaults)
	if override, ok := c.Types[entityType]; ok {
		ec.apply(override)
	}
	return ec
}

func (ec *EntityConfig) apply(o Overrides) {
	if o.CacheOnCreation != nil {
		ec.CacheOnCreation = *o.CacheOnCreation
	}
	if o.CacheOnModification != nil {
		ec.CacheOnModification = *o.CacheOnModification
	}
	if o.CacheTime != nil {
		ec.CacheTime = *o.CacheTime
	}
	if o.Tiers != nil {
		ec.Tiers = append([]string(nil), o.Tiers...)
	}
	if o.OnlyCacheMatching != nil {
		ec.OnlyCacheMatching = append([]Predicate(nil), o.OnlyCacheMatching...)
	}
}

// yamlOverrides mirrors Overrides for YAML decoding. Declarative files can
// only express FieldMatch predicates; PredicateFunc values have to be added
// programmatically after loading.
type yamlOverrides struct {
	CacheOnCreation     *bool            `yaml:"cache_on_creation"`
	CacheOnModification *bool            `yaml:"cache_on_modification"`
	CacheTime           *string          `yaml:"cache_time"`
	Tiers               []string         `yaml:"caches"`
	OnlyCacheMatching   []map[string]any `yaml:"only_cache_matching"`
}

type yamlConfig struct {
	Defaults *yamlOverrides           `yaml:"defaults"`
	Types    map[string]yamlOverrides `yaml:"types"`
}

// ParseConfig decodes a YAML configuration document. Durations use Go
// syntax, e.g. "90s" or "5m".
//
//	defaults:
//	  cache_on_creation: true
//	  cache_time: 60s
//	  caches: [memory]
//	types:
//	  user:
//	    cache_on_modification: true
//	    only_cache_matching:
//	      - Active: true
func ParseConfig(data []byte) (Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("recency: parsing config: %w", err)
	}

	var cfg Config
	if raw.Defaults != nil {
		defaults, err := raw.Defaults.toOverrides("defaults")
		if err != nil {
			return Config{}, err
		}
		cfg.Defaults = defaults
	}
	if len(raw.Types) > 0 {
		cfg.Types = make(map[string]Overrides, len(raw.Types))
		for name, block := range raw.Types {
			override, err := block.toOverrides(name)
			if err != nil {
				return Config{}, err
			}
			cfg.Types[name] = override
		}
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("recency: reading config: %w", err)
	}
	return ParseConfig(data)
}

func (y yamlOverrides) toOverrides(block string) (Overrides, error) {
	o := Overrides{
		CacheOnCreation:     y.CacheOnCreation,
		CacheOnModification: y.CacheOnModification,
		Tiers:               y.Tiers,
	}
	if y.CacheTime != nil {
		d, err := time.ParseDuration(*y.CacheTime)
		if err != nil {
			return Overrides{}, fmt.Errorf("recency: config block %q: invalid cache_time %q: %w", block, *y.CacheTime, err)
		}
		o.CacheTime = &d
	}
	if y.OnlyCacheMatching != nil {
		o.OnlyCacheMatching = make([]Predicate, 0, len(y.OnlyCacheMatching))
		for _, fields := range y.OnlyCacheMatching {
			o.OnlyCacheMatching = append(o.OnlyCacheMatching, FieldMatch(fields))
		}
	}
	return o, nil
}

// Bool returns a pointer to b, for building Overrides literals.
func Bool(b bool) *bool { return &b }

// TTL returns a pointer to d, for building Overrides literals.
func TTL(d time.Duration) *time.Duration { return &d }
