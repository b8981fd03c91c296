package recency

import (
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrUnknownTier is returned when a configuration block references a tier
// name that was never registered. This is a startup-time configuration error;
// it is never surfaced on the read or write path.
var ErrUnknownTier = errors.New("recency: unknown tier")

// Resolver produces the effective EntityConfig for an entity type. Configs
// are resolved lazily on first use and memoized; the underlying Config is
// treated as immutable after construction.
type Resolver struct {
	cfg      Config
	registry *TierRegistry
	resolved *xsync.MapOf[string, EntityConfig]
}

// NewResolver validates every tier reference in cfg against the registry and
// fails fast on unknown names, so runtime resolution cannot hit a missing
// tier.
func NewResolver(cfg Config, registry *TierRegistry) (*Resolver, error) {
	if registry == nil {
		return nil, fmt.Errorf("recency: resolver requires a tier registry")
	}
	if err := validateTiers(cfg, registry); err != nil {
		return nil, err
	}
	return &Resolver{
		cfg:      cfg,
		registry: registry,
		resolved: xsync.NewMapOf[string, EntityConfig](),
	}, nil
}

// Resolve returns the effective configuration for entityType. The slices in
// the returned value are copies, so callers mutating them cannot corrupt the
// memoized config.
func (r *Resolver) Resolve(entityType string) EntityConfig {
	cfg, _ := r.resolved.LoadOrCompute(entityType, func() EntityConfig {
		return r.cfg.effective(entityType)
	})
	cfg.Tiers = append([]string(nil), cfg.Tiers...)
	cfg.OnlyCacheMatching = append([]Predicate(nil), cfg.OnlyCacheMatching...)
	return cfg
}

// Registry returns the tier registry the resolver validates against.
func (r *Resolver) Registry() *TierRegistry {
	return r.registry
}

func validateTiers(cfg Config, registry *TierRegistry) error {
	check := func(block string, names []string) error {
		for _, name := range names {
			if _, ok := registry.Lookup(name); !ok {
				return fmt.Errorf("%w %q referenced by config block %q (registered: %v)",
					ErrUnknownTier, name, block, registry.Names())
			}
		}
		return nil
	}

	// The hardcoded default tier only matters when no block overrides the
	// tier list, but a registry without it is almost always a wiring bug,
	// so it is checked whenever the defaults block leaves tiers unset.
	defaults := cfg.Defaults.Tiers
	if defaults == nil {
		defaults = []string{DefaultTierName}
	}
	if err := check("defaults", defaults); err != nil {
		return err
	}
	for name, override := range cfg.Types {
		if err := check(name, override.Tiers); err != nil {
			return err
		}
	}
	return nil
}
