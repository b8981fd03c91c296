package di

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-consistency/internal/tierinfra"
	"github.com/goliatone/go-consistency/overlay"
	"github.com/goliatone/go-consistency/recency"
)

// LRUTierName is the name the container registers the expirable-LRU tier
// under. The sturdyc tier is registered as recency.DefaultTierName.
const LRUTierName = "lru"

// Config aggregates the settings for a fully wired consistency overlay.
type Config struct {
	// Recency holds the per-entity-type recording configuration.
	Recency recency.Config

	// Tiers configures the built-in tier backends.
	Tiers tierinfra.Config
}

// DefaultConfig returns a Config that records creations into the sturdyc
// tier with the hardcoded per-type defaults.
func DefaultConfig() Config {
	return Config{Tiers: tierinfra.DefaultConfig()}
}

// Container wires the tier backends, resolver, and recorder together and
// hands out augmentors bound to a backing store.
type Container struct {
	registry *recency.TierRegistry
	resolver *recency.Resolver
	recorder *recency.Recorder
	logger   zerolog.Logger

	extraTiers map[string]recency.Tier
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithLogger sets the logger shared by the recorder and augmentors.
func WithLogger(log zerolog.Logger) ContainerOption {
	return func(c *Container) {
		c.logger = log
	}
}

// WithTier registers an additional named tier before the resolver is built,
// so configuration blocks may reference it.
func WithTier(name string, tier recency.Tier) ContainerOption {
	return func(c *Container) {
		c.extraTiers[name] = tier
	}
}

// NewContainer builds the standard wiring: a sturdyc tier under
// recency.DefaultTierName, an expirable-LRU tier under LRUTierName, a
// resolver validated against them, and a recorder. Configuration errors
// (invalid tier settings, unknown tier references) fail here, at startup.
func NewContainer(cfg Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		logger:     zerolog.Nop(),
		extraTiers: make(map[string]recency.Tier),
	}
	for _, opt := range opts {
		opt(c)
	}

	memory, err := tierinfra.NewSturdycTier(cfg.Tiers)
	if err != nil {
		return nil, err
	}
	lru, err := tierinfra.NewLRUTier(cfg.Tiers)
	if err != nil {
		return nil, err
	}

	c.registry = recency.NewTierRegistry()
	if err := c.registry.Register(recency.DefaultTierName, memory); err != nil {
		return nil, err
	}
	if err := c.registry.Register(LRUTierName, lru); err != nil {
		return nil, err
	}
	for name, tier := range c.extraTiers {
		if err := c.registry.Register(name, tier); err != nil {
			return nil, err
		}
	}

	c.resolver, err = recency.NewResolver(cfg.Recency, c.registry)
	if err != nil {
		return nil, err
	}
	c.recorder = recency.NewRecorder(c.resolver, recency.WithRecorderLogger(c.logger))
	return c, nil
}

// NewContainerWithDefaults builds a container from DefaultConfig.
func NewContainerWithDefaults(opts ...ContainerOption) (*Container, error) {
	return NewContainer(DefaultConfig(), opts...)
}

// Registry returns the tier registry.
func (c *Container) Registry() *recency.TierRegistry {
	return c.registry
}

// Resolver returns the singleton configuration resolver.
func (c *Container) Resolver() *recency.Resolver {
	return c.resolver
}

// Recorder returns the singleton lifecycle-event recorder.
func (c *Container) Recorder() *recency.Recorder {
	return c.recorder
}

// Hooks returns the recorder's lifecycle callbacks for the host to wire
// into its write path.
func (c *Container) Hooks() recency.Hooks {
	return c.recorder.Hooks()
}

// Augmentor builds a query augmentor bound to the given backing store.
func (c *Container) Augmentor(store overlay.Store, opts ...overlay.Option) (*overlay.Augmentor, error) {
	opts = append([]overlay.Option{overlay.WithLogger(c.logger)}, opts...)
	return overlay.NewAugmentor(store, c.resolver, opts...)
}
