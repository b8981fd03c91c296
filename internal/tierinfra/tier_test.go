package tierinfra

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-consistency/recency"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Capacity = 128
	return cfg
}

// tierUnderTest lets the contract tests run against every built-in backend.
type tierUnderTest struct {
	name    string
	tier    recency.Tier
	setTime func(func() time.Time)
}

func builtinTiers(t *testing.T) []tierUnderTest {
	t.Helper()

	sturdycTier, err := NewSturdycTier(testConfig())
	if err != nil {
		t.Fatalf("NewSturdycTier: %v", err)
	}
	lruTier, err := NewLRUTier(testConfig())
	if err != nil {
		t.Fatalf("NewLRUTier: %v", err)
	}

	return []tierUnderTest{
		{"sturdyc", sturdycTier, func(now func() time.Time) { sturdycTier.now = now }},
		{"lru", lruTier, func(now func() time.Time) { lruTier.now = now }},
	}
}

func TestTier_PutListRemove(t *testing.T) {
	ctx := context.Background()

	for _, tc := range builtinTiers(t) {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tier.Put(ctx, "user", "u1", recency.EventCreated, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := tc.tier.Put(ctx, "user", "u2", recency.EventDeleted, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}

			live, err := tc.tier.ListLive(ctx, "user")
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if len(live) != 2 {
				t.Fatalf("expected 2 live records, got %d: %v", len(live), live)
			}
			if live["u1"] != recency.EventCreated {
				t.Errorf("u1: expected created, got %v", live["u1"])
			}
			if live["u2"] != recency.EventDeleted {
				t.Errorf("u2: expected deleted, got %v", live["u2"])
			}

			if err := tc.tier.Remove(ctx, "user", "u1"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			live, err = tc.tier.ListLive(ctx, "user")
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if _, ok := live["u1"]; ok {
				t.Errorf("u1 still live after Remove")
			}
		})
	}
}

func TestTier_PutOverwritesEarlierRecord(t *testing.T) {
	ctx := context.Background()

	for _, tc := range builtinTiers(t) {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tier.Put(ctx, "user", "u1", recency.EventCreated, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := tc.tier.Put(ctx, "user", "u1", recency.EventDeleted, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}

			live, err := tc.tier.ListLive(ctx, "user")
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if len(live) != 1 {
				t.Fatalf("expected exactly 1 live record, got %d", len(live))
			}
			if live["u1"] != recency.EventDeleted {
				t.Errorf("expected last write (deleted) to win, got %v", live["u1"])
			}
		})
	}
}

func TestTier_ExpiredRecordsAbsentFromListLive(t *testing.T) {
	ctx := context.Background()
	base := time.Now()

	for _, tc := range builtinTiers(t) {
		t.Run(tc.name, func(t *testing.T) {
			tc.setTime(func() time.Time { return base })
			if err := tc.tier.Put(ctx, "user", "short", recency.EventCreated, 30*time.Second); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := tc.tier.Put(ctx, "user", "long", recency.EventCreated, 10*time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}

			tc.setTime(func() time.Time { return base.Add(time.Minute) })
			live, err := tc.tier.ListLive(ctx, "user")
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if _, ok := live["short"]; ok {
				t.Errorf("record past its deadline should be absent")
			}
			if _, ok := live["long"]; !ok {
				t.Errorf("record within its deadline should be present")
			}
		})
	}
}

func TestTier_EntityTypesAreIsolated(t *testing.T) {
	ctx := context.Background()

	for _, tc := range builtinTiers(t) {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tier.Put(ctx, "user", "1", recency.EventCreated, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := tc.tier.Put(ctx, "order", "1", recency.EventModified, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}

			live, err := tc.tier.ListLive(ctx, "user")
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if len(live) != 1 || live["1"] != recency.EventCreated {
				t.Errorf("user records bled across types: %v", live)
			}
		})
	}
}

func TestTier_IdentifierMayContainSeparator(t *testing.T) {
	ctx := context.Background()

	for _, tc := range builtinTiers(t) {
		t.Run(tc.name, func(t *testing.T) {
			id := "composite" + KeySeparator + "key"
			if err := tc.tier.Put(ctx, "user", id, recency.EventCreated, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}
			live, err := tc.tier.ListLive(ctx, "user")
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if _, ok := live[id]; !ok {
				t.Errorf("identifier with separator not round-tripped: %v", live)
			}
		})
	}
}

func TestTier_EntityTypeMayContainSeparator(t *testing.T) {
	ctx := context.Background()

	for _, tc := range builtinTiers(t) {
		t.Run(tc.name, func(t *testing.T) {
			// "report" with id "eu::1" and "report::eu" with id "1" would
			// collide under naive concatenation.
			sepType := "report" + KeySeparator + "eu"
			if err := tc.tier.Put(ctx, sepType, "1", recency.EventCreated, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := tc.tier.Put(ctx, "report", "eu"+KeySeparator+"1", recency.EventDeleted, time.Minute); err != nil {
				t.Fatalf("Put: %v", err)
			}

			live, err := tc.tier.ListLive(ctx, sepType)
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if len(live) != 1 || live["1"] != recency.EventCreated {
				t.Errorf("separator-bearing type got polluted records: %v", live)
			}

			live, err = tc.tier.ListLive(ctx, "report")
			if err != nil {
				t.Fatalf("ListLive: %v", err)
			}
			if len(live) != 1 || live["eu"+KeySeparator+"1"] != recency.EventDeleted {
				t.Errorf("plain type leaked records from separator-bearing type: %v", live)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, "Capacity"},
		{"zero shards", func(c *Config) { c.NumShards = 0 }, "NumShards"},
		{"zero backstop", func(c *Config) { c.BackstopTTL = 0 }, "BackstopTTL"},
		{"eviction too high", func(c *Config) { c.EvictionPercentage = 101 }, "EvictionPercentage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantErr {
				t.Errorf("expected error on field %s, got %s", tt.wantErr, cfgErr.Field)
			}
		})
	}
}
