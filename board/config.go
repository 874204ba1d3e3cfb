package board

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/phasesim/timing/cache"
	"github.com/sarchlab/phasesim/timing/latency"
)

// Cache hierarchy variants.
const (
	HierarchyNone = "none"
	HierarchyL1   = "l1"
	HierarchyL1L2 = "l1l2"
)

// Config describes the machine the builder assembles.
type Config struct {
	// MemoryCapacity is the addressable memory size, e.g. "64MiB".
	// Checkpoints record it exactly; a restore with a different
	// capacity is rejected.
	MemoryCapacity string `yaml:"memory_capacity"`

	// Cores is the number of logical core slots. Each slot gets one
	// execution-model instance per group.
	Cores int `yaml:"cores"`

	// CacheHierarchy selects the memory-system shape: "none", "l1",
	// or "l1l2".
	CacheHierarchy string `yaml:"cache_hierarchy"`

	// L1 and L2 configure the cache levels the hierarchy names.
	L1 cache.Config `yaml:"l1"`
	L2 cache.Config `yaml:"l2"`

	// MemLatency is the cycle cost of reaching main memory in timing
	// mode, charged after the last cache level misses.
	MemLatency uint64 `yaml:"mem_latency"`

	// FastLatency is the flat per-access cycle cost in fast mode,
	// where the hierarchy is bypassed entirely.
	FastLatency uint64 `yaml:"fast_latency"`

	// Latency, when set, configures the detailed core's instruction
	// latencies inline. LatencyPath loads them from a JSON file
	// instead; Latency wins when both are present.
	Latency     *latency.Config `yaml:"latency,omitempty"`
	LatencyPath string          `yaml:"latency_config,omitempty"`
}

// DefaultConfig returns a single-core machine with 64MiB of memory and
// an L1-only hierarchy.
func DefaultConfig() *Config {
	return &Config{
		MemoryCapacity: "64MiB",
		Cores:          1,
		CacheHierarchy: HierarchyL1,
		L1:             cache.DefaultL1Config(),
		L2:             cache.DefaultL2Config(),
		MemLatency:     100,
		FastLatency:    1,
	}
}

// LoadConfig loads a Config from a YAML file. Fields absent from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse board config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize board config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write board config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a buildable machine.
func (c *Config) Validate() error {
	if _, err := c.CapacityBytes(); err != nil {
		return err
	}
	if c.Cores <= 0 {
		return fmt.Errorf("cores must be > 0, got %d", c.Cores)
	}
	if c.MemLatency == 0 {
		return fmt.Errorf("mem_latency must be > 0")
	}

	switch c.CacheHierarchy {
	case HierarchyNone:
	case HierarchyL1:
		if err := c.L1.Validate(); err != nil {
			return fmt.Errorf("l1: %w", err)
		}
	case HierarchyL1L2:
		if err := c.L1.Validate(); err != nil {
			return fmt.Errorf("l1: %w", err)
		}
		if err := c.L2.Validate(); err != nil {
			return fmt.Errorf("l2: %w", err)
		}
	default:
		return fmt.Errorf("unknown cache hierarchy %q", c.CacheHierarchy)
	}

	if c.Latency != nil {
		if err := c.Latency.Validate(); err != nil {
			return fmt.Errorf("latency: %w", err)
		}
	}

	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Latency != nil {
		clone.Latency = c.Latency.Clone()
	}
	return &clone
}

// CapacityBytes parses MemoryCapacity into bytes.
func (c *Config) CapacityBytes() (uint64, error) {
	return parseSize(c.MemoryCapacity)
}

var sizeSuffixes = []struct {
	suffix string
	factor uint64
}{
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"GB", 1000 * 1000 * 1000},
	{"MB", 1000 * 1000},
	{"KB", 1000},
	{"B", 1},
}

// parseSize parses a size string such as "2GiB", "64MiB", or a plain
// byte count.
func parseSize(s string) (uint64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("memory capacity is empty")
	}

	factor := uint64(1)
	number := trimmed
	for _, e := range sizeSuffixes {
		if strings.HasSuffix(trimmed, e.suffix) {
			factor = e.factor
			number = strings.TrimSpace(strings.TrimSuffix(trimmed, e.suffix))
			break
		}
	}

	v, err := strconv.ParseUint(number, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad memory capacity %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("memory capacity must be > 0")
	}

	return v * factor, nil
}
