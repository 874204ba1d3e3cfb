// Package cache provides cache latency modeling using Akita cache
// components.
//
// Caches here track tags and replacement state only. Architectural data
// always lives in the machine's memory, so the cache's job is to decide
// whether an access hits and what it costs. Keeping no data array lets a
// checkpointed machine restore under a different cache hierarchy: warmup
// re-primes the tags.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size" yaml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" yaml:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency" yaml:"hit_latency"`
	// MissLatency in cycles, charged at this level before the next level
	// of the hierarchy is consulted
	MissLatency uint64 `json:"miss_latency" yaml:"miss_latency"`
}

// DefaultL1Config returns the default configuration for a private L1
// cache: 32KB, 4-way, 64B lines.
func DefaultL1Config() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 4,
		BlockSize:     64,
		HitLatency:    2,
		MissLatency:   10,
	}
}

// DefaultL2Config returns the default configuration for a unified L2
// cache: 256KB, 8-way, 64B lines.
func DefaultL2Config() Config {
	return Config{
		Size:          256 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    10,
		MissLatency:   80,
	}
}

// Validate checks that the configuration describes a realizable cache.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("cache size must be > 0, got %d", c.Size)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("cache associativity must be > 0, got %d", c.Associativity)
	}
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("cache block size must be a power of two, got %d", c.BlockSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("cache size %d not divisible by associativity %d x block size %d",
			c.Size, c.Associativity, c.BlockSize)
	}
	if c.HitLatency == 0 {
		return fmt.Errorf("cache hit latency must be > 0")
	}
	if c.MissLatency == 0 {
		return fmt.Errorf("cache miss latency must be > 0")
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles charged at this cache level.
	Latency uint64
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the block-aligned address of the evicted block.
	EvictedAddr uint64
}

// Statistics holds cache performance counters.
type Statistics struct {
	Reads     uint64 `json:"reads"`
	Writes    uint64 `json:"writes"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// HitRate returns hits over total accesses, or 0 before any access.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache models one level of the hierarchy using an Akita cache directory
// for tag and replacement state.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the cache counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the counters without touching tag state. Phase
// boundaries reset statistics while the warmed-up tags must survive.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Reset invalidates all cache lines and clears the counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

// Read performs a cache read access.
func (c *Cache) Read(addr uint64) AccessResult {
	c.stats.Reads++
	return c.access(addr, false)
}

// Write performs a cache write access. Write-allocate: a miss installs
// the block.
func (c *Cache) Write(addr uint64) AccessResult {
	c.stats.Writes++
	return c.access(addr, true)
}

func (c *Cache) access(addr uint64, isWrite bool) AccessResult {
	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		if isWrite {
			block.IsDirty = true
		}
		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	// Miss: install the block in the victim's place.
	c.stats.Misses++
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.directory.Visit(victim)

	return result
}
