package board

import (
	"github.com/sarchlab/phasesim/timing/cache"
)

// AccessMode selects how the memory system charges accesses.
type AccessMode int

// Access modes.
const (
	// AccessModeFast bypasses the cache hierarchy at a flat,
	// contention-free cost. Used while a fast group is active.
	AccessModeFast AccessMode = iota

	// AccessModeTiming walks the cache hierarchy and charges hit and
	// miss latencies. Used while a detailed group is active.
	AccessModeTiming
)

// String returns the access mode name.
func (m AccessMode) String() string {
	switch m {
	case AccessModeFast:
		return "fast"
	case AccessModeTiming:
		return "timing"
	default:
		return "unknown"
	}
}

// MemorySystem owns the cache hierarchy and the access-mode switch the
// registry flips on group changes. Cache contents are deliberately not
// part of checkpointed state: hierarchy configurations may differ
// between capture and restore, and warmup exists to re-prime them.
type MemorySystem struct {
	mode        AccessMode
	fastLatency uint64
	memLatency  uint64

	l1 *cache.Cache
	l2 *cache.Cache
}

// NewMemorySystem builds the memory system the Config's hierarchy
// variant names. The caller validates the config first.
func NewMemorySystem(cfg *Config) *MemorySystem {
	ms := &MemorySystem{
		mode:        AccessModeFast,
		fastLatency: cfg.FastLatency,
		memLatency:  cfg.MemLatency,
	}

	switch cfg.CacheHierarchy {
	case HierarchyL1:
		ms.l1 = cache.New(cfg.L1)
	case HierarchyL1L2:
		ms.l1 = cache.New(cfg.L1)
		ms.l2 = cache.New(cfg.L2)
	}

	return ms
}

// Mode returns the current access mode.
func (ms *MemorySystem) Mode() AccessMode {
	return ms.mode
}

// SetMode switches the access mode. Only the registry calls this, at
// group-switch suspension points.
func (ms *MemorySystem) SetMode(mode AccessMode) {
	ms.mode = mode
}

// FetchLatency returns the cycle cost of fetching an instruction.
func (ms *MemorySystem) FetchLatency(addr uint64) uint64 {
	return ms.AccessLatency(addr, false)
}

// AccessLatency returns the cycle cost of a data access. In timing
// mode the access walks L1, then L2 on a miss, then main memory.
func (ms *MemorySystem) AccessLatency(addr uint64, write bool) uint64 {
	if ms.mode == AccessModeFast {
		return ms.fastLatency
	}

	if ms.l1 == nil {
		return ms.memLatency
	}

	l1Result := ms.cacheAccess(ms.l1, addr, write)
	total := l1Result.Latency
	if l1Result.Hit {
		return total
	}

	if ms.l2 == nil {
		return total + ms.memLatency
	}

	l2Result := ms.cacheAccess(ms.l2, addr, write)
	total += l2Result.Latency
	if l2Result.Hit {
		return total
	}
	return total + ms.memLatency
}

func (ms *MemorySystem) cacheAccess(c *cache.Cache, addr uint64, write bool) cache.AccessResult {
	if write {
		return c.Write(addr)
	}
	return c.Read(addr)
}

// L1 returns the L1 cache, or nil when the hierarchy has none.
func (ms *MemorySystem) L1() *cache.Cache {
	return ms.l1
}

// L2 returns the L2 cache, or nil when the hierarchy has none.
func (ms *MemorySystem) L2() *cache.Cache {
	return ms.l2
}

// ResetStats clears every cache level's counters; tag state survives.
func (ms *MemorySystem) ResetStats() {
	if ms.l1 != nil {
		ms.l1.ResetStats()
	}
	if ms.l2 != nil {
		ms.l2.ResetStats()
	}
}
