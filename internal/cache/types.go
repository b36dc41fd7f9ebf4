package cache

import (
	"errors"
	"time"
)

// ErrItemTooLarge is returned when an item exceeds the capacity of a tier.
var ErrItemTooLarge = errors.New("item too large for cache")

// Level identifies a cache tier.
type Level int

const (
	// LevelMemory is the in-memory LRU.
	LevelMemory Level = iota
	// LevelDisk is the persistent disk cache.
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache metrics for one tier.
type Stats struct {
	Level      Level
	Capacity   int64 // bytes
	Size       int64 // bytes currently used
	Items      int
	Hits       int64
	Misses     int64
	Evictions  int64
	LastAccess time.Time
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}
