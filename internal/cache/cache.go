package cache

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"lukechampine.com/blake3"
)

// Config sizes the two cache tiers.
type Config struct {
	MemoryCapacity int64  // bytes of decoded audio kept in memory
	DiskCapacity   int64  // bytes of compressed audio kept on disk
	DiskPath       string // empty disables the disk tier
}

// DefaultConfig returns a 32MB memory tier and a 256MB disk tier at path.
func DefaultConfig(path string) Config {
	return Config{
		MemoryCapacity: 32 << 20,
		DiskCapacity:   256 << 20,
		DiskPath:       path,
	}
}

// Cache looks values up in memory first and then on disk, promoting disk
// hits into memory.
type Cache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// New builds a cache from cfg.
func New(cfg Config) (*Cache, error) {
	c := &Cache{memory: NewMemoryCache(cfg.MemoryCapacity)}
	if cfg.DiskPath != "" {
		disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity)
		if err != nil {
			return nil, fmt.Errorf("open disk cache: %w", err)
		}
		c.disk = disk
	}
	return c, nil
}

// Key derives a cache key from the parts that determine synthesized audio.
func Key(parts ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Get returns the value stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	if c.disk == nil {
		return nil, false
	}
	v, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	if err := c.memory.Put(key, v); err != nil {
		log.Debug("not promoting cache entry", "key", key, "error", err)
	}
	return v, true
}

// Put stores value in both tiers. A value too large for one tier is still
// stored in the other.
func (c *Cache) Put(key string, value []byte) error {
	memErr := c.memory.Put(key, value)
	if c.disk == nil {
		return memErr
	}
	if err := c.disk.Put(key, value); err != nil {
		return fmt.Errorf("disk cache: %w", err)
	}
	return nil
}

// Clear empties both tiers.
func (c *Cache) Clear() error {
	c.memory.Clear()
	if c.disk == nil {
		return nil
	}
	return c.disk.Clear()
}

// Stats returns one Stats per tier, memory first.
func (c *Cache) Stats() []Stats {
	out := []Stats{c.memory.Stats()}
	if c.disk != nil {
		out = append(out, c.disk.Stats())
	}
	return out
}

// Close releases the disk tier.
func (c *Cache) Close() error {
	if c.disk == nil {
		return nil
	}
	return c.disk.Close()
}
