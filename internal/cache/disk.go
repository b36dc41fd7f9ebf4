package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const diskExt = ".zst"

// DiskCache stores zstd-compressed values as files in a directory. Its index
// is rebuilt from the directory listing on open, so no metadata file can go
// stale.
type DiskCache struct {
	basePath string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	path       string
	size       int64 // compressed size on disk
	lastAccess time.Time
}

// NewDiskCache opens (creating if needed) a disk cache at basePath holding
// up to capacity compressed bytes.
func NewDiskCache(basePath string, capacity int64) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		encoder:  enc,
		decoder:  dec,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Level: LevelDisk, Capacity: capacity},
	}
	if err := dc.scan(); err != nil {
		return nil, err
	}
	return dc, nil
}

func (dc *DiskCache) scan() error {
	entries, err := os.ReadDir(dc.basePath)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), diskExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(e.Name(), diskExt)
		dc.index[key] = &diskEntry{
			path:       filepath.Join(dc.basePath, e.Name()),
			size:       info.Size(),
			lastAccess: info.ModTime(),
		}
		dc.size += info.Size()
	}
	return nil
}

// Get reads and decompresses the value stored under key. Unreadable entries
// are dropped and reported as misses.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.path)
	if err == nil {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		dc.removeLocked(key, entry)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	entry.lastAccess = now
	_ = os.Chtimes(entry.path, now, now)
	dc.stats.Hits++
	dc.stats.LastAccess = now
	return data, true
}

// Put compresses value and writes it under key, evicting the least recently
// used files when over capacity.
func (dc *DiskCache) Put(key string, value []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	compressed := dc.encoder.EncodeAll(value, nil)
	n := int64(len(compressed))

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if n > dc.capacity {
		return ErrItemTooLarge
	}
	if existing, ok := dc.index[key]; ok {
		dc.removeLocked(key, existing)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.evictOldestLocked()
	}

	path := filepath.Join(dc.basePath, key+diskExt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.index[key] = &diskEntry{path: path, size: n, lastAccess: time.Now()}
	dc.size += n
	return nil
}

// Delete removes key.
func (dc *DiskCache) Delete(key string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if entry, ok := dc.index[key]; ok {
		dc.removeLocked(key, entry)
	}
}

// Clear removes every cached file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var errs []error
	for key, entry := range dc.index {
		if err := os.Remove(entry.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
		delete(dc.index, key)
	}
	dc.size = 0
	return errors.Join(errs...)
}

// Stats returns a snapshot of the cache metrics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	s := dc.stats
	s.Size = dc.size
	s.Items = len(dc.index)
	return s
}

// Close releases the zstd encoder and decoder.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) evictOldestLocked() {
	keys := make([]string, 0, len(dc.index))
	for k := range dc.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return dc.index[keys[i]].lastAccess.Before(dc.index[keys[j]].lastAccess)
	})
	if len(keys) == 0 {
		return
	}
	dc.removeLocked(keys[0], dc.index[keys[0]])
	dc.stats.Evictions++
}

func (dc *DiskCache) removeLocked(key string, entry *diskEntry) {
	_ = os.Remove(entry.path)
	delete(dc.index, key)
	dc.size -= entry.size
}

// validKey accepts the hex keys produced by Key.
func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
