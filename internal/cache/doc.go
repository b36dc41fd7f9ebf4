// Package cache provides a two-level cache for synthesized audio: an
// in-memory LRU (L1) in front of a zstd-compressed disk cache (L2) that
// survives restarts.
package cache
