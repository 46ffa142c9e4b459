// Package cache implements the fingerprint-keyed value store described in
// spec §4.3. It is a process-local singleton owned by the caller (normally
// internal/collect); no other component reaches into its map directly.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is one cached value plus its expiry metadata.
type Entry struct {
	Value       any
	CreatedAt   time.Time
	TTLSeconds  int
	Fingerprint string
	Metadata    map[string]any
}

func (e *Entry) expired(now time.Time) bool {
	if e.TTLSeconds <= 0 {
		return true
	}
	return now.After(e.CreatedAt.Add(time.Duration(e.TTLSeconds) * time.Second))
}

// Cache is a concurrency-safe fingerprint -> Entry map.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Fingerprint computes the stable cache key for an operation invocation.
// It is stable within one process run (spec §4.3); params are canonicalized
// by sorting keys before hashing so that callers with identical semantic
// inputs always collide on the same key regardless of map iteration order.
func Fingerprint(operation, deviceID, category string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(operation)
	sb.WriteByte('|')
	sb.WriteString(deviceID)
	sb.WriteByte('|')
	sb.WriteString(category)
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached value and true if a live, non-expired entry
// exists. forceFresh always misses, matching spec's "force_refresh
// bypasses cache" contract.
func (c *Cache) Get(operation, deviceID, category string, params map[string]string, forceFresh bool) (any, bool) {
	if forceFresh {
		return nil, false
	}

	key := Fingerprint(operation, deviceID, category, params)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if entry.expired(c.now()) {
		return nil, false
	}
	return entry.Value, true
}

// Set overwrites the entry for this key. ttlSeconds=0 is a no-op per spec.
func (c *Cache) Set(operation, deviceID, category string, params map[string]string, value any, ttlSeconds int, metadata map[string]any) {
	if ttlSeconds <= 0 {
		return
	}
	key := Fingerprint(operation, deviceID, category, params)

	meta := make(map[string]any, len(metadata)+3)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["operation"] = operation
	meta["device_id"] = deviceID
	meta["category"] = category

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{
		Value:       value,
		CreatedAt:   c.now(),
		TTLSeconds:  ttlSeconds,
		Fingerprint: key,
		Metadata:    meta,
	}
}

// Invalidate removes a single operation/device entry ignoring params,
// i.e. it drops every fingerprint for that operation+device pair. bool
// reports whether anything was removed.
func (c *Cache) Invalidate(operation, deviceID string) bool {
	return c.invalidateWhere(func(meta matchInfo) bool {
		return meta.operation == operation && meta.deviceID == deviceID
	}) > 0
}

// InvalidateDevice removes every entry for a device, across operations.
func (c *Cache) InvalidateDevice(deviceID string) int {
	return c.invalidateWhere(func(meta matchInfo) bool {
		return meta.deviceID == deviceID
	})
}

// InvalidateByType removes every entry whose data category matches.
func (c *Cache) InvalidateByType(category string) int {
	return c.invalidateWhere(func(meta matchInfo) bool {
		return meta.category == category
	})
}

// Clear empties the cache and returns the number of entries removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]*Entry)
	return n
}

// Len reports the current number of live (not necessarily unexpired)
// entries, used by Statistics reporting.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// matchInfo is decoded back out of an entry's metadata, which Set always
// populates with "operation"/"device_id"/"category" so invalidation can
// match without re-deriving the fingerprint; callers need not pass them.
type matchInfo struct {
	operation string
	deviceID  string
	category  string
}

func (c *Cache) invalidateWhere(match func(matchInfo) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		info := matchInfo{}
		if entry.Metadata != nil {
			if v, ok := entry.Metadata["operation"].(string); ok {
				info.operation = v
			}
			if v, ok := entry.Metadata["device_id"].(string); ok {
				info.deviceID = v
			}
			if v, ok := entry.Metadata["category"].(string); ok {
				info.category = v
			}
		}
		if match(info) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// String implements fmt.Stringer for debug logging.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{fingerprint=%s, ttl=%ds, created=%s}", e.Fingerprint, e.TTLSeconds, e.CreatedAt)
}
