// Package memoCache is a short-lived in-process memo of pure computation
// results, keyed by function name plus arguments. It is never persisted and
// never shared across processes.
package memoCache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

type entry struct {
	value   any
	savedAt time.Time
}

// MemoCache is not safe for concurrent use: the engine is single-threaded
// by design and callers own the single-goroutine precondition.
type MemoCache struct {
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func New(ttl time.Duration) *MemoCache {
	return &MemoCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key builds a cache key from a function name and its arguments.
func Key(name string, args ...string) string {
	sum := md5.Sum([]byte(name + ":" + strings.Join(args, ":")))
	return hex.EncodeToString(sum[:])
}

func (c *MemoCache) Get(key string) (any, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.savedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *MemoCache) Set(key string, value any) {
	c.entries[key] = entry{value: value, savedAt: c.now()}
}
