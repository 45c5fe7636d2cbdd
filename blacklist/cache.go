// Package blacklist is a per-process negative cache of recently revoked tokens.
// A hit means "revoked"; a miss means nothing and must fall through to the durable store.
package blacklist

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache bounded LRU keyed by raw token string, entries expire ttl after their last write
type Cache struct {
	lru *expirable.LRU[string, struct{}]
}

// New creates a cache holding at most capacity tokens for ttl each.
// 每个 Cache 带一个永不退出的过期清理 goroutine，进程内按需共享
func New(capacity int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, struct{}](capacity, nil, ttl)}
}

// Put marks token as revoked; an existing entry's TTL restarts
func (c *Cache) Put(token string) {
	if token == "" {
		return
	}
	c.lru.Add(token, struct{}{})
}

// Contains reports whether token was revoked recently on this process
func (c *Cache) Contains(token string) bool {
	// Get checks expiry, Contains does not
	_, ok := c.lru.Get(token)
	return ok
}

// Len counts entries, expired ones not yet swept included
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry
func (c *Cache) Purge() {
	c.lru.Purge()
}
