package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Cache key namespaces. Every cached read lives under cache: so nuclear
// invalidation can sweep it with pattern deletes without touching the
// authoritative catalog records.
const (
	pagePrefix   = "cache:page:"
	searchPrefix = "cache:search:"
	entryPrefix  = "cache:entry:"
	statsKey     = "cache:stats"

	pagePattern   = pagePrefix + "*"
	searchPattern = searchPrefix + "*"
)

// PageKey builds the cache key for one availability listing page.
func PageKey(sort, order string, page, pageSize int) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", pagePrefix, sort, order, page, pageSize)
}

// SearchKey builds the cache key for one search result page. The query is
// hashed so arbitrary user text never ends up verbatim in a key.
func SearchKey(query, sort, order string, page, pageSize int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s|%d|%d", query, sort, order, page, pageSize)))
	return searchPrefix + hex.EncodeToString(sum[:])
}

// EntryKey builds the cache key for one catalog entry detail view.
func EntryKey(isbn string) string {
	return entryPrefix + isbn
}

// StatsKey returns the cache key for catalog-wide statistics.
func StatsKey() string {
	return statsKey
}
