package lang

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// MaxCachedSources bounds the number of token streams kept by the cache.
// The oldest stream is evicted first. Zero or less disables caching.
//
//nolint:gochecknoglobals
var MaxCachedSources = 64

// tokenCache stores token streams keyed by the xxh3 hash of their source.
// Tokens are immutable, so a stream may be shared by every parse of the
// same text (for example a common sheet imported by several roots).
//
//nolint:gochecknoglobals
var tokenCache = cache{entries: make(map[uint64]*cachedTokens)}

type cache struct {
	mu      sync.Mutex
	entries map[uint64]*cachedTokens
	order   []uint64
}

// cachedTokens is a once-filled cache entry.
type cachedTokens struct {
	once   sync.Once
	source string
	tokens []Token
}

// entry returns the entry for key, adding one for text if absent.
func (c *cache) entry(key uint64, text string) *cachedTokens {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e
	}

	for len(c.order) > 0 && len(c.order) >= MaxCachedSources {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}

	e := &cachedTokens{source: text}
	c.entries[key] = e
	c.order = append(c.order, key)

	return e
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.order = nil
}

// tokenize returns the token stream of text, consulting the cache.
func tokenize(text string) []Token {
	if MaxCachedSources <= 0 {
		return Tokenize(text)
	}

	entry := tokenCache.entry(xxh3.HashString(text), text)
	if entry.source != text {
		// Hash collision: bypass the cache.
		return Tokenize(text)
	}

	entry.once.Do(func() {
		entry.tokens = Tokenize(text)
	})

	return entry.tokens
}

// ClearCache removes all cached token streams.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() { tokenCache.clear() }
