package langopts

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultPatternCacheSize = 64

type lruProgramCache struct {
	cache *lru.Cache[string, any]
}

// NewLRUProgramCache returns a ProgramCache bounded to size entries.
func NewLRUProgramCache(size int) (ProgramCache, error) {
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("langopts: program cache: %w", err)
	}
	return lruProgramCache{cache: cache}, nil
}

func (c lruProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c lruProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}

// patternCache keeps compiled patterns keyed by source and flags. Patterns
// are immutable once compiled, so entries are shared between callers.
type patternCache struct {
	cache *lru.Cache[string, *Pattern]
}

func newPatternCache(size int) *patternCache {
	cache, err := lru.New[string, *Pattern](size)
	if err != nil {
		return nil
	}
	return &patternCache{cache: cache}
}

func (c *patternCache) compile(source, flags string) (*Pattern, error) {
	if c == nil {
		return CompilePattern(source, flags)
	}
	key := flags + "/" + source
	if pattern, ok := c.cache.Get(key); ok {
		return pattern, nil
	}
	pattern, err := CompilePattern(source, flags)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, pattern)
	return pattern, nil
}
