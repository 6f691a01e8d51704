package cache

import (
	"sync"

	"github.com/auditline/coverage/internal/types"
)

// ResultCache keeps the most recent parse in memory: the result itself plus
// the canonical calls and unfiltered date listing it was built from. Office
// hours edits rebuild from the cached calls without re-reading the file.
type ResultCache struct {
	mu     sync.RWMutex
	result *types.ParseResult
	calls  []types.CallRecord
	dates  []string
}

// NewResultCache creates an empty cache
func NewResultCache() *ResultCache {
	return &ResultCache{}
}

// Put replaces the cached parse.
func (c *ResultCache) Put(result *types.ParseResult, calls []types.CallRecord, dates []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.calls = calls
	c.dates = dates
}

// Latest returns the cached parse, or false when nothing has been parsed yet.
func (c *ResultCache) Latest() (*types.ParseResult, []types.CallRecord, []string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.result == nil {
		return nil, nil, nil, false
	}
	return c.result, c.calls, c.dates, true
}

// Clear drops the cached parse.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
	c.calls = nil
	c.dates = nil
}
