package services

import (
	"fmt"
	"sync"

	"shipment-dashboard/internal/domain"
)

type cachedPage struct {
	filter domain.FilterState
	page   domain.PageResult
}

// ResultCache holds the page of shipments for the latest snapshot.
//
// The live slot is emptied when a new query begins so results from a
// different filter set are never shown while it loads. The last good slot
// survives failures and is only replaced by a newer successful result.
// Pages loaded from a snapshot store for neighbouring snapshots are kept
// aside until the session fetches those snapshots itself.
type ResultCache struct {
	mu        sync.RWMutex
	pending   string
	live      *cachedPage
	lastGood  *cachedPage
	persisted map[string]*cachedPage
}

func NewResultCache() *ResultCache {
	return &ResultCache{persisted: map[string]*cachedPage{}}
}

// Begin clears the live slot for a query about to be dispatched.
func (c *ResultCache) Begin(f domain.FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = f.CacheKey()
	c.live = nil
}

// Apply replaces the cache atomically with p, the result for f.
func (c *ResultCache) Apply(f domain.FilterState, p domain.PageResult) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("apply result: %w", err)
	}
	if p.PageSize != f.PageSize {
		return fmt.Errorf("apply result: %w: page_size %d, requested %d",
			domain.ErrInvalidPageResult, p.PageSize, f.PageSize)
	}

	entry := &cachedPage{filter: f, page: p.Clone()}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.live = entry
	c.lastGood = entry
	delete(c.persisted, f.CacheKey())
	return nil
}

// Current returns the live page, if the latest query has completed.
func (c *ResultCache) Current() (domain.PageResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.live == nil {
		return domain.PageResult{}, false
	}
	return c.live.page.Clone(), true
}

// LastGood returns the most recent successful page and the snapshot it answered.
func (c *ResultCache) LastGood() (domain.PageResult, domain.FilterState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastGood == nil {
		return domain.PageResult{}, domain.FilterState{}, false
	}
	return c.lastGood.page.Clone(), c.lastGood.filter, true
}

// LastGoodFor returns the last good page only when it answered exactly f,
// falling back to a persisted page for f.
func (c *ResultCache) LastGoodFor(f domain.FilterState) (domain.PageResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := f.CacheKey()
	if c.lastGood != nil && c.lastGood.filter.CacheKey() == key {
		return c.lastGood.page.Clone(), true
	}
	if p, ok := c.persisted[key]; ok {
		return p.page.Clone(), true
	}
	return domain.PageResult{}, false
}

// Restore seeds the last good slot from persisted state. It never replaces
// a page fetched during this session.
func (c *ResultCache) Restore(f domain.FilterState, p domain.PageResult) bool {
	if p.Validate() != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastGood != nil {
		return false
	}
	c.lastGood = &cachedPage{filter: f, page: p.Clone()}
	return true
}

// Preload keeps a persisted page for a snapshot other than the current one,
// so navigating to it shows stale data while its query loads. Snapshots
// already answered during this session are left alone.
func (c *ResultCache) Preload(f domain.FilterState, p domain.PageResult) bool {
	if p.Validate() != nil || p.PageSize != f.PageSize {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := f.CacheKey()
	if c.lastGood != nil && c.lastGood.filter.CacheKey() == key {
		return false
	}
	c.persisted[key] = &cachedPage{filter: f, page: p.Clone()}
	return true
}

// TotalPages bounds page navigation for the result set f belongs to. The
// live page is preferred, then a last good page of the same result set.
// With nothing known the only valid page is 1.
func (c *ResultCache) TotalPages(f domain.FilterState) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := f.QueryKey()
	switch {
	case c.live != nil && c.live.filter.QueryKey() == key:
		return c.live.page.TotalPages()
	case c.lastGood != nil && c.lastGood.filter.QueryKey() == key:
		return c.lastGood.page.TotalPages()
	}
	for _, p := range c.persisted {
		if p.filter.QueryKey() == key {
			return p.page.TotalPages()
		}
	}
	return 1
}

// CanGoPrevious reports whether f has a page before it. It follows the
// requested page, so it holds while that page is still loading.
func (c *ResultCache) CanGoPrevious(f domain.FilterState) bool {
	return f.Page > 1
}

// CanGoNext reports whether f has a page after it within the known total.
func (c *ResultCache) CanGoNext(f domain.FilterState) bool {
	return f.Page < c.TotalPages(f)
}

// Pending is the cache key of the query most recently begun.
func (c *ResultCache) Pending() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.pending
}
