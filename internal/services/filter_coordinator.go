package services

import (
	"fmt"
	"strconv"
	"sync"

	"shipment-dashboard/internal/domain"
)

// FilterCoordinator owns the current FilterState. Every accepted change
// produces a new snapshot which is handed to subscribers in the order the
// changes were made.
type FilterCoordinator struct {
	// emitMu serialises change+notify so subscribers see snapshots in
	// state order. Subscribers must not call back into setters.
	emitMu sync.Mutex

	mu          sync.RWMutex
	state       domain.FilterState
	totalPages  func(domain.FilterState) int
	subscribers []func(domain.FilterState)
}

// NewFilterCoordinator starts from an unfiltered first page. totalPages
// reports the known page count for a snapshot's result set.
func NewFilterCoordinator(pageSize int, totalPages func(domain.FilterState) int) (*FilterCoordinator, error) {
	initial := domain.NewFilterState(pageSize)
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("new filter coordinator: %w", err)
	}
	if totalPages == nil {
		totalPages = func(domain.FilterState) int { return 1 }
	}
	return &FilterCoordinator{state: initial, totalPages: totalPages}, nil
}

func (c *FilterCoordinator) Snapshot() domain.FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

func (c *FilterCoordinator) Subscribe(fn func(domain.FilterState)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscribers = append(c.subscribers, fn)
}

// SetFilter updates one field. Any field other than page resets page to 1.
// changed is false when the value was already set.
func (c *FilterCoordinator) SetFilter(field domain.Field, value string) (snap domain.FilterState, changed bool, err error) {
	if field == domain.FieldPage {
		n, convErr := strconv.Atoi(value)
		if convErr != nil {
			return c.Snapshot(), false, &domain.ValidationError{
				Field: string(field), Value: value, Reason: "expected an integer", Err: convErr,
			}
		}
		return c.SetPage(n)
	}

	return c.update(func(cur domain.FilterState) (domain.FilterState, error) {
		return cur.With(field, value)
	})
}

// SetPage moves to page n. Requests outside [1, totalPages] are rejected
// and leave the state unchanged.
func (c *FilterCoordinator) SetPage(n int) (domain.FilterState, bool, error) {
	return c.update(func(cur domain.FilterState) (domain.FilterState, error) {
		total := c.totalPages(cur)
		if n < 1 || n > total {
			return cur, &domain.ValidationError{
				Field:  string(domain.FieldPage),
				Value:  strconv.Itoa(n),
				Reason: fmt.Sprintf("must be within [1, %d]", total),
				Err:    domain.ErrPageOutOfRange,
			}
		}
		next := cur
		next.Page = n
		return next, nil
	})
}

// Reset clears every filter and returns to page 1.
func (c *FilterCoordinator) Reset() (domain.FilterState, bool) {
	snap, changed, _ := c.update(func(cur domain.FilterState) (domain.FilterState, error) {
		return domain.NewFilterState(cur.PageSize), nil
	})
	return snap, changed
}

// Resubmit notifies subscribers of the current snapshot without changing it.
func (c *FilterCoordinator) Resubmit() domain.FilterState {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.RLock()
	snap := c.state
	subs := append([]func(domain.FilterState){}, c.subscribers...)
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

func (c *FilterCoordinator) update(change func(domain.FilterState) (domain.FilterState, error)) (domain.FilterState, bool, error) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	cur := c.state
	next, err := change(cur)
	if err != nil || next.Equal(cur) {
		c.mu.Unlock()
		return cur, false, err
	}
	c.state = next
	subs := append([]func(domain.FilterState){}, c.subscribers...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next, true, nil
}
