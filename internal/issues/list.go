package issues

import (
	"slices"
	"sync"
)

// List holds the current page of issue rows and its running totals
type List struct {
	mu             sync.RWMutex
	filter         Filter
	items          []Item
	totalCount     int
	totalSizeBytes int64
	// version counts local changes a server response does not know about
	version uint64
}

// Snapshot is a consistent, copy-on-read view of a List
type Snapshot struct {
	Filter             Filter `json:"filter"`
	Items              []Item `json:"items"`
	TotalCount         int    `json:"total_count"`
	TotalSizeBytes     int64  `json:"total_size_bytes"`
	TotalSizeFormatted string `json:"total_size_formatted"`
}

// NewList creates an empty list for the given filter
func NewList(filter Filter) *List {
	if filter == "" {
		filter = FilterAll
	}
	return &List{filter: filter}
}

// Filter returns the active filter
func (l *List) Filter() Filter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filter
}

// SetFilter changes the active filter and clears the rows until the next load
func (l *List) SetFilter(filter Filter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if filter == "" {
		filter = FilterAll
	}
	l.filter = filter
	l.version++
	l.items = nil
	l.totalCount = 0
	l.totalSizeBytes = 0
}

// Replace installs a fresh server response
func (l *List) Replace(items []Item, totalCount int, totalSizeBytes int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = slices.Clone(items)
	l.totalCount = totalCount
	l.totalSizeBytes = totalSizeBytes
}

// Version identifies the local state a load starts from
func (l *List) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// ReplaceIfUnchanged installs a server response fetched at version. It
// reports false, leaving the list alone, when a removal or filter change
// happened since.
func (l *List) ReplaceIfUnchanged(version uint64, items []Item, totalCount int, totalSizeBytes int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.version != version {
		return false
	}
	l.items = slices.Clone(items)
	l.totalCount = totalCount
	l.totalSizeBytes = totalSizeBytes
	return true
}

// Get looks up an item by id
func (l *List) Get(id string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Remove drops an item and decrements the totals by exactly one row and its size.
// It returns false and leaves the totals alone when the item is not present.
func (l *List) Remove(id string) (Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.items, func(it Item) bool { return it.ID == id })
	if idx < 0 {
		return Item{}, false
	}

	removed := l.items[idx]
	l.items = slices.Delete(l.items, idx, idx+1)
	l.version++
	l.totalCount--
	l.totalSizeBytes -= removed.SizeBytes()
	if l.totalCount < 0 {
		l.totalCount = 0
	}
	if l.totalSizeBytes < 0 {
		l.totalSizeBytes = 0
	}
	return removed, true
}

// Len returns the number of rows currently held
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Snapshot returns a copy of the list state. The formatted size is always
// derived from the byte total.
func (l *List) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{
		Filter:             l.filter,
		Items:              slices.Clone(l.items),
		TotalCount:         l.totalCount,
		TotalSizeBytes:     l.totalSizeBytes,
		TotalSizeFormatted: FormatSize(l.totalSizeBytes),
	}
}
