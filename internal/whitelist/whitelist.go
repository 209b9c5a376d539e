// Package whitelist models suppression records that keep an item out of a
// given issue category, optionally until an expiration date.
package whitelist

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Kind names one whitelist category
type Kind string

const (
	KindContent        Kind = "content"
	KindFrenchOnly     Kind = "french_only"
	KindLanguageExempt Kind = "language_exempt"
	KindHiddenRequests Kind = "hidden_requests"
	KindEpisodeExempt  Kind = "episode_exempt"
)

// Kinds lists every whitelist category in display order
var Kinds = []Kind{KindContent, KindFrenchOnly, KindLanguageExempt, KindHiddenRequests, KindEpisodeExempt}

// ParseKind accepts both the canonical name and the URL path segment
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s || k.PathSegment() == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown whitelist kind %q", s)
}

// PathSegment is the server route segment for the kind
func (k Kind) PathSegment() string {
	switch k {
	case KindContent:
		return "content"
	case KindFrenchOnly:
		return "french-only"
	case KindLanguageExempt:
		return "language-exempt"
	case KindHiddenRequests:
		return "requests"
	case KindEpisodeExempt:
		return "episode-exempt"
	default:
		return string(k)
	}
}

// Label is the human readable category name
func (k Kind) Label() string {
	switch k {
	case KindContent:
		return "Protected"
	case KindFrenchOnly:
		return "French only"
	case KindLanguageExempt:
		return "Language exempt"
	case KindHiddenRequests:
		return "Hidden requests"
	case KindEpisodeExempt:
		return "Episode exempt"
	default:
		return string(k)
	}
}

// OwnerIsRequest reports whether entries of this kind are keyed by a Jellyseerr id
func (k Kind) OwnerIsRequest() bool {
	return k == KindHiddenRequests
}

// Entry is one whitelist record. A nil ExpiresAt means permanent.
type Entry struct {
	ID        int        `json:"id"`
	Kind      Kind       `json:"kind"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// IsPermanent reports whether the entry never expires
func (e Entry) IsPermanent() bool {
	return e.ExpiresAt == nil
}

// IsExpired reports whether the entry's expiration has passed. Expired
// entries are kept and flagged, never dropped locally.
func (e Entry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// Key identifies an entry across kinds
func (e Entry) Key() string {
	return fmt.Sprintf("%s/%d", e.Kind, e.ID)
}

// List holds the entries of one whitelist kind
type List struct {
	mu      sync.RWMutex
	kind    Kind
	entries []Entry
}

// NewList creates an empty list for a kind
func NewList(kind Kind) *List {
	return &List{kind: kind}
}

// Kind returns the list's whitelist kind
func (l *List) Kind() Kind {
	return l.kind
}

// Replace installs a fresh server response
func (l *List) Replace(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = slices.Clone(entries)
}

// Get looks up an entry by id
func (l *List) Get(id int) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove drops an entry by id
func (l *List) Remove(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := slices.IndexFunc(l.entries, func(e Entry) bool { return e.ID == id })
	if idx < 0 {
		return false
	}
	l.entries = slices.Delete(l.entries, idx, idx+1)
	return true
}

// Entries returns a copy of the entries
func (l *List) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Expired returns the entries whose expiration has passed
func (l *List) Expired(now time.Time) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, e := range l.entries {
		if e.IsExpired(now) {
			out = append(out, e)
		}
	}
	return out
}
