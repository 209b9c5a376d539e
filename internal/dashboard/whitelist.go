package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/logging"
	"github.com/mmenanno/media-janitor/internal/notify"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

// ErrEntryNotFound is returned when removing an entry that is not loaded
var ErrEntryNotFound = errors.New("whitelist entry not loaded")

// WhitelistPage is the state behind the whitelist page
type WhitelistPage struct {
	store    api.WhitelistStore
	notifier notify.Notifier
	lists    map[whitelist.Kind]*whitelist.List
	now      func() time.Time

	mu       sync.Mutex
	removing map[string]struct{}
}

// NewWhitelistPage creates a page with an empty list per kind
func NewWhitelistPage(store api.WhitelistStore, notifier notify.Notifier) *WhitelistPage {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	lists := make(map[whitelist.Kind]*whitelist.List, len(whitelist.Kinds))
	for _, k := range whitelist.Kinds {
		lists[k] = whitelist.NewList(k)
	}
	return &WhitelistPage{
		store:    store,
		notifier: notifier,
		lists:    lists,
		now:      time.Now,
		removing: make(map[string]struct{}),
	}
}

func (p *WhitelistPage) list(kind whitelist.Kind) (*whitelist.List, error) {
	l, ok := p.lists[kind]
	if !ok {
		return nil, fmt.Errorf("unknown whitelist kind %q", kind)
	}
	return l, nil
}

// Load fetches the entries of one kind
func (p *WhitelistPage) Load(ctx context.Context, kind whitelist.Kind) error {
	l, err := p.list(kind)
	if err != nil {
		return err
	}
	entries, err := p.store.ListWhitelist(ctx, kind)
	if err != nil {
		return err
	}
	l.Replace(entries)
	return nil
}

// LoadAll fetches every kind, stopping at the first error
func (p *WhitelistPage) LoadAll(ctx context.Context) error {
	for _, k := range whitelist.Kinds {
		if err := p.Load(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns the loaded entries of a kind
func (p *WhitelistPage) Entries(kind whitelist.Kind) []whitelist.Entry {
	l, err := p.list(kind)
	if err != nil {
		return nil
	}
	return l.Entries()
}

// Expired returns the loaded entries of a kind whose expiration has passed
func (p *WhitelistPage) Expired(kind whitelist.Kind) []whitelist.Entry {
	l, err := p.list(kind)
	if err != nil {
		return nil
	}
	return l.Expired(p.now())
}

// Removing reports whether a removal is outstanding for the entry
func (p *WhitelistPage) Removing(kind whitelist.Kind, id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.removing[whitelist.Entry{Kind: kind, ID: id}.Key()]
	return ok
}

// Remove deletes an entry on the server and drops it locally on success.
// Failures leave the list untouched and show one error toast, except 401
// which is left to the session-expiry handler.
func (p *WhitelistPage) Remove(ctx context.Context, kind whitelist.Kind, id int) error {
	l, err := p.list(kind)
	if err != nil {
		return err
	}
	entry, ok := l.Get(id)
	if !ok {
		return fmt.Errorf("%s/%d: %w", kind, id, ErrEntryNotFound)
	}

	key := entry.Key()
	p.mu.Lock()
	if _, busy := p.removing[key]; busy {
		p.mu.Unlock()
		return fmt.Errorf("%s: %w", key, actions.ErrInFlight)
	}
	p.removing[key] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.removing, key)
		p.mu.Unlock()
	}()

	if err := p.store.RemoveFromWhitelist(ctx, kind, id); err != nil {
		if !errors.Is(err, api.ErrUnauthorized) {
			message := api.ServerMessage(err)
			if message == "" {
				message = fmt.Sprintf("Failed to remove %s from %s", entry.Name, kind.Label())
			}
			p.notifier.Add(message, notify.Error)
		}
		logging.Component("dashboard").Warn().Err(err).Str("entry", key).Msg("whitelist removal failed")
		return err
	}

	l.Remove(id)
	p.notifier.Add(fmt.Sprintf("Removed %s from %s", entry.Name, kind.Label()), notify.Success)
	return nil
}
