// Package dashboard holds the page-level state of the issues and whitelist
// pages: the lists, their queries, the open dialogs and the dispatcher.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/constants"
	"github.com/mmenanno/media-janitor/internal/expiry"
	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/logging"
	"github.com/mmenanno/media-janitor/internal/metrics"
	"github.com/mmenanno/media-janitor/internal/modal"
	"github.com/mmenanno/media-janitor/internal/notify"
)

var (
	// ErrItemNotFound is returned when an action names a row that is not loaded
	ErrItemNotFound = errors.New("item not in the current issue list")
	// ErrStatusUnavailable wraps a failed integration status fetch
	ErrStatusUnavailable = errors.New("failed to load integration status")
)

// IssuesPageOptions configures an IssuesPage
type IssuesPageOptions struct {
	Source   api.IssueSource
	Mutator  api.Mutator
	Status   api.StatusSource
	Notifier notify.Notifier
	Recorder actions.Recorder
	Observer actions.Observer

	Filter        issues.Filter
	PageSize      int
	ActionTimeout time.Duration
	StatusTTL     time.Duration
	Resolver      expiry.Resolver
}

// IssuesPage is the state behind the issues page
type IssuesPage struct {
	source     api.IssueSource
	list       *issues.List
	dispatcher *actions.Dispatcher
	status     *StatusCache
	resolver   expiry.Resolver
	timeout    time.Duration

	deleteDialog   *modal.Delete
	durationDialog *modal.Duration

	mu         sync.Mutex
	page       int
	pageSize   int
	generation uint64
	loadedAt   time.Time
}

// NewIssuesPage creates an issues page; call Load to populate it
func NewIssuesPage(opts IssuesPageOptions) *IssuesPage {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = constants.DefaultIssuesPerPage
	}
	if pageSize > constants.MaxIssuesPerPage {
		pageSize = constants.MaxIssuesPerPage
	}
	ttl := opts.StatusTTL
	if ttl <= 0 {
		ttl = constants.DefaultStatusCacheTTL
	}
	timeout := opts.ActionTimeout
	if timeout <= 0 {
		timeout = constants.DefaultActionTimeout
	}

	p := &IssuesPage{
		source:         opts.Source,
		list:           issues.NewList(opts.Filter),
		status:         NewStatusCache(opts.Status, ttl),
		resolver:       opts.Resolver,
		timeout:        timeout,
		deleteDialog:   modal.NewDelete(),
		durationDialog: modal.NewDuration(opts.Resolver),
		page:           1,
		pageSize:       pageSize,
	}
	p.dispatcher = actions.NewDispatcher(actions.Options{
		Mutator:  opts.Mutator,
		List:     p.list,
		Notifier: opts.Notifier,
		Refetch:  p.refetchAfterAction,
		Recorder: opts.Recorder,
		Observer: opts.Observer,
		Timeout:  timeout,
	})
	return p
}

// Load fetches the current page for the active filter
func (p *IssuesPage) Load(ctx context.Context) error {
	return p.load(ctx, "load")
}

// Refetch reloads with the same query
func (p *IssuesPage) Refetch(ctx context.Context) error {
	return p.load(ctx, "manual")
}

func (p *IssuesPage) refetchAfterAction(ctx context.Context) error {
	return p.load(ctx, "reconcile")
}

// load applies a response only if no newer load started meanwhile
func (p *IssuesPage) load(ctx context.Context, trigger string) error {
	if p.source == nil {
		return errors.New("no issue source configured")
	}

	p.mu.Lock()
	p.generation++
	gen := p.generation
	query := api.IssueQuery{Filter: p.list.Filter(), Page: p.page, PageSize: p.pageSize}
	version := p.list.Version()
	p.mu.Unlock()

	metrics.RecordRefetch(trigger)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	page, err := p.source.ListIssues(ctx, query)
	if err != nil {
		return err
	}

	log := logging.Component("dashboard")
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		log.Debug().Uint64("generation", gen).Msg("discarding stale issue page")
		return nil
	}
	if !p.list.ReplaceIfUnchanged(version, page.Items, page.TotalCount, page.TotalSizeBytes) {
		log.Debug().Uint64("generation", gen).Msg("discarding issue page fetched before a local removal")
		return nil
	}
	p.loadedAt = time.Now()

	log.Debug().
		Str("filter", string(query.Filter)).
		Int("rows", len(page.Items)).
		Int("total", page.TotalCount).
		Str("trigger", trigger).
		Msg("issues loaded")
	return nil
}

// SetFilter switches the filter, returns to the first page and reloads
func (p *IssuesPage) SetFilter(ctx context.Context, filter issues.Filter) error {
	p.mu.Lock()
	p.page = 1
	p.mu.Unlock()
	p.list.SetFilter(filter)
	return p.Load(ctx)
}

// SetPage selects a 1-based page for the next load
func (p *IssuesPage) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = page
}

// Snapshot returns the current rows and totals
func (p *IssuesPage) Snapshot() issues.Snapshot {
	return p.list.Snapshot()
}

// LoadedAt is when the list was last replaced from the server
func (p *IssuesPage) LoadedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadedAt
}

// Dispatcher exposes the page's action dispatcher
func (p *IssuesPage) Dispatcher() *actions.Dispatcher {
	return p.dispatcher
}

// Item looks up a loaded row
func (p *IssuesPage) Item(id string) (issues.Item, error) {
	item, ok := p.list.Get(id)
	if !ok {
		return issues.Item{}, fmt.Errorf("%s: %w", id, ErrItemNotFound)
	}
	return item, nil
}

// Whitelist resolves the duration and runs a whitelist action on a row
func (p *IssuesPage) Whitelist(ctx context.Context, id string, kind actions.Kind, sel expiry.Selection) (actions.Result, error) {
	if _, ok := kind.WhitelistKind(); !ok {
		return actions.Result{}, fmt.Errorf("%s is not a whitelist action", kind)
	}
	item, err := p.Item(id)
	if err != nil {
		return actions.Result{}, err
	}
	expiresAt, err := p.resolver.Resolve(sel)
	if err != nil {
		return actions.Result{}, err
	}
	return p.dispatcher.Perform(ctx, item, actions.Request{Kind: kind, ExpiresAt: expiresAt}), nil
}

// Delete runs a delete action on a row and waits for it. The choices in
// opts go through a private delete dialog, so an integration that is not
// configured is never targeted. ErrCannotConfirm means nothing is left to
// delete.
func (p *IssuesPage) Delete(ctx context.Context, id string, opts api.DeleteOptions) (actions.Result, error) {
	item, err := p.Item(id)
	if err != nil {
		return actions.Result{}, err
	}
	status, err := p.status.Get(ctx)
	if err != nil {
		return actions.Result{}, fmt.Errorf("%w: %w", ErrStatusUnavailable, err)
	}

	dialog := modal.NewDelete()
	dialog.Open(item, status)
	if err := dialog.SetLibraryManager(opts.FromLibraryManager); err != nil {
		return actions.Result{}, err
	}
	if err := dialog.SetRequestManager(opts.FromRequestManager); err != nil {
		return actions.Result{}, err
	}
	target, req, err := dialog.Confirm()
	if err != nil {
		return actions.Result{}, fmt.Errorf("%s: %w", id, err)
	}
	return p.dispatcher.Perform(ctx, target, req), nil
}

// DeleteDialog exposes the delete confirmation state
func (p *IssuesPage) DeleteDialog() *modal.Delete {
	return p.deleteDialog
}

// OpenDelete opens the delete confirmation for a row, using the cached
// integration status to decide which choices are available
func (p *IssuesPage) OpenDelete(ctx context.Context, id string) error {
	item, err := p.Item(id)
	if err != nil {
		return err
	}
	status, err := p.status.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStatusUnavailable, err)
	}
	p.deleteDialog.Open(item, status)
	return nil
}

// ConfirmDelete closes the dialog and dispatches the delete in the
// background. done, when non-nil, receives the result.
func (p *IssuesPage) ConfirmDelete(ctx context.Context, done func(actions.Result)) error {
	item, req, err := p.deleteDialog.Confirm()
	if err != nil {
		return err
	}
	p.dispatcher.Go(ctx, item, req, done)
	return nil
}

// DurationDialog exposes the duration picker state
func (p *IssuesPage) DurationDialog() *modal.Duration {
	return p.durationDialog
}

// OpenDuration opens the duration picker for a whitelist action on a row
func (p *IssuesPage) OpenDuration(id string, kind actions.Kind) error {
	item, err := p.Item(id)
	if err != nil {
		return err
	}
	return p.durationDialog.Open(item, kind)
}

// ConfirmDuration closes the picker and dispatches the whitelist action in
// the background. An invalid custom date keeps the picker open.
func (p *IssuesPage) ConfirmDuration(ctx context.Context, done func(actions.Result)) error {
	item, req, err := p.durationDialog.Confirm()
	if err != nil {
		return err
	}
	p.dispatcher.Go(ctx, item, req, done)
	return nil
}

// Wait blocks until background dispatches finish
func (p *IssuesPage) Wait() {
	p.dispatcher.Wait()
}
