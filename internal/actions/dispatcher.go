package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/constants"
	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/logging"
	"github.com/mmenanno/media-janitor/internal/notify"
)

var (
	// ErrInFlight is returned when the same action is already outstanding for an item
	ErrInFlight = errors.New("action already in progress")
	// ErrNotApplicable is returned when an action does not fit the item's shape
	ErrNotApplicable = errors.New("action does not apply to this item")
	// ErrNothingToDelete is returned for a content delete with every target deselected
	ErrNothingToDelete = errors.New("no deletion target selected")
)

// Outcome classifies how a dispatched action ended
type Outcome string

const (
	OutcomeRemoved        Outcome = "removed"
	OutcomeRefetched      Outcome = "refetched"
	OutcomeSessionExpired Outcome = "session_expired"
	OutcomeConflict       Outcome = "conflict"
	OutcomeRejected       Outcome = "rejected"
	OutcomeFailed         Outcome = "failed"
	OutcomeBusy           Outcome = "busy"
	OutcomeNotApplicable  Outcome = "not_applicable"
)

// Succeeded reports whether the server accepted the mutation
func (o Outcome) Succeeded() bool {
	return o == OutcomeRemoved || o == OutcomeRefetched
}

// Request is one action to perform
type Request struct {
	Kind Kind
	// ExpiresAt is the whitelist expiration; nil is permanent. Ignored for deletes.
	ExpiresAt *time.Time
	// Delete selects the external systems a content delete reaches
	Delete api.DeleteOptions
}

// Result is what Perform reports back
type Result struct {
	Outcome Outcome
	Message string // toast text shown, empty when none
	Err     error
}

// Record is a journal entry for one dispatched action
type Record struct {
	ID        string
	Kind      Kind
	ItemID    string
	ItemName  string
	Outcome   Outcome
	Message   string
	ExpiresAt *time.Time
	Delete    api.DeleteOptions
	Duration  time.Duration
	CreatedAt time.Time
}

// Recorder persists action records
type Recorder interface {
	RecordAction(ctx context.Context, rec Record) error
}

// Observer receives action lifecycle events
type Observer interface {
	ActionStarted(kind string)
	ActionFinished(kind, outcome string, duration time.Duration)
}

// Options configures a Dispatcher
type Options struct {
	Mutator  api.Mutator
	List     *issues.List
	Notifier notify.Notifier
	// Refetch reloads the list after a partial resolution
	Refetch  func(ctx context.Context) error
	Recorder Recorder
	Observer Observer
	InFlight *InFlight
	Timeout  time.Duration
}

// Dispatcher runs issue row actions against the server. It owns the
// in-flight sets and is safe for concurrent use.
type Dispatcher struct {
	mutator  api.Mutator
	list     *issues.List
	notifier notify.Notifier
	refetch  func(ctx context.Context) error
	recorder Recorder
	observer Observer
	inFlight *InFlight
	timeout  time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher
func NewDispatcher(opts Options) *Dispatcher {
	inFlight := opts.InFlight
	if inFlight == nil {
		inFlight = NewInFlight()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultActionTimeout
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Multi{}
	}
	return &Dispatcher{
		mutator:  opts.Mutator,
		list:     opts.List,
		notifier: notifier,
		refetch:  opts.Refetch,
		recorder: opts.Recorder,
		observer: opts.Observer,
		inFlight: inFlight,
		timeout:  timeout,
		now:      time.Now,
	}
}

// InFlight exposes the in-flight sets for rendering
func (d *Dispatcher) InFlight() *InFlight {
	return d.inFlight
}

// Perform runs one action to completion. The item id is in the kind's
// in-flight set for the whole call and is cleared before Perform returns,
// whatever the outcome.
func (d *Dispatcher) Perform(ctx context.Context, item issues.Item, req Request) Result {
	log := logging.Component("actions")

	if !req.Kind.AppliesTo(item) {
		return Result{Outcome: OutcomeNotApplicable, Err: fmt.Errorf("%s on %s: %w", req.Kind, item.ID, ErrNotApplicable)}
	}
	if req.Kind == DeleteContent && !req.Delete.FromLibraryManager && !req.Delete.FromRequestManager {
		return Result{Outcome: OutcomeNotApplicable, Err: fmt.Errorf("%s on %s: %w", req.Kind, item.ID, ErrNothingToDelete)}
	}

	if !d.inFlight.TryAdd(req.Kind, item.ID) {
		log.Debug().Str("kind", string(req.Kind)).Str("item", item.ID).Msg("ignoring duplicate dispatch")
		return Result{Outcome: OutcomeBusy, Err: fmt.Errorf("%s on %s: %w", req.Kind, item.ID, ErrInFlight)}
	}

	start := d.now()
	if d.observer != nil {
		d.observer.ActionStarted(string(req.Kind))
	}

	var result Result
	defer func() {
		d.inFlight.Remove(req.Kind, item.ID)
		elapsed := d.now().Sub(start)
		if d.observer != nil {
			d.observer.ActionFinished(string(req.Kind), string(result.Outcome), elapsed)
		}
		d.record(ctx, item, req, result, start, elapsed)
	}()

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.mutate(callCtx, item, req)
	if err != nil {
		result = d.failure(item, req.Kind, err)
		log.Warn().Err(err).Str("kind", string(req.Kind)).Str("item", item.ID).Str("outcome", string(result.Outcome)).Msg("action failed")
		return result
	}

	result = Result{Outcome: OutcomeRemoved, Message: req.Kind.successMessage(item.Name)}
	if d.list != nil && Apply(d.list, item, req.Kind) == Refetch {
		result.Outcome = OutcomeRefetched
		d.reload(ctx)
	}
	d.notifier.Add(result.Message, notify.Success)

	log.Info().Str("kind", string(req.Kind)).Str("item", item.ID).Str("outcome", string(result.Outcome)).Msg("action completed")
	return result
}

// Go dispatches an action in the background. done, when non-nil, receives
// the result. The action is detached from ctx cancellation but keeps its
// values; it is still bounded by the dispatcher timeout.
func (d *Dispatcher) Go(ctx context.Context, item issues.Item, req Request, done func(Result)) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		result := d.Perform(ctx, item, req)
		if done != nil {
			done(result)
		}
	}()
}

// Wait blocks until every action started with Go has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) mutate(ctx context.Context, item issues.Item, req Request) error {
	if d.mutator == nil {
		return errors.New("no mutator configured")
	}
	switch req.Kind {
	case DeleteContent:
		_, err := d.mutator.DeleteContent(ctx, item, req.Delete)
		return err
	case DeleteRequest:
		return d.mutator.DeleteRequest(ctx, item)
	}

	kind, ok := req.Kind.WhitelistKind()
	if !ok {
		return fmt.Errorf("%s: %w", req.Kind, ErrNotApplicable)
	}
	return d.mutator.AddToWhitelist(ctx, kind, item, req.ExpiresAt)
}

// failure maps an error to an outcome and shows at most one toast
func (d *Dispatcher) failure(item issues.Item, kind Kind, err error) Result {
	if errors.Is(err, api.ErrUnauthorized) {
		// The gateway's session-expiry callback owns the redirect
		return Result{Outcome: OutcomeSessionExpired, Err: err}
	}

	outcome := OutcomeFailed
	if errors.Is(err, api.ErrConflict) {
		outcome = OutcomeConflict
	} else if api.StatusOf(err) != 0 {
		outcome = OutcomeRejected
	}

	message := api.ServerMessage(err)
	if message == "" {
		message = kind.failureMessage(item.Name)
	}
	d.notifier.Add(message, notify.Error)
	return Result{Outcome: outcome, Message: message, Err: err}
}

func (d *Dispatcher) reload(ctx context.Context) {
	if d.refetch == nil {
		return
	}
	refetchCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.refetch(refetchCtx); err != nil {
		logging.Component("actions").Error().Err(err).Msg("failed to refetch issues after action")
		d.notifier.Add("Failed to refresh issues", notify.Warning)
	}
}

func (d *Dispatcher) record(ctx context.Context, item issues.Item, req Request, result Result, start time.Time, elapsed time.Duration) {
	if d.recorder == nil {
		return
	}
	rec := Record{
		ID:        uuid.New().String(),
		Kind:      req.Kind,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Outcome:   result.Outcome,
		Message:   result.Message,
		ExpiresAt: req.ExpiresAt,
		Duration:  elapsed,
		CreatedAt: start,
	}
	if req.Kind.IsDelete() {
		rec.ExpiresAt = nil
	}
	if req.Kind == DeleteContent {
		rec.Delete = req.Delete
	}
	if result.Outcome == OutcomeFailed && result.Err != nil && rec.Message == "" {
		rec.Message = result.Err.Error()
	}
	if err := d.recorder.RecordAction(context.WithoutCancel(ctx), rec); err != nil {
		logging.Component("actions").Warn().Err(err).Msg("failed to journal action")
	}
}
