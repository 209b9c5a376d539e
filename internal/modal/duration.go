package modal

import (
	"fmt"
	"sync"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/expiry"
	"github.com/mmenanno/media-janitor/internal/issues"
)

// DurationDialog is the payload of an open duration picker
type DurationDialog struct {
	Target    issues.Item      `json:"target"`
	Kind      actions.Kind     `json:"kind"`
	Selection expiry.Selection `json:"selection"`
}

// Duration is the whitelist duration picker state machine
type Duration struct {
	mu       sync.Mutex
	dialog   *DurationDialog
	resolver expiry.Resolver
}

// NewDuration creates a closed duration picker resolving against resolver
func NewDuration(resolver expiry.Resolver) *Duration {
	return &Duration{resolver: resolver}
}

// Open shows the picker for a whitelist action, defaulting to permanent
func (m *Duration) Open(target issues.Item, kind actions.Kind) error {
	if _, ok := kind.WhitelistKind(); !ok {
		return fmt.Errorf("%s does not take a duration", kind)
	}
	if !kind.AppliesTo(target) {
		return fmt.Errorf("%s on %s: %w", kind, target.ID, actions.ErrNotApplicable)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = &DurationDialog{
		Target:    target,
		Kind:      kind,
		Selection: expiry.Selection{Duration: expiry.Permanent},
	}
	return nil
}

// Current returns a copy of the open dialog, or nil when closed
func (m *Duration) Current() *DurationDialog {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return nil
	}
	d := *m.dialog
	return &d
}

// Select changes the chosen duration
func (m *Duration) Select(d expiry.Duration) error {
	if _, err := expiry.ParseDuration(string(d)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return ErrClosed
	}
	m.dialog.Selection.Duration = d
	return nil
}

// SetCustomDate records the YYYY-MM-DD literal for a custom duration
func (m *Duration) SetCustomDate(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return ErrClosed
	}
	m.dialog.Selection.CustomDate = date
	return nil
}

// Validate reports why the current selection cannot be confirmed, or nil
func (m *Duration) Validate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return ErrClosed
	}
	_, err := m.resolver.Resolve(m.dialog.Selection)
	return err
}

// CanConfirm is false when closed, or when a custom date is missing or invalid
func (m *Duration) CanConfirm() bool {
	return m.Validate() == nil
}

// Confirm resolves the selection, closes the picker and returns what to
// dispatch. An invalid selection leaves the picker open.
func (m *Duration) Confirm() (issues.Item, actions.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return issues.Item{}, actions.Request{}, ErrClosed
	}

	expiresAt, err := m.resolver.Resolve(m.dialog.Selection)
	if err != nil {
		return issues.Item{}, actions.Request{}, err
	}

	d := *m.dialog
	m.dialog = nil
	return d.Target, actions.Request{Kind: d.Kind, ExpiresAt: expiresAt}, nil
}

// Cancel closes the picker with no side effects
func (m *Duration) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = nil
}
