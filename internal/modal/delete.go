// Package modal holds the confirmation dialogs that sit between a row
// action and its dispatch. Each dialog is either closed or open with its
// payload; there is no open state without a target.
package modal

import (
	"errors"
	"sync"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/issues"
)

var (
	// ErrClosed is returned when acting on a dialog that is not open
	ErrClosed = errors.New("dialog is not open")
	// ErrCannotConfirm is returned when the current choices cannot be submitted
	ErrCannotConfirm = errors.New("dialog cannot be confirmed with the current choices")
)

// Choice is one checkbox of a dialog
type Choice struct {
	Checked bool `json:"checked"`
	Enabled bool `json:"enabled"`
}

func newChoice(available bool) Choice {
	return Choice{Checked: available, Enabled: available}
}

func (c *Choice) set(checked bool) {
	if c.Enabled {
		c.Checked = checked
	}
}

// DeleteDialog is the payload of an open delete confirmation
type DeleteDialog struct {
	Target issues.Item `json:"target"`
	// LibraryManager is Radarr or Sonarr depending on media type
	LibraryManager Choice `json:"library_manager"`
	// RequestManager is Jellyseerr
	RequestManager Choice `json:"request_manager"`
}

// CanConfirm reports whether at least one deletion target is selected
func (d DeleteDialog) CanConfirm() bool {
	return d.LibraryManager.Checked || d.RequestManager.Checked
}

// Request builds the action the dialog would dispatch
func (d DeleteDialog) Request() actions.Request {
	if d.Target.IsRequest() {
		return actions.Request{Kind: actions.DeleteRequest}
	}
	return actions.Request{
		Kind: actions.DeleteContent,
		Delete: api.DeleteOptions{
			FromLibraryManager: d.LibraryManager.Checked,
			FromRequestManager: d.RequestManager.Checked,
		},
	}
}

// Delete is the delete confirmation state machine
type Delete struct {
	mu     sync.Mutex
	dialog *DeleteDialog
}

// NewDelete creates a closed delete dialog
func NewDelete() *Delete {
	return &Delete{}
}

// Open captures the target and resets both choices. A choice whose
// integration is not configured is forced off and disabled; request rows
// never offer the library manager.
func (m *Delete) Open(target issues.Item, status api.IntegrationStatus) {
	library := status.LibraryManagerConfigured(string(target.MediaType)) && !target.IsRequest()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = &DeleteDialog{
		Target:         target,
		LibraryManager: newChoice(library),
		RequestManager: newChoice(status.JellyseerrConfigured),
	}
}

// Current returns a copy of the open dialog, or nil when closed
func (m *Delete) Current() *DeleteDialog {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return nil
	}
	d := *m.dialog
	return &d
}

// IsOpen reports whether the dialog is showing
func (m *Delete) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog != nil
}

// SetLibraryManager toggles the library manager choice; disabled choices ignore it
func (m *Delete) SetLibraryManager(checked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return ErrClosed
	}
	m.dialog.LibraryManager.set(checked)
	return nil
}

// SetRequestManager toggles the request manager choice; disabled choices ignore it
func (m *Delete) SetRequestManager(checked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return ErrClosed
	}
	m.dialog.RequestManager.set(checked)
	return nil
}

// CanConfirm is false when closed or when both choices are off
func (m *Delete) CanConfirm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog != nil && m.dialog.CanConfirm()
}

// Confirm closes the dialog and returns what to dispatch. The caller
// dispatches without waiting; the row's in-flight marker tracks completion.
func (m *Delete) Confirm() (issues.Item, actions.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialog == nil {
		return issues.Item{}, actions.Request{}, ErrClosed
	}
	if !m.dialog.CanConfirm() {
		return issues.Item{}, actions.Request{}, ErrCannotConfirm
	}
	d := *m.dialog
	m.dialog = nil
	return d.Target, d.Request(), nil
}

// Cancel closes the dialog with no side effects
func (m *Delete) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = nil
}
