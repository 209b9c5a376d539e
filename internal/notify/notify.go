// Package notify implements the toast notifications shown after user actions.
package notify

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmenanno/media-janitor/internal/constants"
)

// Kind is the toast severity
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// Notifier accepts user-visible messages
type Notifier interface {
	Add(message string, kind Kind)
}

// Toast is one notification
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Center keeps the currently visible toasts. Toasts older than the dismiss
// interval are pruned whenever the center is read or written.
type Center struct {
	mu           sync.Mutex
	toasts       []Toast
	dismissAfter time.Duration
	now          func() time.Time
	listeners    []func(Toast)
}

// NewCenter creates a toast center; zero dismissAfter uses the default
func NewCenter(dismissAfter time.Duration) *Center {
	if dismissAfter <= 0 {
		dismissAfter = constants.ToastDismissAfter
	}
	return &Center{
		dismissAfter: dismissAfter,
		now:          time.Now,
	}
}

// SetClock replaces the time source (used by tests)
func (c *Center) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// OnAdd registers a callback invoked for every new toast
func (c *Center) OnAdd(fn func(Toast)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Add shows a new toast
func (c *Center) Add(message string, kind Kind) {
	c.mu.Lock()
	toast := Toast{
		ID:        uuid.New().String(),
		Message:   message,
		Kind:      kind,
		CreatedAt: c.now(),
	}
	c.pruneLocked()
	c.toasts = append(c.toasts, toast)
	if len(c.toasts) > constants.MaxToasts {
		c.toasts = c.toasts[len(c.toasts)-constants.MaxToasts:]
	}
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(toast)
	}
}

// Dismiss removes a toast before its interval elapses
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := slices.IndexFunc(c.toasts, func(t Toast) bool { return t.ID == id })
	if idx < 0 {
		return false
	}
	c.toasts = slices.Delete(c.toasts, idx, idx+1)
	return true
}

// Active returns the toasts still within their display interval
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	return slices.Clone(c.toasts)
}

func (c *Center) pruneLocked() {
	cutoff := c.now().Add(-c.dismissAfter)
	c.toasts = slices.DeleteFunc(c.toasts, func(t Toast) bool {
		return !t.CreatedAt.After(cutoff)
	})
}

// WriterNotifier prints toasts as lines, for terminal use
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Add prints the message with a severity marker
func (n *WriterNotifier) Add(message string, kind Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", marker(kind), message)
}

func marker(kind Kind) string {
	switch kind {
	case Success:
		return "[ok]"
	case Error:
		return "[error]"
	case Warning:
		return "[warn]"
	default:
		return "[info]"
	}
}

// Multi fans a message out to several notifiers
type Multi []Notifier

// Add forwards to every notifier
func (m Multi) Add(message string, kind Kind) {
	for _, n := range m {
		n.Add(message, kind)
	}
}
