package actions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/notify"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

type toast struct {
	message string
	kind    notify.Kind
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []toast
}

func (n *recordingNotifier) Add(message string, kind notify.Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast{message, kind})
}

func (n *recordingNotifier) all() []toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]toast(nil), n.toasts...)
}

type whitelistCall struct {
	kind      whitelist.Kind
	itemID    string
	expiresAt *time.Time
}

// fakeMutator returns err for every call and can hold calls until released
type fakeMutator struct {
	mu         sync.Mutex
	err        error
	whitelists []whitelistCall
	deletes    []api.DeleteOptions
	requests   []int
	during     func(ctx context.Context)
}

func (m *fakeMutator) hook(ctx context.Context) {
	if m.during != nil {
		m.during(ctx)
	}
}

func (m *fakeMutator) AddToWhitelist(ctx context.Context, kind whitelist.Kind, item issues.Item, expiresAt *time.Time) error {
	m.hook(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.whitelists = append(m.whitelists, whitelistCall{kind, item.ID, expiresAt})
	return m.err
}

func (m *fakeMutator) DeleteContent(ctx context.Context, item issues.Item, opts api.DeleteOptions) (*api.DeleteResult, error) {
	m.hook(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &api.DeleteResult{Message: "Deleted"}, nil
}

func (m *fakeMutator) DeleteRequest(ctx context.Context, item issues.Item) error {
	m.hook(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, item.Request.RequestID)
	return m.err
}

func (m *fakeMutator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.whitelists) + len(m.deletes) + len(m.requests)
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *memoryRecorder) RecordAction(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func mustContent(t *testing.T, id string, size int64, set []issues.Issue, lang ...issues.LanguageIssue) issues.Item {
	t.Helper()
	item, err := issues.NewContentItem(id, "Title "+id, issues.MediaMovie, set, issues.ContentDetails{
		SizeBytes:      size,
		LanguageIssues: lang,
		TmdbID:         100,
	})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func mustRequest(t *testing.T, id int) issues.Item {
	t.Helper()
	item, err := issues.NewRequestItem("Request", issues.MediaSeries, issues.RequestDetails{RequestID: id})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func listOf(filter issues.Filter, items ...issues.Item) *issues.List {
	list := issues.NewList(filter)
	var size int64
	for _, it := range items {
		size += it.SizeBytes()
	}
	list.Replace(items, len(items), size)
	return list
}
