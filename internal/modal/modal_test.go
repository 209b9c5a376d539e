package modal

import (
	"errors"
	"testing"
	"time"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/expiry"
	"github.com/mmenanno/media-janitor/internal/issues"
)

func movie(t *testing.T) issues.Item {
	t.Helper()
	item, err := issues.NewContentItem("movie-1", "Inception", issues.MediaMovie, []issues.Issue{issues.IssueOld}, issues.ContentDetails{TmdbID: 27205})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func request(t *testing.T) issues.Item {
	t.Helper()
	item, err := issues.NewRequestItem("Dune", issues.MediaMovie, issues.RequestDetails{RequestID: 8})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

var allConfigured = api.IntegrationStatus{
	JellyfinConfigured:   true,
	JellyseerrConfigured: true,
	RadarrConfigured:     true,
	SonarrConfigured:     true,
}

func TestDeleteOpenDefaults(t *testing.T) {
	tests := []struct {
		name        string
		target      func(*testing.T) issues.Item
		status      api.IntegrationStatus
		wantLibrary Choice
		wantRequest Choice
	}{
		{"all configured", movie, allConfigured, Choice{true, true}, Choice{true, true}},
		{"no radarr", movie, api.IntegrationStatus{JellyseerrConfigured: true, SonarrConfigured: true}, Choice{false, false}, Choice{true, true}},
		{"no jellyseerr", movie, api.IntegrationStatus{RadarrConfigured: true}, Choice{true, true}, Choice{false, false}},
		{"request row", request, allConfigured, Choice{false, false}, Choice{true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDelete()
			m.Open(tt.target(t), tt.status)
			d := m.Current()
			if d == nil {
				t.Fatal("dialog not open")
			}
			if d.LibraryManager != tt.wantLibrary || d.RequestManager != tt.wantRequest {
				t.Errorf("choices = %+v / %+v", d.LibraryManager, d.RequestManager)
			}
		})
	}
}

func TestDeleteConfirmGating(t *testing.T) {
	cases := []struct {
		library, requests bool
		want              bool
	}{
		{true, true, true},
		{true, false, true},
		{false, true, true},
		{false, false, false},
	}

	for _, c := range cases {
		m := NewDelete()
		m.Open(movie(t), allConfigured)
		_ = m.SetLibraryManager(c.library)
		_ = m.SetRequestManager(c.requests)

		if got := m.CanConfirm(); got != c.want {
			t.Errorf("library=%v requests=%v: CanConfirm = %v, want %v", c.library, c.requests, got, c.want)
		}

		_, _, err := m.Confirm()
		if c.want && err != nil {
			t.Errorf("Confirm: %v", err)
		}
		if !c.want && !errors.Is(err, ErrCannotConfirm) {
			t.Errorf("Confirm err = %v, want ErrCannotConfirm", err)
		}
		if m.IsOpen() == c.want {
			t.Errorf("open after confirm = %v", m.IsOpen())
		}
	}
}

func TestDeleteDisabledChoiceIgnoresToggle(t *testing.T) {
	m := NewDelete()
	m.Open(movie(t), api.IntegrationStatus{JellyseerrConfigured: true})

	_ = m.SetLibraryManager(true)
	if m.Current().LibraryManager.Checked {
		t.Error("disabled library choice was checked")
	}

	_ = m.SetRequestManager(false)
	if m.CanConfirm() {
		t.Error("confirm enabled with nothing selected")
	}
}

func TestDeleteConfirmReturnsRequest(t *testing.T) {
	m := NewDelete()
	m.Open(movie(t), allConfigured)
	_ = m.SetRequestManager(false)

	item, req, err := m.Confirm()
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "movie-1" || req.Kind != actions.DeleteContent {
		t.Errorf("confirm = %s %+v", item.ID, req)
	}
	if !req.Delete.FromLibraryManager || req.Delete.FromRequestManager {
		t.Errorf("delete options = %+v", req.Delete)
	}
	if m.Current() != nil {
		t.Error("dialog still open")
	}

	m.Open(request(t), allConfigured)
	_, req, err = m.Confirm()
	if err != nil || req.Kind != actions.DeleteRequest {
		t.Errorf("request confirm = %+v, %v", req, err)
	}
}

func TestDeleteClosedAndCancel(t *testing.T) {
	m := NewDelete()
	if _, _, err := m.Confirm(); !errors.Is(err, ErrClosed) {
		t.Errorf("confirm closed: %v", err)
	}
	if err := m.SetLibraryManager(true); !errors.Is(err, ErrClosed) {
		t.Errorf("toggle closed: %v", err)
	}

	m.Open(movie(t), allConfigured)
	m.Cancel()
	if m.IsOpen() || m.CanConfirm() {
		t.Error("dialog open after cancel")
	}
}

func fixedResolver() expiry.Resolver {
	now := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	return expiry.Resolver{Now: func() time.Time { return now }, Location: time.UTC}
}

func TestDurationDefaultsToPermanent(t *testing.T) {
	m := NewDuration(fixedResolver())
	if err := m.Open(movie(t), actions.Protect); err != nil {
		t.Fatal(err)
	}
	if !m.CanConfirm() {
		t.Fatal("permanent should be confirmable")
	}

	item, req, err := m.Confirm()
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "movie-1" || req.Kind != actions.Protect || req.ExpiresAt != nil {
		t.Errorf("confirm = %s %+v", item.ID, req)
	}
	if m.Current() != nil {
		t.Error("picker still open")
	}
}

func TestDurationCustomDateGating(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{"blank", "", expiry.ErrCustomDateRequired},
		{"garbage", "next tuesday", expiry.ErrInvalidCustomDate},
		{"past", "2024-12-01", expiry.ErrDateNotInFuture},
		{"valid", "2025-06-01", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDuration(fixedResolver())
			if err := m.Open(movie(t), actions.Protect); err != nil {
				t.Fatal(err)
			}
			if err := m.Select(expiry.Custom); err != nil {
				t.Fatal(err)
			}
			if err := m.SetCustomDate(tt.date); err != nil {
				t.Fatal(err)
			}

			if got := m.CanConfirm(); got != (tt.wantErr == nil) {
				t.Errorf("CanConfirm = %v", got)
			}

			_, req, err := m.Confirm()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Confirm err = %v, want %v", err, tt.wantErr)
				}
				if m.Current() == nil {
					t.Error("invalid confirm closed the picker")
				}
				return
			}
			want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			if err != nil || req.ExpiresAt == nil || !req.ExpiresAt.Equal(want) {
				t.Errorf("Confirm = %+v, %v", req, err)
			}
		})
	}
}

func TestDurationMonthClamps(t *testing.T) {
	m := NewDuration(fixedResolver())
	if err := m.Open(movie(t), actions.LanguageExempt); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(expiry.OneMonth); err != nil {
		t.Fatal(err)
	}
	_, req, err := m.Confirm()
	if err != nil {
		t.Fatal(err)
	}
	if got := req.ExpiresAt.Format(time.RFC3339); got != "2025-02-28T00:00:00Z" {
		t.Errorf("expires = %s", got)
	}
}

func TestDurationOpenRejectsBadTargets(t *testing.T) {
	m := NewDuration(fixedResolver())
	if err := m.Open(movie(t), actions.DeleteContent); err == nil {
		t.Error("delete should not open a duration picker")
	}
	if err := m.Open(movie(t), actions.HideRequest); !errors.Is(err, actions.ErrNotApplicable) {
		t.Errorf("hide on content: %v", err)
	}
	if err := m.Open(request(t), actions.HideRequest); err != nil {
		t.Errorf("hide on request: %v", err)
	}
	if err := m.Select("forever"); err == nil {
		t.Error("unknown duration accepted")
	}
	m.Cancel()
	if err := m.Select(expiry.OneWeek); !errors.Is(err, ErrClosed) {
		t.Errorf("select closed: %v", err)
	}
}
