package actions

import (
	"testing"

	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"protect", Protect, false},
		{"french-only", FrenchOnly, false},
		{"Language_Exempt", LanguageExempt, false},
		{"hide-request", HideRequest, false},
		{"delete_content", DeleteContent, false},
		{"explode", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWhitelistKind(t *testing.T) {
	want := map[Kind]whitelist.Kind{
		Protect:        whitelist.KindContent,
		FrenchOnly:     whitelist.KindFrenchOnly,
		LanguageExempt: whitelist.KindLanguageExempt,
		HideRequest:    whitelist.KindHiddenRequests,
	}
	for _, k := range Kinds {
		got, ok := k.WhitelistKind()
		if k.IsDelete() {
			if ok {
				t.Errorf("%s should not map to a whitelist", k)
			}
			continue
		}
		if !ok || got != want[k] {
			t.Errorf("%s.WhitelistKind() = %q, %v", k, got, ok)
		}
	}
}

func TestDeleteKindFor(t *testing.T) {
	if got := DeleteKindFor(mustRequest(t, 1)); got != DeleteRequest {
		t.Errorf("request row -> %s", got)
	}
	if got := DeleteKindFor(mustContent(t, "m", 1, []issues.Issue{issues.IssueOld})); got != DeleteContent {
		t.Errorf("content row -> %s", got)
	}
}

func TestInFlight(t *testing.T) {
	f := NewInFlight()

	if !f.TryAdd(Protect, "movie-1") {
		t.Fatal("first add rejected")
	}
	if f.TryAdd(Protect, "movie-1") {
		t.Error("second add of the same pair accepted")
	}
	if !f.TryAdd(FrenchOnly, "movie-1") {
		t.Error("same id under another kind rejected")
	}
	if f.Len() != 2 || !f.Busy("movie-1") {
		t.Errorf("len = %d busy = %v", f.Len(), f.Busy("movie-1"))
	}

	f.Remove(Protect, "movie-1")
	f.Remove(FrenchOnly, "movie-1")
	f.Remove(FrenchOnly, "missing")

	if f.Len() != 0 || f.Busy("movie-1") || len(f.Snapshot()) != 0 {
		t.Errorf("not empty after removal: %v", f.Snapshot())
	}
}
