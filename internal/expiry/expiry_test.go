package expiry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func fixedResolver(now time.Time) Resolver {
	return Resolver{
		Now:      func() time.Time { return now },
		Location: time.UTC,
	}
}

func TestResolvePermanentIsNil(t *testing.T) {
	r := fixedResolver(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	for _, d := range []Duration{Permanent, ""} {
		got, err := r.Resolve(Selection{Duration: d})
		if err != nil || got != nil {
			t.Errorf("Resolve(%q) = %v, %v; want nil, nil", d, got, err)
		}
	}
}

func TestResolveFixedOffsets(t *testing.T) {
	now := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	r := fixedResolver(now)

	tests := []struct {
		duration Duration
		want     time.Time
	}{
		{OneWeek, time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)},
		{OneMonth, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{ThreeMonths, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)},
		{SixMonths, time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)},
		{OneYear, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.duration), func(t *testing.T) {
			got, err := r.Resolve(Selection{Duration: tt.duration})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Format(time.RFC3339), tt.want.Format(time.RFC3339))
			}
			if !got.After(now) {
				t.Errorf("expiration %s not after now", got)
			}
		})
	}
}

func TestResolveOneMonthFromJan31ISO(t *testing.T) {
	r := fixedResolver(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	got, err := r.Resolve(Selection{Duration: OneMonth})
	if err != nil {
		t.Fatal(err)
	}
	if iso := *FormatISO(got); iso != "2025-02-28T00:00:00Z" {
		t.Errorf("ISO = %s, want 2025-02-28T00:00:00Z", iso)
	}
}

func TestAddMonthsLeapYear(t *testing.T) {
	got := AddMonths(time.Date(2024, 1, 31, 10, 30, 0, 0, time.UTC), 1)
	want := time.Date(2024, 2, 29, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddMonths = %s, want %s", got, want)
	}

	got = AddMonths(time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), 3)
	want = time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddMonths across year = %s, want %s", got, want)
	}
}

func TestResolveCustomDateIsLocalMidnight(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	r := Resolver{
		Now:      func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
		Location: paris,
	}

	got, err := r.Resolve(Selection{Duration: Custom, CustomDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, paris)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
	if iso := *FormatISO(got); iso != "2025-06-01T00:00:00+02:00" {
		t.Errorf("ISO = %s", iso)
	}
}

func TestResolveCustomDateDefaultsToLocalZone(t *testing.T) {
	r := Resolver{Now: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }}

	got, err := r.Resolve(Selection{Duration: Custom, CustomDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	y, m, d := got.Date()
	if y != 2025 || m != time.June || d != 1 || got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("got %s, want local midnight on 2025-06-01", got)
	}
	if got.Location() != time.Local {
		t.Errorf("location = %s, want Local", got.Location())
	}
}

func TestResolveCustomDateErrors(t *testing.T) {
	r := fixedResolver(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		date string
		want error
	}{
		{"blank", "", ErrCustomDateRequired},
		{"whitespace", "   ", ErrCustomDateRequired},
		{"garbage", "next tuesday", ErrInvalidCustomDate},
		{"wrong layout", "01/06/2025", ErrInvalidCustomDate},
		{"today", "2025-06-01", ErrDateNotInFuture},
		{"past", "2024-12-31", ErrDateNotInFuture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(Selection{Duration: Custom, CustomDate: tt.date})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got != nil {
				t.Errorf("expiration = %v, want nil on error", got)
			}
		})
	}
}

func TestResolveUnknownDuration(t *testing.T) {
	_, err := fixedResolver(time.Now()).Resolve(Selection{Duration: "2weeks"})
	if !errors.Is(err, ErrUnknownDuration) {
		t.Fatalf("err = %v, want ErrUnknownDuration", err)
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := ParseDuration(""); err != nil || d != Permanent {
		t.Errorf("ParseDuration(\"\") = %q, %v", d, err)
	}
	if d, err := ParseDuration("3months"); err != nil || d != ThreeMonths {
		t.Errorf("ParseDuration(3months) = %q, %v", d, err)
	}
	if _, err := ParseDuration("forever"); !errors.Is(err, ErrUnknownDuration) {
		t.Errorf("ParseDuration(forever) err = %v", err)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(nil); got != "permanent" {
		t.Errorf("Describe(nil) = %q", got)
	}
	ts := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if got := Describe(&ts); got != "until 2025-02-28" {
		t.Errorf("Describe = %q", got)
	}
}

func TestSelectionJSONNames(t *testing.T) {
	data, err := json.Marshal(Selection{Duration: Custom, CustomDate: "2025-03-01"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"duration":"custom"`, `"custom_date":"2025-03-01"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Marshal = %s, missing %s", data, want)
		}
	}

	var sel Selection
	if err := json.Unmarshal([]byte(`{"duration":"1week"}`), &sel); err != nil {
		t.Fatal(err)
	}
	if sel.Duration != OneWeek || sel.CustomDate != "" {
		t.Errorf("Unmarshal = %+v", sel)
	}
}
