// Package issues models the classified content and request rows shown on the
// issues page, and the list state that holds them.
package issues

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Issue is a classification tag explaining why an item needs attention
type Issue string

const (
	IssueOld      Issue = "old"
	IssueLarge    Issue = "large"
	IssueLanguage Issue = "language"
	IssueRequest  Issue = "request"
)

// ParseIssue validates an issue tag
func ParseIssue(s string) (Issue, error) {
	switch Issue(s) {
	case IssueOld, IssueLarge, IssueLanguage, IssueRequest:
		return Issue(s), nil
	default:
		return "", fmt.Errorf("unknown issue %q", s)
	}
}

// LanguageIssue identifies a specific audio or subtitle gap
type LanguageIssue string

const (
	MissingEnglishAudio     LanguageIssue = "missing_en_audio"
	MissingFrenchAudio      LanguageIssue = "missing_fr_audio"
	MissingEnglishSubtitles LanguageIssue = "missing_en_subs"
	MissingFrenchSubtitles  LanguageIssue = "missing_fr_subs"
)

// Filter selects which issues the page is showing
type Filter string

const (
	FilterAll      Filter = "all"
	FilterOld      Filter = "old"
	FilterLarge    Filter = "large"
	FilterLanguage Filter = "language"
	FilterRequest  Filter = "request"
)

// ParseFilter validates a filter name; empty means all
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "":
		return FilterAll, nil
	case FilterAll, FilterOld, FilterLarge, FilterLanguage, FilterRequest:
		return Filter(s), nil
	default:
		return "", fmt.Errorf("unknown filter %q (valid: all, old, large, language, request)", s)
	}
}

// Matches reports whether an issue set would be listed under the filter
func (f Filter) Matches(set []Issue) bool {
	if len(set) == 0 {
		return false
	}
	if f == FilterAll || f == "" {
		return true
	}
	return slices.Contains(set, Issue(f))
}

// Kind discriminates content rows from request rows
type Kind string

const (
	KindContent Kind = "content"
	KindRequest Kind = "request"
)

// MediaType is movie or series
type MediaType string

const (
	MediaMovie  MediaType = "movie"
	MediaSeries MediaType = "series"
)

// RequestIDPrefix marks identifiers of request-origin rows
const RequestIDPrefix = "request-"

// Item is one row of the issues page. Exactly one of Content and Request is
// set, matching Kind.
type Item struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	MediaType MediaType `json:"media_type"`
	Year      int       `json:"year,omitempty"`
	Issues    []Issue   `json:"issues"`

	Content *ContentDetails `json:"content,omitempty"`
	Request *RequestDetails `json:"request,omitempty"`
}

// ContentDetails holds the fields only Jellyfin content rows carry
type ContentDetails struct {
	SizeBytes      int64           `json:"size_bytes"`
	LastPlayedDate *time.Time      `json:"last_played_date,omitempty"`
	Played         bool            `json:"played"`
	LanguageIssues []LanguageIssue `json:"language_issues,omitempty"`
	TmdbID         int             `json:"tmdb_id,omitempty"`
	ImdbID         string          `json:"imdb_id,omitempty"`
	SonarrSlug     string          `json:"sonarr_title_slug,omitempty"`
}

// RequestDetails holds the fields only Jellyseerr request rows carry
type RequestDetails struct {
	RequestID      int        `json:"request_id"`
	TmdbID         int        `json:"tmdb_id,omitempty"`
	RequestedBy    string     `json:"requested_by,omitempty"`
	RequestDate    *time.Time `json:"request_date,omitempty"`
	ReleaseDate    *time.Time `json:"release_date,omitempty"`
	MissingSeasons []int      `json:"missing_seasons,omitempty"`
}

// NewContentItem builds a content row, rejecting an empty issue set
func NewContentItem(id, name string, mediaType MediaType, issues []Issue, details ContentDetails) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("content item has no id")
	}
	if len(issues) == 0 {
		return Item{}, fmt.Errorf("content item %s has no issues", id)
	}
	if slices.Contains(issues, IssueRequest) {
		return Item{}, fmt.Errorf("content item %s carries a request issue", id)
	}
	return Item{
		ID:        id,
		Kind:      KindContent,
		Name:      name,
		MediaType: mediaType,
		Issues:    slices.Clone(issues),
		Content:   &details,
	}, nil
}

// NewRequestItem builds a request row. Its id is always request-<id>.
func NewRequestItem(name string, mediaType MediaType, details RequestDetails) (Item, error) {
	if details.RequestID <= 0 {
		return Item{}, fmt.Errorf("request item %q has no request id", name)
	}
	return Item{
		ID:        fmt.Sprintf("%s%d", RequestIDPrefix, details.RequestID),
		Kind:      KindRequest,
		Name:      name,
		MediaType: mediaType,
		Issues:    []Issue{IssueRequest},
		Request:   &details,
	}, nil
}

// IsRequest reports whether the row came from Jellyseerr
func (it Item) IsRequest() bool {
	return it.Kind == KindRequest
}

// SizeBytes returns the on-disk size; request rows have none
func (it Item) SizeBytes() int64 {
	if it.Content == nil {
		return 0
	}
	return it.Content.SizeBytes
}

// HasIssue reports whether the item carries the given issue
func (it Item) HasIssue(issue Issue) bool {
	return slices.Contains(it.Issues, issue)
}

// LanguageIssues returns the specific language gaps of a content row
func (it Item) LanguageIssues() []LanguageIssue {
	if it.Content == nil {
		return nil
	}
	return it.Content.LanguageIssues
}

// DisplayName renders "Name (Year)" when the year is known
func (it Item) DisplayName() string {
	if it.Year > 0 {
		return fmt.Sprintf("%s (%d)", it.Name, it.Year)
	}
	return it.Name
}

// IssueLabels joins the issue tags for display
func (it Item) IssueLabels() string {
	labels := make([]string, len(it.Issues))
	for i, issue := range it.Issues {
		labels[i] = string(issue)
	}
	return strings.Join(labels, ", ")
}
