package api

import (
	"strings"
	"time"
)

// issueRowWire is a single row of the issues endpoint. Content rows and
// request rows share this shape on the wire; issues.Item splits them.
type issueRowWire struct {
	JellyfinID      string   `json:"jellyfin_id"`
	Name            string   `json:"name"`
	MediaType       string   `json:"media_type"`
	ProductionYear  *int     `json:"production_year"`
	SizeBytes       *int64   `json:"size_bytes"`
	SizeFormatted   string   `json:"size_formatted"`
	LastPlayedDate  *string  `json:"last_played_date"`
	Played          bool     `json:"played"`
	Issues          []string `json:"issues"`
	LanguageIssues  []string `json:"language_issues"`
	TmdbID          *int     `json:"tmdb_id"`
	ImdbID          *string  `json:"imdb_id"`
	SonarrTitleSlug *string  `json:"sonarr_title_slug"`

	JellyseerrRequestID *int    `json:"jellyseerr_request_id"`
	RequestedBy         *string `json:"requested_by"`
	RequestDate         *string `json:"request_date"`
	MissingSeasons      []int   `json:"missing_seasons"`
	ReleaseDate         *string `json:"release_date"`
}

type issuesResponseWire struct {
	Items              []issueRowWire `json:"items"`
	TotalCount         int            `json:"total_count"`
	TotalSizeBytes     int64          `json:"total_size_bytes"`
	TotalSizeFormatted string         `json:"total_size_formatted"`
}

type whitelistEntryWire struct {
	ID           int     `json:"id"`
	JellyfinID   *string `json:"jellyfin_id"`
	JellyseerrID *int    `json:"jellyseerr_id"`
	Name         *string `json:"name"`
	Title        *string `json:"title"`
	CreatedAt    *string `json:"created_at"`
	ExpiresAt    *string `json:"expires_at"`
}

type contentWhitelistBody struct {
	JellyfinID string  `json:"jellyfin_id"`
	Name       string  `json:"name"`
	ExpiresAt  *string `json:"expires_at"`
}

type requestWhitelistBody struct {
	JellyseerrID int     `json:"jellyseerr_id"`
	Title        string  `json:"title"`
	MediaType    string  `json:"media_type,omitempty"`
	ExpiresAt    *string `json:"expires_at"`
}

// IntegrationStatus reports which external services the server has configured
type IntegrationStatus struct {
	JellyfinConfigured   bool `json:"jellyfin_configured"`
	JellyseerrConfigured bool `json:"jellyseerr_configured"`
	RadarrConfigured     bool `json:"radarr_configured"`
	SonarrConfigured     bool `json:"sonarr_configured"`
}

// LibraryManagerConfigured reports whether the *arr for a media type is set up
func (s IntegrationStatus) LibraryManagerConfigured(mediaType string) bool {
	if mediaType == "series" {
		return s.SonarrConfigured
	}
	return s.RadarrConfigured
}

// DeleteResult is the server's summary of a content deletion
type DeleteResult struct {
	Message           string `json:"message"`
	ArrDeleted        bool   `json:"arr_deleted"`
	JellyseerrDeleted bool   `json:"jellyseerr_deleted"`
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseWireTime accepts the timestamp shapes the server emits; unparseable or
// empty values become nil
func parseWireTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	for _, layout := range wireTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
