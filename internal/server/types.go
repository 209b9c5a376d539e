package server

import (
	"github.com/mmenanno/media-janitor/internal/database"
	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/notify"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// IssuesResponse is the issues page state
type IssuesResponse struct {
	issues.Snapshot
	InFlight map[string][]string `json:"in_flight"`
}

// ActionRequest is the body of an action call. The delete flags default
// to true when omitted.
type ActionRequest struct {
	Duration             string `json:"duration"`
	CustomDate           string `json:"custom_date"`
	DeleteFromArr        *bool  `json:"delete_from_arr"`
	DeleteFromJellyseerr *bool  `json:"delete_from_jellyseerr"`
}

// ActionResponse reports an action outcome with the resulting page state
type ActionResponse struct {
	Outcome string          `json:"outcome"`
	Message string          `json:"message,omitempty"`
	Issues  issues.Snapshot `json:"issues"`
}

// WhitelistEntryView flags expired entries for display
type WhitelistEntryView struct {
	whitelist.Entry
	Expired  bool `json:"expired"`
	Removing bool `json:"removing"`
}

// WhitelistResponse lists the entries of one kind
type WhitelistResponse struct {
	Kind    whitelist.Kind       `json:"kind"`
	Label   string               `json:"label"`
	Entries []WhitelistEntryView `json:"entries"`
}

// ToastsResponse lists the visible toasts
type ToastsResponse struct {
	Toasts []notify.Toast `json:"toasts"`
}

// HistoryResponse is a page of the action journal
type HistoryResponse struct {
	Actions  []*database.ActionEntry `json:"actions"`
	Total    int                     `json:"total"`
	Outcomes map[string]int          `json:"outcomes"`
}
