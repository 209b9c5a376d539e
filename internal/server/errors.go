package server

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/mmenanno/media-janitor/internal/logging"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Component("http").Warn().Err(err).Msg("failed to encode response")
	}
}

// respondError sends a structured error response
func respondError(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{
		Error:      message,
		Code:       code,
		Suggestion: getErrorSuggestion(code),
	})
}

// getErrorSuggestion returns a user-friendly suggestion based on error code
func getErrorSuggestion(code string) string {
	suggestions := map[string]string{
		"invalid_filter":      "Valid filters: all, old, large, language, request.",
		"invalid_action":      "Valid actions: protect, french_only, language_exempt, hide_request, delete_content, delete_request.",
		"invalid_kind":        "Valid whitelist kinds: content, french-only, language-exempt, requests, episode-exempt.",
		"invalid_id":          "The identifier in the URL is not valid.",
		"invalid_duration":    "Pick a duration, or a custom date in YYYY-MM-DD format that lies in the future.",
		"invalid_request":     "The action could not be run with the submitted options.",
		"item_not_found":      "The item is no longer in the list. Try refreshing the page.",
		"entry_not_found":     "The whitelist entry is no longer loaded. Try refreshing the page.",
		"in_flight":           "This action is already running for the item. Wait for it to finish.",
		"not_applicable":      "This action is not available for the item.",
		"session_expired":     "Your session expired. Log in again to continue.",
		"conflict":            "The server already has this change.",
		"upstream_rejected":   "The Media Janitor server rejected the request.",
		"upstream_failed":     "The Media Janitor server could not be reached. Check that it is running.",
		"parse_error":         "The submitted data could not be parsed. Check the request body and try again.",
		"history_unavailable": "The action journal is not configured.",
		"rate_limit_exceeded": "Too many requests. Wait a moment and try again.",
	}

	if suggestion, ok := suggestions[code]; ok {
		return suggestion
	}

	return "If the problem persists, check the application logs for more details."
}
