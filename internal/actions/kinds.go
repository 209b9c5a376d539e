// Package actions dispatches issue row actions to the server and reconciles
// the visible issue list with the result.
package actions

import (
	"fmt"
	"strings"

	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

// Kind is a user-initiated action on an issue row
type Kind string

const (
	Protect        Kind = "protect"
	FrenchOnly     Kind = "french_only"
	LanguageExempt Kind = "language_exempt"
	HideRequest    Kind = "hide_request"
	DeleteContent  Kind = "delete_content"
	DeleteRequest  Kind = "delete_request"
)

// Kinds lists every action kind
var Kinds = []Kind{Protect, FrenchOnly, LanguageExempt, HideRequest, DeleteContent, DeleteRequest}

// ParseKind accepts the canonical name or its hyphenated form
func ParseKind(s string) (Kind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range Kinds {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// WhitelistKind returns the whitelist an action writes to, if any
func (k Kind) WhitelistKind() (whitelist.Kind, bool) {
	switch k {
	case Protect:
		return whitelist.KindContent, true
	case FrenchOnly:
		return whitelist.KindFrenchOnly, true
	case LanguageExempt:
		return whitelist.KindLanguageExempt, true
	case HideRequest:
		return whitelist.KindHiddenRequests, true
	default:
		return "", false
	}
}

// IsDelete reports whether the action deletes rather than whitelists
func (k Kind) IsDelete() bool {
	return k == DeleteContent || k == DeleteRequest
}

// AppliesTo reports whether the action is offered for the item's shape
func (k Kind) AppliesTo(item issues.Item) bool {
	switch k {
	case HideRequest, DeleteRequest:
		return item.Kind == issues.KindRequest && item.Request != nil
	case Protect, FrenchOnly, LanguageExempt, DeleteContent:
		return item.Kind == issues.KindContent && item.Content != nil
	default:
		return false
	}
}

// DeleteKindFor picks the delete action matching an item's shape
func DeleteKindFor(item issues.Item) Kind {
	if item.IsRequest() {
		return DeleteRequest
	}
	return DeleteContent
}

func (k Kind) successMessage(name string) string {
	switch k {
	case Protect:
		return fmt.Sprintf("Protected %s", name)
	case FrenchOnly:
		return fmt.Sprintf("Marked %s as French-only", name)
	case LanguageExempt:
		return fmt.Sprintf("Marked %s as language exempt", name)
	case HideRequest:
		return fmt.Sprintf("Hid request for %s", name)
	case DeleteContent:
		return fmt.Sprintf("Deleted %s", name)
	case DeleteRequest:
		return fmt.Sprintf("Deleted request for %s", name)
	default:
		return name
	}
}

func (k Kind) failureMessage(name string) string {
	switch k {
	case Protect:
		return fmt.Sprintf("Failed to protect %s", name)
	case FrenchOnly:
		return fmt.Sprintf("Failed to mark %s as French-only", name)
	case LanguageExempt:
		return fmt.Sprintf("Failed to mark %s as language exempt", name)
	case HideRequest:
		return fmt.Sprintf("Failed to hide request for %s", name)
	case DeleteContent:
		return fmt.Sprintf("Failed to delete %s", name)
	case DeleteRequest:
		return fmt.Sprintf("Failed to delete request for %s", name)
	default:
		return fmt.Sprintf("Failed to %s %s", k, name)
	}
}
