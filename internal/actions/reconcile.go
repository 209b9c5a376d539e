package actions

import (
	"slices"

	"github.com/mmenanno/media-janitor/internal/issues"
)

// Decision is the local list change that follows a successful action
type Decision int

const (
	// Remove drops the row and decrements the totals
	Remove Decision = iota
	// Refetch reloads the list from the server
	Refetch
)

func (d Decision) String() string {
	if d == Remove {
		return "remove"
	}
	return "refetch"
}

// Reconcile decides how the list changes after kind succeeded on item.
//
// Deletes, protection and hidden requests always take the row out of view.
// French-only and language-exempt only clear the language issue, and only
// when every language code on the item is one the action suppresses. The row
// is removed when nothing remains under the active filter; otherwise the
// server is asked for the recomputed issue set.
func Reconcile(item issues.Item, kind Kind, filter issues.Filter) Decision {
	switch kind {
	case DeleteContent, DeleteRequest, Protect, HideRequest:
		return Remove
	}

	remaining := RemainingIssues(item, kind)
	if filter == "" || filter == issues.FilterAll {
		if len(remaining) == 0 {
			return Remove
		}
		return Refetch
	}
	if !slices.Contains(remaining, issues.Issue(filter)) {
		return Remove
	}
	return Refetch
}

// RemainingIssues returns the item's issues once kind is applied
func RemainingIssues(item issues.Item, kind Kind) []issues.Issue {
	switch kind {
	case DeleteContent, DeleteRequest, Protect, HideRequest:
		return nil
	case FrenchOnly, LanguageExempt:
	default:
		return slices.Clone(item.Issues)
	}

	clearsLanguage := true
	for _, code := range item.LanguageIssues() {
		if !Suppresses(kind, code) {
			clearsLanguage = false
			break
		}
	}

	remaining := make([]issues.Issue, 0, len(item.Issues))
	for _, issue := range item.Issues {
		if issue == issues.IssueLanguage && clearsLanguage {
			continue
		}
		remaining = append(remaining, issue)
	}
	return remaining
}

// Suppresses reports whether a language whitelist action hides a code.
// French-only content is not expected to carry English audio or subtitles.
func Suppresses(kind Kind, code issues.LanguageIssue) bool {
	switch kind {
	case LanguageExempt:
		return true
	case FrenchOnly:
		return code == issues.MissingEnglishAudio || code == issues.MissingEnglishSubtitles
	default:
		return false
	}
}

// Apply performs the decision on list. Remove drops the row; Refetch leaves
// the list untouched for the caller to reload.
func Apply(list *issues.List, item issues.Item, kind Kind) Decision {
	decision := Reconcile(item, kind, list.Filter())
	if decision == Remove {
		list.Remove(item.ID)
	}
	return decision
}
