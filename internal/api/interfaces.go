package api

import (
	"context"
	"time"

	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

// IssueSource lists issue rows
type IssueSource interface {
	ListIssues(ctx context.Context, q IssueQuery) (*IssuePage, error)
}

// Mutator performs the remote mutations behind issue row actions
type Mutator interface {
	AddToWhitelist(ctx context.Context, kind whitelist.Kind, item issues.Item, expiresAt *time.Time) error
	DeleteContent(ctx context.Context, item issues.Item, opts DeleteOptions) (*DeleteResult, error)
	DeleteRequest(ctx context.Context, item issues.Item) error
}

// WhitelistStore lists and removes whitelist entries
type WhitelistStore interface {
	ListWhitelist(ctx context.Context, kind whitelist.Kind) ([]whitelist.Entry, error)
	RemoveFromWhitelist(ctx context.Context, kind whitelist.Kind, id int) error
}

// StatusSource reports integration configuration
type StatusSource interface {
	IntegrationStatus(ctx context.Context) (*IntegrationStatus, error)
}

// Ensure Client implements every interface
var (
	_ IssueSource    = (*Client)(nil)
	_ Mutator        = (*Client)(nil)
	_ WhitelistStore = (*Client)(nil)
	_ StatusSource   = (*Client)(nil)
)
