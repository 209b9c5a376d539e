package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmenanno/media-janitor/internal/expiry"
	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

// AddToWhitelist creates a whitelist entry of the given kind for an issue row.
// A nil expiresAt makes the entry permanent.
func (c *Client) AddToWhitelist(ctx context.Context, kind whitelist.Kind, item issues.Item, expiresAt *time.Time) error {
	path := "/api/whitelist/" + kind.PathSegment()

	var body any
	if kind.OwnerIsRequest() {
		if item.Request == nil {
			return fmt.Errorf("%s whitelist needs a request row, got %s", kind, item.ID)
		}
		body = requestWhitelistBody{
			JellyseerrID: item.Request.RequestID,
			Title:        item.Name,
			MediaType:    string(item.MediaType),
			ExpiresAt:    expiry.FormatISO(expiresAt),
		}
	} else {
		if item.Content == nil {
			return fmt.Errorf("%s whitelist needs a content row, got %s", kind, item.ID)
		}
		body = contentWhitelistBody{
			JellyfinID: item.ID,
			Name:       item.Name,
			ExpiresAt:  expiry.FormatISO(expiresAt),
		}
	}

	if err := c.do(ctx, "POST", path, nil, body, nil); err != nil {
		return fmt.Errorf("failed to add %s to %s whitelist: %w", item.Name, kind, err)
	}
	return nil
}

// ListWhitelist fetches every entry of a whitelist kind
func (c *Client) ListWhitelist(ctx context.Context, kind whitelist.Kind) ([]whitelist.Entry, error) {
	var wire []whitelistEntryWire
	if err := c.do(ctx, "GET", "/api/whitelist/"+kind.PathSegment(), nil, nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to list %s whitelist: %w", kind, err)
	}

	entries := make([]whitelist.Entry, 0, len(wire))
	for _, w := range wire {
		entries = append(entries, decodeWhitelistEntry(kind, w))
	}
	return entries, nil
}

// RemoveFromWhitelist deletes a whitelist entry by id
func (c *Client) RemoveFromWhitelist(ctx context.Context, kind whitelist.Kind, id int) error {
	path := "/api/whitelist/" + kind.PathSegment() + "/" + strconv.Itoa(id)
	if err := c.do(ctx, "DELETE", path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to remove %s whitelist entry %d: %w", kind, id, err)
	}
	return nil
}

func decodeWhitelistEntry(kind whitelist.Kind, w whitelistEntryWire) whitelist.Entry {
	owner := deref(w.JellyfinID)
	if w.JellyseerrID != nil {
		owner = strconv.Itoa(*w.JellyseerrID)
	}

	name := strings.TrimSpace(deref(w.Name))
	if name == "" {
		name = strings.TrimSpace(deref(w.Title))
	}

	entry := whitelist.Entry{
		ID:        w.ID,
		Kind:      kind,
		OwnerID:   owner,
		Name:      name,
		ExpiresAt: parseWireTime(w.ExpiresAt),
	}
	if created := parseWireTime(w.CreatedAt); created != nil {
		entry.CreatedAt = *created
	}
	return entry
}
