package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mmenanno/media-janitor/internal/issues"
)

// DeleteOptions selects which external systems a content deletion reaches
type DeleteOptions struct {
	FromLibraryManager bool // Radarr or Sonarr
	FromRequestManager bool // Jellyseerr
}

// DeleteContent deletes a movie or series by its TMDB id
func (c *Client) DeleteContent(ctx context.Context, item issues.Item, opts DeleteOptions) (*DeleteResult, error) {
	if item.Content == nil {
		return nil, fmt.Errorf("cannot delete %s: not a content row", item.ID)
	}
	if item.Content.TmdbID == 0 {
		return nil, fmt.Errorf("cannot delete %s: no TMDB id", item.Name)
	}

	mediaType := "movie"
	if item.MediaType == issues.MediaSeries {
		mediaType = "series"
	}

	query := url.Values{}
	query.Set("delete_from_arr", strconv.FormatBool(opts.FromLibraryManager))
	query.Set("delete_from_jellyseerr", strconv.FormatBool(opts.FromRequestManager))
	query.Set("jellyfin_id", item.ID)

	path := fmt.Sprintf("/api/media/%s/%d", mediaType, item.Content.TmdbID)

	var result DeleteResult
	if err := c.do(ctx, "DELETE", path, query, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to delete %s: %w", item.Name, err)
	}
	return &result, nil
}

// DeleteRequest deletes a Jellyseerr request by id
func (c *Client) DeleteRequest(ctx context.Context, item issues.Item) error {
	if item.Request == nil {
		return fmt.Errorf("cannot delete %s: not a request row", item.ID)
	}

	path := "/api/requests/" + strconv.Itoa(item.Request.RequestID)
	if err := c.do(ctx, "DELETE", path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete request for %s: %w", item.Name, err)
	}
	return nil
}

// IntegrationStatus reports which integrations the server has configured
func (c *Client) IntegrationStatus(ctx context.Context) (*IntegrationStatus, error) {
	var status IntegrationStatus
	if err := c.do(ctx, "GET", "/api/settings/status", nil, nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get integration status: %w", err)
	}
	return &status, nil
}
