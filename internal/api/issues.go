package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/logging"
)

// IssueQuery selects a page of the issues list
type IssueQuery struct {
	Filter   issues.Filter
	Page     int
	PageSize int
}

// IssuePage is a decoded issues response
type IssuePage struct {
	Items          []issues.Item
	TotalCount     int
	TotalSizeBytes int64
}

// ListIssues fetches a page of classified content and request rows
func (c *Client) ListIssues(ctx context.Context, q IssueQuery) (*IssuePage, error) {
	query := url.Values{}
	if q.Filter != "" && q.Filter != issues.FilterAll {
		query.Set("filter", string(q.Filter))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(q.PageSize))
	}

	var wire issuesResponseWire
	if err := c.do(ctx, "GET", "/api/content/issues", query, nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	return decodeIssuePage(wire), nil
}

// decodeIssuePage narrows wire rows into typed items. Rows that cannot be
// narrowed are dropped and the totals adjusted so they still describe the
// rows that are kept.
func decodeIssuePage(wire issuesResponseWire) *IssuePage {
	page := &IssuePage{
		Items:          make([]issues.Item, 0, len(wire.Items)),
		TotalCount:     wire.TotalCount,
		TotalSizeBytes: wire.TotalSizeBytes,
	}

	for _, row := range wire.Items {
		item, err := narrowRow(row)
		if err != nil {
			logging.Component("api").Warn().Err(err).Str("jellyfin_id", row.JellyfinID).Msg("skipping malformed issue row")
			page.TotalCount--
			page.TotalSizeBytes -= deref(row.SizeBytes)
			continue
		}
		page.Items = append(page.Items, item)
	}

	if page.TotalCount < 0 {
		page.TotalCount = 0
	}
	if page.TotalSizeBytes < 0 {
		page.TotalSizeBytes = 0
	}
	return page
}

func narrowRow(row issueRowWire) (issues.Item, error) {
	tags := make([]issues.Issue, 0, len(row.Issues))
	isRequest := false
	for _, raw := range row.Issues {
		issue, err := issues.ParseIssue(raw)
		if err != nil {
			continue
		}
		if issue == issues.IssueRequest {
			isRequest = true
			continue
		}
		tags = append(tags, issue)
	}

	mediaType := issues.MediaMovie
	if row.MediaType == "series" || row.MediaType == "tv" {
		mediaType = issues.MediaSeries
	}

	if isRequest {
		requestID := deref(row.JellyseerrRequestID)
		if requestID == 0 {
			requestID, _ = strconv.Atoi(strings.TrimPrefix(row.JellyfinID, issues.RequestIDPrefix))
		}
		item, err := issues.NewRequestItem(row.Name, mediaType, issues.RequestDetails{
			RequestID:      requestID,
			TmdbID:         deref(row.TmdbID),
			RequestedBy:    deref(row.RequestedBy),
			RequestDate:    parseWireTime(row.RequestDate),
			ReleaseDate:    parseWireTime(row.ReleaseDate),
			MissingSeasons: row.MissingSeasons,
		})
		if err != nil {
			return issues.Item{}, err
		}
		item.Year = deref(row.ProductionYear)
		return item, nil
	}

	languageIssues := make([]issues.LanguageIssue, 0, len(row.LanguageIssues))
	for _, li := range row.LanguageIssues {
		languageIssues = append(languageIssues, issues.LanguageIssue(li))
	}

	item, err := issues.NewContentItem(row.JellyfinID, row.Name, mediaType, tags, issues.ContentDetails{
		SizeBytes:      deref(row.SizeBytes),
		LastPlayedDate: parseWireTime(row.LastPlayedDate),
		Played:         row.Played,
		LanguageIssues: languageIssues,
		TmdbID:         deref(row.TmdbID),
		ImdbID:         deref(row.ImdbID),
		SonarrSlug:     deref(row.SonarrTitleSlug),
	})
	if err != nil {
		return issues.Item{}, err
	}
	item.Year = deref(row.ProductionYear)
	return item, nil
}
