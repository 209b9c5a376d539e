package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmenanno/media-janitor/internal/constants"
)

// ValidateItemID checks a row identifier taken from the URL
func ValidateItemID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("id is too long")
	}
	if strings.ContainsAny(id, "/\\\x00") || strings.Contains(id, "..") {
		return fmt.Errorf("invalid characters in id")
	}
	return nil
}

// ParseEntryID parses a positive whitelist entry id
func ParseEntryID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit < 1 {
		return constants.DefaultHistoryLimit
	}
	if limit > constants.MaxIssuesPerPage {
		return constants.MaxIssuesPerPage
	}
	return limit
}

// ValidatePage validates pagination page number
func ValidatePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
