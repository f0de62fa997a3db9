// Package pagination implements the opaque cursor tokens used by list
// endpoints. A token encodes the sort key of the last returned row.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const tokenSeparator = "|"

// EncodeToken builds an opaque cursor from the (created_at, id) sort key of
// the last row on a page.
func EncodeToken(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + tokenSeparator + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeToken parses a cursor produced by EncodeToken.
func DecodeToken(token string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed pagination token: %w", err)
	}
	parts := strings.SplitN(string(raw), tokenSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("malformed pagination token")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed pagination token timestamp: %w", err)
	}
	return createdAt, parts[1], nil
}
