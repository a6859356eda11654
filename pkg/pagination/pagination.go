// Package pagination implements the keyset cursors behind the intake listing
// endpoints. A cursor pins the (created_at, id) pair of the last item already
// served so the next page resumes strictly after it, newest first, without
// the drift an offset would suffer while intake keeps inserting rows.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPageSize applies when a listing request names no limit.
	DefaultPageSize = 25
	// MaxPageSize caps one page of items regardless of the requested limit.
	MaxPageSize = 100

	cursorSeparator = "|"
)

// Cursor is the keyset position of the last item on the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ClampLimit normalizes a requested page size into [1, MaxPageSize],
// substituting DefaultPageSize for zero or negative values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}

// LimitWithBuffer is the row count a page query should fetch: the clamped
// page size plus one sentinel row. A full fetch means another page exists;
// the sentinel is trimmed before the page is returned.
func LimitWithBuffer(limit int) int {
	return ClampLimit(limit) + 1
}

// EncodeCursor serializes a cursor for the next_cursor response field.
func EncodeCursor(cursor Cursor) string {
	raw := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + cursor.ID.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a client-supplied cursor. An empty value means the
// first page and yields a nil cursor, not an error.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	createdAtPart, idPart, found := strings.Cut(string(raw), cursorSeparator)
	if !found {
		return nil, fmt.Errorf("malformed cursor payload")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtPart)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}

	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
