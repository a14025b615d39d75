package translate

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"srql-engine/internal/common"
)

const cursorVersion = "v1"

// EncodeCursor wraps a row offset in an opaque, versioned token.
func EncodeCursor(offset int64) string {
	if offset < 0 {
		offset = 0
	}
	raw := fmt.Sprintf("%s:%d", cursorVersion, offset)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor unwraps a cursor token back into a row offset.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(cursor))
	if err != nil {
		return 0, common.NewErrorWithCause(common.ErrQueryCursorInvalid, "invalid cursor", err)
	}

	version, rest, found := strings.Cut(string(raw), ":")
	if !found || version != cursorVersion {
		return 0, common.NewError(common.ErrQueryCursorInvalid, "invalid cursor")
	}

	offset, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || offset < 0 {
		return 0, common.NewError(common.ErrQueryCursorInvalid, "invalid cursor")
	}
	return offset, nil
}

// PaginationMeta accompanies every query and translate response.
type PaginationMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
	PrevCursor string `json:"prev_cursor,omitempty"`
	Limit      int64  `json:"limit"`
}

// BuildPagination derives cursors from the executed page. The next cursor is
// only offered when the page came back full, so a short page ends iteration.
func BuildPagination(limit, offset, fetched int64) PaginationMeta {
	meta := PaginationMeta{Limit: limit}

	if fetched >= limit {
		meta.NextCursor = EncodeCursor(offset + limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		meta.PrevCursor = EncodeCursor(prev)
	}
	return meta
}

// TranslatePagination mirrors BuildPagination for pure translation, where no
// page has been fetched yet and the next cursor is always advertised.
func TranslatePagination(limit, offset int64) PaginationMeta {
	meta := PaginationMeta{
		Limit:      limit,
		NextCursor: EncodeCursor(offset + limit),
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		meta.PrevCursor = EncodeCursor(prev)
	}
	return meta
}
