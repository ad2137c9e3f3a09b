package domain

import (
	"encoding/base64"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// PageRequest asks for the page following Cursor (the first page when empty)
type PageRequest struct {
	Cursor   string
	PageSize int32
}

// Size returns the effective page size
func (p PageRequest) Size() int32 {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// Page is one keyset-paginated slice of results. NextCursor is empty on the last page.
type Page[T any] struct {
	Data       []T    `json:"data"`
	PageSize   int32  `json:"pageSize"`
	TotalItems int64  `json:"totalItems"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Cursor anchors a page boundary on the sort key and id of the last row served,
// so rows inserted concurrently never shift rows between pages
type Cursor struct {
	Key string
	ID  int32
}

// EncodeCursor renders a cursor as an opaque token
func EncodeCursor(key string, id int32) string {
	raw := key + "|" + strconv.FormatInt(int64(id), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. Malformed tokens yield
// ok=false and are treated as "start from the first page".
func DecodeCursor(token string) (Cursor, bool) {
	if token == "" {
		return Cursor{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false
	}
	s := string(raw)
	i := strings.LastIndex(s, "|")
	if i < 0 {
		return Cursor{}, false
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 32)
	if err != nil {
		return Cursor{}, false
	}
	return Cursor{Key: s[:i], ID: int32(id)}, true
}
