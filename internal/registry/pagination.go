package registry

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

var ErrInvalidCursor = errors.New("invalid cursor")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Cursor points just past the last room of a page, in List order.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	Code      string    `json:"code"`
}

func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidCursor, err)
	}
	return &c, nil
}

func (c *Cursor) after(room domain.Room) bool {
	if room.CreatedAt.Equal(c.CreatedAt) {
		return room.Code > c.Code
	}
	return room.CreatedAt.After(c.CreatedAt)
}

// Page returns up to limit rooms following cursor and the cursor for the next
// page ("" when there is none).
func (r *Registry) Page(limit int, cursor string) ([]domain.Room, string, error) {
	cur, err := DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	all := r.List()
	out := make([]domain.Room, 0, limit)
	for _, room := range all {
		if cur != nil && !cur.after(room) {
			continue
		}
		out = append(out, room)
		if len(out) == limit+1 {
			break
		}
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next, err = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, Code: last.Code})
		if err != nil {
			return nil, "", err
		}
	}
	return out, next, nil
}
