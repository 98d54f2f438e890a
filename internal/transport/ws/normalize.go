package ws

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

// Payloads arrive as whatever the codec produced for "any": maps, strings,
// bools and a handful of numeric types. These helpers read them leniently.

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out
	default:
		return nil
	}
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		if n, ok := toInt64(v); ok {
			return strconv.FormatInt(n, 10)
		}
		return ""
	}
}

func field(v any, key string) any {
	if m := asMap(v); m != nil {
		return m[key]
	}
	return nil
}

func strField(v any, key string) string {
	return str(field(v, key))
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// flag reads a boolean payload: a bare bool or an object with one of keys.
func flag(v any, keys ...string) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	m := asMap(v)
	for _, k := range keys {
		if b, ok := m[k].(bool); ok {
			return b
		}
	}
	return false
}

// chatInput accepts a bare string or {text, ts}.
func chatInput(v any) domain.ChatInput {
	if s, ok := v.(string); ok {
		return domain.ChatInput{Text: s}
	}
	in := domain.ChatInput{Text: strField(v, "text")}
	if ts, ok := toInt64(field(v, "ts")); ok {
		in.TS = ts
	}
	return in
}

// helloName accepts a bare string or {name}.
func helloName(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return strField(v, "name")
}

func roomCode(v any) string {
	return strings.TrimSpace(strField(v, "code"))
}
