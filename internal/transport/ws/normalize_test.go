package ws

import (
	"testing"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

func TestChatInput(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want domain.ChatInput
	}{
		{"bare string", "hi", domain.ChatInput{Text: "hi"}},
		{"object", map[string]any{"text": "hi", "ts": float64(42)}, domain.ChatInput{Text: "hi", TS: 42}},
		{"msgpack ints", map[string]any{"text": "hi", "ts": uint32(7)}, domain.ChatInput{Text: "hi", TS: 7}},
		{"no text", map[string]any{"ts": 1}, domain.ChatInput{TS: 1}},
		{"garbage", 12, domain.ChatInput{}},
		{"nil", nil, domain.ChatInput{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := chatInput(c.in); got != c.want {
				t.Fatalf("chatInput(%v) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}

func TestFlag(t *testing.T) {
	if !flag(true, "locked") {
		t.Fatalf("bare true")
	}
	if !flag(map[string]any{"locked": true}, "locked", "value") {
		t.Fatalf("object form")
	}
	if !flag(map[string]any{"value": true}, "locked", "value") {
		t.Fatalf("value key")
	}
	if flag("true", "locked") {
		t.Fatalf("string must not count as true")
	}
}

func TestHelloName(t *testing.T) {
	if helloName("Ann") != "Ann" {
		t.Fatalf("bare string")
	}
	if helloName(map[string]any{"name": "Bob"}) != "Bob" {
		t.Fatalf("object form")
	}
	if helloName(map[any]any{"name": "Cy"}) != "Cy" {
		t.Fatalf("any-keyed map")
	}
}
