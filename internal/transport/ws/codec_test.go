package ws

import (
	"testing"

	"github.com/gorilla/websocket"
)

func TestCodecByName(t *testing.T) {
	cases := map[string]string{
		"":         CodecJSON,
		"json":     CodecJSON,
		"MSGPACK":  CodecMsgpack,
		" msgpack": CodecMsgpack,
	}
	for in, want := range cases {
		c, err := codecByName(in)
		if err != nil {
			t.Fatalf("codecByName(%q): %v", in, err)
		}
		if c.Name() != want {
			t.Fatalf("codecByName(%q) = %s, want %s", in, c.Name(), want)
		}
	}
	if _, err := codecByName("xml"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestMsgpackCodec_UsesJSONFieldNames(t *testing.T) {
	c := msgpackCodec{}
	if c.MessageType() != websocket.BinaryMessage {
		t.Fatalf("msgpack must use binary frames")
	}

	data, err := c.Encode(Inbound{Event: EventJoinRoom, Ack: 7, Data: map[string]any{"code": "123456", "pin": "1"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var generic map[string]any
	if err := c.Decode(data, &generic); err != nil {
		t.Fatalf("decode generic: %v", err)
	}
	if generic["event"] != EventJoinRoom {
		t.Fatalf("keys must follow json tags: %v", generic)
	}

	var in Inbound
	if err := c.Decode(data, &in); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Event != EventJoinRoom || in.Ack != 7 || roomCode(in.Data) != "123456" || strField(in.Data, "pin") != "1" {
		t.Fatalf("decoded = %+v", in)
	}
}

func TestJSONCodec_NumericCode(t *testing.T) {
	var in Inbound
	if err := (jsonCodec{}).Decode([]byte(`{"event":"join-room","data":{"code":482913},"ack":1}`), &in); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if roomCode(in.Data) != "482913" {
		t.Fatalf("code = %q", roomCode(in.Data))
	}
}
