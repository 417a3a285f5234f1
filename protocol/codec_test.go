package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeEvent(t *testing.T) {
	frame, err := EncodeEvent("pollResp", "True", "")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	want := `42["pollResp","True",""]`
	if string(frame) != want {
		t.Errorf("expected %s, got %s", want, frame)
	}
}

func TestEncodeEvent_NoArgs(t *testing.T) {
	frame, err := EncodeEvent("leaveRoom")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(frame) != `42["leaveRoom"]` {
		t.Errorf("unexpected frame: %s", frame)
	}
}

func TestDecode_Event(t *testing.T) {
	p, err := Decode([]byte(`42["classUpdate",{"poll":{"status":true}}]`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if p.Type != PacketMessage || p.Message != MessageEvent {
		t.Errorf("unexpected packet types: %q %q", p.Type, p.Message)
	}
	if p.Event != "classUpdate" {
		t.Errorf("expected event classUpdate, got %q", p.Event)
	}
	if len(p.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(p.Args))
	}
	if !bytes.Contains(p.Args[0], []byte(`"status":true`)) {
		t.Errorf("arg payload lost: %s", p.Args[0])
	}
}

func TestDecode_EventWithAckID(t *testing.T) {
	p, err := Decode([]byte(`4213["help","guest1__ needs help."]`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if p.Event != "help" {
		t.Errorf("expected event help, got %q", p.Event)
	}
	if len(p.Args) != 1 {
		t.Errorf("expected 1 arg, got %d", len(p.Args))
	}
}

func TestDecode_Ping(t *testing.T) {
	p, err := Decode([]byte("2"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if p.Type != PacketPing {
		t.Errorf("expected ping, got %q", p.Type)
	}
}

func TestDecode_Handshake(t *testing.T) {
	p, err := Decode([]byte(`0{"sid":"abc123","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	h, err := DecodeHandshake(p)
	if err != nil {
		t.Fatalf("handshake decode failed: %v", err)
	}
	if h.SID != "abc123" {
		t.Errorf("expected sid abc123, got %q", h.SID)
	}
	if h.PingInterval != 25000 {
		t.Errorf("expected pingInterval 25000, got %d", h.PingInterval)
	}
}

func TestDecode_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		frame string
	}{
		{"empty", ""},
		{"unknown engine.io type", "9"},
		{"message without socket.io type", "4"},
		{"unknown socket.io type", "49"},
		{"event without array", "42"},
		{"event with bare digits", "4212"},
		{"event with empty array", "42[]"},
		{"event name not a string", "42[17]"},
		{"malformed json", `42["oops`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.frame)); err == nil {
				t.Errorf("expected error for frame %q", tc.frame)
			}
		})
	}
}

func TestDecode_TooLarge(t *testing.T) {
	frame := "42[\"x\",\"" + strings.Repeat("a", MaxFrameSize) + "\"]"
	if _, err := Decode([]byte(frame)); err == nil {
		t.Error("expected error for oversized frame")
	}
}
