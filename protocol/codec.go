package protocol

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// json is a drop-in replacement for encoding/json with better performance
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RawArg is one undecoded event argument. Callers unmarshal the arguments
// they care about; extra arguments are preserved untouched.
type RawArg = jsoniter.RawMessage

// MaxFrameSize bounds a single decoded frame to prevent excessive allocation
// from a misbehaving server.
const MaxFrameSize = 1 << 20

// EncodeEvent encodes a named event with its arguments into an Engine.IO
// message frame carrying a Socket.IO event packet: `42["name",args...]`.
func EncodeEvent(event string, args ...interface{}) ([]byte, error) {
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, event)
	payload = append(payload, args...)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event %q: %w", event, err)
	}

	frame := make([]byte, 0, len(data)+2)
	frame = append(frame, PacketMessage, MessageEvent)
	frame = append(frame, data...)
	return frame, nil
}

// EncodeConnect encodes the Socket.IO namespace-connect packet for the
// default namespace.
func EncodeConnect() []byte {
	return []byte{PacketMessage, MessageConnect}
}

// EncodePong encodes the Engine.IO pong frame sent in reply to a server ping.
func EncodePong() []byte {
	return []byte{PacketPong}
}

// Decode parses a single websocket text frame into a Packet.
func Decode(data []byte) (Packet, error) {
	if len(data) == 0 {
		return Packet{}, fmt.Errorf("empty frame")
	}
	if len(data) > MaxFrameSize {
		return Packet{}, fmt.Errorf("frame too large: %d bytes", len(data))
	}

	p := Packet{Type: data[0]}
	switch p.Type {
	case PacketOpen, PacketClose, PacketPing, PacketPong:
		p.Data = data[1:]
		return p, nil
	case PacketMessage:
		// fallthrough to Socket.IO parsing below
	default:
		return Packet{}, fmt.Errorf("unknown engine.io packet type %q", p.Type)
	}

	if len(data) < 2 {
		return Packet{}, fmt.Errorf("message frame missing socket.io type")
	}
	p.Message = data[1]
	rest := data[2:]

	switch p.Message {
	case MessageConnect, MessageDisconnect, MessageAck, MessageConnectError:
		p.Data = rest
		return p, nil
	case MessageEvent:
		// fallthrough to event parsing below
	default:
		return Packet{}, fmt.Errorf("unknown socket.io packet type %q", p.Message)
	}

	// An optional numeric ack id precedes the JSON array. This client never
	// requests acks but tolerates servers that attach ids anyway.
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}
	if len(rest) == 0 || rest[0] != '[' {
		return Packet{}, fmt.Errorf("event packet has no argument array")
	}

	var elems []RawArg
	if err := json.Unmarshal(rest, &elems); err != nil {
		return Packet{}, fmt.Errorf("unmarshal event payload: %w", err)
	}
	if len(elems) == 0 {
		return Packet{}, fmt.Errorf("event packet has empty argument array")
	}
	if err := json.Unmarshal(elems[0], &p.Event); err != nil {
		return Packet{}, fmt.Errorf("event name is not a string: %w", err)
	}
	p.Args = elems[1:]
	p.Data = rest
	return p, nil
}

// DecodeHandshake parses the JSON body of an Open packet.
func DecodeHandshake(p Packet) (Handshake, error) {
	if p.Type != PacketOpen {
		return Handshake{}, fmt.Errorf("not an open packet: type %q", p.Type)
	}
	var h Handshake
	if err := json.Unmarshal(p.Data, &h); err != nil {
		return Handshake{}, fmt.Errorf("unmarshal handshake: %w", err)
	}
	return h, nil
}
