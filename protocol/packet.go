package protocol

// Engine.IO packet types (first byte of every websocket text frame).
const (
	PacketOpen    = '0' // handshake JSON follows
	PacketClose   = '1'
	PacketPing    = '2' // server-initiated keepalive
	PacketPong    = '3'
	PacketMessage = '4' // Socket.IO packet follows
)

// Socket.IO packet types (second byte, only inside a PacketMessage frame).
const (
	MessageConnect      = '0'
	MessageDisconnect   = '1'
	MessageEvent        = '2'
	MessageAck          = '3'
	MessageConnectError = '4'
)

// Packet is a single decoded frame from the event channel.
// Event and Args are populated only for MessageEvent packets; Data carries
// the raw payload after the type bytes for everything else (handshake JSON,
// connect acknowledgements, error bodies).
type Packet struct {
	Type    byte
	Message byte
	Event   string
	Args    []RawArg
	Data    []byte
}

// Handshake is the JSON body of an Open packet.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}
