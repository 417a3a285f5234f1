package swarm

import (
	"context"

	"github.com/pollherd/pollherd/channel"
	"github.com/rs/zerolog"
)

// Binder attaches an event channel to a validated session.
type Binder interface {
	Bind(ctx context.Context, s *Session) error
}

// ChannelBinder opens the websocket event connection for a session,
// authenticated by replaying the session's cookie jar on the handshake.
type ChannelBinder struct {
	baseURL string
	logger  zerolog.Logger
}

// NewChannelBinder creates a binder dialing the target server.
func NewChannelBinder(baseURL string, logger zerolog.Logger) *ChannelBinder {
	return &ChannelBinder{baseURL: baseURL, logger: logger}
}

// Bind dials the event channel and attaches it to the session. Binding is
// fire-and-forget: no application-level acknowledgement is awaited.
func (b *ChannelBinder) Bind(ctx context.Context, s *Session) error {
	ch, err := channel.Dial(ctx, b.baseURL, s.Jar, b.logger.With().Str("session", s.Name).Logger())
	if err != nil {
		return &TransportError{Op: "channel bind", Err: err}
	}
	s.Channel = ch
	return nil
}
